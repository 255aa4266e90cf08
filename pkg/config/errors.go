package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingMnemonic    = errors.New("MNEMONIC is not set")
	ErrMissingAccessToken = errors.New("INFURA_ACCESS_TOKEN is not set")
)

// UnknownNetworkError is returned when a network name is not one of the
// recognized networks.
type UnknownNetworkError struct {
	Name string
}

func (e *UnknownNetworkError) Error() string {
	return fmt.Sprintf("unknown network %q (known networks: %s)", e.Name, strings.Join(Names(), ", "))
}

// ConfigurationError reports a setting that is missing or invalid for a
// network profile. Network is empty for process-wide settings.
type ConfigurationError struct {
	Network string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Network == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("network %s: configuration: %v", e.Network, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
