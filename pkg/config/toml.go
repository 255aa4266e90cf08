package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	commoncfg "github.com/smartcontractkit/chainlink-common/pkg/config"
)

// TOMLConfig holds per-network overrides, e.g.
//
//	[Networks.development]
//	Port = 7545
//
//	[Networks.ropsten]
//	GasLimit = 4000000
type TOMLConfig struct {
	Networks map[string]*NetworkOverride
}

// NetworkOverride replaces the set fields of a recognized network profile.
type NetworkOverride struct {
	Host     *string
	Port     *uint16
	URL      *string
	GasLimit *uint64
}

// NewDecodedTOMLConfig decodes and validates raw TOML. Unknown fields are
// rejected.
func NewDecodedTOMLConfig(raw string) (*TOMLConfig, error) {
	var cfg TOMLConfig
	d := toml.NewDecoder(strings.NewReader(raw)).DisallowUnknownFields()
	if err := d.Decode(&cfg); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("failed to decode TOML: %w", err)}
	}
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadTOMLConfig reads the override file at path.
func LoadTOMLConfig(path string) (*TOMLConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	return NewDecodedTOMLConfig(string(b))
}

func (c *TOMLConfig) ValidateConfig() error {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n, ok := networks[name]
		if !ok {
			return &UnknownNetworkError{Name: name}
		}
		o := c.Networks[name]
		if o == nil {
			continue
		}
		if err := o.validate(n); err != nil {
			return &ConfigurationError{Network: name, Err: err}
		}
	}
	return nil
}

func (o *NetworkOverride) validate(n network) (err error) {
	if o.Host != nil {
		if n.url != "" {
			err = errors.Join(err, commoncfg.ErrInvalid{Name: "Host", Value: *o.Host, Msg: "only networks reached through a local node take a host"})
		} else if strings.TrimSpace(*o.Host) == "" {
			err = errors.Join(err, commoncfg.ErrEmpty{Name: "Host", Msg: "must not be empty"})
		}
	}
	if o.Port != nil {
		if n.url != "" {
			err = errors.Join(err, commoncfg.ErrInvalid{Name: "Port", Value: *o.Port, Msg: "only networks reached through a local node take a port"})
		} else if *o.Port == 0 {
			err = errors.Join(err, commoncfg.ErrInvalid{Name: "Port", Value: *o.Port, Msg: "must be greater than zero"})
		}
	}
	if o.URL != nil {
		if *o.URL == "" {
			err = errors.Join(err, commoncfg.ErrEmpty{Name: "URL", Msg: "must not be empty"})
		} else if u, perr := url.Parse(*o.URL); perr != nil || u.Host == "" {
			err = errors.Join(err, commoncfg.ErrInvalid{Name: "URL", Value: *o.URL, Msg: "must be an absolute URL"})
		} else {
			switch u.Scheme {
			case "http", "https", "ws", "wss":
			default:
				err = errors.Join(err, commoncfg.ErrInvalid{Name: "URL", Value: *o.URL, Msg: "scheme must be http, https, ws or wss"})
			}
		}
	}
	if o.GasLimit != nil && *o.GasLimit == 0 {
		err = errors.Join(err, commoncfg.ErrInvalid{Name: "GasLimit", Value: *o.GasLimit, Msg: "must be greater than zero"})
	}
	return err
}

func (o *NetworkOverride) applyTo(p *NetworkProfile) {
	if o.Host != nil {
		p.Host = *o.Host
	}
	if o.Port != nil {
		p.Port = *o.Port
	}
	if o.URL != nil {
		p.URL = *o.URL
		// a replaced endpoint no longer embeds the access token
		p.infura = false
	}
	if o.GasLimit != nil {
		p.GasLimit = *o.GasLimit
	}
}
