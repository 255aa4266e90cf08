package config

import (
	"fmt"
	"math/big"
	"strings"

	commoncfg "github.com/smartcontractkit/chainlink-common/pkg/config"
)

const (
	EnvMnemonic          = "MNEMONIC"
	EnvInfuraAccessToken = "INFURA_ACCESS_TOKEN"
	EnvGasPrice          = "GAS_PRICE"
)

// DefaultGasPriceWei is used when GAS_PRICE is unset.
const DefaultGasPriceWei int64 = 1_000_000_000

// Config holds the process-wide secrets and gas settings. It is built once at
// process entry and passed to the resolver; nothing below cmd/ reads the
// environment.
type Config struct {
	Mnemonic          string
	InfuraAccessToken string
	gasPrice          *big.Int
}

// New returns a Config. A nil gasPrice selects DefaultGasPriceWei.
func New(mnemonic, infuraAccessToken string, gasPrice *big.Int) Config {
	if gasPrice == nil {
		gasPrice = big.NewInt(DefaultGasPriceWei)
	}
	return Config{
		Mnemonic:          mnemonic,
		InfuraAccessToken: infuraAccessToken,
		gasPrice:          new(big.Int).Set(gasPrice),
	}
}

// FromEnv builds a Config from the given lookup function, normally os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	var gasPrice *big.Int
	if raw := strings.TrimSpace(getenv(EnvGasPrice)); raw != "" {
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok || v.Sign() < 0 {
			return Config{}, &ConfigurationError{
				Err: commoncfg.ErrInvalid{Name: EnvGasPrice, Value: raw, Msg: "must be a non-negative integer amount of wei"},
			}
		}
		gasPrice = v
	}
	return New(
		strings.TrimSpace(getenv(EnvMnemonic)),
		strings.TrimSpace(getenv(EnvInfuraAccessToken)),
		gasPrice,
	), nil
}

// GasPrice returns a copy of the configured gas price in wei.
func (c Config) GasPrice() *big.Int {
	if c.gasPrice == nil {
		return big.NewInt(DefaultGasPriceWei)
	}
	return new(big.Int).Set(c.gasPrice)
}

func (c Config) String() string {
	return fmt.Sprintf("Config{Mnemonic:%s InfuraAccessToken:%s GasPrice:%s}",
		redact(c.Mnemonic), redact(c.InfuraAccessToken), c.GasPrice())
}

func redact(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "<redacted>"
}
