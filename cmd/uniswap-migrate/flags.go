package main

import (
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/uniswap/uniswap-migrate/pkg/artifacts"
	"github.com/uniswap/uniswap-migrate/pkg/chain"
)

const envVarPrefix = "UNISWAP_MIGRATE"

func prefixEnvVars(name string) []string {
	return []string{envVarPrefix + "_" + name}
}

var (
	NetworkFlag = &cli.StringFlag{
		Name:     "network",
		Usage:    "Network to migrate (development, ropsten, mainnet, rskTestnet, rsk)",
		EnvVars:  prefixEnvVars("NETWORK"),
		Required: true,
	}
	ConfigFlag = &cli.PathFlag{
		Name:    "config",
		Usage:   "Optional TOML file overriding network endpoints and gas limits",
		EnvVars: prefixEnvVars("CONFIG"),
	}
	ArtifactsFlag = &cli.PathFlag{
		Name:    "artifacts",
		Usage:   "Directory holding the compiled contract artifacts",
		EnvVars: prefixEnvVars("ARTIFACTS"),
		Value:   artifacts.DefaultDir,
	}
	StateDirFlag = &cli.PathFlag{
		Name:    "state-dir",
		Usage:   "Directory recording completed migrations per network; empty disables it",
		EnvVars: prefixEnvVars("STATE_DIR"),
		Value:   "migrations",
	}
	ResetFlag = &cli.BoolFlag{
		Name:    "reset",
		Usage:   "Run all migrations from the beginning, ignoring recorded state",
		EnvVars: prefixEnvVars("RESET"),
	}
	AccountIndexFlag = &cli.UintFlag{
		Name:    "account-index",
		Usage:   "Index of the mnemonic-derived account that sends the transactions",
		EnvVars: prefixEnvVars("ACCOUNT_INDEX"),
	}
	TimeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		Usage:   "Overall time limit for the migration",
		EnvVars: prefixEnvVars("TIMEOUT"),
		Value:   30 * time.Minute,
	}
	PollIntervalFlag = &cli.DurationFlag{
		Name:    "poll-interval",
		Usage:   "How often to poll for transaction receipts",
		EnvVars: prefixEnvVars("POLL_INTERVAL"),
		Value:   chain.DefaultPollInterval,
	}
)

var MigrateFlags = []cli.Flag{
	NetworkFlag,
	ConfigFlag,
	ArtifactsFlag,
	StateDirFlag,
	ResetFlag,
	AccountIndexFlag,
	TimeoutFlag,
	PollIntervalFlag,
}

var NetworksFlags = []cli.Flag{
	ConfigFlag,
}
