package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	commoncfg "github.com/smartcontractkit/chainlink-common/pkg/config"
	"github.com/smartcontractkit/chainlink-common/pkg/logger"
	cli "github.com/urfave/cli/v2"

	"github.com/uniswap/uniswap-migrate/pkg/config"
	"github.com/uniswap/uniswap-migrate/pkg/keys"
	"github.com/uniswap/uniswap-migrate/pkg/migrate"
)

func main() {
	// a missing .env is fine, the variables may come from the environment
	_ = godotenv.Load()

	app := newApp(os.Getenv)
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func newApp(getenv func(string) string) *cli.App {
	app := cli.NewApp()
	app.Name = "uniswap-migrate"
	app.Usage = "Deploys the Uniswap exchange template and factory and wires them together"
	app.Commands = []*cli.Command{
		{
			Name:   "migrate",
			Usage:  "runs the pending migrations against a network",
			Flags:  MigrateFlags,
			Action: migrateAction(getenv),
		},
		{
			Name:   "networks",
			Usage:  "lists the recognized networks",
			Flags:  NetworksFlags,
			Action: networksAction(getenv),
		},
	}
	return app
}

func resolver(c *cli.Context, getenv func(string) string) (*config.Resolver, error) {
	cfg, err := config.FromEnv(getenv)
	if err != nil {
		return nil, err
	}
	var overrides *config.TOMLConfig
	if path := c.Path(ConfigFlag.Name); path != "" {
		overrides, err = config.LoadTOMLConfig(path)
		if err != nil {
			return nil, err
		}
	}
	return config.NewResolver(cfg, overrides), nil
}

func migrateAction(getenv func(string) string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := resolver(c, getenv)
		if err != nil {
			return err
		}
		index, err := accountIndex(c)
		if err != nil {
			return err
		}
		lggr, err := logger.New()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = lggr.Sync() }()

		ctx, cancel := context.WithTimeout(c.Context, c.Duration(TimeoutFlag.Name))
		defer cancel()

		runner := migrate.NewRunner(lggr, r, migrate.Options{
			Network:      c.String(NetworkFlag.Name),
			ArtifactsDir: c.Path(ArtifactsFlag.Name),
			StateDir:     c.Path(StateDirFlag.Name),
			Reset:        c.Bool(ResetFlag.Name),
			AccountIndex: index,
			PollInterval: c.Duration(PollIntervalFlag.Name),
		})
		res, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		return writeJSON(c, res)
	}
}

func accountIndex(c *cli.Context) (uint32, error) {
	v := c.Uint(AccountIndexFlag.Name)
	if v > keys.MaxAccountIndex {
		return 0, &config.ConfigurationError{Err: commoncfg.ErrInvalid{
			Name:  AccountIndexFlag.Name,
			Value: v,
			Msg:   keys.ErrInvalidAccountIndex.Error(),
		}}
	}
	return uint32(v), nil
}

type networkInfo struct {
	Name      string `json:"name"`
	Endpoint  string `json:"endpoint"`
	NetworkID uint64 `json:"networkId"`
	GasPrice  string `json:"gasPrice"`
	GasLimit  uint64 `json:"gasLimit"`
	Signing   bool   `json:"signing"`
}

func networksAction(getenv func(string) string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := resolver(c, getenv)
		if err != nil {
			return err
		}
		var out []networkInfo
		for _, name := range config.Names() {
			p, err := r.Resolve(name)
			if err != nil {
				return err
			}
			info := networkInfo{
				Name:      p.Name,
				Endpoint:  p.RedactedEndpoint(),
				NetworkID: p.NetworkID,
				GasPrice:  "node",
				GasLimit:  p.GasLimit,
				Signing:   p.Signing,
			}
			if p.GasPrice != nil {
				info.GasPrice = p.GasPrice.String()
			}
			out = append(out, info)
		}
		return writeJSON(c, out)
	}
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
