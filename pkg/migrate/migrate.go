// Package migrate runs the Uniswap migrations against one network: deploy the
// exchange template and the factory, then initialize the factory with the
// template.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/smartcontractkit/chainlink-common/pkg/logger"
	"github.com/smartcontractkit/chainlink-deployments-framework/operations"

	"github.com/uniswap/uniswap-migrate/contracts/uniswapexchange"
	"github.com/uniswap/uniswap-migrate/contracts/uniswapfactory"
	"github.com/uniswap/uniswap-migrate/ops"
	"github.com/uniswap/uniswap-migrate/ops/uniswap"
	"github.com/uniswap/uniswap-migrate/pkg/artifacts"
	"github.com/uniswap/uniswap-migrate/pkg/chain"
	"github.com/uniswap/uniswap-migrate/pkg/config"
	"github.com/uniswap/uniswap-migrate/pkg/keys"
)

const (
	MigrationDeployUniswap     = 1
	MigrationInitializeFactory = 2
)

// DialFunc connects to a JSON-RPC endpoint.
type DialFunc func(ctx context.Context, endpoint string) (chain.Client, error)

type Options struct {
	Network      string
	ArtifactsDir string
	// StateDir is where per-network state files live. Empty disables state.
	StateDir string
	// Reset ignores previously recorded migrations.
	Reset        bool
	AccountIndex uint32
	PollInterval time.Duration
	// Dial defaults to chain.Dial.
	Dial DialFunc
}

// Result is the outcome of a successful run.
type Result struct {
	Network        string                          `json:"network"`
	ChainID        uint64                          `json:"chainId"`
	ChainName      string                          `json:"chainName,omitempty"`
	ChainSelector  uint64                          `json:"chainSelector,omitempty"`
	From           common.Address                  `json:"from"`
	Exchange       uniswap.DeployedInstance        `json:"exchange"`
	Factory        uniswap.DeployedInstance        `json:"factory"`
	Initialization uniswap.InitializeFactoryOutput `json:"initialization"`
	Skipped        []string                        `json:"skipped,omitempty"`
}

type migration struct {
	id   int
	name string
	// run applies the migration and records its outputs in the state.
	run func(ctx context.Context, r *run) error
	// verify checks that a recorded migration still holds on chain.
	verify func(ctx context.Context, r *run) error
}

var migrations = []migration{
	{id: MigrationDeployUniswap, name: "deploy_uniswap", run: deployUniswap, verify: verifyDeployment},
	{id: MigrationInitializeFactory, name: "initialize_factory", run: initializeFactory, verify: verifyInitialization},
}

type Runner struct {
	lggr     logger.Logger
	resolver *config.Resolver
	opts     Options
}

func NewRunner(lggr logger.Logger, resolver *config.Resolver, opts Options) *Runner {
	if opts.ArtifactsDir == "" {
		opts.ArtifactsDir = artifacts.DefaultDir
	}
	if opts.Dial == nil {
		opts.Dial = chain.Dial
	}
	return &Runner{lggr: logger.Named(lggr, "Migrate"), resolver: resolver, opts: opts}
}

type run struct {
	network string
	bundle  operations.Bundle
	deps    ops.EVMDeps
	state   *State
	result  *Result
}

// Run applies the pending migrations in order. Configuration problems are
// reported before any network call is made.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	name := r.opts.Network
	profile, err := r.resolver.Resolve(name)
	if err != nil {
		return Result{}, err
	}
	if err := profile.Validate(); err != nil {
		return Result{}, err
	}

	var signer chain.Signer
	if profile.Signing {
		s, err := keys.FromMnemonic(profile.Mnemonic(), r.opts.AccountIndex)
		if err != nil {
			return Result{}, &config.ConfigurationError{Network: name, Err: err}
		}
		signer = s
	}

	exchange, err := artifacts.Load(r.opts.ArtifactsDir, uniswapexchange.Name)
	if err != nil {
		return Result{}, &DeploymentError{Network: name, Contract: uniswapexchange.Name, Stage: StageArtifacts, Err: err}
	}
	factory, err := artifacts.Load(r.opts.ArtifactsDir, uniswapfactory.Name)
	if err != nil {
		return Result{}, &DeploymentError{Network: name, Contract: uniswapfactory.Name, Stage: StageArtifacts, Err: err}
	}

	state := &State{Network: name}
	if r.opts.StateDir != "" && !r.opts.Reset {
		state, err = LoadState(StatePath(r.opts.StateDir, name), name)
		if err != nil {
			return Result{}, &DeploymentError{Network: name, Stage: StageState, Err: err}
		}
	}

	lggr := logger.With(r.lggr, "network", name)
	lggr.Infow("Connecting", "endpoint", profile.RedactedEndpoint())
	client, err := r.opts.Dial(ctx, profile.Endpoint())
	if err != nil {
		return Result{}, &DeploymentError{Network: name, Stage: StageConnect, Err: err}
	}
	defer client.Close()

	tr, err := chain.NewTransactor(ctx, lggr, client, signer, chain.TransactorConfig{
		GasPrice:     profile.GasPrice,
		GasLimit:     profile.GasLimit,
		PollInterval: r.opts.PollInterval,
	})
	if err != nil {
		return Result{}, &DeploymentError{Network: name, Stage: StageConnect, Err: err}
	}
	chainID := tr.ChainID()
	if !profile.AcceptsAnyNetwork() && chainID != profile.NetworkID {
		return Result{}, &DeploymentError{Network: name, Stage: StageConnect,
			Err: fmt.Errorf("%w: have %d, want %d", ErrChainIDMismatch, chainID, profile.NetworkID)}
	}
	if state.ChainID != 0 && state.ChainID != chainID {
		return Result{}, &DeploymentError{Network: name, Stage: StageState,
			Err: fmt.Errorf("%w: state recorded for chain %d, node reports %d", ErrStaleState, state.ChainID, chainID)}
	}
	state.ChainID = chainID

	result := Result{Network: name, ChainID: chainID, From: tr.From()}
	if details, err := chainsel.GetChainDetailsByChainIDAndFamily(strconv.FormatUint(chainID, 10), chainsel.FamilyEVM); err == nil {
		result.ChainName = details.ChainName
		result.ChainSelector = details.ChainSelector
	} else {
		lggr.Debugw("No chain selector for chain", "chainID", chainID)
	}
	lggr.Infow("Connected", "chainID", chainID, "chainName", result.ChainName, "from", tr.From())

	rn := &run{
		network: name,
		bundle:  operations.NewBundle(func() context.Context { return ctx }, lggr, operations.NewMemoryReporter()),
		deps:    ops.EVMDeps{Chain: tr, Exchange: exchange, Factory: factory},
		state:   state,
		result:  &result,
	}

	for _, m := range migrations {
		if m.id <= state.LastCompleted {
			if err := m.verify(ctx, rn); err != nil {
				return Result{}, err
			}
			lggr.Infow("Skipping completed migration", "id", m.id, "migration", m.name)
			result.Skipped = append(result.Skipped, m.name)
			continue
		}

		lggr.Infow("Running migration", "id", m.id, "migration", m.name)
		if err := m.run(ctx, rn); err != nil {
			lggr.Errorw("Migration failed", "id", m.id, "migration", m.name, "err", err)
			return Result{}, err
		}
		state.LastCompleted = m.id
		if err := r.save(state); err != nil {
			return Result{}, &DeploymentError{Network: name, Stage: StageState, Err: err}
		}
	}
	return result, nil
}

func (r *Runner) save(s *State) error {
	if r.opts.StateDir == "" {
		return nil
	}
	return s.Save(StatePath(r.opts.StateDir, s.Network))
}

func deployUniswap(_ context.Context, r *run) error {
	report, err := operations.ExecuteSequence(r.bundle, uniswap.DeployUniswapSequence, r.deps, ops.OpTxInput[uniswap.DeployUniswapInput]{})
	if err != nil {
		derr := &DeploymentError{Network: r.network, Stage: StageDeploy, Err: err}
		var cerr *uniswap.ContractError
		if errors.As(err, &cerr) {
			derr.Contract = cerr.Contract
		}
		return derr
	}

	out := report.Output.Objects
	r.state.Exchange, r.state.Factory = &out.Exchange, &out.Factory
	r.result.Exchange, r.result.Factory = out.Exchange, out.Factory
	return nil
}

func verifyDeployment(ctx context.Context, r *run) error {
	if r.state.Exchange == nil || r.state.Factory == nil {
		return &DeploymentError{Network: r.network, Stage: StageState, Err: ErrStaleState}
	}
	for _, d := range []*uniswap.DeployedInstance{r.state.Exchange, r.state.Factory} {
		if err := uniswap.CheckDeployed(ctx, r.deps.Chain, d.Name, d.Address); err != nil {
			return &DeploymentError{Network: r.network, Contract: d.Name, Stage: StageState,
				Err: fmt.Errorf("%w: %w", ErrStaleState, err)}
		}
	}
	r.result.Exchange, r.result.Factory = *r.state.Exchange, *r.state.Factory
	return nil
}

func initializeFactory(_ context.Context, r *run) error {
	in := uniswap.InitializeFactoryInput{Factory: r.result.Factory, Exchange: r.result.Exchange}
	report, err := operations.ExecuteOperation(r.bundle, uniswap.InitializeFactoryOp, r.deps, ops.OpTxInput[uniswap.InitializeFactoryInput]{Input: in})
	if err != nil {
		return &WiringError{Network: r.network, Factory: in.Factory.Address, Exchange: in.Exchange.Address, Err: err}
	}

	out := report.Output.Objects
	r.state.Initialization = &out
	r.result.Initialization = out
	return nil
}

func verifyInitialization(ctx context.Context, r *run) error {
	factory, exchange := r.result.Factory.Address, r.result.Exchange.Address
	state, template, err := uniswap.ReadFactoryState(ctx, r.deps.Chain, factory)
	if err != nil {
		return &WiringError{Network: r.network, Factory: factory, Exchange: exchange, Err: err}
	}
	if state != uniswap.Initialized || template != exchange {
		return &WiringError{Network: r.network, Factory: factory, Exchange: exchange,
			Err: fmt.Errorf("%w: have %s", uniswap.ErrTemplateMismatch, template.Hex())}
	}
	if r.state.Initialization != nil {
		r.result.Initialization = *r.state.Initialization
	}
	return nil
}
