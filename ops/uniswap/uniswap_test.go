package uniswap

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/smartcontractkit/chainlink-common/pkg/logger"
	cld_ops "github.com/smartcontractkit/chainlink-deployments-framework/operations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniswap/uniswap-migrate/contracts/uniswapexchange"
	"github.com/uniswap/uniswap-migrate/contracts/uniswapfactory"
	"github.com/uniswap/uniswap-migrate/ops"
	"github.com/uniswap/uniswap-migrate/pkg/artifacts"
	"github.com/uniswap/uniswap-migrate/pkg/chain"
	"github.com/uniswap/uniswap-migrate/testutils"
)

func newBundle(t *testing.T) cld_ops.Bundle {
	return cld_ops.NewBundle(context.Background, logger.Test(t), cld_ops.NewMemoryReporter())
}

func newDeps(t *testing.T, b *testutils.Backend) ops.EVMDeps {
	t.Helper()
	dir := testutils.GetBuildDir(t)
	exchange, err := artifacts.Load(dir, uniswapexchange.Name)
	require.NoError(t, err)
	factory, err := artifacts.Load(dir, uniswapfactory.Name)
	require.NoError(t, err)

	tr, err := chain.NewTransactor(t.Context(), logger.Test(t), b, nil, chain.TransactorConfig{
		GasLimit:     6_721_975,
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return ops.EVMDeps{Chain: tr, Exchange: exchange, Factory: factory}
}

func deployUniswap(t *testing.T, bundle cld_ops.Bundle, deps ops.EVMDeps) DeployUniswapOutput {
	t.Helper()
	report, err := cld_ops.ExecuteSequence(bundle, DeployUniswapSequence, deps, ops.OpTxInput[DeployUniswapInput]{})
	require.NoError(t, err, "failed to deploy Uniswap")
	return report.Output.Objects
}

func TestDeployUniswapSequence(t *testing.T) {
	t.Parallel()
	b := testutils.NewBackend(testutils.DevChainID, testutils.TestAccount0)
	deps := newDeps(t, b)

	out := deployUniswap(t, newBundle(t), deps)

	assert.Equal(t, uniswapexchange.Name, out.Exchange.Name)
	assert.Equal(t, crypto.CreateAddress(testutils.TestAccount0, 0), out.Exchange.Address)
	assert.True(t, out.Exchange.Confirmed())
	assert.Equal(t, uniswapfactory.Name, out.Factory.Name)
	assert.Equal(t, crypto.CreateAddress(testutils.TestAccount0, 1), out.Factory.Address)
	assert.Greater(t, out.Factory.BlockNumber, out.Exchange.BlockNumber)

	exchangeCode, err := b.CodeAt(t.Context(), out.Exchange.Address)
	require.NoError(t, err)
	assert.Equal(t, common.LeftPadBytes(testutils.TestAccount0.Bytes(), 32), exchangeCode[len(exchangeCode)-32:])

	state, _, err := ReadFactoryState(t.Context(), deps.Chain, out.Factory.Address)
	require.NoError(t, err)
	assert.Equal(t, Uninitialized, state)
}

func TestDeployExchangeExplicitOwner(t *testing.T) {
	t.Parallel()
	b := testutils.NewBackend(testutils.DevChainID, testutils.TestAccount0)
	deps := newDeps(t, b)

	report, err := cld_ops.ExecuteOperation(newBundle(t), DeployExchangeOp, deps, ops.OpTxInput[DeployExchangeInput]{
		Input: DeployExchangeInput{Owner: testutils.TestAccount1},
	})
	require.NoError(t, err)

	code, err := b.CodeAt(t.Context(), report.Output.Objects.Address)
	require.NoError(t, err)
	assert.Equal(t, common.LeftPadBytes(testutils.TestAccount1.Bytes(), 32), code[len(code)-32:])
}

func TestDeployReverted(t *testing.T) {
	t.Parallel()
	b := testutils.NewBackend(testutils.DevChainID, testutils.TestAccount0)
	b.RevertCreates = true
	deps := newDeps(t, b)

	_, err := deployExchange(newBundle(t), deps, ops.OpTxInput[DeployExchangeInput]{})
	require.ErrorIs(t, err, chain.ErrTxReverted)
	var contractErr *ContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, uniswapexchange.Name, contractErr.Contract)

	// the factory is never submitted after a failed exchange deploy
	before := len(b.Calls())
	_, err = cld_ops.ExecuteSequence(newBundle(t), DeployUniswapSequence, deps, ops.OpTxInput[DeployUniswapInput]{})
	require.Error(t, err)
	sends := 0
	for _, m := range b.Calls()[before:] {
		if m == "eth_sendTransaction" {
			sends++
		}
	}
	assert.Equal(t, 1, sends)
}

func TestDeployMissingArtifact(t *testing.T) {
	t.Parallel()
	b := testutils.NewBackend(testutils.DevChainID, testutils.TestAccount0)
	deps := newDeps(t, b)
	deps.Factory = nil

	_, err := deployFactory(newBundle(t), deps, ops.OpTxInput[DeployFactoryInput]{})
	require.ErrorIs(t, err, artifacts.ErrNoBytecode)
}

func TestInitializeFactoryOp(t *testing.T) {
	t.Parallel()
	b := testutils.NewBackend(testutils.DevChainID, testutils.TestAccount0)
	deps := newDeps(t, b)
	bundle := newBundle(t)
	deployed := deployUniswap(t, bundle, deps)

	report, err := cld_ops.ExecuteOperation(bundle, InitializeFactoryOp, deps, ops.OpTxInput[InitializeFactoryInput]{
		Input: InitializeFactoryInput{Factory: deployed.Factory, Exchange: deployed.Exchange},
	})
	require.NoError(t, err, "failed to initialize factory")

	out := report.Output.Objects
	assert.Equal(t, deployed.Factory.Address, out.Factory)
	assert.Equal(t, deployed.Exchange.Address, out.Template)
	assert.NotEqual(t, common.Hash{}, out.TxHash)
	assert.Equal(t, deployed.Exchange.Address, b.Template(deployed.Factory.Address))

	state, template, err := ReadFactoryState(t.Context(), deps.Chain, deployed.Factory.Address)
	require.NoError(t, err)
	assert.Equal(t, Initialized, state)
	assert.Equal(t, deployed.Exchange.Address, template)
}

func TestInitializeFactoryTwice(t *testing.T) {
	t.Parallel()
	b := testutils.NewBackend(testutils.DevChainID, testutils.TestAccount0)
	deps := newDeps(t, b)
	bundle := newBundle(t)
	deployed := deployUniswap(t, bundle, deps)
	in := ops.OpTxInput[InitializeFactoryInput]{
		Input: InitializeFactoryInput{Factory: deployed.Factory, Exchange: deployed.Exchange},
	}

	_, err := initializeFactory(bundle, deps, in)
	require.NoError(t, err)

	_, err = initializeFactory(bundle, deps, in)
	require.ErrorIs(t, err, ErrFactoryAlreadyInitialized)

	// a different template is rejected the same way
	other, err := deployExchange(bundle, deps, ops.OpTxInput[DeployExchangeInput]{})
	require.NoError(t, err)
	in.Input.Exchange = other.Objects
	_, err = initializeFactory(bundle, deps, in)
	require.ErrorIs(t, err, ErrFactoryAlreadyInitialized)
	assert.Equal(t, deployed.Exchange.Address, b.Template(deployed.Factory.Address))
}

func TestInitializeFactoryPreconditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      func(deployed DeployUniswapOutput) InitializeFactoryInput
		wantErr error
	}{
		{
			name: "zero exchange",
			in: func(d DeployUniswapOutput) InitializeFactoryInput {
				return InitializeFactoryInput{Factory: d.Factory}
			},
			wantErr: ErrZeroAddress,
		},
		{
			name: "zero factory",
			in: func(d DeployUniswapOutput) InitializeFactoryInput {
				return InitializeFactoryInput{Exchange: d.Exchange}
			},
			wantErr: ErrZeroAddress,
		},
		{
			name: "exchange without code",
			in: func(d DeployUniswapOutput) InitializeFactoryInput {
				d.Exchange.Address = common.HexToAddress("0x00000000000000000000000000000000000000ee")
				return InitializeFactoryInput{Factory: d.Factory, Exchange: d.Exchange}
			},
			wantErr: ErrNotDeployed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutils.NewBackend(testutils.DevChainID, testutils.TestAccount0)
			deps := newDeps(t, b)
			bundle := newBundle(t)
			deployed := deployUniswap(t, bundle, deps)
			before := len(b.Calls())

			_, err := initializeFactory(bundle, deps, ops.OpTxInput[InitializeFactoryInput]{Input: tt.in(deployed)})
			require.ErrorIs(t, err, tt.wantErr)
			for _, m := range b.Calls()[before:] {
				assert.NotEqual(t, "eth_sendTransaction", m)
			}
			assert.Equal(t, common.Address{}, b.Template(deployed.Factory.Address))
		})
	}
}

func TestDeployExchangeWithoutConstructor(t *testing.T) {
	t.Parallel()
	b := testutils.NewBackend(testutils.DevChainID, testutils.TestAccount0)
	deps := newDeps(t, b)
	exchange, err := artifacts.Parse(uniswapexchange.Name, []byte(`{
  "contractName": "uniswap_exchange",
  "abi": [{"type": "function", "name": "setup", "inputs": [{"name": "token_addr", "type": "address"}], "outputs": [], "constant": false, "payable": false}],
  "bytecode": "0x600a"
}`))
	require.NoError(t, err)
	deps.Exchange = exchange

	out, err := deployExchange(newBundle(t), deps, ops.OpTxInput[DeployExchangeInput]{})
	require.NoError(t, err)
	code, err := b.CodeAt(t.Context(), out.Objects.Address)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x0a}, code)
}

func TestInitializeFactoryRequiresFactoryCode(t *testing.T) {
	t.Parallel()
	b := testutils.NewBackend(testutils.DevChainID, testutils.TestAccount0)
	deps := newDeps(t, b)
	bundle := newBundle(t)
	deployed := deployUniswap(t, bundle, deps)

	// the node lost the factory, e.g. after a restart
	b.SetCode(deployed.Factory.Address, nil)
	sends := 0
	for _, m := range b.Calls() {
		if m == "eth_sendTransaction" {
			sends++
		}
	}

	_, err := initializeFactory(bundle, deps, ops.OpTxInput[InitializeFactoryInput]{
		Input: InitializeFactoryInput{Factory: deployed.Factory, Exchange: deployed.Exchange},
	})
	require.ErrorIs(t, err, ErrNotDeployed)
	require.ErrorContains(t, err, uniswapfactory.Name)

	after := 0
	for _, m := range b.Calls() {
		if m == "eth_sendTransaction" {
			after++
		}
	}
	assert.Equal(t, sends, after)
}
