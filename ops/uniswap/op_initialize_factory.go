package uniswap

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/chainlink-deployments-framework/operations"

	"github.com/uniswap/uniswap-migrate/contracts/uniswapexchange"
	"github.com/uniswap/uniswap-migrate/contracts/uniswapfactory"
	"github.com/uniswap/uniswap-migrate/ops"
)

var (
	ErrZeroAddress               = errors.New("zero address")
	ErrNotDeployed               = errors.New("no code at address")
	ErrFactoryAlreadyInitialized = errors.New("factory already initialized")
	ErrTemplateMismatch          = errors.New("factory exchange template does not match")
)

type FactoryState int

const (
	Uninitialized FactoryState = iota
	Initialized
)

func (s FactoryState) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initialized:
		return "Initialized"
	default:
		return fmt.Sprintf("FactoryState(%d)", int(s))
	}
}

// ContractCaller reads contract state without sending transactions.
type ContractCaller interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
}

// ReadFactoryState returns the factory's state and its exchange template.
func ReadFactoryState(ctx context.Context, c ContractCaller, factory common.Address) (FactoryState, common.Address, error) {
	data, err := uniswapfactory.EncodeExchangeTemplate()
	if err != nil {
		return Uninitialized, common.Address{}, err
	}
	out, err := c.Call(ctx, factory, data)
	if err != nil {
		return Uninitialized, common.Address{}, fmt.Errorf("read exchangeTemplate: %w", err)
	}
	template, err := uniswapfactory.DecodeExchangeTemplate(out)
	if err != nil {
		return Uninitialized, common.Address{}, err
	}
	if template == (common.Address{}) {
		return Uninitialized, template, nil
	}
	return Initialized, template, nil
}

// CheckDeployed fails unless addr is non-zero and holds code.
func CheckDeployed(ctx context.Context, c ContractCaller, name string, addr common.Address) error {
	if addr == (common.Address{}) {
		return fmt.Errorf("%s: %w", name, ErrZeroAddress)
	}
	code, err := c.CodeAt(ctx, addr)
	if err != nil {
		return fmt.Errorf("%s: get code: %w", name, err)
	}
	if len(code) == 0 {
		return fmt.Errorf("%s at %s: %w", name, addr.Hex(), ErrNotDeployed)
	}
	return nil
}

type InitializeFactoryInput struct {
	Factory  DeployedInstance `json:"factory"`
	Exchange DeployedInstance `json:"exchange"`
}

type InitializeFactoryOutput struct {
	Factory     common.Address `json:"factory"`
	Template    common.Address `json:"template"`
	TxHash      common.Hash    `json:"txHash"`
	BlockNumber uint64         `json:"blockNumber"`
}

var InitializeFactoryOp = operations.NewOperation(
	"initialize-uniswap-factory-op",
	semver.MustParse("0.1.0"),
	"Registers the exchange template on the Uniswap factory",
	initializeFactory,
)

func initializeFactory(b operations.Bundle, deps ops.EVMDeps, in ops.OpTxInput[InitializeFactoryInput]) (ops.OpTxResult[InitializeFactoryOutput], error) {
	output := ops.OpTxResult[InitializeFactoryOutput]{}
	ctx := b.GetContext()
	factory, exchange := in.Input.Factory.Address, in.Input.Exchange.Address

	if err := CheckDeployed(ctx, deps.Chain, uniswapfactory.Name, factory); err != nil {
		return output, err
	}
	if err := CheckDeployed(ctx, deps.Chain, uniswapexchange.Name, exchange); err != nil {
		return output, err
	}

	state, template, err := ReadFactoryState(ctx, deps.Chain, factory)
	if err != nil {
		return output, err
	}
	if state == Initialized {
		return output, fmt.Errorf("%w with template %s", ErrFactoryAlreadyInitialized, template.Hex())
	}

	data, err := uniswapfactory.EncodeInitializeFactory(exchange)
	if err != nil {
		return output, err
	}
	b.Logger.Infow("Initializing factory", "factory", factory, "exchange", exchange)
	c, err := deps.Chain.Transact(ctx, factory, data)
	if err != nil {
		return output, fmt.Errorf("initializeFactory: %w", err)
	}

	state, template, err = ReadFactoryState(ctx, deps.Chain, factory)
	if err != nil {
		return output, err
	}
	if state != Initialized || template != exchange {
		return output, fmt.Errorf("%w: have %s, want %s", ErrTemplateMismatch, template.Hex(), exchange.Hex())
	}
	b.Logger.Infow("Factory initialized", "factory", factory, "template", template, "tx", c.TxHash)

	output.Objects = InitializeFactoryOutput{
		Factory:     factory,
		Template:    template,
		TxHash:      c.TxHash,
		BlockNumber: c.BlockNumber,
	}
	return output, nil
}
