package uniswap

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/chainlink-deployments-framework/operations"

	"github.com/uniswap/uniswap-migrate/contracts/uniswapexchange"
	"github.com/uniswap/uniswap-migrate/contracts/uniswapfactory"
	"github.com/uniswap/uniswap-migrate/ops"
	"github.com/uniswap/uniswap-migrate/pkg/artifacts"
)

// DeployedInstance is a contract whose creation receipt was confirmed with
// status 1.
type DeployedInstance struct {
	Name        string         `json:"name"`
	Address     common.Address `json:"address"`
	TxHash      common.Hash    `json:"txHash"`
	BlockNumber uint64         `json:"blockNumber"`
}

// Confirmed reports whether d refers to a contract that was actually deployed.
func (d DeployedInstance) Confirmed() bool {
	return d.Address != (common.Address{}) && d.TxHash != (common.Hash{})
}

// ContractError names the contract a deployment failed for.
type ContractError struct {
	Contract string
	Err      error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("deploy %s: %v", e.Contract, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

type DeployExchangeInput struct {
	// Owner defaults to the sending account.
	Owner common.Address `json:"owner"`
}

type DeployFactoryInput struct{}

var DeployExchangeOp = operations.NewOperation(
	"deploy-uniswap-exchange-op",
	semver.MustParse("0.1.0"),
	"Deploys the Uniswap exchange template",
	deployExchange,
)

var DeployFactoryOp = operations.NewOperation(
	"deploy-uniswap-factory-op",
	semver.MustParse("0.1.0"),
	"Deploys the Uniswap factory",
	deployFactory,
)

func deployExchange(b operations.Bundle, deps ops.EVMDeps, in ops.OpTxInput[DeployExchangeInput]) (ops.OpTxResult[DeployedInstance], error) {
	owner := in.Input.Owner
	if owner == (common.Address{}) {
		owner = deps.Chain.From()
	}
	args := uniswapexchange.ConstructorArgs{Owner: owner}.Values()
	if deps.Exchange != nil && len(deps.Exchange.ABI.Constructor.Inputs) == 0 {
		// the Vyper template declares no constructor
		b.Logger.Warnw("Exchange artifact takes no constructor arguments, owner not passed", "owner", owner)
		args = nil
	}

	instance, err := deploy(b, deps, deps.Exchange, uniswapexchange.Name, args...)
	if err != nil {
		return ops.OpTxResult[DeployedInstance]{}, err
	}
	return ops.OpTxResult[DeployedInstance]{Objects: instance}, nil
}

func deployFactory(b operations.Bundle, deps ops.EVMDeps, _ ops.OpTxInput[DeployFactoryInput]) (ops.OpTxResult[DeployedInstance], error) {
	instance, err := deploy(b, deps, deps.Factory, uniswapfactory.Name)
	if err != nil {
		return ops.OpTxResult[DeployedInstance]{}, err
	}
	return ops.OpTxResult[DeployedInstance]{Objects: instance}, nil
}

func deploy(b operations.Bundle, deps ops.EVMDeps, artifact *artifacts.Artifact, name string, args ...any) (DeployedInstance, error) {
	if artifact == nil {
		return DeployedInstance{}, &ContractError{Contract: name, Err: artifacts.ErrNoBytecode}
	}
	data, err := artifact.DeployData(args...)
	if err != nil {
		return DeployedInstance{}, &ContractError{Contract: name, Err: err}
	}

	b.Logger.Infow("Deploying contract", "contract", name, "from", deps.Chain.From(), "size", len(data))
	c, err := deps.Chain.Deploy(b.GetContext(), data)
	if err != nil {
		return DeployedInstance{}, &ContractError{Contract: name, Err: err}
	}
	b.Logger.Infow("Contract deployed", "contract", name, "address", c.ContractAddress, "tx", c.TxHash, "block", c.BlockNumber, "gasUsed", c.GasUsed)

	return DeployedInstance{
		Name:        name,
		Address:     c.ContractAddress,
		TxHash:      c.TxHash,
		BlockNumber: c.BlockNumber,
	}, nil
}
