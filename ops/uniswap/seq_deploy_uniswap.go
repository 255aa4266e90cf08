package uniswap

import (
	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/chainlink-deployments-framework/operations"

	"github.com/uniswap/uniswap-migrate/ops"
)

type DeployUniswapInput struct {
	Owner common.Address `json:"owner"`
}

type DeployUniswapOutput struct {
	Exchange DeployedInstance `json:"exchange"`
	Factory  DeployedInstance `json:"factory"`
}

var DeployUniswapSequence = operations.NewSequence(
	"deploy-uniswap-seq",
	semver.MustParse("0.1.0"),
	"Deploys the Uniswap exchange template followed by the factory",
	deployUniswapSequence,
)

func deployUniswapSequence(b operations.Bundle, deps ops.EVMDeps, in ops.OpTxInput[DeployUniswapInput]) (ops.OpTxResult[DeployUniswapOutput], error) {
	output := ops.OpTxResult[DeployUniswapOutput]{}

	exchange, err := operations.ExecuteOperation(b, DeployExchangeOp, deps, ops.OpTxInput[DeployExchangeInput]{
		Input: DeployExchangeInput{Owner: in.Input.Owner},
	})
	if err != nil {
		return output, err
	}
	output.Objects.Exchange = exchange.Output.Objects

	// the factory is only deployed once the exchange is confirmed
	factory, err := operations.ExecuteOperation(b, DeployFactoryOp, deps, ops.OpTxInput[DeployFactoryInput]{})
	if err != nil {
		return output, err
	}
	output.Objects.Factory = factory.Output.Objects

	return output, nil
}
