package migrate

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Stages of a deployment a DeploymentError can come from.
const (
	StageArtifacts = "artifacts"
	StageState     = "state"
	StageConnect   = "connect"
	StageDeploy    = "deploy"
)

var (
	ErrChainIDMismatch = errors.New("node chain id does not match the network")
	ErrStaleState      = errors.New("recorded deployment not found on chain, rerun with reset")
)

// DeploymentError reports a failure before or while deploying the contracts.
// Contract is empty when the failure is not specific to one contract.
type DeploymentError struct {
	Network  string
	Contract string
	Stage    string
	Err      error
}

func (e *DeploymentError) Error() string {
	if e.Contract == "" {
		return fmt.Sprintf("deployment on %s failed (%s): %v", e.Network, e.Stage, e.Err)
	}
	return fmt.Sprintf("deployment of %s on %s failed (%s): %v", e.Contract, e.Network, e.Stage, e.Err)
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// WiringError reports a failed or refused initializeFactory call.
type WiringError struct {
	Network  string
	Factory  common.Address
	Exchange common.Address
	Err      error
}

func (e *WiringError) Error() string {
	return fmt.Sprintf("initializing factory %s with exchange %s on %s failed: %v",
		e.Factory.Hex(), e.Exchange.Hex(), e.Network, e.Err)
}

func (e *WiringError) Unwrap() error {
	return e.Err
}
