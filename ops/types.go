package ops

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/uniswap/uniswap-migrate/pkg/artifacts"
	"github.com/uniswap/uniswap-migrate/pkg/chain"
)

// Transactor is the part of chain.Transactor the operations use.
type Transactor interface {
	From() common.Address
	Deploy(ctx context.Context, data []byte) (chain.Confirmation, error)
	Transact(ctx context.Context, to common.Address, data []byte) (chain.Confirmation, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
}

var _ Transactor = (*chain.Transactor)(nil)

type EVMDeps struct {
	Chain    Transactor
	Exchange *artifacts.Artifact
	Factory  *artifacts.Artifact
}

type OpTxInput[I any] struct {
	Input I
}

type OpTxResult[O any] struct {
	Objects O
}
