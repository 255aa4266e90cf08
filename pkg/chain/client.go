package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
	"github.com/lmittmann/w3/w3types"
)

// ErrNotFound is returned by TransactionReceipt while a transaction is not
// yet included.
var ErrNotFound = ethereum.NotFound

// Client is the subset of the node's JSON-RPC API used by migrations.
type Client interface {
	ChainID(ctx context.Context) (uint64, error)
	// Accounts lists the accounts the node can sign for.
	Accounts(ctx context.Context) ([]common.Address, error)
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
	// SendTransaction asks the node to sign and submit tx with one of its
	// own accounts.
	SendTransaction(ctx context.Context, tx NodeTx) (common.Hash, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	Close() error
}

// NodeTx is a transaction signed by the node (eth_sendTransaction).
type NodeTx struct {
	From     common.Address
	To       *common.Address
	Nonce    uint64
	Gas      uint64
	GasPrice *big.Int
	Data     []byte
}

type sendTxArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to,omitempty"`
	Nonce    hexutil.Uint64  `json:"nonce"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Data     hexutil.Bytes   `json:"data"`
}

// RPCClient implements Client over JSON-RPC.
type RPCClient struct {
	rpc *rpc.Client
	w3  *w3.Client
}

var _ Client = (*RPCClient)(nil)

func Dial(ctx context.Context, endpoint string) (Client, error) {
	c, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return &RPCClient{rpc: c, w3: w3.NewClient(c)}, nil
}

func (c *RPCClient) ChainID(ctx context.Context) (uint64, error) {
	var id uint64
	if err := c.w3.CallCtx(ctx, eth.ChainID().Returns(&id)); err != nil {
		return 0, fmt.Errorf("get chain id: %w", err)
	}
	return id, nil
}

func (c *RPCClient) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	return accounts, nil
}

func (c *RPCClient) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	if err := c.w3.CallCtx(ctx, eth.Nonce(account, nil).Returns(&nonce)); err != nil {
		return 0, fmt.Errorf("get nonce: %w", err)
	}
	return nonce, nil
}

func (c *RPCClient) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	var code []byte
	if err := c.w3.CallCtx(ctx, eth.Code(account, nil).Returns(&code)); err != nil {
		return nil, fmt.Errorf("get code: %w", err)
	}
	return code, nil
}

func (c *RPCClient) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var out []byte
	msg := &w3types.Message{To: &to, Input: data}
	if err := c.w3.CallCtx(ctx, eth.Call(msg, nil, nil).Returns(&out)); err != nil {
		return nil, fmt.Errorf("call %s: %w", to.Hex(), err)
	}
	return out, nil
}

func (c *RPCClient) SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	var hash common.Hash
	if err := c.w3.CallCtx(ctx, eth.SendTx(tx).Returns(&hash)); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	return hash, nil
}

func (c *RPCClient) SendTransaction(ctx context.Context, tx NodeTx) (common.Hash, error) {
	args := sendTxArgs{
		From:  tx.From,
		To:    tx.To,
		Nonce: hexutil.Uint64(tx.Nonce),
		Gas:   hexutil.Uint64(tx.Gas),
		Data:  tx.Data,
	}
	if tx.GasPrice != nil {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice)
	}
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	return hash, nil
}

// TransactionReceipt returns ErrNotFound for pending or unknown transactions.
func (c *RPCClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	if err := c.rpc.CallContext(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if receipt == nil {
		return nil, ErrNotFound
	}
	return receipt, nil
}

func (c *RPCClient) Close() error {
	return c.w3.Close()
}
