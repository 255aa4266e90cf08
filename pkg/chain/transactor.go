package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"
)

const DefaultPollInterval = 2 * time.Second

var (
	ErrTxReverted = errors.New("transaction reverted")
	ErrNoAccounts = errors.New("node has no unlocked accounts")
	ErrNoGasPrice = errors.New("gas price is required for locally signed transactions")
	ErrNoGasLimit = errors.New("gas limit must be greater than zero")
)

// Signer signs transactions locally. A Transactor without one lets the node
// sign with its first account.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

type TransactorConfig struct {
	// GasPrice may be nil for node-signed transactions.
	GasPrice     *big.Int
	GasLimit     uint64
	PollInterval time.Duration
}

// Confirmation describes a transaction included with status 1.
type Confirmation struct {
	TxHash          common.Hash
	ContractAddress common.Address
	BlockNumber     uint64
	GasUsed         uint64
}

// Transactor submits transactions from a single account and waits for them
// to be included. It is not safe for concurrent use.
type Transactor struct {
	lggr    logger.Logger
	client  Client
	signer  Signer
	from    common.Address
	chainID *big.Int
	cfg     TransactorConfig
}

func NewTransactor(ctx context.Context, lggr logger.Logger, client Client, signer Signer, cfg TransactorConfig) (*Transactor, error) {
	if cfg.GasLimit == 0 {
		return nil, ErrNoGasLimit
	}
	if signer != nil && cfg.GasPrice == nil {
		return nil, ErrNoGasPrice
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	id, err := client.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	t := &Transactor{
		lggr:    logger.Named(lggr, "Transactor"),
		client:  client,
		signer:  signer,
		chainID: new(big.Int).SetUint64(id),
		cfg:     cfg,
	}

	if signer != nil {
		t.from = signer.Address()
	} else {
		accounts, err := client.Accounts(ctx)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			return nil, ErrNoAccounts
		}
		t.from = accounts[0]
	}
	return t, nil
}

func (t *Transactor) From() common.Address {
	return t.from
}

func (t *Transactor) ChainID() uint64 {
	return t.chainID.Uint64()
}

// Deploy submits a contract-creation transaction and waits for it.
func (t *Transactor) Deploy(ctx context.Context, data []byte) (Confirmation, error) {
	txHash, nonce, err := t.submit(ctx, nil, data)
	if err != nil {
		return Confirmation{}, err
	}
	receipt, err := t.confirm(ctx, txHash)
	if err != nil {
		return Confirmation{}, err
	}

	addr := receipt.ContractAddress
	if addr == (common.Address{}) {
		// some nodes omit the field; CREATE addresses only depend on sender and nonce
		addr = crypto.CreateAddress(t.from, nonce)
	}
	return Confirmation{
		TxHash:          txHash,
		ContractAddress: addr,
		BlockNumber:     blockNumber(receipt),
		GasUsed:         receipt.GasUsed,
	}, nil
}

// Transact sends data to the contract at to and waits for it.
func (t *Transactor) Transact(ctx context.Context, to common.Address, data []byte) (Confirmation, error) {
	txHash, _, err := t.submit(ctx, &to, data)
	if err != nil {
		return Confirmation{}, err
	}
	receipt, err := t.confirm(ctx, txHash)
	if err != nil {
		return Confirmation{}, err
	}
	return Confirmation{
		TxHash:      txHash,
		BlockNumber: blockNumber(receipt),
		GasUsed:     receipt.GasUsed,
	}, nil
}

func (t *Transactor) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return t.client.CallContract(ctx, to, data)
}

func (t *Transactor) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return t.client.CodeAt(ctx, addr)
}

func (t *Transactor) submit(ctx context.Context, to *common.Address, data []byte) (common.Hash, uint64, error) {
	nonce, err := t.client.NonceAt(ctx, t.from)
	if err != nil {
		return common.Hash{}, 0, err
	}

	if t.signer == nil {
		txHash, err := t.client.SendTransaction(ctx, NodeTx{
			From:     t.from,
			To:       to,
			Nonce:    nonce,
			Gas:      t.cfg.GasLimit,
			GasPrice: t.cfg.GasPrice,
			Data:     data,
		})
		if err != nil {
			return common.Hash{}, 0, err
		}
		t.lggr.Debugw("Submitted node-signed transaction", "hash", txHash, "from", t.from, "nonce", nonce)
		return txHash, nonce, nil
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: t.cfg.GasPrice,
		Gas:      t.cfg.GasLimit,
		To:       to,
		Value:    new(big.Int),
		Data:     data,
	})
	signed, err := t.signer.SignTx(tx, t.chainID)
	if err != nil {
		return common.Hash{}, 0, err
	}
	if _, err := t.client.SendRawTransaction(ctx, signed); err != nil {
		return common.Hash{}, 0, err
	}
	t.lggr.Debugw("Submitted signed transaction", "hash", signed.Hash(), "from", t.from, "nonce", nonce)
	return signed.Hash(), nonce, nil
}

func (t *Transactor) confirm(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := t.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s (gas used %d of %d)", ErrTxReverted, txHash.Hex(), receipt.GasUsed, t.cfg.GasLimit)
	}
	return receipt, nil
}

// WaitForReceipt polls until the transaction is included or ctx is done.
func (t *Transactor) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := t.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func blockNumber(r *types.Receipt) uint64 {
	if r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}
