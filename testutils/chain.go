package testutils

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/uniswap/uniswap-migrate/contracts/uniswapfactory"
	"github.com/uniswap/uniswap-migrate/pkg/chain"
)

// DevChainID is the chain id reported by local development nodes.
const DevChainID uint64 = 1337

var (
	ErrUnknownAccount = errors.New("unknown account")
	ErrExecReverted   = errors.New("execution reverted")
)

// Backend is an in-memory stand-in for an EVM node. Every accepted
// transaction is mined into its own block. Contracts understand the factory's
// initializeFactory/exchangeTemplate calls; other calls to contracts revert.
// Backend is not safe for concurrent use.
type Backend struct {
	chainID  uint64
	accounts []common.Address

	nonces    map[common.Address]uint64
	code      map[common.Address][]byte
	templates map[common.Address]common.Address
	receipts  map[common.Hash]*types.Receipt
	polls     map[common.Hash]int
	block     uint64
	calls     []string
	closed    bool

	// Unreachable, when set, is returned by every RPC method.
	Unreachable error
	// RejectSends, when set, is returned by both send methods.
	RejectSends error
	// RevertCreates makes contract creations mine with status 0.
	RevertCreates bool
	// ReceiptDelay is how many receipt lookups report a tx as pending.
	ReceiptDelay int
}

var _ chain.Client = (*Backend)(nil)

func NewBackend(chainID uint64, accounts ...common.Address) *Backend {
	return &Backend{
		chainID:   chainID,
		accounts:  accounts,
		nonces:    map[common.Address]uint64{},
		code:      map[common.Address][]byte{},
		templates: map[common.Address]common.Address{},
		receipts:  map[common.Hash]*types.Receipt{},
		polls:     map[common.Hash]int{},
	}
}

// Calls returns the RPC methods invoked so far, in order.
func (b *Backend) Calls() []string {
	return append([]string(nil), b.calls...)
}

func (b *Backend) Closed() bool {
	return b.closed
}

// Template returns the exchange template recorded by a factory.
func (b *Backend) Template(factory common.Address) common.Address {
	return b.templates[factory]
}

// SetCode installs code at addr, e.g. to simulate a chain that was reset or
// an existing deployment.
func (b *Backend) SetCode(addr common.Address, code []byte) {
	if len(code) == 0 {
		delete(b.code, addr)
		delete(b.templates, addr)
		return
	}
	b.code[addr] = code
}

func (b *Backend) record(method string) error {
	b.calls = append(b.calls, method)
	if b.Unreachable != nil {
		return b.Unreachable
	}
	return nil
}

func (b *Backend) ChainID(ctx context.Context) (uint64, error) {
	if err := b.record("eth_chainId"); err != nil {
		return 0, err
	}
	return b.chainID, nil
}

func (b *Backend) Accounts(ctx context.Context) ([]common.Address, error) {
	if err := b.record("eth_accounts"); err != nil {
		return nil, err
	}
	return append([]common.Address(nil), b.accounts...), nil
}

func (b *Backend) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if err := b.record("eth_getTransactionCount"); err != nil {
		return 0, err
	}
	return b.nonces[account], nil
}

func (b *Backend) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	if err := b.record("eth_getCode"); err != nil {
		return nil, err
	}
	return b.code[account], nil
}

func (b *Backend) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if err := b.record("eth_call"); err != nil {
		return nil, err
	}
	if len(b.code[to]) == 0 {
		return nil, nil
	}
	if uniswapfactory.IsExchangeTemplate(data) {
		return uniswapfactory.EncodeExchangeTemplateResult(b.templates[to])
	}
	return nil, ErrExecReverted
}

func (b *Backend) SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	if err := b.record("eth_sendRawTransaction"); err != nil {
		return common.Hash{}, err
	}
	if b.RejectSends != nil {
		return common.Hash{}, b.RejectSends
	}
	if tx.Protected() && tx.ChainId().Uint64() != b.chainID {
		return common.Hash{}, fmt.Errorf("invalid chain id %s", tx.ChainId())
	}
	from, err := types.Sender(types.LatestSignerForChainID(new(big.Int).SetUint64(b.chainID)), tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid sender: %w", err)
	}
	if err := b.apply(from, tx.Nonce(), tx.To(), tx.Data(), tx.Hash()); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx chain.NodeTx) (common.Hash, error) {
	if err := b.record("eth_sendTransaction"); err != nil {
		return common.Hash{}, err
	}
	if b.RejectSends != nil {
		return common.Hash{}, b.RejectSends
	}
	known := false
	for _, a := range b.accounts {
		known = known || a == tx.From
	}
	if !known {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrUnknownAccount, tx.From.Hex())
	}
	hash := crypto.Keccak256Hash(tx.From.Bytes(), new(big.Int).SetUint64(tx.Nonce).Bytes(), tx.Data)
	if err := b.apply(tx.From, tx.Nonce, tx.To, tx.Data, hash); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (b *Backend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if err := b.record("eth_getTransactionReceipt"); err != nil {
		return nil, err
	}
	r, ok := b.receipts[hash]
	if !ok {
		return nil, chain.ErrNotFound
	}
	if b.polls[hash] < b.ReceiptDelay {
		b.polls[hash]++
		return nil, chain.ErrNotFound
	}
	return r, nil
}

func (b *Backend) Close() error {
	b.closed = true
	return nil
}

func (b *Backend) apply(from common.Address, nonce uint64, to *common.Address, data []byte, hash common.Hash) error {
	if want := b.nonces[from]; nonce != want {
		return fmt.Errorf("invalid nonce for %s: have %d, want %d", from.Hex(), nonce, want)
	}
	b.nonces[from]++
	b.block++

	r := &types.Receipt{
		TxHash:      hash,
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: new(big.Int).SetUint64(b.block),
		GasUsed:     21_000,
	}
	switch {
	case to == nil:
		addr := crypto.CreateAddress(from, nonce)
		if b.RevertCreates || len(data) == 0 {
			r.Status = types.ReceiptStatusFailed
			break
		}
		b.code[addr] = append([]byte(nil), data...)
		r.ContractAddress = addr
		r.GasUsed += uint64(len(data)) * 200
	case len(b.code[*to]) == 0:
		// plain transfer
	case uniswapfactory.IsInitializeFactory(data):
		template, err := uniswapfactory.DecodeInitializeFactory(data)
		if err != nil || template == (common.Address{}) || b.templates[*to] != (common.Address{}) {
			r.Status = types.ReceiptStatusFailed
			break
		}
		b.templates[*to] = template
	default:
		r.Status = types.ReceiptStatusFailed
	}
	b.receipts[hash] = r
	return nil
}
