package testutils

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/uniswap/uniswap-migrate/pkg/chain"
)

// TestMnemonic is the well-known development mnemonic. Its first two
// accounts are TestAccount0 and TestAccount1.
const TestMnemonic = "test test test test test test test test test test test junk"

var (
	TestAccount0 = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	TestAccount1 = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

// TestSigner signs with a freshly generated key.
type TestSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ chain.Signer = &TestSigner{}

func NewTestSigner(t *testing.T) *TestSigner {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &TestSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s *TestSigner) Address() common.Address {
	return s.address
}

func (s *TestSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}
