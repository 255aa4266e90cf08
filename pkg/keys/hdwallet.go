// Package keys derives transaction signing keys from a BIP-39 mnemonic.
package keys

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	hdwallet "github.com/stephenlacy/go-ethereum-hdwallet"
	"github.com/tyler-smith/go-bip39"
)

// BasePath is the derivation path prefix; the account index is appended.
const BasePath = "m/44'/60'/0'/0/"

// MaxAccountIndex is the highest non-hardened child index.
const MaxAccountIndex = 1<<31 - 1

var (
	ErrInvalidMnemonic     = errors.New("mnemonic is not a valid BIP-39 phrase")
	ErrInvalidAccountIndex = fmt.Errorf("account index must not exceed %d", MaxAccountIndex)
)

// HDSigner signs transactions with a key derived from a mnemonic.
type HDSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	path    string
}

// FromMnemonic derives the key at BasePath+index.
func FromMnemonic(mnemonic string, index uint32) (*HDSigner, error) {
	if index > MaxAccountIndex {
		return nil, ErrInvalidAccountIndex
	}
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet: %w", err)
	}

	path := fmt.Sprintf("%s%d", BasePath, index)
	derivationPath, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("parse derivation path %s: %w", path, err)
	}
	account, err := wallet.Derive(derivationPath, false)
	if err != nil {
		return nil, fmt.Errorf("derive account %s: %w", path, err)
	}
	key, err := wallet.PrivateKey(account)
	if err != nil {
		return nil, fmt.Errorf("private key for %s: %w", path, err)
	}

	return &HDSigner{key: key, address: account.Address, path: path}, nil
}

func (s *HDSigner) Address() common.Address {
	return s.address
}

func (s *HDSigner) Path() string {
	return s.path
}

// SignTx signs tx with the latest signer for chainID.
func (s *HDSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	return signed, nil
}
