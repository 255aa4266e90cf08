package uniswapfactory

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
)

// Name is the artifact name of the factory.
const Name = "uniswap_factory"

var (
	funcInitializeFactory = w3.MustNewFunc("initializeFactory(address)", "")
	funcExchangeTemplate  = w3.MustNewFunc("exchangeTemplate()", "address")
)

var ErrUnknownSelector = errors.New("calldata does not match function selector")

func EncodeInitializeFactory(template common.Address) ([]byte, error) {
	return funcInitializeFactory.EncodeArgs(template)
}

// DecodeInitializeFactory returns the template address of initializeFactory
// calldata.
func DecodeInitializeFactory(input []byte) (common.Address, error) {
	if !IsInitializeFactory(input) {
		return common.Address{}, ErrUnknownSelector
	}
	var template common.Address
	if err := funcInitializeFactory.DecodeArgs(input, &template); err != nil {
		return common.Address{}, fmt.Errorf("decode initializeFactory: %w", err)
	}
	return template, nil
}

func IsInitializeFactory(input []byte) bool {
	return len(input) >= 4 && bytes.Equal(input[:4], funcInitializeFactory.Selector[:])
}

func EncodeExchangeTemplate() ([]byte, error) {
	return funcExchangeTemplate.EncodeArgs()
}

func IsExchangeTemplate(input []byte) bool {
	return len(input) >= 4 && bytes.Equal(input[:4], funcExchangeTemplate.Selector[:])
}

func DecodeExchangeTemplate(output []byte) (common.Address, error) {
	var template common.Address
	if err := funcExchangeTemplate.DecodeReturns(output, &template); err != nil {
		return common.Address{}, fmt.Errorf("decode exchangeTemplate: %w", err)
	}
	return template, nil
}

// EncodeExchangeTemplateResult encodes the getter's return value.
func EncodeExchangeTemplateResult(template common.Address) ([]byte, error) {
	return funcExchangeTemplate.Returns.Pack(template)
}
