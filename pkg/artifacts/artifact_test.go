package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exchangeJSON = `{
  "contractName": "uniswap_exchange",
  "abi": [
    {"type": "constructor", "inputs": [{"name": "owner", "type": "address"}], "payable": false, "constant": false},
    {"type": "function", "name": "factoryAddress", "inputs": [], "outputs": [{"name": "out", "type": "address"}], "constant": true, "payable": false}
  ],
  "bytecode": "0x6080604052"
}`

const factoryJSON = `{
  "contractName": "uniswap_factory",
  "abi": [
    {"type": "function", "name": "initializeFactory", "inputs": [{"name": "template", "type": "address"}], "outputs": [], "constant": false, "payable": false}
  ],
  "bytecode": "600a600c"
}`

func TestParseAndDeployData(t *testing.T) {
	t.Parallel()

	a, err := Parse("uniswap_exchange", []byte(exchangeJSON))
	require.NoError(t, err)
	assert.Equal(t, "uniswap_exchange", a.Name)
	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, a.Bytecode)
	assert.Contains(t, a.ABI.Methods, "factoryAddress")

	owner := common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1")
	data, err := a.DeployData(owner)
	require.NoError(t, err)
	require.Len(t, data, len(a.Bytecode)+32)
	assert.Equal(t, a.Bytecode, data[:len(a.Bytecode)])
	assert.Equal(t, common.LeftPadBytes(owner.Bytes(), 32), data[len(a.Bytecode):])

	_, err = a.DeployData()
	require.Error(t, err)
}

func TestDeployDataWithoutConstructor(t *testing.T) {
	t.Parallel()

	f, err := Parse("uniswap_factory", []byte(factoryJSON))
	require.NoError(t, err)

	data, err := f.DeployData()
	require.NoError(t, err)
	assert.Equal(t, f.Bytecode, data)

	_, err = f.DeployData(common.Address{})
	require.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse("uniswap_factory", []byte(exchangeJSON))
	require.ErrorContains(t, err, `want "uniswap_factory"`)

	_, err = Parse("x", []byte(`{"abi": [], "bytecode": "0x"}`))
	require.ErrorIs(t, err, ErrNoBytecode)

	_, err = Parse("x", []byte(`{"abi": [], "bytecode": "0x6080__Lib________________________________6040"}`))
	require.ErrorContains(t, err, "unlinked library")

	_, err = Parse("x", []byte(`{"abi": {}, "bytecode": "0x60"}`))
	require.Error(t, err)

	_, err = Parse("x", []byte(`not json`))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uniswap_factory.json"), []byte(factoryJSON), 0o600))

	f, err := Load(dir, "uniswap_factory")
	require.NoError(t, err)
	assert.Equal(t, "uniswap_factory", f.Name)

	_, err = Load(dir, "uniswap_exchange")
	require.ErrorIs(t, err, os.ErrNotExist)
}
