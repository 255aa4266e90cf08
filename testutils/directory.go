package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ExchangeArtifact and FactoryArtifact are minimal Truffle build files for the
// two Uniswap contracts. The bytecode is never executed by Backend.
const (
	ExchangeArtifact = `{
  "contractName": "uniswap_exchange",
  "abi": [
    {"type": "constructor", "inputs": [{"name": "owner", "type": "address"}], "payable": false, "constant": false},
    {"type": "function", "name": "setup", "inputs": [{"name": "token_addr", "type": "address"}], "outputs": [], "constant": false, "payable": false}
  ],
  "bytecode": "0x6080604052348015600f57600080fd5b50"
}`
	FactoryArtifact = `{
  "contractName": "uniswap_factory",
  "abi": [
    {"type": "function", "name": "initializeFactory", "inputs": [{"name": "template", "type": "address"}], "outputs": [], "constant": false, "payable": false},
    {"type": "function", "name": "exchangeTemplate", "inputs": [], "outputs": [{"name": "out", "type": "address"}], "constant": true, "payable": false}
  ],
  "bytecode": "0x6080604052600a600c"
}`
)

// GetBuildDir writes the Uniswap artifacts into a fresh temporary build
// directory and returns its path.
func GetBuildDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "build", "contracts")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	WriteArtifact(t, dir, "uniswap_exchange", ExchangeArtifact)
	WriteArtifact(t, dir, "uniswap_factory", FactoryArtifact)
	return dir
}

func WriteArtifact(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(contents), 0o600))
}
