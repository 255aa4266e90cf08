// Package artifacts loads compiled contract artifacts in the Truffle build
// format (build/contracts/<name>.json).
package artifacts

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const DefaultDir = "build/contracts"

var ErrNoBytecode = errors.New("artifact has no creation bytecode")

// Artifact is a compiled contract ready to be deployed.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

type buildFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// Load reads <dir>/<name>.json.
func Load(dir, name string) (*Artifact, error) {
	path := filepath.Join(dir, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	a, err := Parse(name, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func Parse(name string, raw []byte) (*Artifact, error) {
	var f buildFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if f.ContractName != "" && f.ContractName != name {
		return nil, fmt.Errorf("artifact is for contract %q, want %q", f.ContractName, name)
	}

	parsed, err := abi.JSON(bytes.NewReader(f.ABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}

	code := strings.TrimPrefix(strings.TrimSpace(f.Bytecode), "0x")
	if code == "" {
		return nil, ErrNoBytecode
	}
	bytecode, err := hex.DecodeString(code)
	if err != nil {
		return nil, fmt.Errorf("decode bytecode (unlinked library?): %w", err)
	}

	return &Artifact{Name: name, ABI: parsed, Bytecode: bytecode}, nil
}

// DeployData returns the creation bytecode followed by the ABI-encoded
// constructor arguments.
func (a *Artifact) DeployData(args ...any) ([]byte, error) {
	packed, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s constructor: %w", a.Name, err)
	}
	data := make([]byte, 0, len(a.Bytecode)+len(packed))
	data = append(data, a.Bytecode...)
	return append(data, packed...), nil
}
