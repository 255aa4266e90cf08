package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/uniswap/uniswap-migrate/ops/uniswap"
)

// State records the migrations applied to one network.
type State struct {
	Network        string                           `json:"network"`
	ChainID        uint64                           `json:"chainId"`
	LastCompleted  int                              `json:"lastCompletedMigration"`
	Exchange       *uniswap.DeployedInstance        `json:"exchange,omitempty"`
	Factory        *uniswap.DeployedInstance        `json:"factory,omitempty"`
	Initialization *uniswap.InitializeFactoryOutput `json:"initialization,omitempty"`
	UpdatedAt      time.Time                        `json:"updatedAt"`
}

func StatePath(dir, network string) string {
	return filepath.Join(dir, network+".json")
}

// LoadState reads the state file at path. A missing file yields an empty
// State for network.
func LoadState(path, network string) (*State, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &State{Network: network}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", path, err)
	}
	if s.Network != network {
		return nil, fmt.Errorf("state %s belongs to network %q", path, s.Network)
	}
	return &s, nil
}

// Save writes the state atomically.
func (s *State) Save(path string) error {
	s.UpdatedAt = time.Now().UTC()
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
