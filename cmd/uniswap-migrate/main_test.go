package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniswap/uniswap-migrate/pkg/config"
)

func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	app := newApp(func(k string) string { return env[k] })
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"uniswap-migrate"}, args...))
	return out.String(), err
}

func TestNetworksCommand(t *testing.T) {
	out, err := run(t, map[string]string{config.EnvInfuraAccessToken: "secret", config.EnvGasPrice: "2000000000"}, "networks")
	require.NoError(t, err)
	assert.NotContains(t, out, "secret")

	var networks []networkInfo
	require.NoError(t, json.Unmarshal([]byte(out), &networks))
	require.Len(t, networks, 5)
	assert.Equal(t, config.Development, networks[0].Name)
	assert.Equal(t, "node", networks[0].GasPrice)
	assert.Equal(t, "https://ropsten.infura.io/<redacted>", networks[1].Endpoint)
	assert.Equal(t, uint64(3), networks[1].NetworkID)
	assert.Equal(t, "2000000000", networks[1].GasPrice)
	assert.Equal(t, config.RSK, networks[4].Name)
}

func TestNetworksCommandWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Networks.development]\nPort = 7545\n"), 0o600))

	out, err := run(t, nil, "networks", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "http://127.0.0.1:7545")
}

func TestMigrateCommandErrors(t *testing.T) {

	_, err := run(t, nil, "migrate")
	require.Error(t, err)

	_, err = run(t, nil, "migrate", "--network", "kovan")
	var unknown *config.UnknownNetworkError
	require.ErrorAs(t, err, &unknown)

	_, err = run(t, nil, "migrate", "--network", config.Ropsten, "--state-dir", "")
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = run(t, map[string]string{config.EnvGasPrice: "cheap"}, "migrate", "--network", config.Development)
	require.ErrorAs(t, err, &cfgErr)
}

func TestMigrateCommandAccountIndexRange(t *testing.T) {
	for _, index := range []string{"2147483648", "4294967296"} {
		_, err := run(t, nil, "migrate", "--network", config.Development, "--account-index", index)
		var cfgErr *config.ConfigurationError
		require.ErrorAs(t, err, &cfgErr, index)
		assert.Contains(t, err.Error(), "account-index")
	}
}
