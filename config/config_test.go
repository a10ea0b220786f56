package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"net": {"rpc_address": "10.0.0.5", "rpc_port": 8001},
		"client": {"read_timeout": "2s"},
		"log": {"level": "debug"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.Net.RPCAddress)
	assert.Equal(t, uint16(8001), cfg.Net.RPCPort)
	assert.Equal(t, 2*time.Second, cfg.Client.ReadTimeout.Duration)
	assert.Equal(t, 5*time.Second, cfg.Client.DialTimeout.Duration, "unset fields keep defaults")
	assert.Equal(t, "./decryptor", cfg.Decryptor.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
net:
  rpc_address: node.local
  rpc_port: 9000
decryptor:
  path: /usr/local/bin/decryptor
discovery:
  balancer: weighted_random
  etcd:
    endpoints: ["127.0.0.1:2379"]
    dial_timeout: 1s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "node.local", cfg.Net.RPCAddress)
	assert.Equal(t, "/usr/local/bin/decryptor", cfg.Decryptor.Path)
	assert.True(t, cfg.Discovery.Enabled())
	assert.Equal(t, time.Second, cfg.Discovery.Etcd.DialTimeout.Duration)
	assert.Equal(t, "ledger", cfg.Discovery.Service)
	assert.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "bad.json", `{"net": `))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeFile(t, "port.json", `{"net": {"rpc_address": "a", "rpc_port": 70000}}`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "dur.json", `{"client": {"read_timeout": "soon"}}`))
	assert.ErrorContains(t, err, "invalid duration")
}

func TestOverride(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Override(nil))
	require.NoError(t, cfg.Override([]string{"192.168.1.2", "7000"}))
	assert.Equal(t, "192.168.1.2", cfg.Net.RPCAddress)
	assert.Equal(t, uint16(7000), cfg.Net.RPCPort)

	assert.Error(t, cfg.Override([]string{"only-host"}))
	assert.Error(t, cfg.Override([]string{"host", "65536"}))
	assert.Error(t, cfg.Override([]string{"host", "-1"}))
	assert.Equal(t, uint16(7000), cfg.Net.RPCPort, "failed override leaves config untouched")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.Validate(), "net.rpc_address")

	cfg.Net.RPCAddress = "127.0.0.1"
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.Discovery.Balancer = "fastest"
	assert.ErrorContains(t, bad.Validate(), "discovery.balancer")

	bad = cfg
	bad.Log.Level = "loud"
	assert.ErrorContains(t, bad.Validate(), "log.level")

	bad = cfg
	bad.Client.RateLimit = 5
	bad.Client.RateBurst = 0
	assert.ErrorContains(t, bad.Validate(), "rate_burst")

	bad = cfg
	bad.Client.ReadTimeout = Duration{-1}
	assert.NoError(t, bad.Validate())
}

func TestValidateDiscoveryWithoutAddress(t *testing.T) {
	cfg := Default()
	cfg.Discovery.StaticNodes = []string{"127.0.0.1:8001"}
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromBytesYAMLAndJSONAgree(t *testing.T) {
	y, err := LoadFromBytes([]byte("net:\n  rpc_address: 127.0.0.1\n  rpc_port: 8001\nclient:\n  call_timeout: 3s\n"), ".yml")
	require.NoError(t, err)
	j, err := LoadFromBytes([]byte(`{"net":{"rpc_address":"127.0.0.1","rpc_port":8001},"client":{"call_timeout":"3s"}}`), ".json")
	require.NoError(t, err)
	assert.Equal(t, j, y)
}
