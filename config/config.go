// Package config loads ledgerctl's settings from a JSON or YAML file.
//
// A Config is loaded once at startup and then passed by value to whatever needs it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"ledger-rpc/loadbalance"
)

// DefaultPath is where the config is read from when no --config flag is given.
const DefaultPath = "../config/config.json"

type Config struct {
	Net       NetConfig       `json:"net" yaml:"net"`
	Client    ClientConfig    `json:"client" yaml:"client"`
	Decryptor DecryptorConfig `json:"decryptor" yaml:"decryptor"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// NetConfig is the node's client RPC endpoint.
type NetConfig struct {
	RPCAddress string `json:"rpc_address" yaml:"rpc_address"`
	RPCPort    uint16 `json:"rpc_port" yaml:"rpc_port"`
}

type ClientConfig struct {
	DialTimeout  Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  Duration `json:"read_timeout" yaml:"read_timeout"` // negative disables
	WriteTimeout Duration `json:"write_timeout" yaml:"write_timeout"`
	CallTimeout  Duration `json:"call_timeout" yaml:"call_timeout"` // 0 = no overall bound
	RateLimit    float64  `json:"rate_limit" yaml:"rate_limit"`     // requests per second, 0 = unlimited
	RateBurst    int      `json:"rate_burst" yaml:"rate_burst"`
}

type DecryptorConfig struct {
	Path string `json:"path" yaml:"path"`
}

// DiscoveryConfig selects nodes through a registry instead of net.*. It is enabled when
// StaticNodes or Etcd.Endpoints is non-empty.
type DiscoveryConfig struct {
	Service     string     `json:"service" yaml:"service"`
	Balancer    string     `json:"balancer" yaml:"balancer"`
	StaticNodes []string   `json:"static_nodes" yaml:"static_nodes"`
	Etcd        EtcdConfig `json:"etcd" yaml:"etcd"`
}

type EtcdConfig struct {
	Endpoints   []string `json:"endpoints" yaml:"endpoints"`
	DialTimeout Duration `json:"dial_timeout" yaml:"dial_timeout"`
	KeyPrefix   string   `json:"key_prefix" yaml:"key_prefix"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Enabled reports whether nodes come from a registry.
func (d DiscoveryConfig) Enabled() bool {
	return len(d.StaticNodes) > 0 || len(d.Etcd.Endpoints) > 0
}

// Default returns the settings used for anything the file leaves out.
func Default() Config {
	return Config{
		Client: ClientConfig{
			DialTimeout:  Duration{5 * time.Second},
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{10 * time.Second},
			RateBurst:    1,
		},
		Decryptor: DecryptorConfig{Path: "./decryptor"},
		Discovery: DiscoveryConfig{
			Service:  "ledger",
			Balancer: loadbalance.NameRoundRobin,
			Etcd:     EtcdConfig{DialTimeout: Duration{5 * time.Second}},
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load reads path, decoding YAML for .yaml/.yml and JSON otherwise. It does not
// validate; call Validate after applying overrides.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return parse(b, filepath.Ext(path))
}

// LoadFromBytes decodes data in the format implied by ext (".json", ".yaml", ".yml").
func LoadFromBytes(data []byte, ext string) (Config, error) {
	return parse(data, ext)
}

func parse(data []byte, ext string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	return cfg, nil
}

// Override applies the optional positional arguments `<address> <port>`.
func (c *Config) Override(args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 2:
	default:
		return fmt.Errorf("expected <address> <port>, got %d arguments", len(args))
	}

	port, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return fmt.Errorf("invalid port %q: must be an integer between 0 and 65535", args[1])
	}
	c.Net.RPCAddress = args[0]
	c.Net.RPCPort = uint16(port)
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if !c.Discovery.Enabled() && strings.TrimSpace(c.Net.RPCAddress) == "" {
		errs = append(errs, errors.New("net.rpc_address is required"))
	}
	if c.Discovery.Enabled() && c.Discovery.Service == "" {
		errs = append(errs, errors.New("discovery.service is required"))
	}
	if _, err := loadbalance.New(c.Discovery.Balancer); err != nil {
		errs = append(errs, fmt.Errorf("discovery.balancer: %w", err))
	}
	if c.Client.RateLimit < 0 {
		errs = append(errs, errors.New("client.rate_limit must not be negative"))
	}
	if c.Client.RateLimit > 0 && c.Client.RateBurst < 1 {
		errs = append(errs, errors.New("client.rate_burst must be at least 1"))
	}
	if c.Client.DialTimeout.Duration < 0 || c.Client.WriteTimeout.Duration < 0 || c.Client.CallTimeout.Duration < 0 {
		errs = append(errs, errors.New("client timeouts must not be negative (only read_timeout may be)"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Duration is a time.Duration written as a string such as "5s" or "250ms".
type Duration struct{ time.Duration }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	return d.set(s)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dd
	return nil
}
