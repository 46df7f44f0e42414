// Package config loads the transformer configuration: the runtime
// capability binding emitted code calls into, the dispatch policy, and
// how diagnostics affect the exit status.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/syntax"
)

// DefaultFile is the configuration file looked up next to the specs.
const DefaultFile = "entangle.yaml"

// Environment overrides, applied after the file.
const (
	EnvPolicy           = "ENTANGLE_DISPATCH_POLICY"
	EnvWarningsAsErrors = "ENTANGLE_WARNINGS_AS_ERRORS"
)

// Config is the decoded configuration file.
type Config struct {
	Runtime     RuntimeConfig     `yaml:"runtime" json:"runtime"`
	Dispatch    DispatchConfig    `yaml:"dispatch" json:"dispatch"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics" json:"diagnostics"`
}

// RuntimeConfig names the mailbox runtime's address type, disconnection
// outcome and dispatch methods.
type RuntimeConfig struct {
	Address      string `yaml:"address" json:"address"`
	Disconnected string `yaml:"disconnected" json:"disconnected"`
	AwaitMethod  string `yaml:"await_method" json:"await_method"`
	NotifyMethod string `yaml:"notify_method" json:"notify_method"`
}

// DispatchConfig selects how forwarded calls are delivered.
type DispatchConfig struct {
	Policy string `yaml:"policy" json:"policy"`
}

// DiagnosticsConfig controls how warnings are treated.
type DiagnosticsConfig struct {
	WarningsAsErrors bool `yaml:"warnings_as_errors" json:"warnings_as_errors"`
}

// Default returns the built-in configuration.
func Default() *Config {
	rt := entangle.DefaultRuntime()
	return &Config{
		Runtime: RuntimeConfig{
			Address:      rt.Address.String(),
			Disconnected: rt.Disconnected.String(),
			AwaitMethod:  rt.AwaitMethod,
			NotifyMethod: rt.NotifyMethod,
		},
		Dispatch: DispatchConfig{Policy: string(entangle.PolicyAuto)},
	}
}

// Load reads path over the defaults. A missing file yields the defaults
// when optional is true.
func Load(path string, optional bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment through lookup
// (normally os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPolicy); ok && v != "" {
		c.Dispatch.Policy = v
	}
	if v, ok := lookup(EnvWarningsAsErrors); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWarningsAsErrors, err)
		}
		c.Diagnostics.WarningsAsErrors = b
	}
	return c.Validate()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := c.EntangleRuntime(); err != nil {
		return err
	}
	if !entangle.Policy(c.Dispatch.Policy).IsValid() {
		return fmt.Errorf("dispatch.policy: unknown policy %q (auto, await)", c.Dispatch.Policy)
	}
	return nil
}

// EntangleRuntime converts the runtime section into the transformer's
// capability binding.
func (c *Config) EntangleRuntime() (entangle.Runtime, error) {
	addr, err := syntax.ParseSimplePath(c.Runtime.Address)
	if err != nil {
		return entangle.Runtime{}, fmt.Errorf("runtime.address: %w", err)
	}
	disc, err := syntax.ParseSimplePath(c.Runtime.Disconnected)
	if err != nil {
		return entangle.Runtime{}, fmt.Errorf("runtime.disconnected: %w", err)
	}
	rt := entangle.Runtime{
		Address:      addr,
		Disconnected: disc,
		AwaitMethod:  c.Runtime.AwaitMethod,
		NotifyMethod: c.Runtime.NotifyMethod,
	}
	if err := rt.Validate(); err != nil {
		return entangle.Runtime{}, fmt.Errorf("runtime: %w", err)
	}
	return rt, nil
}

// TransformerOptions returns the options that configure an
// entangle.Transformer from this configuration.
func (c *Config) TransformerOptions() ([]entangle.Option, error) {
	rt, err := c.EntangleRuntime()
	if err != nil {
		return nil, err
	}
	return []entangle.Option{
		entangle.WithRuntime(rt),
		entangle.WithPolicy(entangle.Policy(c.Dispatch.Policy)),
	}, nil
}
