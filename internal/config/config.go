// Package config defines the Configuration value the core consumes.
//
// Per spec, configuration loading (CLI/env/YAML) is a collaborator outside
// the core: this package only defines the shape and a couple of derived
// helpers; the layered loader lives in cmd/nsdbd.
package config

import (
	"fmt"
	"time"
)

// AuthMode selects the authentication plugin. Only "pwd" exists today.
type AuthMode string

const (
	AuthModePwd AuthMode = "pwd"
)

// RunMode toggles startup strictness (e.g. rlimit checks only apply in prod).
type RunMode string

const (
	ModeDev  RunMode = "dev"
	ModeProd RunMode = "prod"
)

// Endpoint describes one listening socket: plain TCP or TLS.
type Endpoint struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
	TLS  bool   `json:"tls" yaml:"tls"`
}

func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// TLSConfig names the on-disk material for a TLS endpoint.
type TLSConfig struct {
	CertPath   string `json:"cert_path" yaml:"cert_path"`
	KeyPath    string `json:"key_path" yaml:"key_path"`
	Passphrase string `json:"passphrase" yaml:"passphrase"`
}

func (t TLSConfig) empty() bool {
	return t.CertPath == "" && t.KeyPath == ""
}

// Configuration is the single value the core accepts at startup. It is
// produced by an external loader (see cmd/nsdbd) and never parsed by the
// core itself.
type Configuration struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
	Mode      RunMode    `json:"mode" yaml:"mode"`

	// ServiceWindow is carried in the configuration but not read by the
	// listener: Listener.Shutdown waits for in-flight connections to drain
	// with no time bound.
	ServiceWindow time.Duration `json:"service_window" yaml:"service_window"`

	AuthPlugin   AuthMode `json:"auth_plugin" yaml:"auth_plugin"`
	RootPassword string   `json:"root_password" yaml:"root_password"`

	TLS TLSConfig `json:"tls" yaml:"tls"`

	// DataDir holds sys.db, the GNS journal, and per-model journals.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxConnections bounds concurrent accepted connections (CLIM, spec §4.7).
	MaxConnections int `json:"max_connections" yaml:"max_connections"`
}

// Default returns a Configuration usable for local development.
func Default() Configuration {
	return Configuration{
		Endpoints:      []Endpoint{{Host: "127.0.0.1", Port: 2003}},
		Mode:           ModeDev,
		ServiceWindow:  10 * time.Second,
		AuthPlugin:     AuthModePwd,
		RootPassword:   "nsdbroot",
		DataDir:        "nsdb-data",
		MaxConnections: 50000,
	}
}

// Validate rejects combinations that §6 calls out as invalid at startup.
func (c Configuration) Validate(osMaxFiles int) error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("config: at least one endpoint is required")
	}
	tlsOnly := true
	for _, ep := range c.Endpoints {
		if ep.Port < 1 || ep.Port > 65535 {
			return fmt.Errorf("config: invalid port %d", ep.Port)
		}
		if !ep.TLS {
			tlsOnly = false
		}
		if ep.TLS && c.TLS.empty() {
			return fmt.Errorf("config: endpoint %s requires tls but no cert/key configured", ep.Addr())
		}
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("config: max_connections must be positive")
	}
	if c.Mode == ModeProd && tlsOnly && osMaxFiles > 0 && c.MaxConnections > osMaxFiles {
		return fmt.Errorf("config: max_connections (%d) exceeds OS file descriptor limit (%d) in prod with TLS-only endpoints", c.MaxConnections, osMaxFiles)
	}
	if c.AuthPlugin != AuthModePwd {
		return fmt.Errorf("config: unsupported auth plugin %q", c.AuthPlugin)
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir is required")
	}
	return nil
}
