package netsvc

import (
	"crypto/tls"
	"fmt"

	"github.com/nsdb/nsdb/internal/config"
)

// BuildTLSConfig loads the configured PEM cert/key pair into a tls.Config
// suitable for Listen. Passphrase-protected keys aren't supported by
// crypto/tls's loader directly; nsdb requires unencrypted key files (the
// config validates cert/key paths are set, not that the key is
// passphrase-free, so a bad key surfaces here at startup instead).
func BuildTLSConfig(cfg config.TLSConfig) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("netsvc: loading tls cert/key: %w", err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}, nil
}
