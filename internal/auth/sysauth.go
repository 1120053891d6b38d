// Package auth implements the root-credential store (spec §4.6/§4.7): a
// single bcrypt-hashed username/password pair carried inside sys.db, plus
// the handshake-time verification the connection handler calls.
package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// SysAuth is the authentication half of the system database: a
// username->bcrypt-hash map, guarded by its own lock so a password change
// doesn't have to take sys.db's coarser settings lock.
type SysAuth struct {
	mu      sync.RWMutex
	hashes  map[string][]byte
	enabled bool
}

// NewSysAuth seeds a SysAuth with a root user. Password hashing happens
// once here; only the hash is ever retained or persisted.
func NewSysAuth(rootPassword string) (*SysAuth, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rootPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hashing root password: %w", err)
	}
	return &SysAuth{hashes: map[string][]byte{"root": hash}, enabled: true}, nil
}

// Enabled reports whether authentication is required on this instance.
func (a *SysAuth) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled toggles whether the handshake path demands credentials.
func (a *SysAuth) SetEnabled(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = v
}

// Verify checks a username/password pair against the stored hash.
func (a *SysAuth) Verify(username, password string) bool {
	a.mu.RLock()
	hash, ok := a.hashes[username]
	a.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// SetPassword rehashes and replaces a user's credential. Used by the root
// password rotation path and by sys.db restore when the on-disk copy
// disagrees with the configured root password (see storage.OpenOrInit).
func (a *SysAuth) SetPassword(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hashing password for %q: %w", username, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hashes[username] = hash
	return nil
}

// Hash returns the stored hash for a user, for persistence into sys.db.
func (a *SysAuth) Hash(username string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	h, ok := a.hashes[username]
	return h, ok
}

// RestoreHash installs a hash read back from sys.db without rehashing,
// used when loading an existing system database at startup.
func (a *SysAuth) RestoreHash(username string, hash []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hashes[username] = hash
}

// Users returns every username with a stored credential, for encoding the
// full SysAuth into sys.db.
func (a *SysAuth) Users() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.hashes))
	for u := range a.hashes {
		out = append(out, u)
	}
	return out
}
