package realtime

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Signature identifies the authorization a connection was established under.
// It changes whenever the current user or the session version changes; a
// connection holding a stale signature is bound to stale authorization and
// must not be reused.
type Signature string

// IdentitySignature derives a signature from the current user and the
// session version.
func IdentitySignature(userID string, sessionVersion int) Signature {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", userID, sessionVersion)))
	return Signature(hex.EncodeToString(sum[:8]))
}

// ConnManager hands out the live connection and replaces it wholesale when
// the identity signature changes. The old transport is fully discarded,
// never reauthorized in place.
type ConnManager struct {
	mu     sync.Mutex
	config ClientConfig
	dial   func(ClientConfig) (*Client, error)

	current *Client
	sig     Signature
}

// NewConnManager creates a manager over the given transport settings.
func NewConnManager(config ClientConfig) *ConnManager {
	return &ConnManager{config: config, dial: Dial}
}

// Ensure returns a connection valid for sig, dialing a fresh one if the
// identity changed or no connection exists yet.
func (m *ConnManager) Ensure(sig Signature) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		select {
		case <-m.current.Done():
			m.current = nil
		default:
			if m.sig == sig {
				return m.current, nil
			}
			log.Info().
				Str("old_signature", string(m.sig)).
				Str("new_signature", string(sig)).
				Msg("identity changed, recreating transport")
			m.current.Close()
			m.current = nil
		}
	}

	client, err := m.dial(m.config)
	if err != nil {
		return nil, fmt.Errorf("establish connection: %w", err)
	}
	m.current = client
	m.sig = sig
	return client, nil
}

// Close tears down the current connection, if any.
func (m *ConnManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
	return nil
}
