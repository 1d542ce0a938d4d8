package domain

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
)

// RootKey is the top-level key used only to wrap and unwrap data-key
// material. It is never applied to user data directly.
type RootKey struct {
	ID  string
	Key []byte
}

// RootKeyChain manages a set of root keys with one designated as active.
//
// The chain enables rotation: new material is wrapped under the active key
// while old keys remain available to unwrap material they wrapped earlier.
// In normal operation the chain is read-only and is never rotated
// mid-request.
type RootKeyChain struct {
	activeID string
	keys     sync.Map
}

// ActiveRootKeyID returns the ID of the key used to wrap new material.
func (c *RootKeyChain) ActiveRootKeyID() string {
	return c.activeID
}

// Get retrieves a root key from the chain by its ID.
func (c *RootKeyChain) Get(id string) (*RootKey, bool) {
	if key, ok := c.keys.Load(id); ok {
		return key.(*RootKey), ok
	}
	return nil, false
}

// Close zeroes all root keys and resets the chain.
func (c *RootKeyChain) Close() {
	c.keys.Range(func(_, value any) bool {
		Zero(value.(*RootKey).Key)
		return true
	})
	c.activeID = ""
	c.keys.Clear()
}

// LoadRootKeyChainFromEnv loads root keys from environment variables.
//
// Two variables are read:
//   - ROOT_KEYS: comma-separated entries in the form "id:base64key"
//   - ACTIVE_ROOT_KEY_ID: the id used to wrap newly generated material
//
// Each key must decode to exactly 32 bytes. On any error the partially
// built chain is closed so no key material lingers.
func LoadRootKeyChainFromEnv() (*RootKeyChain, error) {
	raw := os.Getenv("ROOT_KEYS")
	if raw == "" {
		return nil, ErrRootKeysNotSet
	}

	active := os.Getenv("ACTIVE_ROOT_KEY_ID")
	if active == "" {
		return nil, ErrActiveRootKeyIDNotSet
	}

	chain := &RootKeyChain{activeID: active}

	for part := range strings.SplitSeq(raw, ",") {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			chain.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidRootKeysFormat, part)
		}
		id := p[0]
		key, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			chain.Close()
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidRootKeyBase64, id, err)
		}
		if len(key) != 32 {
			Zero(key)
			chain.Close()
			return nil, fmt.Errorf("%w: root key %s must be 32 bytes, got %d", ErrInvalidKeySize, id, len(key))
		}
		chain.keys.Store(id, &RootKey{ID: id, Key: key})
	}

	if _, ok := chain.Get(active); !ok {
		chain.Close()
		return nil, fmt.Errorf("%w: ACTIVE_ROOT_KEY_ID=%s", ErrActiveRootKeyNotFound, active)
	}

	return chain, nil
}
