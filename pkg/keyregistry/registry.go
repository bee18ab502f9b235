// Package keyregistry implements the per-contract key registry: one
// secp256k1 keypair is minted per contract, the first time it is
// persisted. Lookup never mints; Mint itself does not refuse an
// already-bound contract UUID and replaces its binding, so callers mint
// only at creation.
package keyregistry

import (
	"errors"
	"os"
	"strings"
	"sync"

	"covenant/pkg/signature"
	"covenant/pkg/store"
)

// ErrKeyNotFound is returned when a contract UUID is expected to already
// have a bound key (any operation other than mint) and none is on disk.
// This is a data-integrity error, not a "not found yet" condition: it
// must never be handled by silently minting a replacement key.
var ErrKeyNotFound = errors.New("keyregistry: bound key not found")

// Registry caches contract-to-keypair bindings in memory, write-through
// on mint, read-through from disk on a cache miss. It is safe for
// concurrent use.
type Registry struct {
	layout store.Layout

	mu       sync.RWMutex
	cache    map[string]signature.KeyPair // contractUUID -> keypair
	pubIndex map[string]string            // contractUUID -> pubKeyHex, mirrors the on-disk aggregate map
}

func New(layout store.Layout) *Registry {
	r := &Registry{
		layout:   layout,
		cache:    make(map[string]signature.KeyPair),
		pubIndex: make(map[string]string),
	}
	r.loadIndex()
	return r
}

func (r *Registry) loadIndex() {
	idx := map[string]string{}
	if err := store.ReadJSON(r.layout.ContractKeyMapFile(), &idx); err == nil {
		r.pubIndex = idx
	}
}

// Mint generates a new keypair and binds it to contractUUID. Mint must
// only ever be called once per contract UUID, at contract creation; the
// replicated store enforces this by calling Mint from Create and
// Lookup from every other operation.
func (r *Registry) Mint(contractUUID string) (signature.KeyPair, error) {
	kp, err := signature.GenerateKeyPair()
	if err != nil {
		return signature.KeyPair{}, err
	}
	if err := r.bind(contractUUID, kp); err != nil {
		return signature.KeyPair{}, err
	}
	return kp, nil
}

func (r *Registry) bind(contractUUID string, kp signature.KeyPair) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := store.WriteAtomic(r.layout.KeyFile(kp.PublicKeyHex), kp); err != nil {
		return err
	}
	r.pubIndex[contractUUID] = kp.PublicKeyHex
	if err := store.WriteAtomic(r.layout.ContractKeyMapFile(), r.pubIndex); err != nil {
		return err
	}
	r.cache[contractUUID] = kp
	return nil
}

// Lookup returns the keypair bound to contractUUID. It never mints a
// replacement: a contract with no bound key returns ErrKeyNotFound.
func (r *Registry) Lookup(contractUUID string) (signature.KeyPair, error) {
	r.mu.RLock()
	if kp, ok := r.cache[contractUUID]; ok {
		r.mu.RUnlock()
		return kp, nil
	}
	pubKey, ok := r.pubIndex[contractUUID]
	r.mu.RUnlock()
	if !ok {
		return signature.KeyPair{}, ErrKeyNotFound
	}

	var kp signature.KeyPair
	if err := store.ReadJSON(r.layout.KeyFile(pubKey), &kp); err != nil {
		if os.IsNotExist(err) {
			return signature.KeyPair{}, ErrKeyNotFound
		}
		return signature.KeyPair{}, err
	}

	r.mu.Lock()
	r.cache[contractUUID] = kp
	r.mu.Unlock()
	return kp, nil
}

// PublicKeyFor is a convenience over Lookup for callers that only need
// the public half (e.g. handing a contract's identity to the remote
// object-store adapter for signing).
func (r *Registry) PublicKeyFor(contractUUID string) (string, error) {
	kp, err := r.Lookup(contractUUID)
	if err != nil {
		return "", err
	}
	return kp.PublicKeyHex, nil
}

// Sweep reports every contract UUID in the aggregate index whose key file
// is missing from disk, and every contract document on disk with no
// entry in the index — data-integrity violations the periodic
// integrity job surfaces rather than silently repairs.
func (r *Registry) Sweep() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var broken []string
	for contractUUID, pubKey := range r.pubIndex {
		if _, err := os.Stat(r.layout.KeyFile(pubKey)); err != nil {
			broken = append(broken, contractUUID)
		}
	}
	entries, _ := os.ReadDir(r.layout.ContractsDir())
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		contractUUID := strings.TrimSuffix(e.Name(), ".json")
		if _, ok := r.pubIndex[contractUUID]; !ok {
			broken = append(broken, contractUUID)
		}
	}
	return broken
}
