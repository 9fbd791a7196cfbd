// Package secure wraps memguard to keep decoded secret material
// encrypted while it sits in memory between a backend read and the
// matching backend write.
package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by Open after Destroy.
var ErrDestroyed = errors.New("secure buffer already destroyed")

// Buffer holds the serialized hand-off document for a sync pass. The
// bytes are encrypted at rest (XSalsa20Poly1305) and the backing pages
// are mlocked where the platform allows, so the plaintext never lingers
// in swappable memory between pipeline steps.
type Buffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy calls and blocks use-after-destroy.
	destroyed bool
}

// NewBuffer seals data into a protected buffer. The input slice is
// consumed; callers must not reuse it.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the buffer and returns the plaintext in a locked region.
// The caller must Destroy() the returned LockedBuffer as soon as the
// bytes have been handed to the destination backend.
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return nil, ErrDestroyed
	}
	return b.enclave.Open()
}

// Destroy marks the buffer unusable. Idempotent.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyed = true
	b.enclave = nil
}

// Purge wipes every secure allocation in the process. Called on exit
// paths that have touched secret material.
func Purge() {
	memguard.Purge()
}
