package batch

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mobile-next/imgconvert/utils"
)

// HandleRegistry maps opaque display handles to byte buffers. Every handle
// handed out must be released exactly once; Count exposes the number of live
// handles so leaks are observable.
type HandleRegistry struct {
	mu      sync.RWMutex
	handles map[string][]byte
}

// NewHandleRegistry creates an empty handle registry
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{
		handles: make(map[string][]byte),
	}
}

// Register stores data and returns a new "blob:<uuid>" handle for it.
func (r *HandleRegistry) Register(data []byte) string {
	handle := "blob:" + uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[handle] = data
	utils.Verbose("Registered handle: %s (%d bytes)", handle, len(data))
	return handle
}

// Lookup returns the buffer behind handle.
func (r *HandleRegistry) Lookup(handle string) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.handles[handle]
	return data, ok
}

// Release frees handle. Releasing an unknown or already released handle is a
// no-op that returns false.
func (r *HandleRegistry) Release(handle string) bool {
	if handle == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[handle]; !ok {
		return false
	}
	delete(r.handles, handle)
	utils.Verbose("Released handle: %s", handle)
	return true
}

// ReleaseAll frees every live handle and returns how many were released.
func (r *HandleRegistry) ReleaseAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.handles)
	r.handles = make(map[string][]byte)
	return n
}

// Count returns the number of live handles
func (r *HandleRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
