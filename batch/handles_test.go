package batch

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRegistry_RegisterAndRelease(t *testing.T) {
	r := NewHandleRegistry()

	h := r.Register([]byte("data"))
	assert.True(t, strings.HasPrefix(h, "blob:"))
	assert.Equal(t, 1, r.Count())

	data, ok := r.Lookup(h)
	require.True(t, ok)
	assert.Equal(t, []byte("data"), data)

	assert.True(t, r.Release(h))
	assert.False(t, r.Release(h), "second release is a no-op")
	assert.False(t, r.Release(""))
	assert.Equal(t, 0, r.Count())

	_, ok = r.Lookup(h)
	assert.False(t, ok)
}

func TestHandleRegistry_ReleaseAll(t *testing.T) {
	r := NewHandleRegistry()
	r.Register(nil)
	r.Register([]byte("x"))

	assert.Equal(t, 2, r.ReleaseAll())
	assert.Equal(t, 0, r.Count())
}

func TestHandleRegistry_Concurrent(t *testing.T) {
	r := NewHandleRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := r.Register([]byte{byte(i)})
			r.Release(h)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count())
}
