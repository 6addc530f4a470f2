package scan

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     int
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error { return nil }
func (c *fakeConn) Close() error          { c.closed = true; return nil }

func TestRegistryLastWriterWins(t *testing.T) {
	registry := NewRegistry()
	first := &fakeConn{id: 1}
	second := &fakeConn{id: 2}

	require.Nil(t, registry.Insert("OP5", first))
	evicted := registry.Insert("OP5", second)
	require.Same(t, first, evicted)

	current, ok := registry.Lookup("OP5")
	require.True(t, ok)
	require.Same(t, second, current)
	require.Equal(t, 1, registry.Count())
}

func TestRegistryEvictOnlyRemovesOwnSlot(t *testing.T) {
	registry := NewRegistry()
	first := &fakeConn{id: 1}
	second := &fakeConn{id: 2}

	registry.Insert("OP5", first)
	registry.Insert("OP5", second)

	// The stale reader of the replaced connection must not evict the new one.
	require.False(t, registry.Evict("OP5", first))
	_, ok := registry.Lookup("OP5")
	require.True(t, ok)

	require.True(t, registry.Evict("OP5", second))
	_, ok = registry.Lookup("OP5")
	require.False(t, ok)
	require.Zero(t, registry.Count())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code := fmt.Sprintf("OP%d", i%10)
			conn := &fakeConn{id: i}
			if prior := registry.Insert(code, conn); prior != nil {
				_ = prior.Close()
			}
			registry.Lookup(code)
			registry.Evict(code, conn)
		}(i)
	}
	wg.Wait()
	require.Zero(t, registry.Count())
}
