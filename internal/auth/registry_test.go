package auth

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	t.Run("first login replaces nothing", func(t *testing.T) {
		r := NewRegistry()
		prev, replaced := r.Register("alice", "h1")
		require.False(t, replaced)
		require.Empty(t, prev)

		current, ok := r.Current("alice")
		require.True(t, ok)
		require.Equal(t, Handle("h1"), current)
	})

	t.Run("newest login wins and reports the old handle", func(t *testing.T) {
		r := NewRegistry()
		r.Register("alice", "h1")

		prev, replaced := r.Register("alice", "h2")
		require.True(t, replaced)
		require.Equal(t, Handle("h1"), prev)

		current, _ := r.Current("alice")
		require.Equal(t, Handle("h2"), current)
	})

	t.Run("re-registering the same handle is not a replacement", func(t *testing.T) {
		r := NewRegistry()
		r.Register("alice", "h1")

		_, replaced := r.Register("alice", "h1")
		require.False(t, replaced)
	})

	t.Run("usernames are independent", func(t *testing.T) {
		r := NewRegistry()
		r.Register("alice", "h1")
		_, replaced := r.Register("bob", "h2")
		require.False(t, replaced)
		require.Equal(t, 2, r.Len())
	})
}

func TestRegistryRemove(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("alice", "h1")
	r.Remove("alice")
	_, ok := r.Current("alice")
	require.False(t, ok)

	// removing an absent entry is a no-op
	r.Remove("alice")
	require.Equal(t, 0, r.Len())
}

func TestRegistryRemoveIf(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("alice", "h1")
	r.Register("alice", "h2")

	require.False(t, r.RemoveIf("alice", "h1"))
	current, ok := r.Current("alice")
	require.True(t, ok)
	require.Equal(t, Handle("h2"), current)

	require.True(t, r.RemoveIf("alice", "h2"))
	_, ok = r.Current("alice")
	require.False(t, ok)
}

func TestRegistryConcurrentRegisterKeepsOneHandle(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	const workers = 64

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		replaced []Handle
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prev, ok := r.Register("alice", Handle(fmt.Sprintf("h%d", i)))
			if ok {
				mu.Lock()
				replaced = append(replaced, prev)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, r.Len())
	current, ok := r.Current("alice")
	require.True(t, ok)

	// Every handle except the survivor was handed back exactly once for invalidation.
	require.Len(t, replaced, workers-1)
	seen := map[Handle]bool{current: true}
	for _, h := range replaced {
		require.False(t, seen[h], "handle %s returned twice", h)
		seen[h] = true
	}
	require.Len(t, seen, workers)
}
