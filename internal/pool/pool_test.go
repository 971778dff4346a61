package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type slot struct {
	value int
}

func zeroSlot(s *slot) { s.value = 0 }

func TestPool_GetAllocatesFreshSlots(t *testing.T) {
	p := New[slot](0)
	h1 := p.Get(zeroSlot)
	h2 := p.Get(zeroSlot)
	require.NotEqual(t, h1, h2)
	require.Equal(t, 2, p.Len())
	require.Equal(t, 2, p.InUse())
}

func TestPool_PutRecyclesHandles(t *testing.T) {
	p := New[slot](0)
	h1 := p.Get(zeroSlot)
	p.At(h1).value = 42
	p.Put(h1)
	require.Equal(t, 1, p.Len())
	require.Equal(t, 0, p.InUse())

	h2 := p.Get(zeroSlot)
	require.Equal(t, h1, h2) // recycled, not freshly allocated
	require.Equal(t, 0, p.At(h2).value)
	require.Equal(t, 1, p.Len())
	require.Equal(t, 1, p.InUse())
}

func TestPool_AtReflectsMutation(t *testing.T) {
	p := New[slot](0)
	h := p.Get(zeroSlot)
	p.At(h).value = 7
	require.Equal(t, 7, p.At(h).value)
}

func TestPool_PointerStaysValidAcrossArenaGrowth(t *testing.T) {
	p := New[slot](0)
	h := p.Get(zeroSlot)
	ptr := p.At(h)
	ptr.value = 99

	// Grow the arena well past any small backing-array capacity; if the
	// arena stored values instead of pointers, this would reallocate and
	// leave ptr pointing at stale memory.
	for i := 0; i < 10_000; i++ {
		p.Get(zeroSlot)
	}

	require.Equal(t, 99, ptr.value)
	require.Same(t, ptr, p.At(h))
}
