package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreeListRecyclesSlots(t *testing.T) {
	a := New()
	fl := NewFreeList[int](a)

	v1 := fl.Get()
	*v1 = 42
	require.Equal(t, 1, a.AllocCount())

	fl.Put(v1)
	require.Equal(t, 1, fl.Len())

	v2 := fl.Get()
	require.Same(t, v1, v2)
	require.Equal(t, 0, *v2, "recycled slot must be zeroed")
	require.Equal(t, 1, a.AllocCount(), "Get after Put must not allocate")
}

func TestFreeListAllocatesWhenEmpty(t *testing.T) {
	a := New()
	fl := NewFreeList[string](a)

	v1 := fl.Get()
	v2 := fl.Get()
	require.NotSame(t, v1, v2)
	require.Equal(t, 2, a.AllocCount())
}
