package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_InvalidCapacity(t *testing.T) {
	_, err := New[int](0)
	assert.Error(t, err)

	_, err = New[int](-5)
	assert.Error(t, err)
}

func TestRing_PushAndItems(t *testing.T) {
	r := MustNew[int](3)

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 3, r.Capacity())

	assert.False(t, r.Push(1))
	assert.False(t, r.Push(2))
	assert.False(t, r.Push(3))
	assert.Equal(t, []int{1, 2, 3}, r.Items())

	// Fourth push evicts the oldest
	assert.True(t, r.Push(4))
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{2, 3, 4}, r.Items())
}

func TestRing_NewestOldest(t *testing.T) {
	r := MustNew[string](2)

	_, ok := r.Newest()
	assert.False(t, ok)
	_, ok = r.Oldest()
	assert.False(t, ok)

	r.Push("a")
	r.Push("b")
	r.Push("c")

	newest, ok := r.Newest()
	require.True(t, ok)
	assert.Equal(t, "c", newest)

	oldest, ok := r.Oldest()
	require.True(t, ok)
	assert.Equal(t, "b", oldest)
}

func TestRing_At(t *testing.T) {
	r := MustNew[int](4)
	for i := 1; i <= 6; i++ {
		r.Push(i)
	}

	// Holds 3, 4, 5, 6
	assert.Equal(t, 3, r.At(0))
	assert.Equal(t, 6, r.At(3))
	assert.Panics(t, func() { r.At(4) })
}

func TestRing_Clear(t *testing.T) {
	r := MustNew[int](3)
	r.Push(1)
	r.Push(2)

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Items())

	// Still usable after clear
	r.Push(9)
	assert.Equal(t, []int{9}, r.Items())
}

func TestRing_WrapAroundStability(t *testing.T) {
	r := MustNew[int](5)
	for i := 0; i < 100; i++ {
		r.Push(i)
	}
	assert.Equal(t, []int{95, 96, 97, 98, 99}, r.Items())
}
