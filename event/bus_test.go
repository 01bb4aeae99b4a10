package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBus_FansOutToAllHandlers(t *testing.T) {
	bus := NewBus[string, int]()

	var first, second []int
	bus.AddHandler(HandlerFunc[string, int](func(_ string, v int) {
		first = append(first, v)
	}))
	bus.AddHandler(HandlerFunc[string, int](func(_ string, v int) {
		second = append(second, v)
	}))

	bus.Post("k", 1)
	bus.Post("k", 2)

	require.Equal(t, []int{1, 2}, first)
	require.Equal(t, []int{1, 2}, second)
}

func TestBus_NoHandlers(t *testing.T) {
	bus := NewBus[string, int]()
	bus.Post("k", 1)
}

func TestBus_KeysPassedThrough(t *testing.T) {
	bus := NewBus[string, string]()

	var keys []string
	bus.AddHandler(HandlerFunc[string, string](func(k string, _ string) {
		keys = append(keys, k)
	}))

	bus.Post("a", "x")
	bus.Post("b", "y")
	require.Equal(t, []string{"a", "b"}, keys)
}

func TestBus_HandlerAddedAfterPost(t *testing.T) {
	bus := NewBus[string, int]()
	bus.Post("k", 1)

	var got []int
	bus.AddHandler(HandlerFunc[string, int](func(_ string, v int) {
		got = append(got, v)
	}))
	bus.Post("k", 2)

	require.Equal(t, []int{2}, got)
}
