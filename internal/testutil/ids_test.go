package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceIDs_Sequence(t *testing.T) {
	gen := NewSequenceIDs("deck")

	assert.Equal(t, "deck-1", gen.Generate())
	assert.Equal(t, "deck-2", gen.Generate())

	gen.Reset()
	assert.Equal(t, "deck-1", gen.Generate())
}

func TestSequenceIDs_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "id-1", NewSequenceIDs("").Generate())
}

func TestSequenceIDs_UniqueUnderConcurrency(t *testing.T) {
	gen := NewSequenceIDs("x")
	const numGoroutines = 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			id := gen.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, numGoroutines)
}
