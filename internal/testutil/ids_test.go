package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator(t *testing.T) {
	gen := NewFixedIDGenerator("run-abc")
	assert.Equal(t, "run-abc", gen.Generate())
	assert.Equal(t, "run-abc", gen.Generate())

	assert.Equal(t, "test-run-default", NewFixedIDGenerator("").Generate())
}

func TestSequentialIDGenerator(t *testing.T) {
	gen := NewSequentialIDGenerator()
	assert.Equal(t, "run-0001", gen.Generate())
	assert.Equal(t, "run-0002", gen.Generate())

	gen.Reset()
	assert.Equal(t, "run-0001", gen.Generate())
}

func TestSequentialIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequentialIDGenerator()
	const n = 50

	var wg sync.WaitGroup
	seen := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- gen.Generate()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[string]bool)
	for id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, n, "every ID must be distinct")
}
