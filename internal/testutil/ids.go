package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns the same run ID every time, so manifests written
// by tests are byte-identical across runs.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator for id. An empty id becomes
// "test-run-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequentialIDGenerator returns run-0001, run-0002, ... and can be reset.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialIDGenerator struct {
	mu  sync.Mutex
	seq int64
}

// NewSequentialIDGenerator starts a generator whose first ID is run-0001.
func NewSequentialIDGenerator() *SequentialIDGenerator {
	return &SequentialIDGenerator{}
}

// Generate returns the next ID.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("run-%04d", g.seq)
}

// Reset restarts the sequence.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
