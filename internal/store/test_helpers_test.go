package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/ir"
)

// createTestStore creates a new store in a temporary directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run into dir with one unit per path. Unit content
// is the path itself unless overridden in content.
func createTestRun(id, dir string, content map[string]string, paths ...string) (Run, []UnitRecord) {
	run := Run{
		ID:          id,
		Source:      "shapes.yaml",
		TreeHash:    "test-hash",
		OutputDir:   dir,
		Options:     emit.Options{NamespacePrefix: "com.acme"},
		ToolVersion: ir.ToolVersion,
		IRVersion:   ir.IRVersion,
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:    42 * time.Millisecond,
	}
	units := make([]UnitRecord, len(paths))
	for i, p := range paths {
		body := p
		if c, ok := content[p]; ok {
			body = c
		}
		name := strings.TrimSuffix(filepath.Base(p), ".java")
		units[i] = UnitRecord{
			Path:        p,
			Namespace:   strings.ReplaceAll(filepath.Dir(p), "/", "."),
			Name:        name,
			Kind:        "struct",
			ContentHash: ir.UnitHash(p, []byte(body)),
		}
	}
	return run, units
}

// mustRecord records a run and fails the test on error.
func mustRecord(t *testing.T, s *Store, run Run, units []UnitRecord) int64 {
	t.Helper()
	seq, err := s.RecordRun(context.Background(), run, units)
	if err != nil {
		t.Fatalf("RecordRun(%s) failed: %v", run.ID, err)
	}
	return seq
}
