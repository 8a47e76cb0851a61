// Package output provides the UnitSink implementations: a filesystem sink
// rooted at an output directory and an in-memory sink for tests and dry runs.
package output

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/errors"
)

// FileSink writes units below Dir, creating directories as needed. Files
// whose content is already up to date are left untouched so their
// modification times only change when the generated code does.
type FileSink struct {
	Dir string

	Written   int // files created or rewritten
	Unchanged int // files already holding the same content
}

// NewFileSink returns a sink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Target returns the file path a unit is written to.
func (s *FileSink) Target(u *emit.Unit) (string, error) {
	rel := filepath.FromSlash(u.Path)
	if filepath.IsAbs(rel) || !filepath.IsLocal(rel) {
		return "", errors.NewInvalidInputf("unit path %q escapes the output directory", u.Path)
	}
	return filepath.Join(s.Dir, rel), nil
}

// Write implements generator.UnitSink.
func (s *FileSink) Write(u *emit.Unit) error {
	path, err := s.Target(u)
	if err != nil {
		return err
	}
	content := []byte(u.Content)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
		s.Unchanged++
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", u.Path)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	s.Written++
	return nil
}

// Remove deletes the file for a unit path written by an earlier run, and any
// directories left empty up to Dir. A missing file is not an error.
func (s *FileSink) Remove(unitPath string) error {
	path, err := s.Target(&emit.Unit{Path: unitPath})
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", path)
	}
	root := filepath.Clean(s.Dir)
	for dir := filepath.Dir(path); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

// MemorySink keeps units in memory, in the order they were written.
type MemorySink struct {
	mu    sync.Mutex
	units []*emit.Unit
	fail  map[string]error
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// FailOn makes Write return err for the unit at path.
func (s *MemorySink) FailOn(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail == nil {
		s.fail = make(map[string]error)
	}
	s.fail[path] = err
}

// Write implements generator.UnitSink.
func (s *MemorySink) Write(u *emit.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[u.Path]; err != nil {
		return err
	}
	s.units = append(s.units, u)
	return nil
}

// Units returns the written units in write order.
func (s *MemorySink) Units() []*emit.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.units)
}

// Paths returns the written unit paths in write order.
func (s *MemorySink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, len(s.units))
	for i, u := range s.units {
		paths[i] = u.Path
	}
	return paths
}

// Get returns the unit written at path.
func (s *MemorySink) Get(path string) (*emit.Unit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.units {
		if u.Path == path {
			return u, true
		}
	}
	return nil, false
}
