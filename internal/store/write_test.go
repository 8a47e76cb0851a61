package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/generator"
	"github.com/roach88/idlbind/internal/ir"
)

func TestRecordRun_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	run, units := createTestRun("run-1", dir, nil, "com/acme/shapes/Point.java", "com/acme/shapes/Color.java")
	seq := mustRecord(t, s, run, units)
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if got.Seq != 1 || got.Source != "shapes.yaml" || got.OutputDir != dir {
		t.Errorf("GetRun() = %+v", got)
	}
	if got.Options.NamespacePrefix != "com.acme" {
		t.Errorf("Options.NamespacePrefix = %q, want com.acme", got.Options.NamespacePrefix)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, run.StartedAt)
	}
	if got.Duration != 42*time.Millisecond {
		t.Errorf("Duration = %v, want 42ms", got.Duration)
	}
	if got.Units != 2 {
		t.Errorf("Units = %d, want 2", got.Units)
	}
}

func TestRecordRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	dir := t.TempDir()

	run, units := createTestRun("run-1", dir, nil, "a/A.java")
	first := mustRecord(t, s, run, units)

	run.Source = "other.yaml"
	second := mustRecord(t, s, run, units)
	if first != second {
		t.Errorf("second RecordRun seq = %d, want %d", second, first)
	}

	got, err := s.GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if got.Source != "shapes.yaml" {
		t.Errorf("Source = %q, want first write kept", got.Source)
	}
}

func TestRecordRun_EmptyID(t *testing.T) {
	s := createTestStore(t)

	_, err := s.RecordRun(context.Background(), Run{}, nil)
	if !errors.IsInvalidInput(err) {
		t.Errorf("RecordRun(empty id) = %v, want invalid input", err)
	}
}

func TestRecordRun_SeqIncreases(t *testing.T) {
	s := createTestStore(t)
	dir := t.TempDir()

	var last int64
	for _, id := range []string{"run-b", "run-a", "run-c"} {
		run, units := createTestRun(id, dir, nil, "a/A.java")
		seq := mustRecord(t, s, run, units)
		if seq <= last {
			t.Errorf("seq for %s = %d, want > %d", id, seq, last)
		}
		last = seq
	}
}

func TestNewRun_FromGeneratorResult(t *testing.T) {
	dir := t.TempDir()
	started := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	res := &generator.Result{
		RunID:    "run-x",
		Source:   "shapes.yaml",
		Options:  emit.Options{UseArrays: true},
		Warnings: 1,
		Duration: 3 * time.Millisecond,
		Units: []*generator.Unit{
			{Namespace: "shapes", Name: "Point", Kind: ir.KindStruct, Path: "shapes/Point.java", Content: "class Point {}"},
			{Namespace: "idlbind.runtime", Name: "WireBuffer", Runtime: true, Path: "idlbind/runtime/WireBuffer.java", Content: "wire"},
		},
	}

	run, units, err := NewRun(res, []byte("definitions: []"), filepath.Join(dir, ".", "out"), started)
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}
	if run.OutputDir != filepath.Join(dir, "out") {
		t.Errorf("OutputDir = %q, want cleaned absolute path", run.OutputDir)
	}
	if run.TreeHash != ir.TreeHash([]byte("definitions: []")) {
		t.Errorf("TreeHash = %q", run.TreeHash)
	}
	if run.ToolVersion != ir.ToolVersion || run.IRVersion != ir.IRVersion {
		t.Errorf("versions = %s/%s", run.ToolVersion, run.IRVersion)
	}
	if len(units) != 2 {
		t.Fatalf("len(units) = %d, want 2", len(units))
	}
	if units[0].Kind != "struct" || units[1].Kind != "runtime" {
		t.Errorf("kinds = %s, %s; want struct, runtime", units[0].Kind, units[1].Kind)
	}
	if units[0].ContentHash != ir.UnitHash("shapes/Point.java", []byte("class Point {}")) {
		t.Errorf("ContentHash = %q", units[0].ContentHash)
	}
}

func TestForgetUnits(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	run, units := createTestRun("run-1", dir, nil, "a/A.java", "a/Old.java")
	mustRecord(t, s, run, units)
	run, units = createTestRun("run-2", dir, nil, "a/A.java")
	mustRecord(t, s, run, units)

	n, err := s.ForgetUnits(ctx, dir, []string{"a/Old.java"})
	if err != nil {
		t.Fatalf("ForgetUnits() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ForgetUnits() removed %d rows, want 1", n)
	}

	stale, err := s.StaleUnits(ctx, dir)
	if err != nil {
		t.Fatalf("StaleUnits() failed: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("StaleUnits() after forget = %v, want empty", stale)
	}
}

func TestPruneRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	other := t.TempDir()

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		run, units := createTestRun(id, dir, nil, "a/A.java")
		mustRecord(t, s, run, units)
	}
	run, units := createTestRun("elsewhere", other, nil, "a/A.java")
	mustRecord(t, s, run, units)

	n, err := s.PruneRuns(ctx, dir, 1)
	if err != nil {
		t.Fatalf("PruneRuns() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("PruneRuns() = %d, want 2", n)
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "elsewhere" || runs[1].ID != "run-3" {
		t.Errorf("remaining runs = %+v", runs)
	}

	if _, err := s.PruneRuns(ctx, dir, 0); !errors.IsInvalidInput(err) {
		t.Errorf("PruneRuns(keep=0) = %v, want invalid input", err)
	}
}
