package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/generator"
	"github.com/roach88/idlbind/internal/ir"
)

// Run is one recorded generation run.
type Run struct {
	Seq         int64         `json:"seq"`
	ID          string        `json:"id"`
	Source      string        `json:"source"`
	TreeHash    string        `json:"tree_hash"`
	OutputDir   string        `json:"output_dir"`
	Options     emit.Options  `json:"options"`
	ToolVersion string        `json:"tool_version"`
	IRVersion   string        `json:"ir_version"`
	Errors      int           `json:"errors"`
	Warnings    int           `json:"warnings"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Units       int           `json:"units"` // filled on read
}

// UnitRecord is one unit a run delivered.
type UnitRecord struct {
	Path        string `json:"path"`
	Namespace   string `json:"namespace"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	ContentHash string `json:"content_hash"`
}

// unitKind names a unit's kind for the manifest. Runtime units have no
// declaration behind them.
func unitKind(u *emit.Unit) string {
	if u.Runtime {
		return "runtime"
	}
	return u.Kind.String()
}

// NewRun builds the manifest rows for a generator result. Output directories
// are stored absolute so runs from different working directories compare.
func NewRun(res *generator.Result, source []byte, outputDir string, started time.Time) (Run, []UnitRecord, error) {
	dir, err := filepath.Abs(outputDir)
	if err != nil {
		return Run{}, nil, errors.Wrapf(err, "resolve output directory %s", outputDir)
	}
	run := Run{
		ID:          res.RunID,
		Source:      res.Source,
		TreeHash:    ir.TreeHash(source),
		OutputDir:   filepath.Clean(dir),
		Options:     res.Options,
		ToolVersion: ir.ToolVersion,
		IRVersion:   ir.IRVersion,
		Errors:      res.Errors,
		Warnings:    res.Warnings,
		StartedAt:   started,
		Duration:    res.Duration,
	}
	units := make([]UnitRecord, 0, len(res.Units))
	for _, u := range res.Units {
		units = append(units, UnitRecord{
			Path:        u.Path,
			Namespace:   u.Namespace,
			Name:        u.Name,
			Kind:        unitKind(u),
			ContentHash: ir.UnitHash(u.Path, []byte(u.Content)),
		})
	}
	return run, units, nil
}

// RecordRun inserts a run and its units in one transaction and returns the
// seq assigned to the run.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - recording the same run
// twice keeps the first copy and returns its seq.
func (s *Store) RecordRun(ctx context.Context, run Run, units []UnitRecord) (int64, error) {
	if run.ID == "" {
		return 0, errors.NewInvalidInputf("record run: empty run id")
	}
	optsJSON, err := marshalOptions(run.Options)
	if err != nil {
		return 0, errors.Wrap(err, "record run")
	}

	var seq int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO runs
			(id, source, tree_hash, output_dir, options, tool_version, ir_version,
			 errors, warnings, started_at, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			run.ID,
			run.Source,
			run.TreeHash,
			run.OutputDir,
			optsJSON,
			run.ToolVersion,
			run.IRVersion,
			run.Errors,
			run.Warnings,
			formatTime(run.StartedAt),
			run.Duration.Milliseconds(),
		)
		if err != nil {
			return errors.Wrap(err, "insert run")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, run.ID).Scan(&seq)
		}
		if seq, err = res.LastInsertId(); err != nil {
			return errors.Wrap(err, "run seq")
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO units (run_id, path, namespace, name, kind, content_hash)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, path) DO NOTHING
		`)
		if err != nil {
			return errors.Wrap(err, "prepare unit insert")
		}
		defer stmt.Close()
		for _, u := range units {
			if _, err := stmt.ExecContext(ctx, run.ID, u.Path, u.Namespace, u.Name, u.Kind, u.ContentHash); err != nil {
				return errors.Wrapf(err, "insert unit %s", u.Path)
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "record run")
	}
	return seq, nil
}

// ForgetUnits drops the rows for paths written by earlier runs into dir,
// keeping the latest run intact. Clean calls it after deleting stale files
// so they are not reported again.
func (s *Store) ForgetUnits(ctx context.Context, outputDir string, paths []string) (int64, error) {
	latest, err := s.LatestRun(ctx, outputDir)
	if err != nil {
		return 0, err
	}
	var total int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range paths {
			res, err := tx.ExecContext(ctx, `
				DELETE FROM units
				WHERE path = ?
				  AND run_id IN (SELECT id FROM runs WHERE output_dir = ? AND seq < ?)
			`, p, latest.OutputDir, latest.Seq)
			if err != nil {
				return errors.Wrapf(err, "forget %s", p)
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return nil
	})
	return total, err
}

// PruneRuns deletes all but the newest keep runs into outputDir. Units go
// with their runs.
func (s *Store) PruneRuns(ctx context.Context, outputDir string, keep int) (int64, error) {
	if keep < 1 {
		return 0, errors.NewInvalidInputf("prune runs: keep must be at least 1, got %d", keep)
	}
	dir, err := cleanDir(outputDir)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE output_dir = ?
		  AND seq NOT IN (
			SELECT seq FROM runs WHERE output_dir = ? ORDER BY seq DESC LIMIT ?
		  )
	`, dir, dir, keep)
	if err != nil {
		return 0, errors.Wrap(err, "prune runs")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func cleanDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "resolve output directory %s", dir)
	}
	return filepath.Clean(abs), nil
}
