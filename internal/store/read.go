package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/roach88/idlbind/internal/errors"
)

const runColumns = `
	r.seq, r.id, r.source, r.tree_hash, r.output_dir, r.options,
	r.tool_version, r.ir_version, r.errors, r.warnings, r.started_at, r.duration_ms,
	(SELECT COUNT(*) FROM units u WHERE u.run_id = r.id)
`

// ListRuns returns recorded runs newest first. A limit of zero or less
// returns every run. Returns an empty slice, not nil, when nothing is
// recorded.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r
		ORDER BY r.seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "list runs")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	return runs, nil
}

// GetRun returns the run with the given id.
// Returns ErrNotFound if no such run exists.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, errors.NewNotFoundf("run %s", id)
	}
	if err != nil {
		return Run{}, errors.Wrapf(err, "get run %s", id)
	}
	return run, nil
}

// LatestRun returns the newest run into outputDir.
// Returns ErrNotFound if nothing was generated there.
func (s *Store) LatestRun(ctx context.Context, outputDir string) (Run, error) {
	dir, err := cleanDir(outputDir)
	if err != nil {
		return Run{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r
		WHERE r.output_dir = ?
		ORDER BY r.seq DESC
		LIMIT 1
	`, dir)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, errors.NewNotFoundf("no recorded run into %s", dir)
	}
	if err != nil {
		return Run{}, errors.Wrap(err, "latest run")
	}
	return run, nil
}

// RunUnits returns the units a run delivered, ordered by path.
func (s *Store) RunUnits(ctx context.Context, runID string) ([]UnitRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, namespace, name, kind, content_hash
		FROM units
		WHERE run_id = ?
		ORDER BY path COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "units of run %s", runID)
	}
	defer rows.Close()

	units := []UnitRecord{}
	for rows.Next() {
		var u UnitRecord
		if err := rows.Scan(&u.Path, &u.Namespace, &u.Name, &u.Kind, &u.ContentHash); err != nil {
			return nil, errors.Wrap(err, "scan unit")
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "units of run %s", runID)
	}
	return units, nil
}

// StaleUnits returns paths that earlier runs wrote into outputDir and the
// latest run did not. Paths are relative to outputDir and ordered.
// Returns ErrNotFound if nothing was generated there.
func (s *Store) StaleUnits(ctx context.Context, outputDir string) ([]string, error) {
	latest, err := s.LatestRun(ctx, outputDir)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT u.path
		FROM units u
		JOIN runs r ON r.id = u.run_id
		WHERE r.output_dir = ?
		  AND r.seq < ?
		  AND u.path NOT IN (SELECT path FROM units WHERE run_id = ?)
		ORDER BY u.path COLLATE BINARY ASC
	`, latest.OutputDir, latest.Seq, latest.ID)
	if err != nil {
		return nil, errors.Wrap(err, "stale units")
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.Wrap(err, "scan stale unit")
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "stale units")
	}
	return paths, nil
}

// RunDiff compares a run with the previous run into the same directory.
type RunDiff struct {
	Run      Run      `json:"run"`
	Previous *Run     `json:"previous,omitempty"`
	Added    []string `json:"added"`
	Changed  []string `json:"changed"`
	Removed  []string `json:"removed"`
	Same     int      `json:"unchanged"`
}

// DiffRun compares the run with id against its predecessor. With no
// predecessor every unit counts as added.
func (s *Store) DiffRun(ctx context.Context, id string) (*RunDiff, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	diff := &RunDiff{Run: run, Added: []string{}, Changed: []string{}, Removed: []string{}}

	current, err := s.RunUnits(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r
		WHERE r.output_dir = ? AND r.seq < ?
		ORDER BY r.seq DESC
		LIMIT 1
	`, run.OutputDir, run.Seq)
	prev, err := scanRun(row)
	if err == sql.ErrNoRows {
		for _, u := range current {
			diff.Added = append(diff.Added, u.Path)
		}
		return diff, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "previous run")
	}
	diff.Previous = &prev

	before, err := s.RunUnits(ctx, prev.ID)
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]string, len(before))
	for _, u := range before {
		hashes[u.Path] = u.ContentHash
	}
	for _, u := range current {
		h, ok := hashes[u.Path]
		switch {
		case !ok:
			diff.Added = append(diff.Added, u.Path)
		case h != u.ContentHash:
			diff.Changed = append(diff.Changed, u.Path)
		default:
			diff.Same++
		}
		delete(hashes, u.Path)
	}
	// before is path-ordered, so walking it keeps Removed ordered
	for _, u := range before {
		if _, gone := hashes[u.Path]; gone {
			diff.Removed = append(diff.Removed, u.Path)
		}
	}
	return diff, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		optsJSON   string
		startedAt  string
		durationMS int64
	)
	err := row.Scan(
		&run.Seq,
		&run.ID,
		&run.Source,
		&run.TreeHash,
		&run.OutputDir,
		&optsJSON,
		&run.ToolVersion,
		&run.IRVersion,
		&run.Errors,
		&run.Warnings,
		&startedAt,
		&durationMS,
		&run.Units,
	)
	if err != nil {
		return Run{}, err
	}
	if run.Options, err = unmarshalOptions(optsJSON); err != nil {
		return Run{}, err
	}
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return Run{}, err
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}
