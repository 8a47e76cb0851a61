// Package store keeps the generation manifest in SQLite.
//
// Every generate run can be recorded with the units it delivered and a hash
// of each unit's content. The manifest answers three questions:
//   - which runs happened, newest first (ListRuns)
//   - what changed between a run and the previous run into the same output
//     directory (DiffRun)
//   - which files an earlier run wrote that the latest run no longer produces
//     (StaleUnits), so they can be cleaned up
//
// Runs are ordered by the seq column, assigned on insert. Wall-clock
// timestamps are stored for display and never used for ordering. Queries
// that list units order by path COLLATE BINARY so output is reproducible.
package store
