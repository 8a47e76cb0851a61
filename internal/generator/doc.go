// Package generator drives one generation run over a type tree.
//
// A run walks the tree depth-first in declaration order, emits one unit per
// non-module declaration, hands every unit to a UnitSink, and finishes with
// the runtime support units the emitted code needs. Failures are counted and
// reported through diagnostics; a run never stops early:
//
//   - two declarations mapping to the same output path: E201, the later one is skipped
//   - a sink that fails to write a unit: E202, the run continues
//
// The run is single-threaded and does not mutate the tree. A Generator may be
// reused for several runs; each run gets a fresh emitter and run ID.
package generator
