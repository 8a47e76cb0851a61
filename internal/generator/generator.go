package generator

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/logger"
)

// Unit is one emitted source file.
type Unit = emit.Unit

// UnitSink persists emitted units.
type UnitSink interface {
	Write(unit *Unit) error
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Counts tallies the entities delivered to the sink, per kind.
type Counts struct {
	Structs  int `json:"structs"`
	Unions   int `json:"unions"`
	Enums    int `json:"enums"`
	Bitmasks int `json:"bitmasks"`
	Typedefs int `json:"typedefs"`
	Runtime  int `json:"runtime"`
}

// Total returns the number of units delivered.
func (c Counts) Total() int {
	return c.Structs + c.Unions + c.Enums + c.Bitmasks + c.Typedefs + c.Runtime
}

func (c *Counts) add(u *Unit) {
	if u.Runtime {
		c.Runtime++
		return
	}
	switch u.Kind {
	case ir.KindStruct:
		c.Structs++
	case ir.KindUnion:
		c.Unions++
	case ir.KindEnum:
		c.Enums++
	case ir.KindBitmask:
		c.Bitmasks++
	case ir.KindTypedef:
		c.Typedefs++
	}
}

// Result summarizes a run.
type Result struct {
	RunID       string            `json:"run_id"`
	Source      string            `json:"source"`
	Options     emit.Options      `json:"options"`
	Errors      int               `json:"errors"`
	Warnings    int               `json:"warnings"`
	Counts      Counts            `json:"counts"`
	Diagnostics []emit.Diagnostic `json:"diagnostics"`
	Units       []*Unit           `json:"units"`
	Duration    time.Duration     `json:"-"`
}

// OK reports whether the run finished without errors.
func (r *Result) OK() bool { return r.Errors == 0 }

// Generator runs generation passes with a fixed configuration.
type Generator struct {
	opts emit.Options
	log  *zap.Logger
	ids  IDGenerator
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the driver logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithIDGenerator replaces the UUIDv7 run ID source.
func WithIDGenerator(ids IDGenerator) Option {
	return func(g *Generator) {
		if ids != nil {
			g.ids = ids
		}
	}
}

// New creates a Generator for opts.
func New(opts emit.Options, options ...Option) *Generator {
	g := &Generator{
		opts: opts,
		log:  logger.Nop(),
		ids:  UUIDv7Generator{},
	}
	for _, o := range options {
		o(g)
	}
	return g
}

// Run emits every declaration of tree and delivers the units to sink. A nil
// sink keeps the units in the result only.
func (g *Generator) Run(tree *ir.Tree, sink UnitSink) *Result {
	start := time.Now()
	diags := &emit.Diagnostics{}
	em := emit.New(g.opts, diags)
	res := &Result{
		RunID:   g.ids.Generate(),
		Options: g.opts,
	}
	if tree != nil {
		res.Source = tree.Source
	}
	log := g.log.With(zap.String(logger.FieldRunID, res.RunID), zap.String(logger.FieldSource, res.Source))
	log.Info("generation started")

	r := &run{
		log:     log,
		diags:   diags,
		sink:    sink,
		res:     res,
		written: make(map[string]string),
	}
	if tree != nil && tree.Root != nil {
		tree.Walk(func(def ir.Definition) bool {
			if def.Kind() == ir.KindModule {
				log.Debug("entering module", zap.String(logger.FieldEntity, ir.ScopedName(def.Declaration())))
				return true
			}
			if u := em.Emit(def); u != nil {
				r.deliver(u, entityOf(u))
			}
			return true
		})
	}
	for _, u := range em.RuntimeUnits() {
		r.deliver(u, u.Namespace+"."+u.Name)
	}

	res.Diagnostics = diags.List()
	res.Errors = diags.Errors()
	res.Warnings = diags.Warnings()
	res.Duration = time.Since(start)
	for _, d := range res.Diagnostics {
		fields := []zap.Field{zap.String(logger.FieldCode, d.Code), zap.String(logger.FieldEntity, d.Entity)}
		switch d.Severity {
		case emit.SeverityError:
			log.Error(d.Message, fields...)
		case emit.SeverityWarning:
			log.Warn(d.Message, fields...)
		default:
			log.Info(d.Message, fields...)
		}
	}
	log.Info("generation finished",
		zap.Int(logger.FieldCount, res.Counts.Total()),
		zap.Int(logger.FieldErrors, res.Errors),
		zap.Int(logger.FieldWarnings, res.Warnings),
		zap.Duration("duration", res.Duration),
	)
	return res
}

// run is the state of one Run call.
type run struct {
	log     *zap.Logger
	diags   *emit.Diagnostics
	sink    UnitSink
	res     *Result
	written map[string]string // path -> entity that claimed it
}

func entityOf(u *Unit) string {
	if u.Namespace == "" {
		return u.Name
	}
	return u.Namespace + "." + u.Name
}

func (r *run) deliver(u *Unit, entity string) {
	if prev, ok := r.written[u.Path]; ok {
		r.diags.Errorf(emit.CodePathCollision, entity, "output path %s already written for %s", u.Path, prev)
		return
	}
	r.written[u.Path] = entity
	if r.sink != nil {
		if err := r.sink.Write(u); err != nil {
			r.diags.Errorf(emit.CodeSinkWrite, entity, "writing %s: %v", u.Path, err)
			return
		}
	}
	r.res.Counts.add(u)
	r.res.Units = append(r.res.Units, u)
	r.log.Debug("emitted",
		zap.String(logger.FieldEntity, entity),
		zap.String(logger.FieldKind, kindLabel(u)),
		zap.String(logger.FieldNamespace, u.Namespace),
		zap.String(logger.FieldPath, u.Path),
	)
}

func kindLabel(u *Unit) string {
	if u.Runtime {
		return "runtime"
	}
	return u.Kind.String()
}
