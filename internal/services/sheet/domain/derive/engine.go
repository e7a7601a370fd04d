package derive

import (
	"context"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/louisbranch/duality-sheet/internal/platform/telemetry/metrics"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// MaxPasses caps the compute and heal loop.
const MaxPasses = 10

// Result is the outcome of one derivation.
type Result struct {
	Character   character.Character
	Sheet       Sheet
	Diagnostics []Diagnostic
	Passes      int
	Converged   bool
}

// Changed reports whether healing rewrote the document.
func (r Result) Changed() bool {
	return len(r.Diagnostics) > 0
}

// Engine runs compute and heal until neither the document nor the sheet
// changes.
type Engine struct {
	logger    *zap.Logger
	metrics   *metrics.Metrics
	maxPasses int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for corrections and convergence failures.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records derivations and corrections on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMaxPasses overrides MaxPasses. Values below 2 are raised to 2 since
// stability needs two matching cycles.
func WithMaxPasses(n int) Option {
	return func(e *Engine) { e.maxPasses = max(2, n) }
}

// NewEngine builds an Engine with a no-op logger and no metrics by default.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop(), maxPasses: MaxPasses}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var equateEmpty = cmpopts.EquateEmpty()

// Derive computes the sheet for c and heals the document until both are
// stable. A result that fails to settle within the pass cap is returned as
// is with Converged false.
func (e *Engine) Derive(ctx context.Context, c character.Character, snap *compendium.Snapshot) Result {
	doc := c.Clone()
	var (
		prev        *Sheet
		diagnostics []Diagnostic
	)
	for pass := 1; pass <= e.maxPasses; pass++ {
		sheet := Compute(Context{Character: doc, Compendium: snap, Previous: prev})
		healed, corrections := Heal(doc, Env{Compendium: snap, Sheet: &sheet})
		for _, d := range corrections {
			e.logger.Info("character corrected",
				zap.String("character_id", doc.ID),
				zap.String("rule", d.Rule),
				zap.String("message", d.Message),
			)
			e.metrics.RecordCorrection(ctx, d.Rule)
		}
		diagnostics = append(diagnostics, corrections...)

		if len(corrections) == 0 && prev != nil && cmp.Equal(sheet, *prev, equateEmpty) && cmp.Equal(healed, doc, equateEmpty) {
			e.metrics.RecordDerivation(ctx, pass, true)
			return Result{Character: doc, Sheet: sheet, Diagnostics: diagnostics, Passes: pass, Converged: true}
		}
		doc = healed
		prev = &sheet
	}

	e.logger.Error("character derivation did not converge",
		zap.String("character_id", doc.ID),
		zap.Int("passes", e.maxPasses),
	)
	e.metrics.RecordDerivation(ctx, e.maxPasses, false)
	sheet := Compute(Context{Character: doc, Compendium: snap, Previous: prev})
	return Result{Character: doc, Sheet: sheet, Diagnostics: diagnostics, Passes: e.maxPasses, Converged: false}
}
