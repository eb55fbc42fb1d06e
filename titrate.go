package titrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/titrate/internal/engine"
	"github.com/aretw0/titrate/internal/logging"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/aretw0/titrate/pkg/ports"
)

// Version is the library and CLI version.
const Version = "0.3.0"

// ErrNoPolicy is returned by New when neither a policy nor a source is given.
var ErrNoPolicy = errors.New("no policy configured")

// Engine is the high-level entry point for the titrate library.
// It wraps the internal engine and adds logging and lifecycle hooks.
type Engine struct {
	core   *engine.Engine
	policy *policy.Policy
	source ports.PolicySource
	hooks  domain.Hooks
	logger *slog.Logger
	now    func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithPolicy uses p as the clinical policy.
func WithPolicy(p *policy.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithPolicySource loads the policy from src while the engine is built.
// It is ignored when WithPolicy is also given.
func WithPolicySource(src ports.PolicySource) Option {
	return func(e *Engine) {
		e.source = src
	}
}

// WithPolicyFile is WithPolicySource over a YAML or JSON file.
func WithPolicyFile(path string) Option {
	return WithPolicySource(policy.NewFileSource(path))
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine. A policy must be given through WithPolicy,
// WithPolicySource or WithPolicyFile; its core thresholds are required.
func New(opts ...Option) (*Engine, error) {
	return NewWithContext(context.Background(), opts...)
}

// NewWithContext is New with a context for the policy source.
func NewWithContext(ctx context.Context, opts ...Option) (*Engine, error) {
	eng := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.policy == nil {
		if eng.source == nil {
			return nil, ErrNoPolicy
		}
		p, err := eng.source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load policy: %w", err)
		}
		eng.policy = p
	}

	core, err := engine.New(eng.policy)
	if err != nil {
		return nil, err
	}
	eng.core = core
	return eng, nil
}

// Evaluate returns the single next titration step, or nil for no action.
func (e *Engine) Evaluate(ctx context.Context, doses domain.DoseState, signals domain.ClinicalSignals) (*domain.Recommendation, error) {
	eval, err := e.Run(ctx, doses, signals)
	if err != nil {
		return nil, err
	}
	return eval.Recommendation, nil
}

// Run evaluates one visit and returns the audit record: outcome, every
// active trigger and the visited phases.
func (e *Engine) Run(ctx context.Context, doses domain.DoseState, signals domain.ClinicalSignals) (*domain.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := e.now()
	eval, err := e.core.Run(doses, signals)
	if err != nil {
		reason := domain.RejectReason(err)
		e.logger.DebugContext(ctx, "evaluation rejected", "reason", reason, "error", err)
		if e.hooks.OnRejected != nil {
			e.hooks.OnRejected(ctx, &domain.RejectionEvent{Timestamp: start, Reason: reason, Err: err})
		}
		return nil, err
	}

	attrs := []any{"outcome", eval.Outcome, "triggers", len(eval.Triggers)}
	if r := eval.Recommendation; r != nil {
		attrs = append(attrs, "class", r.Class, "action", r.Action, "delta", r.Delta)
		if r.Trigger != nil {
			attrs = append(attrs, "trigger", r.Trigger.Kind)
		}
	}
	e.logger.DebugContext(ctx, "evaluation complete", attrs...)

	if e.hooks.OnEvaluation != nil {
		e.hooks.OnEvaluation(ctx, &domain.EvaluationEvent{
			Timestamp:  start,
			Evaluation: eval,
			Duration:   e.now().Sub(start),
		})
	}
	return eval, nil
}

// Policy returns a copy of the prepared policy in use.
func (e *Engine) Policy() policy.Policy {
	return e.core.Policy()
}
