package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/titrate"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/ports"
)

// createEngine loads the policy from src and builds an engine with the
// standard CLI conventions.
func createEngine(ctx context.Context, opts Options, src ports.PolicySource, logger *slog.Logger, hooks domain.Hooks) (*titrate.Engine, error) {
	p, err := opts.loadPolicy(ctx, src)
	if err != nil {
		return nil, err
	}

	engine, err := titrate.NewWithContext(ctx,
		titrate.WithPolicy(p),
		titrate.WithLogger(logger),
		titrate.WithHooks(hooks),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// debugHooks logs every evaluation and rejection.
func debugHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnEvaluation: func(ctx context.Context, e *domain.EvaluationEvent) {
			logger.Debug("Evaluation", "outcome", e.Evaluation.Outcome, "duration", e.Duration)
		},
		OnRejected: func(ctx context.Context, e *domain.RejectionEvent) {
			logger.Debug("Rejected", "reason", e.Reason, "err", e.Err)
		},
	}
}

// chainHooks calls each hook in order.
func chainHooks(all ...domain.Hooks) domain.Hooks {
	return domain.Hooks{
		OnEvaluation: func(ctx context.Context, e *domain.EvaluationEvent) {
			for _, h := range all {
				if h.OnEvaluation != nil {
					h.OnEvaluation(ctx, e)
				}
			}
		},
		OnRejected: func(ctx context.Context, e *domain.RejectionEvent) {
			for _, h := range all {
				if h.OnRejected != nil {
					h.OnRejected(ctx, e)
				}
			}
		},
	}
}
