package engine

import (
	"fmt"

	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
)

// Engine runs the titration rule against one immutable policy.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	policy *policy.Policy
}

// New prepares p and returns an engine bound to it.
func New(p *policy.Policy) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("engine: %w", policy.ErrMissingThreshold)
	}
	prepared, err := policy.Prepare(*p)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Engine{policy: prepared}, nil
}

// Policy returns a copy of the engine's policy.
func (e *Engine) Policy() policy.Policy {
	return e.policy.Clone()
}

// Run evaluates one visit and returns the full audit record.
// VALIDATE -> NORMALIZE -> SAFETY_CHECK -> (stop | ESCALATION_CHECK) -> stop.
func (e *Engine) Run(doses domain.DoseState, signals domain.ClinicalSignals) (*domain.Evaluation, error) {
	eval := &domain.Evaluation{
		Triggers: []domain.SafetyTrigger{},
		Path:     []domain.Phase{domain.PhaseValidate},
	}
	if err := doses.Validate(); err != nil {
		return nil, err
	}
	signals, err := signals.CanonicalSymptoms()
	if err != nil {
		return nil, err
	}

	eval.Path = append(eval.Path, domain.PhaseNormalize)
	eval.Triggers = Normalize(signals, e.policy)

	eval.Path = append(eval.Path, domain.PhaseSafetyCheck)
	if p, ok := EvaluateSafety(eval.Triggers, doses, e.policy.Mapping); ok {
		rec := Format(*p)
		eval.Recommendation = &rec
		eval.Outcome = domain.OutcomeSafetyAction
		return eval, nil
	}

	eval.Path = append(eval.Path, domain.PhaseEscalationCheck)
	if p, ok := EvaluateEscalation(doses); ok {
		rec := Format(*p)
		eval.Recommendation = &rec
		eval.Outcome = domain.OutcomeEscalationAction
		return eval, nil
	}

	eval.Outcome = domain.OutcomeNoAction
	return eval, nil
}

// Evaluate returns the single recommendation, or nil for "no action".
func (e *Engine) Evaluate(doses domain.DoseState, signals domain.ClinicalSignals) (*domain.Recommendation, error) {
	eval, err := e.Run(doses, signals)
	if err != nil {
		return nil, err
	}
	return eval.Recommendation, nil
}
