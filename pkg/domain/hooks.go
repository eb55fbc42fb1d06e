package domain

import (
	"context"
	"time"
)

// EvaluationEvent is emitted after a successful evaluation.
type EvaluationEvent struct {
	Timestamp  time.Time     `json:"timestamp"`
	Evaluation *Evaluation   `json:"evaluation"`
	Duration   time.Duration `json:"duration"`
}

// RejectionEvent is emitted when input validation fails.
type RejectionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
	Err       error     `json:"-"`
}

// Hooks defines callbacks for engine observability.
// Hooks observe; they cannot alter the recommendation.
type Hooks struct {
	OnEvaluation func(context.Context, *EvaluationEvent)
	OnRejected   func(context.Context, *RejectionEvent)
}
