// Package engine implements the titration rule: signal normalization, the
// safety evaluator, the escalation scan, the recommendation formatter and
// the orchestrator that runs them in that order.
package engine
