package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_RecordEvaluations(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnEvaluation(ctx, &domain.EvaluationEvent{
		Duration: 2 * time.Millisecond,
		Evaluation: &domain.Evaluation{
			Outcome: domain.OutcomeSafetyAction,
			Recommendation: &domain.Recommendation{
				Class: domain.BetaBlocker, Action: domain.ActionDowntitrate, Delta: -1,
			},
			Triggers: []domain.SafetyTrigger{{Kind: domain.Bradycardia}, {Kind: domain.Hyperkalemia}},
		},
	})
	hooks.OnEvaluation(ctx, &domain.EvaluationEvent{
		Evaluation: &domain.Evaluation{Outcome: domain.OutcomeNoAction},
	})
	hooks.OnRejected(ctx, &domain.RejectionEvent{Reason: "invalid_dose_level"})

	body := scrape(t, m)
	assert.Contains(t, body, `titrate_evaluations_total{action="downtitrate",class="BetaBlocker",outcome="STOP_WITH_SAFETY_ACTION"} 1`)
	assert.Contains(t, body, `titrate_evaluations_total{action="none",class="none",outcome="STOP_NO_ACTION"} 1`)
	assert.Contains(t, body, `titrate_safety_triggers_total{kind="Bradycardia"} 1`)
	assert.Contains(t, body, `titrate_safety_triggers_total{kind="Hyperkalemia"} 1`)
	assert.Contains(t, body, `titrate_rejected_inputs_total{reason="invalid_dose_level"} 1`)
	assert.Contains(t, body, `titrate_evaluation_duration_seconds_count 2`)

	// Nil events are ignored.
	hooks.OnEvaluation(ctx, nil)
	hooks.OnRejected(ctx, nil)
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnRejected(context.Background(), &domain.RejectionEvent{Reason: "incomplete_dose_state"})

	body := scrape(t, m)
	assert.Contains(t, body, `titrate_rejected_inputs_total{reason="incomplete_dose_state"} 1`)
	assert.Contains(t, body, "titrate_evaluation_duration_seconds")
}

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
