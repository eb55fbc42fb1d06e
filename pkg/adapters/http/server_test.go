package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/titrate"
	httpAdapter "github.com/aretw0/titrate/pkg/adapters/http"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/observability"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, brady float64, opts ...titrate.Option) *titrate.Engine {
	t.Helper()
	opts = append(opts, titrate.WithPolicy(&policy.Policy{Thresholds: policy.Thresholds{
		BradycardiaHeartRate:  domain.Float(brady),
		HypotensionSystolic:   domain.Float(90),
		HyperkalemiaPotassium: domain.Float(5.5),
	}}))
	eng, err := titrate.New(opts...)
	require.NoError(t, err)
	return eng
}

func newHandler(t *testing.T, eng httpAdapter.Engine, opts ...httpAdapter.Option) http.Handler {
	t.Helper()
	h, err := httpAdapter.NewHandler(eng, opts...)
	require.NoError(t, err)
	return h
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/evaluate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type response struct {
	Outcome        domain.Outcome         `json:"outcome"`
	Recommendation *domain.Recommendation `json:"recommendation"`
	Triggers       []domain.SafetyTrigger `json:"triggers"`
	Path           []domain.Phase         `json:"path"`
	Error          string                 `json:"error"`
	Reason         string                 `json:"reason"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestEvaluate_Escalation(t *testing.T) {
	h := newHandler(t, newEngine(t, 50))

	w := post(t, h, `{"doses":{"RAASi":2,"BB":1,"MRA":3,"SGLT2i":4},"signals":{"heart_rate":70,"systolic_bp":120,"potassium":4.5}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(httpAdapter.RequestIDHeader))

	resp := decode(t, w)
	assert.Equal(t, domain.OutcomeEscalationAction, resp.Outcome)
	require.NotNil(t, resp.Recommendation)
	assert.Equal(t, domain.RAASi, resp.Recommendation.Class)
	assert.Equal(t, domain.ActionUptitrate, resp.Recommendation.Action)
	assert.Equal(t, 3, resp.Recommendation.ToLevel)
	assert.Empty(t, resp.Triggers)
	assert.Len(t, resp.Path, 4)
}

func TestEvaluate_SafetyAndNoAction(t *testing.T) {
	h := newHandler(t, newEngine(t, 50))

	w := post(t, h, `{"doses":{"RAASi":2,"BetaBlocker":3,"MRA":1,"SGLT2i":1},"signals":{"heart_rate":44}}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, domain.OutcomeSafetyAction, resp.Outcome)
	assert.Equal(t, domain.BetaBlocker, resp.Recommendation.Class)
	assert.Equal(t, -1, resp.Recommendation.Delta)
	require.Len(t, resp.Triggers, 1)
	assert.Equal(t, domain.Bradycardia, resp.Triggers[0].Kind)

	w = post(t, h, `{"doses":{"RAASi":4,"BetaBlocker":4,"MRA":4,"SGLT2i":4}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recommendation":null`)
	assert.Equal(t, domain.OutcomeNoAction, decode(t, w).Outcome)
}

func TestEvaluate_Rejections(t *testing.T) {
	h := newHandler(t, newEngine(t, 50))

	tests := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{"Malformed JSON", `{"doses":`, http.StatusBadRequest, "invalid_request"},
		{"Schema Mismatch", `{"doses":{"RAASi":"two"}}`, http.StatusBadRequest, "invalid_request"},
		{"Level Out Of Range", `{"doses":{"RAASi":5,"BetaBlocker":0,"MRA":0,"SGLT2i":0}}`, http.StatusUnprocessableEntity, "invalid_dose_level"},
		{"Level Overflows Int", `{"doses":{"RAASi":1e30,"BetaBlocker":0,"MRA":0,"SGLT2i":0}}`, http.StatusUnprocessableEntity, "invalid_dose_level"},
		{"Fractional Level", `{"doses":{"RAASi":2.5,"BetaBlocker":0,"MRA":0,"SGLT2i":0}}`, http.StatusUnprocessableEntity, "invalid_dose_level"},
		{"Missing Class", `{"doses":{"RAASi":1,"MRA":0,"SGLT2i":0}}`, http.StatusUnprocessableEntity, "incomplete_dose_state"},
		{"Unknown Class", `{"doses":{"RAASi":1,"BB":1,"MRA":0,"SGLT2i":0,"Digoxin":1}}`, http.StatusUnprocessableEntity, "unknown_medication_class"},
		{"Unknown Symptom", `{"doses":{"RAASi":1,"BB":1,"MRA":0,"SGLT2i":0},"signals":{"symptoms":["cough"]}}`, http.StatusUnprocessableEntity, "unknown_symptom"},
		{"Duplicate Alias", `{"doses":{"BB":1,"BetaBlocker":1}}`, http.StatusUnprocessableEntity, "duplicate_medication_class"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decode(t, w)
			assert.Equal(t, tt.reason, resp.Reason)
			assert.NotEmpty(t, resp.Error)
			assert.Nil(t, resp.Recommendation)
		})
	}
}

type failingEngine struct{ *titrate.Engine }

func (failingEngine) Run(context.Context, domain.DoseState, domain.ClinicalSignals) (*domain.Evaluation, error) {
	return nil, errors.New("boom")
}

func TestEvaluate_WholeFloatAndNullSignals(t *testing.T) {
	h := newHandler(t, newEngine(t, 50))

	w := post(t, h, `{"doses":{"RAASi":2.0,"BB":1,"MRA":3,"SGLT2i":4},"signals":{"heart_rate":null,"systolic_bp":120,"potassium":null}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, domain.OutcomeEscalationAction, resp.Outcome)
	require.NotNil(t, resp.Recommendation)
	assert.Equal(t, domain.RAASi, resp.Recommendation.Class)
	assert.Equal(t, 2, resp.Recommendation.FromLevel)
}

func TestEvaluate_SymptomSpelling(t *testing.T) {
	h := newHandler(t, newEngine(t, 50))

	w := post(t, h, `{"doses":{"RAASi":2,"BB":2,"MRA":2,"SGLT2i":2},"signals":{"systolic_bp":118,"symptoms":[" Syncope"]}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, domain.OutcomeSafetyAction, resp.Outcome)
	require.Len(t, resp.Triggers, 1)
	assert.Equal(t, domain.Hypotension, resp.Triggers[0].Kind)
}

func TestEvaluate_InternalError(t *testing.T) {
	h := newHandler(t, failingEngine{newEngine(t, 50)})
	w := post(t, h, `{"doses":{"RAASi":1,"BB":1,"MRA":1,"SGLT2i":1}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestRequestID_Echoed(t *testing.T) {
	h := newHandler(t, newEngine(t, 50))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(httpAdapter.RequestIDHeader, "visit-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "visit-42", w.Header().Get(httpAdapter.RequestIDHeader))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadEndpoints(t *testing.T) {
	h := newHandler(t, newEngine(t, 50))

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
		return w
	}

	assert.JSONEq(t,
		`{"classes":["RAASi","BetaBlocker","MRA","SGLT2i"],"trigger_priority":["Hypotension","Bradycardia","Hyperkalemia","RenalDecline"]}`,
		get("/order").Body.String())

	var p policy.Policy
	require.NoError(t, json.Unmarshal(get("/policy").Body.Bytes(), &p))
	assert.Equal(t, 50.0, *p.Thresholds.BradycardiaHeartRate)
	assert.Equal(t, []domain.MedicationClass{domain.BetaBlocker}, p.Mapping[domain.Bradycardia].Classes)

	var info map[string]string
	require.NoError(t, json.Unmarshal(get("/info").Body.Bytes(), &info))
	assert.Equal(t, titrate.Version, info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	assert.Contains(t, get("/openapi.yaml").Body.String(), "openapi: 3.0.3")
	assert.Contains(t, get("/swagger").Body.String(), "swagger-ui")
}

func TestMetricsEndpoint(t *testing.T) {
	m := observability.NewMetrics()
	eng := newEngine(t, 50, titrate.WithHooks(m.Hooks()))
	h := newHandler(t, eng, httpAdapter.WithMetricsHandler(m.Handler()))

	post(t, h, `{"doses":{"RAASi":0,"BB":0,"MRA":0,"SGLT2i":0}}`)
	post(t, h, `{"doses":{"RAASi":7,"BB":0,"MRA":0,"SGLT2i":0}}`)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `titrate_evaluations_total{action="initiate",class="RAASi",outcome="STOP_WITH_ESCALATION_ACTION"} 1`)
	assert.Contains(t, w.Body.String(), `titrate_rejected_inputs_total{reason="invalid_dose_level"} 1`)

	t.Run("Not Mounted Without Handler", func(t *testing.T) {
		h := newHandler(t, eng)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSetEngine_HotSwap(t *testing.T) {
	s, err := httpAdapter.NewServer(newEngine(t, 50))
	require.NoError(t, err)
	h := s.Handler()

	body := `{"doses":{"RAASi":1,"BB":2,"MRA":1,"SGLT2i":1},"signals":{"heart_rate":52}}`
	assert.Equal(t, domain.OutcomeEscalationAction, decode(t, post(t, h, body)).Outcome)

	s.SetEngine(newEngine(t, 55))
	assert.Equal(t, domain.OutcomeSafetyAction, decode(t, post(t, h, body)).Outcome)
}

func TestCORS_Preflight(t *testing.T) {
	h := newHandler(t, newEngine(t, 50))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/evaluate", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
