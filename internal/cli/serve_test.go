package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/titrate/internal/logging"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const borderlineBody = `{"doses":{"RAASi":2,"BB":2,"MRA":1,"SGLT2i":1},"signals":{"heart_rate":52}}`

func newTestService(t *testing.T, path string) (*Service, *httptest.Server) {
	t.Helper()
	svc, err := NewService(context.Background(), Options{PolicyFile: path}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	ts := httptest.NewServer(svc.API.Handler())
	t.Cleanup(ts.Close)
	return svc, ts
}

func postEvaluate(t *testing.T, ts *httptest.Server) domain.Evaluation {
	t.Helper()
	resp, err := http.Post(ts.URL+"/evaluate", "application/json", strings.NewReader(borderlineBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var eval domain.Evaluation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&eval))
	return eval
}

func bradycardiaCutoff(t *testing.T, ts *httptest.Server) float64 {
	t.Helper()
	resp, err := http.Get(ts.URL + "/policy")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Thresholds struct {
			BradycardiaHeartRate float64 `json:"bradycardia_heart_rate"`
		} `json:"thresholds"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Thresholds.BradycardiaHeartRate
}

func TestService_EvaluateAndMetrics(t *testing.T) {
	_, ts := newTestService(t, writePolicy(t))

	eval := postEvaluate(t, ts)
	assert.Equal(t, domain.OutcomeEscalationAction, eval.Outcome)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `titrate_evaluations_total{action="uptitrate",class="RAASi",outcome="STOP_WITH_ESCALATION_ACTION"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestService_Reload(t *testing.T) {
	path := writePolicy(t)
	svc, ts := newTestService(t, path)

	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(testPolicy, "50", "55", 1)), 0o644))
	require.NoError(t, svc.Reload(context.Background()))

	eval := postEvaluate(t, ts)
	assert.Equal(t, domain.OutcomeSafetyAction, eval.Outcome)

	t.Run("Broken policy keeps the running engine", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("thresholds: {}\n"), 0o644))
		assert.Error(t, svc.Reload(context.Background()))
		assert.Equal(t, 55.0, bradycardiaCutoff(t, ts))
	})
}

func TestService_ReloadOnChange(t *testing.T) {
	path := writePolicy(t)
	svc, ts := newTestService(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 1)
	go svc.reloadOn(ctx, changes)

	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(testPolicy, "50", "58", 1)), 0o644))
	changes <- struct{}{}

	assert.Eventually(t, func() bool {
		return bradycardiaCutoff(t, ts) == 58
	}, 2*time.Second, 20*time.Millisecond)
}

func TestService_WatchRequiresDocumentSource(t *testing.T) {
	svc, _ := newTestService(t, writePolicy(t))
	err := svc.WatchPolicy(context.Background())
	assert.ErrorContains(t, err, "cannot be watched")
}

func TestServe_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	path := writePolicy(t)

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeOptions{
			Options: Options{PolicyFile: path, LogLevel: "error"},
			Addr:    "127.0.0.1:0",
			Out:     &out,
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	assert.Contains(t, out.String(), "Shutting down (context cancelled)...")
	assert.Contains(t, out.String(), "Server stopped gracefully")
}
