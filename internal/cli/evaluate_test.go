package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/titrate/internal/dto"
	"github.com/aretw0/titrate/internal/validator"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseOptions(t *testing.T) Options {
	return Options{PolicyFile: writePolicy(t), LogLevel: "error"}
}

func TestEvaluate_JSON(t *testing.T) {
	var out bytes.Buffer
	err := Evaluate(context.Background(), EvaluateOptions{
		Options: baseOptions(t),
		Request: dto.EvaluateRequest{
			Doses:   map[string]int{"RAASi": 2, "BB": 3, "MRA": 1, "SGLT2i": 1},
			Signals: domain.ClinicalSignals{HeartRate: domain.Float(44)},
		},
		JSON: true,
		Out:  &out,
	})
	require.NoError(t, err)

	var eval domain.Evaluation
	require.NoError(t, json.Unmarshal(out.Bytes(), &eval))
	assert.Equal(t, domain.OutcomeSafetyAction, eval.Outcome)
	require.NotNil(t, eval.Recommendation)
	assert.Equal(t, domain.BetaBlocker, eval.Recommendation.Class)
	assert.Equal(t, -1, eval.Recommendation.Delta)
}

func TestEvaluate_InputFromStdin(t *testing.T) {
	var out bytes.Buffer
	err := Evaluate(context.Background(), EvaluateOptions{
		Options:   baseOptions(t),
		InputPath: "-",
		In:        strings.NewReader(`{"doses":{"RAASi":4,"BetaBlocker":2,"MRA":1,"SGLT2i":1},"signals":{}}`),
		Out:       &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "## Escalation")
	assert.Contains(t, out.String(), "Up-titrate BetaBlocker: level 2 -> 3")
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts EvaluateOptions
		want error
	}{
		{
			name: "Schema violation",
			opts: EvaluateOptions{InputPath: "-", In: strings.NewReader(`{"doses":{"RAASi":1},"extra":true}`)},
			want: validator.ErrInvalidRequest,
		},
		{
			name: "Missing class",
			opts: EvaluateOptions{Request: dto.EvaluateRequest{Doses: map[string]int{"RAASi": 1, "MRA": 1, "SGLT2i": 1}}},
			want: domain.ErrIncompleteDoseState,
		},
		{
			name: "Out of range",
			opts: EvaluateOptions{Request: dto.EvaluateRequest{Doses: map[string]int{"RAASi": 5, "BB": 1, "MRA": 1, "SGLT2i": 1}}},
			want: domain.ErrInvalidDoseLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Options = baseOptions(t)
			tt.opts.Out = &bytes.Buffer{}
			err := Evaluate(context.Background(), tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("No policy", func(t *testing.T) {
		err := Evaluate(context.Background(), EvaluateOptions{Out: &bytes.Buffer{}})
		assert.ErrorIs(t, err, ErrNoPolicySource)
	})
}

func TestGraph(t *testing.T) {
	t.Run("Plain machine", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, Graph(context.Background(), EvaluateOptions{Out: &out}))
		assert.Contains(t, out.String(), "graph TD")
		assert.NotContains(t, out.String(), "classDef")
	})

	t.Run("Overlay from request", func(t *testing.T) {
		var out bytes.Buffer
		err := Graph(context.Background(), EvaluateOptions{
			Options: baseOptions(t),
			Request: dto.EvaluateRequest{Doses: map[string]int{"RAASi": 4, "BB": 4, "MRA": 4, "SGLT2i": 4}},
			Out:     &out,
		})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "class ESCALATION_CHECK visited;")
		assert.Contains(t, out.String(), "class STOP_NO_ACTION current;")
	})
}
