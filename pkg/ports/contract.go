package ports

import (
	"context"
	"testing"

	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPolicySourceContract runs a suite of tests to verify that a PolicySource
// implementation adheres to the defined interface contract. want holds the
// thresholds the source is expected to serve.
func RunPolicySourceContract(t *testing.T, src PolicySource, want policy.Thresholds) {
	ctx := context.Background()

	t.Run("Load Prepared Policy", func(t *testing.T) {
		p, err := src.Load(ctx)
		require.NoError(t, err, "Load should not return error")
		require.NotNil(t, p)

		assert.Equal(t, want, p.Thresholds)
		for _, kind := range domain.TriggerPriority() {
			rule, ok := p.Mapping[kind]
			assert.True(t, ok, "prepared policy must map %s", kind)
			assert.NotEmpty(t, rule.Classes)
			assert.GreaterOrEqual(t, rule.Step, 1)
		}
	})

	t.Run("Loads Are Independent", func(t *testing.T) {
		first, err := src.Load(ctx)
		require.NoError(t, err)
		*first.Thresholds.HypotensionSystolic = -1
		first.Mapping[domain.Bradycardia] = policy.Rule{}

		second, err := src.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, second.Thresholds)
		assert.NotEmpty(t, second.Mapping[domain.Bradycardia].Classes)
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := src.Load(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// RunPolicyPublisherContract verifies that a published policy is served back
// by Load and that an invalid policy is refused.
func RunPolicyPublisherContract(t *testing.T, pub PolicyPublisher) {
	ctx := context.Background()

	thresholds := policy.Thresholds{
		BradycardiaHeartRate:  domain.Float(48),
		HypotensionSystolic:   domain.Float(88),
		HyperkalemiaPotassium: domain.Float(5.6),
		LowTimeInRangePct:     domain.Float(15),
	}

	t.Run("Publish and Load", func(t *testing.T) {
		in, err := policy.Prepare(policy.Policy{Thresholds: thresholds})
		require.NoError(t, err)
		require.NoError(t, pub.Publish(ctx, in))

		out, err := pub.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, in.Thresholds, out.Thresholds)
		assert.Equal(t, in.Mapping, out.Mapping)
	})

	t.Run("Publish Rejects Invalid Policy", func(t *testing.T) {
		err := pub.Publish(ctx, &policy.Policy{})
		assert.ErrorIs(t, err, policy.ErrMissingThreshold)

		// The previous policy must still be served.
		out, err := pub.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 88.0, *out.Thresholds.HypotensionSystolic)
	})
}
