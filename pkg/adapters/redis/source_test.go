package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/titrate/pkg/adapters/redis"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/aretw0/titrate/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...redis.Option) (*miniredis.Miniredis, *redis.Source) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	src := redis.NewFromClient(client, opts...)
	t.Cleanup(func() { _ = src.Close() })
	return mr, src
}

func TestRedisSource_Contract(t *testing.T) {
	mr, src := setup(t)
	require.NoError(t, mr.Set("titrate:policy", `{"thresholds":{"bradycardia_heart_rate":52,"hypotension_systolic":92,"hyperkalemia_potassium":5.4}}`))

	ports.RunPolicySourceContract(t, src, policy.Thresholds{
		BradycardiaHeartRate:  domain.Float(52),
		HypotensionSystolic:   domain.Float(92),
		HyperkalemiaPotassium: domain.Float(5.4),
	})
}

func TestRedisSource_PublisherContract(t *testing.T) {
	_, src := setup(t)
	ports.RunPolicyPublisherContract(t, src)
}

func TestRedisSource_NotFound(t *testing.T) {
	_, src := setup(t, redis.WithPrefix("ward7:"), redis.WithKey("hf"))
	assert.Equal(t, "ward7:hf", src.Key())

	_, err := src.Load(context.Background())
	assert.ErrorIs(t, err, policy.ErrPolicyNotFound)
}

func TestRedisSource_StoredPolicyMissingThresholds(t *testing.T) {
	mr, src := setup(t)
	require.NoError(t, mr.Set("titrate:policy", `{"thresholds":{"hypotension_systolic":90}}`))

	_, err := src.Load(context.Background())
	assert.ErrorIs(t, err, policy.ErrMissingThreshold)
}

func TestRedisSource_Revision(t *testing.T) {
	_, src := setup(t)
	ctx := context.Background()

	rev, err := src.Revision(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rev)

	p := &policy.Policy{Thresholds: policy.Thresholds{
		BradycardiaHeartRate:  domain.Float(50),
		HypotensionSystolic:   domain.Float(90),
		HyperkalemiaPotassium: domain.Float(5.5),
	}}
	require.NoError(t, src.Publish(ctx, p))
	require.NoError(t, src.Publish(ctx, p))

	rev, err = src.Revision(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	assert.Error(t, src.Publish(ctx, nil))
}

func TestRedisSource_TTL_Expiration(t *testing.T) {
	mr, src := setup(t, redis.WithTTL(time.Second))
	ctx := context.Background()

	p := &policy.Policy{Thresholds: policy.Thresholds{
		BradycardiaHeartRate:  domain.Float(50),
		HypotensionSystolic:   domain.Float(90),
		HyperkalemiaPotassium: domain.Float(5.5),
	}}
	require.NoError(t, src.Publish(ctx, p))
	_, err := src.Load(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, policy.ErrPolicyNotFound)
}
