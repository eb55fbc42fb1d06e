package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/titrate/pkg/adapters/memory"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/aretw0/titrate/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed() *policy.Policy {
	return &policy.Policy{Thresholds: policy.Thresholds{
		BradycardiaHeartRate:  domain.Float(50),
		HypotensionSystolic:   domain.Float(90),
		HyperkalemiaPotassium: domain.Float(5.5),
	}}
}

func TestStore_Contract(t *testing.T) {
	ports.RunPolicySourceContract(t, memory.NewStore(seed()), seed().Thresholds)
	ports.RunPolicyPublisherContract(t, memory.NewStore(nil))
}

func TestStore_Empty(t *testing.T) {
	_, err := memory.NewStore(nil).Load(context.Background())
	assert.ErrorIs(t, err, policy.ErrPolicyNotFound)
}

func TestStore_Isolation(t *testing.T) {
	p := seed()
	store := memory.NewStore(p)
	*p.Thresholds.BradycardiaHeartRate = 70

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, *got.Thresholds.BradycardiaHeartRate)

	*got.Thresholds.BradycardiaHeartRate = 80
	again, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, *again.Thresholds.BradycardiaHeartRate)
}

func TestStore_Revision(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Publish(ctx, seed()))
	require.NoError(t, store.Publish(ctx, seed()))
	assert.Error(t, store.Publish(ctx, &policy.Policy{}))
	assert.Equal(t, int64(2), store.Revision())
}
