package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/titrate/internal/testutils"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowPolicy(t *testing.T) {
	opts := Options{PolicyFile: writePolicy(t), Overrides: []string{"hyperkalemia_potassium=6"}}

	var out bytes.Buffer
	require.NoError(t, ShowPolicy(context.Background(), opts, policy.FormatJSON, &out))

	p, err := policy.Parse(out.Bytes(), policy.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 6.0, *p.Thresholds.HyperkalemiaPotassium)
}

func TestValidatePolicy(t *testing.T) {
	t.Run("File", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, ValidatePolicy(context.Background(), Options{PolicyFile: writePolicy(t)}, &out))
		assert.Contains(t, out.String(), "heart rate < 50, systolic < 90, potassium >= 5.5")
		assert.Contains(t, out.String(), "Mapped triggers: Hypotension, Bradycardia, Hyperkalemia, RenalDecline")
		assert.Contains(t, out.String(), "Renal decline check disabled")
	})

	t.Run("Document with notes", func(t *testing.T) {
		dir := t.TempDir()
		testutils.WriteFiles(t, dir, map[string]string{"policy.md": testutils.PolicyDocument})

		var out bytes.Buffer
		require.NoError(t, ValidatePolicy(context.Background(), Options{PolicyDir: dir}, &out))
		assert.Contains(t, out.String(), "Notes: Reviewed by the heart failure clinic.")
		assert.Contains(t, out.String(), "Renal cutoffs for: RAASi, MRA")
		assert.NotContains(t, out.String(), "disabled")
	})

	t.Run("Missing thresholds", func(t *testing.T) {
		dir := t.TempDir()
		testutils.WriteFiles(t, dir, map[string]string{"policy.yaml": "thresholds:\n  hypotension_systolic: 90\n"})
		err := ValidatePolicy(context.Background(), Options{PolicyFile: filepath.Join(dir, "policy.yaml")}, &bytes.Buffer{})
		assert.ErrorIs(t, err, policy.ErrMissingThreshold)
	})
}

func TestPublishPolicy(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := PublishOptions{
		Options: Options{RedisAddr: mr.Addr(), RedisKey: "clinic-a"},
		From:    writePolicy(t),
	}

	var out bytes.Buffer
	require.NoError(t, PublishPolicy(context.Background(), opts, &out))
	assert.Contains(t, out.String(), "titrate:clinic-a (revision 1)")

	// The published policy is now the Redis source for every command.
	var show bytes.Buffer
	require.NoError(t, ShowPolicy(context.Background(), opts.Options, policy.FormatYAML, &show))
	assert.Contains(t, show.String(), "bradycardia_heart_rate: 50")

	t.Run("Requires Redis", func(t *testing.T) {
		err := PublishPolicy(context.Background(), PublishOptions{From: opts.From}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "--redis-addr")
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, policy.FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, policy.FormatYAML, f)

	_, err = ParseFormat("toml")
	assert.Error(t, err)
}
