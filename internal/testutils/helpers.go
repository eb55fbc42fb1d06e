package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteFiles seeds dir with name -> content files.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write %s", name)
	}
}

// PolicyDocument is a complete policy.md with core and time-in-range
// thresholds, per-class renal cutoffs and a reordered hyperkalemia mapping.
const PolicyDocument = `---
title: Heart failure clinic titration policy
version: "2026.1"
thresholds:
  bradycardia_heart_rate: 50
  hypotension_systolic: 90
  hyperkalemia_potassium: 5.5
  low_time_in_range_pct: 10
renal:
  RAASi:
    creatinine: 3.0
  MRA:
    egfr: 30
    creatinine_female: 2.0
mapping:
  Hyperkalemia:
    classes: [MRA, RAASi]
symptoms:
  Bradycardia: [presyncope]
---
Reviewed by the heart failure clinic.
`
