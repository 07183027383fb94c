package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/llm-matchmaker/match/dataset"
	"github.com/inference-sim/llm-matchmaker/match/learn"
)

func TestLoadDefaults_RepoFileMatchesBuiltIns(t *testing.T) {
	path := "../defaults.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("defaults.yaml not found, skipping integration test")
	}

	// GIVEN the checked-in defaults file
	d, err := loadDefaults(path)
	require.NoError(t, err)

	// THEN it reproduces the built-in synthesis spec and training config
	assert.Equal(t, dataset.DefaultSynthesisSpec(), d.Synthesis)
	assert.Equal(t, learn.DefaultTrainConfig(), d.Training)
	require.NoError(t, d.Synthesis.Validate())
	require.NoError(t, d.Training.Validate())
}

func TestLoadDefaults_MissingFileUsesBuiltIns(t *testing.T) {
	d, err := loadDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, dataset.DefaultSynthesisSpec(), d.Synthesis)
	assert.Equal(t, learn.DefaultTrainConfig(), d.Training)
}

func TestLoadDefaults_PartialFileOverlaysTraining(t *testing.T) {
	// GIVEN a defaults file that only changes the search budget
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training:\n  n_iter: 7\n"), 0o644))

	d, err := loadDefaults(path)
	require.NoError(t, err)

	// THEN untouched fields keep their built-in values
	assert.Equal(t, 7, d.Training.NIter)
	assert.Equal(t, 5, d.Training.Folds)
	assert.Equal(t, 972, d.Training.Grid.Size())
	assert.Equal(t, dataset.DefaultSynthesisSpec(), d.Synthesis)
}

func TestLoadDefaults_RejectsTypos(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown section", "trainin:\n  n_iter: 7\n"},
		{"unknown training key", "training:\n  n_iters: 7\n"},
		{"unknown synthesis key", "synthesis:\n  row: 10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "defaults.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := loadDefaults(path)
			assert.Error(t, err)
		})
	}
}

func TestSynthesisSpec_ExplicitFileWins(t *testing.T) {
	// GIVEN a spec file and a defaults path that does not exist
	old := defaultsPath
	defaultsPath = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { defaultsPath = old })

	spec := dataset.DefaultSynthesisSpec()
	spec.Rows = 12
	spec.Seed = 7
	path := filepath.Join(t.TempDir(), "spec.yaml")
	writeYAML(t, path, spec)

	// WHEN resolving with and without the explicit path
	got, err := synthesisSpec(path)
	require.NoError(t, err)
	fallback, err := synthesisSpec("")
	require.NoError(t, err)

	// THEN the explicit file is used, otherwise the built-ins
	assert.Equal(t, 12, got.Rows)
	assert.Equal(t, int64(7), got.Seed)
	assert.Equal(t, 1000, fallback.Rows)
}
