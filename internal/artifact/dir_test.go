package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/churn/internal/model"
)

const fixtureDir = "testdata/bundle"

// copyBundle copies the fixture bundle into a temp dir named name so tests
// can damage it.
func copyBundle(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.Mkdir(dir, 0o755))
	entries, err := os.ReadDir(fixtureDir)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(fixtureDir, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644))
	}
	return dir
}

func TestDirLoader_Fixture(t *testing.T) {
	p, err := NewDirLoader(fixtureDir).Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, Validate(p))

	assert.Equal(t, "v2.1.0", p.Version)
	assert.Equal(t, time.Date(2026, 9, 30, 14, 5, 0, 0, time.UTC), p.TrainedAt.UTC())
	assert.Equal(t, 4000, p.Metrics.NTrain)
	assert.InDelta(t, 0.8113, p.Metrics.ROCAUC, 1e-9)

	assert.Equal(t, model.NumericFeatures, p.Numeric.Features)
	assert.Equal(t, model.CategoricalFeatures, p.Categorical.Features)
	assert.Equal(t, 5, p.Numeric.Width())
	assert.Equal(t, 16, p.Categorical.Width())
	assert.Len(t, p.Linear.Weights, 21)
	assert.InDelta(t, -0.3318, p.Linear.Bias, 1e-12)

	// JSON booleans decode to their string form.
	assert.Equal(t, []string{"false", "true"}, p.Categorical.Vocabularies[3])
	assert.Equal(t, "false", p.Categorical.Modes[4])
}

func TestDirLoader_MissingDir(t *testing.T) {
	_, err := NewDirLoader(filepath.Join(t.TempDir(), "nope")).Load(context.Background())
	assert.ErrorIs(t, err, ErrMissing)
}

func TestDirLoader_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := NewDirLoader(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrMissing)
}

func TestDirLoader_MissingSubArtifact(t *testing.T) {
	for _, name := range Files {
		t.Run(name, func(t *testing.T) {
			dir := copyBundle(t, "bundle")
			require.NoError(t, os.Remove(filepath.Join(dir, name)))

			_, err := NewDirLoader(dir).Load(context.Background())
			assert.ErrorIs(t, err, ErrMissing)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestDirLoader_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad json", ModelFile, `{"weights": [1, 2`},
		{"numeric mode", CategoricalImputerFile, `{"features":["contract_type"],"modes":[3]}`},
		{"missing bias", ModelFile, `{"weights":[1]}`},
		{"scaler features differ", NumericScalerFile,
			`{"features":["monthly_charges","tenure","total_charges","support_calls","num_services"],"means":[0,0,0,0,0],"stds":[1,1,1,1,1]}`},
		{"bad manifest", ManifestFile, "version: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := copyBundle(t, "bundle")
			// Drop checksums so only the content is under test.
			if tt.file != ManifestFile {
				require.NoError(t, os.Remove(filepath.Join(dir, ManifestFile)))
			}
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.content), 0o644))

			_, err := NewDirLoader(dir).Load(context.Background())
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDirLoader_ChecksumMismatch(t *testing.T) {
	dir := copyBundle(t, "bundle")
	path := filepath.Join(dir, ModelFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(data, ' '), 0o644))

	_, err = NewDirLoader(dir).Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "checksum")
}

func TestDirLoader_NoManifestUsesDirName(t *testing.T) {
	dir := copyBundle(t, "2026-10-01")
	require.NoError(t, os.Remove(filepath.Join(dir, ManifestFile)))

	p, err := NewDirLoader(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-10-01", p.Version)
	assert.True(t, p.TrainedAt.IsZero())
}

func TestDirLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirLoader(fixtureDir).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChecksum(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Checksum(nil))
}
