package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/churn/internal/config"
	"github.com/crimson-sun/churn/internal/model"
	"github.com/crimson-sun/churn/internal/output/multi"
	"github.com/crimson-sun/churn/internal/output/stdout"
	"github.com/crimson-sun/churn/pkg/churn"
)

const bundleDir = "../../internal/artifact/testdata/bundle"

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	err := app.Run(context.Background(), append([]string{"churn"}, args...))
	return buf.String(), err
}

func TestCheck_JSON(t *testing.T) {
	out, err := runApp(t, "--artifacts", bundleDir, "--log-level", "error", "check", "--format", "json")
	require.NoError(t, err)

	var info churn.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "v2.1.0", info.Version)
	assert.Equal(t, 21, info.Width)
	assert.Len(t, info.NumericFeatures, 5)
	assert.Equal(t, 0.8113, info.Metrics.ROCAUC)
}

func TestCheck_YAML(t *testing.T) {
	out, err := runApp(t, "--artifacts", bundleDir, "--log-level", "error", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "version: v2.1.0")
	assert.Contains(t, out, "width: 21")
}

func TestCheck_MissingArtifacts(t *testing.T) {
	_, err := runApp(t, "--artifacts", filepath.Join(t.TempDir(), "absent"), "--log-level", "error", "check")
	require.Error(t, err)
	assert.ErrorIs(t, err, churn.ErrArtifactMissing)
	assert.Contains(t, err.Error(), "retrain required")
}

func TestScore_FileToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "records.csv")
	outPath := filepath.Join(dir, "preds.ndjson")
	require.NoError(t, os.WriteFile(in, []byte(
		"customer_id,tenure,payment_method\nCUST-003,,crypto\nCUST-004,24,upi\n"), 0o644))

	cfgPath := filepath.Join(dir, "churn.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"output:\n  sinks: [file]\n  verbosity: minimal\n  file:\n    path: "+outPath+"\n"), 0o644))

	_, err := runApp(t, "--config", cfgPath, "--artifacts", bundleDir, "--log-level", "error",
		"score", "--input", in, "--format", "csv")
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"customer_id":"CUST-003"`)
	assert.Contains(t, lines[0], `"churn_probability":0.7363`)
	assert.Contains(t, lines[1], `"customer_id":"CUST-004"`)
}

func TestScore_InvalidRecordFails(t *testing.T) {
	in := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(in, []byte(`[{"customer_id":"X","tenure":500}]`), 0o644))

	_, err := runApp(t, "--artifacts", bundleDir, "--log-level", "error", "score", "--input", in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenure 500")
}

func TestInvalidConfigRejected(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "churn.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("engine:\n  workers: 0\n"), 0o644))

	_, err := runApp(t, "--config", cfgPath, "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
}

func TestBuildOutput_FileBackups(t *testing.T) {
	ctx := context.Background()
	rotateThrice := func(t *testing.T, backups int) string {
		path := filepath.Join(t.TempDir(), "preds.ndjson")
		cfg := config.Default().Output
		cfg.Sinks = []string{"file"}
		cfg.File = config.FileConfig{Path: path, MaxSize: 1, MaxBackups: backups}

		out, err := buildOutput(ctx, cfg, nil)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			require.NoError(t, out.Write(ctx, model.ScoredRecord{CustomerID: "C-1"}))
		}
		require.NoError(t, out.Close())
		return path
	}

	path := rotateThrice(t, 1)
	assert.FileExists(t, path+".1")
	assert.NoFileExists(t, path+".2", "max_backups=1 keeps a single rotated file")

	path = rotateThrice(t, 0)
	assert.FileExists(t, path+".2", "0 keeps the default backup count")
}

func TestBuildOutput(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default().Output

	out, err := buildOutput(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &stdout.Output{}, out)

	cfg.Sinks = []string{"stdout", "sqlite"}
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "preds.db")
	out, err = buildOutput(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &multi.Multi{}, out)
	require.NoError(t, out.Close())

	cfg.Sinks = nil
	_, err = buildOutput(ctx, cfg, nil)
	assert.Error(t, err)

	cfg.Sinks = []string{"file"}
	cfg.File.Path = filepath.Join(t.TempDir(), "missing-dir", "x.ndjson")
	_, err = buildOutput(ctx, cfg, nil)
	assert.Error(t, err)

	cfg.Sinks = []string{"stdout", "redis"}
	cfg.Redis.URL = "http://not-redis"
	_, err = buildOutput(ctx, cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis output")
}
