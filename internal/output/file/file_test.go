package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crimson-sun/churn/internal/model"
	"github.com/crimson-sun/churn/internal/output"
)

func testRecord(id string, p float64) model.ScoredRecord {
	return model.ScoredRecord{
		CustomerID:   id,
		Record:       &model.FeatureRecord{CustomerID: id, NumServices: model.Int(2)},
		Prediction:   model.PredictionResult{Probability: p, Label: 0},
		RiskLevel:    model.RiskLevel(p),
		ModelVersion: "v2.1.0",
		ScoredAt:     time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC),
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestWriteProducesValidNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	out, err := New(path, output.Full)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := out.Write(context.Background(), testRecord(fmt.Sprintf("C-%d", i), 0.45)); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	out.Close()

	lines := readLines(t, path)
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	for i, line := range lines {
		var rec model.ScoredRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Errorf("line %d: invalid JSON: %v", i, err)
		}
		if rec.RiskLevel != model.RiskMedium {
			t.Errorf("line %d: risk = %q, want medium", i, rec.RiskLevel)
		}
		if rec.CustomerID != fmt.Sprintf("C-%d", i) {
			t.Errorf("line %d: customer = %q, out of order", i, rec.CustomerID)
		}
	}
}

func TestAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	for i := 0; i < 2; i++ {
		out, err := New(path, output.Minimal)
		if err != nil {
			t.Fatalf("New error: %v", err)
		}
		out.Write(context.Background(), testRecord("C-1", 0.1))
		out.Close()
	}
	if lines := readLines(t, path); len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 after reopening", len(lines))
	}
}

func TestRotationTriggersAtMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ndjson")

	// Each line is well over 100 bytes, so every write after the first rotates.
	out, err := New(path, output.Full, WithMaxSize(100), WithMaxBackups(2))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := out.Write(context.Background(), testRecord(fmt.Sprintf("C-%d", i), 0.9)); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	out.Close()

	for _, suffix := range []string{".1", ".2"} {
		if _, err := os.Stat(path + suffix); err != nil {
			t.Errorf("expected rotated file %s: %v", suffix, err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("expected backups beyond the limit to be dropped")
	}

	// Newest record in the live file, the one before it in .1.
	if lines := readLines(t, path); len(lines) != 1 || !strings.Contains(lines[0], `"C-4"`) {
		t.Errorf("live file = %v, want only C-4", lines)
	}
	if lines := readLines(t, path+".1"); len(lines) != 1 || !strings.Contains(lines[0], `"C-3"`) {
		t.Errorf(".1 = %v, want only C-3", lines)
	}
}

func TestCloseFlushesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	out, err := New(path, output.Full)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	out.Write(context.Background(), testRecord("C-1", 0.5))
	out.Close()

	data, _ := os.ReadFile(path)
	if len(data) == 0 {
		t.Error("file is empty, Close did not flush buffered data")
	}
}

func TestVerbosityMinimalStripsFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	out, err := New(path, output.Minimal)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	out.Write(context.Background(), testRecord("C-1", 0.5))
	out.Close()

	var m map[string]any
	json.Unmarshal([]byte(readLines(t, path)[0]), &m)

	if _, ok := m["record"]; ok {
		t.Error("Minimal verbosity should strip 'record'")
	}
	if m["customer_id"] != "C-1" {
		t.Errorf("customer_id = %v, want C-1", m["customer_id"])
	}
}

func TestConcurrentWritesSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	out, err := New(path, output.Full)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.Write(context.Background(), testRecord("C-1", 0.2))
		}()
	}
	wg.Wait()
	out.Close()

	if lines := readLines(t, path); len(lines) != 50 {
		t.Errorf("got %d lines, want 50", len(lines))
	}
}

func TestNewBadPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "out.ndjson"), output.Full)
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
