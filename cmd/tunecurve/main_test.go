package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/tunecurve/internal/config"
)

const sampleDataset = `# id p1 p2 p3 p4 p5 skill attempts level
1 10 10 10 10 10 5 2 2
2 20 20 20 20 20 5 2 2
3 90 90 90 90 90 5 7 2
4 1 2 3 4 5 3 0 1
bad line
`

type jsonReport struct {
	Summary struct {
		Total      int `json:"total"`
		OnCurve    int `json:"on_curve"`
		AboveCurve int `json:"above_curve"`
	} `json:"summary"`
	Rejected []json.RawMessage `json:"rejected"`
}

func isolateXDG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func decodeReport(t *testing.T, out string) jsonReport {
	t.Helper()
	var rep jsonReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	return rep
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Run.Workers != nil || len(cfg.Curve) != 0 {
		t.Fatalf("expected commented-out template, got %+v", cfg)
	}
}

func TestRunJSONFromDataset(t *testing.T) {
	dir := isolateXDG(t)
	path := filepath.Join(dir, "dataset.txt")
	writeFile(t, path, sampleDataset)

	out, err := execute(t, "run", path, "--format", "json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	rep := decodeReport(t, out)
	if rep.Summary.Total != 4 || rep.Summary.OnCurve != 2 || rep.Summary.AboveCurve != 1 {
		t.Fatalf("unexpected summary: %+v", rep.Summary)
	}
	if len(rep.Rejected) != 1 {
		t.Fatalf("expected malformed line to be reported, got %d", len(rep.Rejected))
	}
}

func TestRunParallelMatchesSerial(t *testing.T) {
	dir := isolateXDG(t)
	path := filepath.Join(dir, "dataset.txt")
	writeFile(t, path, sampleDataset)

	serial, err := execute(t, path, "--format", "json")
	if err != nil {
		t.Fatalf("serial run: %v", err)
	}
	parallel, err := execute(t, path, "--format", "json", "--workers", "3")
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}
	if serial != parallel {
		t.Fatalf("parallel output differs:\n%s\nvs\n%s", serial, parallel)
	}
}

func TestRunRequiresSource(t *testing.T) {
	isolateXDG(t)
	if _, err := execute(t, "run"); err == nil || !strings.Contains(err.Error(), "--db") {
		t.Fatalf("expected missing source error, got %v", err)
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	dir := isolateXDG(t)
	path := filepath.Join(dir, "dataset.txt")
	writeFile(t, path, sampleDataset)
	if _, err := execute(t, "run", path, "--format", "xml"); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestFlagOverridesConfig(t *testing.T) {
	dir := isolateXDG(t)
	path := filepath.Join(dir, "dataset.txt")
	writeFile(t, path, sampleDataset)
	writeFile(t, config.DefaultConfigPath(), "[run]\nworkers = 0\n")

	if _, err := execute(t, "run", path, "--format", "json"); err == nil {
		t.Fatalf("expected config workers = 0 to be rejected")
	}
	if _, err := execute(t, "run", path, "--format", "json", "--workers", "2"); err != nil {
		t.Fatalf("expected flag to override config: %v", err)
	}
}

func TestImportThenRunFromDB(t *testing.T) {
	dir := isolateXDG(t)
	path := filepath.Join(dir, "dataset.txt")
	dbPath := filepath.Join(dir, "records.db")
	writeFile(t, path, sampleDataset)

	batchOut, err := execute(t, "import", path, "--db", dbPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if strings.TrimSpace(batchOut) == "" {
		t.Fatalf("expected batch id output")
	}

	out, err := execute(t, "run", "--db", dbPath, "--format", "json")
	if err != nil {
		t.Fatalf("run from db: %v", err)
	}
	rep := decodeReport(t, out)
	if rep.Summary.Total != 4 {
		t.Fatalf("unexpected summary: %+v", rep.Summary)
	}

	listing, err := execute(t, "batches", "--db", dbPath)
	if err != nil {
		t.Fatalf("batches: %v", err)
	}
	if !strings.Contains(listing, strings.TrimSpace(batchOut)) {
		t.Fatalf("expected batch in listing:\n%s", listing)
	}
}

func TestGenerateIsDeterministicWithSeed(t *testing.T) {
	isolateXDG(t)
	first, err := execute(t, "generate", "--count", "20", "--seed", "7")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := execute(t, "generate", "--count", "20", "--seed", "7")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical output for the same seed")
	}
	if lines := strings.Split(strings.TrimSpace(first), "\n"); len(lines) != 20 {
		t.Fatalf("expected 20 records, got %d", len(lines))
	}
}

func TestCurveFromConfigTable(t *testing.T) {
	isolateXDG(t)
	writeFile(t, config.DefaultConfigPath(), "[curve]\n1 = 3\n2 = 1\n")
	out, err := execute(t, "curve")
	if err != nil {
		t.Fatalf("curve: %v", err)
	}
	if !strings.Contains(out, "    1      3") || strings.Contains(out, "   10") {
		t.Fatalf("unexpected curve output:\n%s", out)
	}
}

func TestAutoRangeRejectsHugeAttempts(t *testing.T) {
	dir := isolateXDG(t)
	path := filepath.Join(dir, "dataset.txt")
	writeFile(t, path, sampleDataset+"9 1 1 1 1 1 1 9223372036854775807 1\n")

	out, err := execute(t, "run", path, "--format", "json", "--auto-range")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	rep := decodeReport(t, out)
	if rep.Summary.Total != 4 || len(rep.Rejected) != 2 {
		t.Fatalf("expected outlier to be rejected, got %+v with %d rejected", rep.Summary, len(rep.Rejected))
	}
}

func TestOversizedConfiguredRangesFail(t *testing.T) {
	dir := isolateXDG(t)
	path := filepath.Join(dir, "dataset.txt")
	writeFile(t, path, sampleDataset)
	writeFile(t, config.DefaultConfigPath(), "[ranges]\nmax-attempts = 9223372036854775807\n")

	if _, err := execute(t, "run", path, "--format", "json"); err == nil || !strings.Contains(err.Error(), "cells") {
		t.Fatalf("expected table size error, got %v", err)
	}
}
