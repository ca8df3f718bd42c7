package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "no stage", args: nil, want: 1},
		{name: "too many args", args: []string{"extract", "score"}, want: 1},
		{name: "help", args: []string{"-h"}, want: 0},
		{name: "bad flag", args: []string{"-nope"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(context.Background(), tt.args, strings.NewReader(""), &stdout, &stderr); got != tt.want {
				t.Errorf("run(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestRunUnknownStage(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "logging:\n  level: error\n")

	var stdout, stderr bytes.Buffer
	if got := run(context.Background(), []string{"-config", cfg, "train"}, strings.NewReader(""), &stdout, &stderr); got != 1 {
		t.Errorf("run() = %d, want 1", got)
	}
	if !strings.Contains(stderr.String(), `unknown stage "train"`) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunMissingExplicitConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{"-config", filepath.Join(t.TempDir(), "absent.yaml"), "extract"}
	if got := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr); got != 1 {
		t.Errorf("run() = %d, want 1", got)
	}
}

func TestRunRepairStage(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "memories.csv")
	if err := os.WriteFile(input, []byte("ParticipantID,memory\nP001,donÃ¢Â€Â™t\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	metricsFile := filepath.Join(dir, "pipeline.prom")
	cfg := writeConfig(t, dir, "repairer:\n  input_file: "+input+"\nlogging:\n  level: error\nmetrics:\n  textfile: "+metricsFile+"\n")

	var stdout, stderr bytes.Buffer
	got := run(context.Background(), []string{"-config", cfg, "repair"}, strings.NewReader("y\n"), &stdout, &stderr)
	if got != 0 {
		t.Fatalf("run() = %d, want 0; stderr=%s", got, stderr.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, "memories_cleaned.csv"))
	if err != nil {
		t.Fatalf("cleaned file not written: %v", err)
	}
	if !strings.Contains(string(data), "P001,dont") {
		t.Errorf("cleaned file = %q", data)
	}

	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics textfile not written: %v", err)
	}
	if !strings.Contains(string(prom), `recall_cells_fixed_total{column="memory"} 1`) {
		t.Errorf("metrics = %s", prom)
	}
}

func TestRunRepairMissingInput(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "repairer:\n  input_file: "+filepath.Join(dir, "nope.csv")+"\nlogging:\n  level: error\n")

	var stdout, stderr bytes.Buffer
	if got := run(context.Background(), []string{"-config", cfg, "repair"}, strings.NewReader(""), &stdout, &stderr); got != 1 {
		t.Errorf("run() = %d, want 1", got)
	}
}
