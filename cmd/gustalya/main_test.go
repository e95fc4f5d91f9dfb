package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[server]\nlock_file = \"" + filepath.Join(dir, "server.lock") + "\"\n\n" +
		"[storage]\ndriver = \"sqlite\"\ndsn = \"" + filepath.Join(dir, "gustalya.db") + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDurationCommand(t *testing.T) {
	out, err := runCLI(t, "duration", "1", "h", "30")
	if err != nil {
		t.Fatalf("duration returned error: %v", err)
	}
	if !strings.Contains(out, "5400 s (1:30:00)") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := runCLI(t, "duration", "bientôt"); err == nil {
		t.Fatal("expected error for text without duration")
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init returned error: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected output to mention %s, got %q", target, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite returned error: %v", err)
	}

	out, err = runCLI(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("validate returned error: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected validate output %q", out)
	}
}

const recipeYAML = `id: riz-au-lait
title: Riz au lait
category: dessert
steps:
  - instruction: Cuire le riz
    duration: 35 min
  - instruction: Laisser refroidir
`

func TestRecipesImportListExport(t *testing.T) {
	cfgPath := writeTestConfig(t)
	dir := t.TempDir()
	recipePath := filepath.Join(dir, "riz.yaml")
	if err := os.WriteFile(recipePath, []byte(recipeYAML), 0o644); err != nil {
		t.Fatalf("write recipe: %v", err)
	}

	out, err := runCLI(t, "--config", cfgPath, "recipes", "list")
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if !strings.Contains(out, "No recipes stored") {
		t.Fatalf("unexpected empty list output %q", out)
	}

	out, err = runCLI(t, "--config", cfgPath, "recipes", "import", recipePath)
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if !strings.Contains(out, "1 created") {
		t.Fatalf("unexpected import output %q", out)
	}

	if _, err := runCLI(t, "--config", cfgPath, "recipes", "import", recipePath); err == nil {
		t.Fatal("expected duplicate import to fail without --replace")
	}
	out, err = runCLI(t, "--config", cfgPath, "recipes", "import", "--replace", recipePath)
	if err != nil {
		t.Fatalf("replace import returned error: %v", err)
	}
	if !strings.Contains(out, "1 updated") {
		t.Fatalf("unexpected replace output %q", out)
	}

	out, err = runCLI(t, "--config", cfgPath, "recipes", "list")
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	for _, want := range []string{"riz-au-", "Riz au lait", "Dessert", "35:00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}

	exportPath := filepath.Join(dir, "export", "all.yaml")
	if _, err := runCLI(t, "--config", cfgPath, "recipes", "export", exportPath); err != nil {
		t.Fatalf("export returned error: %v", err)
	}
	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "title: Riz au lait") {
		t.Fatalf("unexpected export:\n%s", data)
	}
}
