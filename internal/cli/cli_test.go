package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-scannergen/pkg/wizard"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func initBundle(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scanner.yaml")
	if _, err := run(t, "init", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	return path
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := initBundle(t)
	if _, err := run(t, "init", path); err == nil {
		t.Fatalf("expected error without --force")
	}
	if _, err := run(t, "init", "--force", path); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	jsonPath := filepath.Join(filepath.Dir(path), "nested", "scanner.json")
	if _, err := run(t, "init", jsonPath); err != nil {
		t.Fatalf("init json: %v", err)
	}
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json bundle: %v", err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		t.Fatalf("expected JSON output, got %q", raw[:20])
	}
}

func TestGenerateFromAnswersFile(t *testing.T) {
	path := initBundle(t)
	answers := filepath.Join(t.TempDir(), "answers.json")
	if err := os.WriteFile(answers, []byte(`{"name":"Ada","platform":"windows"}`), 0o644); err != nil {
		t.Fatalf("write answers: %v", err)
	}

	out, err := run(t, "generate", "-b", path, "--answers", answers, "--renderer", "text")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	for _, want := range []string{"Hello, Ada", "scanRegistry", "// --- Section: Header (Mandatory) ---"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	target := filepath.Join(t.TempDir(), "scanner.html")
	if _, err := run(t, "generate", "-b", path, "--answers", answers, "-r", "html", "--variant", "dark", "-o", target); err != nil {
		t.Fatalf("generate html: %v", err)
	}
	page, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !strings.Contains(string(page), "scanner--dark") {
		t.Fatalf("dark variant not applied")
	}
}

func TestGenerateUnknownRenderer(t *testing.T) {
	path := initBundle(t)
	if _, err := run(t, "generate", "-b", path, "-r", "pdf"); err == nil {
		t.Fatalf("expected unknown renderer error")
	}
}

func TestLint(t *testing.T) {
	path := initBundle(t)
	out, err := run(t, "lint", "-b", path)
	if err != nil {
		t.Fatalf("lint: %v\n%s", err, out)
	}
	if !strings.Contains(out, "no issues found") {
		t.Fatalf("unexpected lint output:\n%s", out)
	}

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	doc := `sections: []
questions:
  - type: boolean
    id: logging
    text: Logging?
    linkedSectionId: gone
`
	if err := os.WriteFile(broken, []byte(doc), 0o644); err != nil {
		t.Fatalf("write broken bundle: %v", err)
	}
	out, err = run(t, "lint", "-b", broken, "--json")
	if !errors.Is(err, ErrLintFailed) {
		t.Fatalf("expected ErrLintFailed, got %v", err)
	}
	if !strings.Contains(out, `"code": "dangling-section-link"`) {
		t.Fatalf("json report missing issue:\n%s", out)
	}
}

type scriptedDriver struct {
	inputs  []string
	selects []int
	confirm []bool
}

func (d *scriptedDriver) Input(context.Context, wizard.InputConfig) (string, error) {
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *scriptedDriver) Confirm(context.Context, wizard.ConfirmConfig) (bool, error) {
	v := d.confirm[0]
	d.confirm = d.confirm[1:]
	return v, nil
}

func (d *scriptedDriver) Select(context.Context, wizard.SelectConfig) (int, error) {
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func (d *scriptedDriver) MultiSelect(context.Context, wizard.SelectConfig) ([]int, error) {
	return nil, errors.New("unexpected multiselect")
}

func (d *scriptedDriver) Info(context.Context, string) error { return nil }

func TestWizardPersistsSession(t *testing.T) {
	path := initBundle(t)
	promptDriver = &scriptedDriver{inputs: []string{"Grace"}, selects: []int{0}, confirm: []bool{true}}
	t.Cleanup(func() { promptDriver = nil })

	out, err := run(t, "wizard", "-b", path, "--session", "grace", "--no-color")
	if err != nil {
		t.Fatalf("wizard: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Hello, Grace") {
		t.Fatalf("wizard output missing code:\n%s", out)
	}

	out, err = run(t, "generate", "-b", path, "--session", "grace", "-r", "json")
	if err != nil {
		t.Fatalf("generate session: %v", err)
	}
	if !strings.Contains(out, `"included"`) || !strings.Contains(out, "enableLogging") {
		t.Fatalf("session answers not persisted:\n%s", out)
	}
}
