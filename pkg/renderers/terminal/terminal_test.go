package terminal

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-scannergen/pkg/compose"
	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/render"
)

func plain() *bool {
	off := false
	return &off
}

func TestRenderWithoutColorMatchesCode(t *testing.T) {
	sections := []model.Section{{ID: "s", Title: "Core", Code: "run()", IsMandatory: true}}
	artifact := render.Artifact{Result: compose.Compose(sections, nil, nil)}

	out, err := New().Render(context.Background(), artifact, render.RenderOptions{Color: plain()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "// --- Section: Core (Mandatory) ---\nrun()\n"
	if string(out) != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, out)
	}
}

func TestRenderTitleAndEmptyState(t *testing.T) {
	r := New()
	r.isTerminal = func() bool { return false }

	out, err := r.Render(context.Background(), render.Artifact{Result: compose.Compose(nil, nil, nil)}, render.RenderOptions{Title: "Scanner"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(string(out), "Scanner\n\n") || !strings.Contains(string(out), compose.EmptyMessage) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderWithColorKeepsText(t *testing.T) {
	on := true
	sections := []model.Section{{ID: "s", Title: "Core", Code: "run()", IsMandatory: true}}
	out, err := New().Render(context.Background(), render.Artifact{Result: compose.Compose(sections, nil, nil)}, render.RenderOptions{Color: &on})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "Section: Core") || !strings.Contains(string(out), "run()") {
		t.Fatalf("styled output lost text: %q", out)
	}
}
