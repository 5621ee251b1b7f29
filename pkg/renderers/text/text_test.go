package text

import (
	"context"
	"testing"

	"github.com/goliatone/go-scannergen/pkg/compose"
	"github.com/goliatone/go-scannergen/pkg/render"
)

func TestRenderVerbatim(t *testing.T) {
	out, err := New().Render(context.Background(), render.Artifact{Result: compose.Result{Code: "a\nb"}}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "a\nb\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Render(ctx, render.Artifact{}, render.RenderOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}
