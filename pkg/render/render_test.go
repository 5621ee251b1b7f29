package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/render"
)

type stubRenderer struct{ name string }

func (s stubRenderer) Name() string        { return s.name }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(context.Context, render.Artifact, render.RenderOptions) ([]byte, error) {
	return []byte(s.name), nil
}

func TestRegistry(t *testing.T) {
	registry := render.NewRegistry(stubRenderer{"b"}, stubRenderer{"a"})
	if diff := cmp.Diff([]string{"a", "b"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if err := registry.Register(stubRenderer{"a"}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := registry.Register(stubRenderer{""}); err == nil {
		t.Fatalf("expected empty name error")
	}
	if _, err := registry.Get("missing"); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("expected ErrUnknownRenderer, got %v", err)
	}
	if !registry.Has("b") {
		t.Fatalf("expected b to be registered")
	}
}

func TestRegistryNamesAndAliases(t *testing.T) {
	registry := render.NewRegistry(stubRenderer{"text"}, stubRenderer{"HTML"})
	if diff := cmp.Diff([]string{"html", "text"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	for _, name := range []string{"TXT", " text ", "htm", "Html"} {
		if !registry.Has(name) {
			t.Errorf("Has(%q) = false", name)
		}
	}
	got, err := registry.Resolve("", "txt")
	if err != nil {
		t.Fatalf("Resolve fallback: %v", err)
	}
	if got.Name() != "text" {
		t.Fatalf("Resolve fallback = %q", got.Name())
	}
	if _, err := registry.Resolve("pdf", "text"); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("expected ErrUnknownRenderer, got %v", err)
	}
}

func TestArtifactSummary(t *testing.T) {
	artifact := render.Artifact{
		Questions: []model.Question{
			model.TextQuestion{QuestionBase: model.QuestionBase{ID: "q1", Text: "Name?"}},
		},
		Answers: model.NewAnswers(
			model.Answer{QuestionID: "ghost", Value: model.Bool(true)},
			model.Answer{QuestionID: "q1", Value: model.String("Ada")},
		),
	}
	want := []render.AnswerLine{
		{QuestionID: "ghost", Question: "ghost", Answer: "true"},
		{QuestionID: "q1", Question: "Name?", Answer: "Ada"},
	}
	if diff := cmp.Diff(want, artifact.Summary()); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func testManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":         "#123456",
			"color.surface": "#ffffff",
		},
		Templates: map[string]string{"page": "themes/acme/page.tpl"},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme/",
			Files:  map[string]string{"logo": "logo.svg"},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{"color.surface": "#000000"},
				Assets: theme.Assets{Files: map[string]string{"logo": "logo.dark.svg"}},
			},
		},
	}
}

func TestResolveThemeMergesVariant(t *testing.T) {
	cfg := render.ResolveTheme(&theme.Selection{Theme: "acme", Variant: "dark", Manifest: testManifest()})
	if cfg == nil {
		t.Fatalf("expected config")
	}
	if cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("unexpected identity %s/%s", cfg.Theme, cfg.Variant)
	}
	wantVars := map[string]string{"--brand": "#123456", "--color-surface": "#000000"}
	if diff := cmp.Diff(wantVars, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if cfg.Partials["page"] != "themes/acme/page.tpl" {
		t.Fatalf("partials not propagated: %v", cfg.Partials)
	}
	if got := cfg.AssetURL("logo"); got != "/assets/themes/acme/logo.dark.svg" {
		t.Fatalf("asset url = %q", got)
	}
	if got := cfg.AssetURL("banner.png"); got != "/assets/themes/acme/banner.png" {
		t.Fatalf("unmapped asset url = %q", got)
	}
	if render.ResolveTheme(nil) != nil {
		t.Fatalf("nil selection should resolve to nil")
	}
}

func TestManifestSelector(t *testing.T) {
	selector, err := render.NewManifestSelector(render.DefaultManifest(), testManifest())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	if diff := cmp.Diff([]string{"acme", "scanner"}, selector.Themes()); diff != "" {
		t.Fatalf("themes mismatch (-want +got):\n%s", diff)
	}

	selection, err := selector.Select("", "")
	if err != nil || selection.Theme != "scanner" {
		t.Fatalf("expected default theme, got %+v (%v)", selection, err)
	}
	selector.SetDefault("acme", "dark")
	cfg, err := render.SelectConfig(selector, "", "")
	if err != nil {
		t.Fatalf("select config: %v", err)
	}
	if cfg.Variant != "dark" || cfg.Tokens["color.surface"] != "#000000" {
		t.Fatalf("default variant not applied: %+v", cfg)
	}

	if _, err := selector.Select("nope", ""); !errors.Is(err, render.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	if _, err := selector.Select("acme", "sepia"); !errors.Is(err, render.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme for variant, got %v", err)
	}
	if err := selector.Register(testManifest()); err == nil {
		t.Fatalf("expected duplicate manifest error")
	}
}
