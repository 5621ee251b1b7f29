// Package html renders a generated artifact as a standalone, themeable HTML
// preview page.
package html

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/render"
	"github.com/goliatone/go-scannergen/pkg/render/template"
	"github.com/goliatone/go-scannergen/pkg/render/template/pongo"
)

//go:embed templates/*.tpl
var embedded embed.FS

const pageTemplate = "page"

// DefaultTitle is used when neither options nor branding name the page.
const DefaultTitle = "Generated scanner"

// Option configures the renderer.
type Option func(*Renderer)

// WithTemplateRenderer swaps the template engine, e.g. to load a customised
// page.tpl from disk.
func WithTemplateRenderer(engine template.TemplateRenderer) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// Renderer implements render.Renderer.
type Renderer struct {
	engine template.TemplateRenderer
}

var _ render.Renderer = (*Renderer)(nil)

// New builds the renderer over the embedded template.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.engine == nil {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, fmt.Errorf("html: templates: %w", err)
		}
		engine, err := pongo.New(pongo.WithFS(sub))
		if err != nil {
			return nil, fmt.Errorf("html: %w", err)
		}
		r.engine = engine
	}
	return r, nil
}

// TemplatesFS exposes the embedded templates so callers can copy and edit
// them.
func TemplatesFS() fs.FS {
	sub, _ := fs.Sub(embedded, "templates")
	return sub
}

func (r *Renderer) Name() string        { return "html" }
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

func (r *Renderer) Render(ctx context.Context, artifact render.Artifact, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := r.engine.RenderTemplate(pageTemplate, buildContext(artifact, options))
	if err != nil {
		return nil, fmt.Errorf("html: render: %w", err)
	}
	return []byte(out), nil
}

func buildContext(artifact render.Artifact, options render.RenderOptions) map[string]any {
	title := strings.TrimSpace(options.Title)
	if title == "" {
		title = strings.TrimSpace(artifact.Branding.Title)
	}
	if title == "" {
		title = DefaultTitle
	}

	var assetURL func(string) string
	themeName, themeVariant, cssVars := "", "", ""
	if cfg := options.Theme; cfg != nil {
		assetURL = cfg.AssetURL
		themeName, themeVariant = cfg.Theme, cfg.Variant
		cssVars = cssVarsStyle(cfg)
	}

	data := map[string]any{
		"title":         title,
		"code":          artifact.Result.Code,
		"empty":         artifact.Result.Empty,
		"css_vars":      cssVars,
		"theme_name":    themeName,
		"theme_variant": themeVariant,
		"answers":       summaryRows(artifact),
		"included":      includedRows(artifact),
	}
	if banner := resolveImage(artifact.Branding.BannerImage, assetURL); !banner.empty() {
		data["banner"] = imageMap(banner)
	}
	if scanner := resolveImage(artifact.Branding.ScannerImage, assetURL); !scanner.empty() {
		data["scanner"] = imageMap(scanner)
	}
	return data
}

func imageMap(img image) map[string]any {
	return map[string]any{"svg": img.SVG, "url": img.URL}
}

func summaryRows(artifact render.Artifact) []any {
	lines := artifact.Summary()
	rows := make([]any, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, map[string]any{
			"question_id": line.QuestionID,
			"question":    line.Question,
			"answer":      line.Answer,
		})
	}
	return rows
}

func includedRows(artifact render.Artifact) []any {
	rows := make([]any, 0, len(artifact.Result.Included))
	for _, id := range artifact.Result.Included {
		title := id
		if section, ok := model.FindSection(artifact.Sections, id); ok && section.Title != "" {
			title = section.Title
		}
		rows = append(rows, map[string]any{"id": id, "title": title})
	}
	return rows
}

// cssVarsStyle renders sorted custom property declarations. Values that could
// break out of the declaration are skipped.
func cssVarsStyle(cfg *theme.RendererConfig) string {
	if cfg == nil || len(cfg.CSSVars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(cfg.CSSVars))
	for key := range cfg.CSSVars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		value := cfg.CSSVars[key]
		if !strings.HasPrefix(key, "--") || strings.ContainsAny(key+value, ";{}<>\"'\\") {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s: %s;", key, value)
	}
	return b.String()
}
