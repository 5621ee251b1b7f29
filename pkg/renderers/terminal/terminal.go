// Package terminal renders generated code for a TTY, highlighting section
// banners and recorded inputs with lipgloss.
package terminal

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/goliatone/go-scannergen/pkg/compose"
	"github.com/goliatone/go-scannergen/pkg/render"
)

const (
	sectionPrefix = "// --- Section: "
	inputPrefix   = "// User input for "
)

// Renderer implements render.Renderer for terminals.
type Renderer struct {
	isTerminal func() bool

	title   lipgloss.Style
	section lipgloss.Style
	input   lipgloss.Style
	empty   lipgloss.Style
}

var _ render.Renderer = (*Renderer)(nil)

// New returns a renderer that enables colour when stdout is a terminal and
// NO_COLOR is unset.
func New() *Renderer {
	return &Renderer{
		isTerminal: stdoutIsTerminal,
		title:      lipgloss.NewStyle().Bold(true).Underline(true),
		section:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7AA2F7")),
		input:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#6B7280")),
		empty:      lipgloss.NewStyle().Foreground(lipgloss.Color("#E0AF68")),
	}
}

func stdoutIsTerminal() bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *Renderer) Name() string        { return "terminal" }
func (r *Renderer) ContentType() string { return "text/plain; charset=utf-8" }

func (r *Renderer) Render(ctx context.Context, artifact render.Artifact, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	color := r.isTerminal()
	if options.Color != nil {
		color = *options.Color
	}

	var b strings.Builder
	if options.Title != "" {
		b.WriteString(r.style(color, r.title, options.Title))
		b.WriteString("\n\n")
	}

	if artifact.Result.Empty || artifact.Result.Code == compose.EmptyMessage {
		b.WriteString(r.style(color, r.empty, artifact.Result.Code))
		b.WriteString("\n")
		return []byte(b.String()), nil
	}

	for _, line := range strings.Split(artifact.Result.Code, "\n") {
		switch {
		case strings.HasPrefix(line, sectionPrefix):
			line = r.style(color, r.section, line)
		case strings.HasPrefix(line, inputPrefix):
			line = r.style(color, r.input, line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

func (r *Renderer) style(color bool, style lipgloss.Style, text string) string {
	if !color {
		return text
	}
	return style.Render(text)
}
