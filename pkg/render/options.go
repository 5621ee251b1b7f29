package render

import theme "github.com/goliatone/go-theme"

// RenderOptions carry per-request presentation settings.
type RenderOptions struct {
	// Title overrides the branding title.
	Title string
	// Theme is the resolved theme; nil renders unthemed output.
	Theme *theme.RendererConfig
	// Color forces ANSI styling on or off for terminal output. Nil lets the
	// renderer detect it.
	Color *bool
}
