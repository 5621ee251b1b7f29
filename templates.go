package scannergen

import (
	"io/fs"

	"github.com/goliatone/go-scannergen/pkg/renderers/html"
)

// EmbeddedTemplates exposes the HTML preview templates so callers can copy
// and customise page.tpl.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
