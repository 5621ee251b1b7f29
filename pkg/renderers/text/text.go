// Package text renders the generated code verbatim.
package text

import (
	"context"

	"github.com/goliatone/go-scannergen/pkg/render"
)

// Renderer writes the artifact code followed by a newline.
type Renderer struct{}

var _ render.Renderer = Renderer{}

func New() Renderer { return Renderer{} }

func (Renderer) Name() string        { return "text" }
func (Renderer) ContentType() string { return "text/plain; charset=utf-8" }

func (Renderer) Render(ctx context.Context, artifact render.Artifact, _ render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(artifact.Result.Code + "\n"), nil
}
