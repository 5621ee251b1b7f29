// Package json renders the composition result as a JSON document.
package json

import (
	"context"
	encjson "encoding/json"

	"github.com/goliatone/go-scannergen/pkg/compose"
	"github.com/goliatone/go-scannergen/pkg/render"
)

// Renderer emits {"code", "included", "empty"}, plus "answers" when the
// artifact carries any.
type Renderer struct {
	indent bool
}

var _ render.Renderer = Renderer{}

// New returns a renderer; indent pretty-prints the output.
func New(indent bool) Renderer { return Renderer{indent: indent} }

func (Renderer) Name() string        { return "json" }
func (Renderer) ContentType() string { return "application/json" }

type document struct {
	compose.Result
	Answers []render.AnswerLine `json:"answers,omitempty"`
}

func (r Renderer) Render(ctx context.Context, artifact render.Artifact, _ render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := document{Result: artifact.Result, Answers: artifact.Summary()}
	if doc.Included == nil {
		doc.Included = []string{}
	}
	if r.indent {
		return encjson.MarshalIndent(doc, "", "  ")
	}
	return encjson.Marshal(doc)
}
