// Package scannergen assembles scanner source code from administrator-defined
// template sections and the answers a user gives to a questionnaire.
//
// The engine lives in pkg/compose; this package re-exports the common entry
// points so callers can start with a single import.
package scannergen

import (
	"context"

	"github.com/goliatone/go-scannergen/pkg/bundle"
	"github.com/goliatone/go-scannergen/pkg/compose"
	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/render"
	"github.com/goliatone/go-scannergen/pkg/service"
	"github.com/goliatone/go-scannergen/pkg/store"
	"github.com/goliatone/go-scannergen/pkg/store/memory"
)

// Result aliases compose.Result.
type Result = compose.Result

// RenderOptions aliases render.RenderOptions.
type RenderOptions = render.RenderOptions

// EmptyMessage is the output when nothing was selected.
const EmptyMessage = compose.EmptyMessage

// Generate runs the composition engine. It never fails: unknown references
// are skipped.
func Generate(sections []model.Section, questions []model.Question, answers model.Answers) string {
	return compose.Generate(sections, questions, answers)
}

// NewService builds a service over st.
func NewService(st store.Store, options ...service.Option) *service.Service {
	return service.New(st, options...)
}

// GenerateFromBundle loads a bundle, composes answers against it and renders
// the result with the named renderer ("text" when empty).
func GenerateFromBundle(ctx context.Context, src bundle.Source, answers model.Answers, rendererName string, options ...service.Option) ([]byte, error) {
	b, err := NewLoader().LoadBundle(ctx, src)
	if err != nil {
		return nil, err
	}
	svc := service.New(memory.New(b), options...)
	out, err := svc.RenderWith(ctx, answers, rendererName, render.RenderOptions{})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}
