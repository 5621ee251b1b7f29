package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-scannergen/pkg/compose"
	"github.com/goliatone/go-scannergen/pkg/lint"
	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/render"
	"github.com/goliatone/go-scannergen/pkg/store"
	"github.com/goliatone/go-scannergen/pkg/store/memory"
	"github.com/goliatone/go-scannergen/pkg/testsupport"
)

func newService(t *testing.T, opts ...Option) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New(testsupport.Bundle())
	return New(st, opts...), st
}

func TestGenerateMatchesEngine(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	if err := st.SaveAnswers(ctx, "s1", testsupport.Answers()); err != nil {
		t.Fatalf("seed answers: %v", err)
	}

	got, err := svc.Generate(ctx, "s1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := compose.Compose(testsupport.Sections(), testsupport.Questions(), testsupport.Answers())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	adhoc, err := svc.GenerateWith(ctx, testsupport.Answers())
	if err != nil {
		t.Fatalf("GenerateWith: %v", err)
	}
	if adhoc.Code != got.Code {
		t.Fatalf("GenerateWith differs from Generate")
	}
}

func TestGenerateUnknownSessionIsMandatoryOnly(t *testing.T) {
	svc, _ := newService(t)
	got, err := svc.Generate(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff([]string{"header", "footer"}, got.Included); diff != "" {
		t.Fatalf("included mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateRejectsBlankSession(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Generate(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for blank session")
	}
}

func TestGenerateHonoursCancelledContext(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Generate(ctx, "s1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAnswerValidatesQuestion(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Answer(ctx, "s1", "ghost", model.String("x")); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
	if _, err := svc.Answer(ctx, "s1", "logging", model.String("yes")); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("expected ErrInvalidAnswer, got %v", err)
	}
	if _, err := svc.Answer(ctx, "s1", "platform", model.String("bsd")); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("expected ErrInvalidAnswer for unknown option, got %v", err)
	}

	if _, err := svc.Answer(ctx, "s1", "name", model.String("Ada")); err != nil {
		t.Fatalf("Answer name: %v", err)
	}
	answers, err := svc.Answer(ctx, "s1", "logging", model.Bool(true))
	if err != nil {
		t.Fatalf("Answer logging: %v", err)
	}
	var ids []string
	for _, a := range answers {
		ids = append(ids, a.QuestionID)
	}
	if diff := cmp.Diff([]string{"name", "logging"}, ids); diff != "" {
		t.Fatalf("answer order mismatch (-want +got):\n%s", diff)
	}

	result, err := svc.Generate(ctx, "s1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(result.Code, "Hello, Ada") || !strings.Contains(result.Code, "enableLogging") {
		t.Fatalf("stored answers not used:\n%s", result.Code)
	}

	if err := svc.ClearAnswers(ctx, "s1"); err != nil {
		t.Fatalf("ClearAnswers: %v", err)
	}
	cleared, err := svc.Answers(ctx, "s1")
	if err != nil {
		t.Fatalf("Answers: %v", err)
	}
	if len(cleared) != 0 {
		t.Fatalf("expected empty sheet, got %v", cleared)
	}
}

func TestRenderUsesNamedRenderer(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	if err := st.SaveAnswers(ctx, "s1", testsupport.Answers()); err != nil {
		t.Fatalf("seed answers: %v", err)
	}

	out, err := svc.Render(ctx, "s1", "", render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render text: %v", err)
	}
	if !strings.HasPrefix(out.ContentType, "text/plain") || !strings.Contains(string(out.Body), "scanProc") {
		t.Fatalf("unexpected text output %q (%s)", out.Body, out.ContentType)
	}

	page, err := svc.Render(ctx, "s1", "html", render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render html: %v", err)
	}
	body := string(page.Body)
	if !strings.Contains(body, "Scanner Builder") {
		t.Fatalf("branding title missing from html")
	}
	if !strings.Contains(body, "--color-accent") {
		t.Fatalf("default theme tokens missing from html")
	}

	if _, err := svc.Render(ctx, "s1", "pdf", render.RenderOptions{}); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("expected ErrUnknownRenderer, got %v", err)
	}
}

func TestRenderUnknownThemeVariant(t *testing.T) {
	selector, err := render.NewManifestSelector(render.DefaultManifest())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	svc, _ := newService(t, WithThemeSelector(selector, "scanner", "neon"))
	_, err = svc.RenderWith(context.Background(), nil, "html", render.RenderOptions{})
	if !errors.Is(err, render.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
}

func TestLint(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	report, err := svc.Lint(ctx)
	if err != nil {
		t.Fatalf("Lint: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("reference bundle should be clean, got %v", report.Issues)
	}

	if err := st.DeleteSection(ctx, "greet"); err != nil {
		t.Fatalf("DeleteSection: %v", err)
	}
	report, err = svc.LintSession(ctx, "s1")
	if err != nil {
		t.Fatalf("LintSession: %v", err)
	}
	codes := report.Codes()
	for _, want := range []string{lint.CodeDanglingSectionLink, lint.CodeMissingRequired} {
		found := false
		for _, code := range codes {
			found = found || code == want
		}
		if !found {
			t.Errorf("expected %s in %v", want, codes)
		}
	}
}

func TestMemoDisabledAndLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc, _ := newService(t, WithMemoSize(0), WithLogger(zap.New(core)))
	if svc.memo != nil {
		t.Fatalf("memo should be disabled")
	}
	if _, err := svc.GenerateWith(context.Background(), testsupport.Answers()); err != nil {
		t.Fatalf("GenerateWith: %v", err)
	}
	if logs.FilterMessage("composed scanner").Len() != 1 {
		t.Fatalf("expected a compose log entry")
	}
}

func TestBrandingOverride(t *testing.T) {
	svc := New(store.Composite{
		SectionStore:  memory.New(testsupport.Bundle()),
		QuestionStore: memory.New(testsupport.Bundle()),
		AnswerStore:   memory.New(model.Bundle{}),
	}, WithBranding(model.Branding{Title: "Custom"}))
	artifact, err := svc.Artifact(context.Background(), nil)
	if err != nil {
		t.Fatalf("Artifact: %v", err)
	}
	if artifact.Branding.Title != "Custom" {
		t.Fatalf("branding = %+v", artifact.Branding)
	}
}

// slowAnswers widens the gap between reading and writing a sheet, as a
// network round trip to SQL or Redis would.
type slowAnswers struct {
	store.Store
}

func (s slowAnswers) LoadAnswers(ctx context.Context, session string) (model.Answers, error) {
	time.Sleep(time.Millisecond)
	return s.Store.LoadAnswers(ctx, session)
}

func TestAnswerConcurrentUpdatesAreNotLost(t *testing.T) {
	const writers = 50
	var questions model.Questions
	for i := 0; i < writers; i++ {
		questions = append(questions, model.TextQuestion{QuestionBase: model.QuestionBase{ID: fmt.Sprintf("q%d", i), Text: "Field"}})
	}
	svc := New(slowAnswers{memory.New(model.Bundle{Questions: questions})})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Answer(ctx, "s", fmt.Sprintf("q%d", i), model.String(fmt.Sprintf("v%d", i))); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Answer: %v", err)
	}

	answers, err := svc.Answers(ctx, "s")
	if err != nil {
		t.Fatalf("Answers: %v", err)
	}
	if len(answers) != writers {
		t.Fatalf("stored %d answers, want %d", len(answers), writers)
	}
	for i := 0; i < writers; i++ {
		value, ok := answers.Get(fmt.Sprintf("q%d", i))
		if !ok || !value.Equal(model.String(fmt.Sprintf("v%d", i))) {
			t.Fatalf("answer q%d = %v (present %v)", i, value, ok)
		}
	}
	if n := svc.sessions.len(); n != 0 {
		t.Fatalf("session locks leaked: %d", n)
	}
}

func TestAnswerSessionsDoNotBlockEachOther(t *testing.T) {
	svc, _ := newService(t)
	unlock := svc.sessions.lock("busy")
	defer unlock()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Answer(context.Background(), "free", "name", model.String("Ada"))
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Answer: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("answering one session waited on another")
	}
}
