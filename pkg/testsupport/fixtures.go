package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-scannergen/pkg/bundle"
	"github.com/goliatone/go-scannergen/pkg/model"
)

// Sections returns the reference template: a mandatory header, a greeting
// with a NAME placeholder, two platform blocks, a logging block and a
// mandatory footer.
func Sections() []model.Section {
	return []model.Section{
		{ID: "header", Title: "Header", Code: "package main\n\nimport \"fmt\"", IsMandatory: true},
		{ID: "greet", Title: "Greeting", Code: "func greet() { fmt.Println(\"Hello, {{ NAME }}\") }"},
		{ID: "linux", Title: "Linux scanner", Code: "func scan() { scanProc() }"},
		{ID: "windows", Title: "Windows scanner", Code: "func scan() { scanRegistry() }"},
		{ID: "logging", Title: "Logging", Code: "func init() { enableLogging() }"},
		{ID: "footer", Title: "Main", Code: "func main() { greet(); scan() }", IsMandatory: true},
	}
}

// Questions returns the questions paired with Sections.
func Questions() model.Questions {
	return model.Questions{
		model.TextQuestion{
			QuestionBase:        model.QuestionBase{ID: "name", Text: "Who should be greeted?", Required: true},
			LinkedSectionID:     "greet",
			PlaceholderVariable: "NAME",
		},
		model.ChoiceQuestion{
			QuestionBase: model.QuestionBase{ID: "platform", Text: "Target platform", Required: true},
			Options: []model.Option{
				{ID: "opt-linux", Text: "Linux", Value: "linux", LinkedSectionID: "linux"},
				{ID: "opt-windows", Text: "Windows", Value: "windows", LinkedSectionID: "windows"},
			},
		},
		model.BooleanQuestion{
			QuestionBase:    model.QuestionBase{ID: "logging", Text: "Enable logging?"},
			LinkedSectionID: "logging",
		},
	}
}

// Bundle wraps Sections and Questions with branding.
func Bundle() model.Bundle {
	return model.Bundle{
		Branding: model.Branding{
			Title:       "Scanner Builder",
			BannerImage: "https://example.com/banner.png",
		},
		Sections:  Sections(),
		Questions: Questions(),
	}
}

// Answers returns a complete answer sheet for Questions.
func Answers() model.Answers {
	return model.NewAnswers(
		model.Answer{QuestionID: "name", Value: model.String("Ada")},
		model.Answer{QuestionID: "platform", Value: model.String("linux")},
		model.Answer{QuestionID: "logging", Value: model.Bool(true)},
	)
}

// LoadBundle reads and decodes a bundle fixture from disk.
func LoadBundle(t *testing.T, path string) model.Bundle {
	t.Helper()

	b, err := LoadBundleFromPath(path)
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	return b
}

// LoadBundleFromPath returns a bundle without requiring testing.T.
func LoadBundleFromPath(path string) (model.Bundle, error) {
	if path == "" {
		return model.Bundle{}, errors.New("testsupport: bundle path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Bundle{}, fmt.Errorf("testsupport: read bundle: %w", err)
	}
	doc, err := bundle.NewDocument(bundle.FromFile(path), data)
	if err != nil {
		return model.Bundle{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	return bundle.Decode(doc)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
