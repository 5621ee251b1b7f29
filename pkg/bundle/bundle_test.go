package bundle_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-scannergen/pkg/bundle"
	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/testsupport"
)

func TestDecodeYAMLFixtureMatchesReferenceBundle(t *testing.T) {
	got := testsupport.LoadBundle(t, "testdata/scanner.yaml")
	if diff := cmp.Diff(testsupport.Bundle(), got); diff != "" {
		t.Fatalf("bundle mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeBundleRoundTripsThroughDecode(t *testing.T) {
	for _, yamlOutput := range []bool{false, true} {
		raw, err := bundle.EncodeBundle(testsupport.Bundle(), yamlOutput)
		if err != nil {
			t.Fatalf("encode (yaml=%v): %v", yamlOutput, err)
		}
		got, err := bundle.DecodeBundle(raw)
		if err != nil {
			t.Fatalf("decode (yaml=%v): %v", yamlOutput, err)
		}
		if diff := cmp.Diff(testsupport.Bundle(), got); diff != "" {
			t.Fatalf("yaml=%v mismatch (-want +got):\n%s", yamlOutput, diff)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":        "   \n",
		"broken json":  `{"sections": [}`,
		"unknown type": `{"questions": [{"type": "slider", "id": "q"}]}`,
		"yaml scalar":  "just words",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := bundle.DecodeBundle([]byte(raw))
			if !errors.Is(err, bundle.ErrDecode) {
				t.Fatalf("expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestDecodeAnswersKeepsOrder(t *testing.T) {
	jsonAnswers, err := bundle.DecodeAnswers(testsupport.MustReadGolden(t, "testdata/answers.json"))
	if err != nil {
		t.Fatalf("decode json answers: %v", err)
	}
	if diff := cmp.Diff(testsupport.Answers(), jsonAnswers); diff != "" {
		t.Fatalf("json answers mismatch (-want +got):\n%s", diff)
	}

	yamlAnswers, err := bundle.DecodeAnswers([]byte("logging: false\nname: Grace\n"))
	if err != nil {
		t.Fatalf("decode yaml answers: %v", err)
	}
	want := model.NewAnswers(
		model.Answer{QuestionID: "logging", Value: model.Bool(false)},
		model.Answer{QuestionID: "name", Value: model.String("Grace")},
	)
	if diff := cmp.Diff(want, yamlAnswers); diff != "" {
		t.Fatalf("yaml answers mismatch (-want +got):\n%s", diff)
	}
}

func TestLoaderStrategies(t *testing.T) {
	raw, err := os.ReadFile("testdata/scanner.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bundle.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(raw)
	}))
	defer server.Close()

	remote, err := bundle.FromURL(server.URL + "/bundle.yaml")
	if err != nil {
		t.Fatalf("url source: %v", err)
	}

	loader := bundle.NewLoader(
		bundle.WithFS(fstest.MapFS{"bundles/scanner.yaml": {Data: raw}}),
		bundle.WithHTTP(server.Client()),
		bundle.WithTimeout(time.Second),
	)

	sources := []bundle.Source{
		bundle.FromFile("testdata/scanner.yaml"),
		bundle.FromFS("bundles/scanner.yaml"),
		remote,
	}
	for _, src := range sources {
		t.Run(string(src.Kind()), func(t *testing.T) {
			got, err := loader.LoadBundle(context.Background(), src)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff(testsupport.Bundle(), got); diff != "" {
				t.Fatalf("bundle mismatch (-want +got):\n%s", diff)
			}
		})
	}

	missing, _ := bundle.FromURL(server.URL + "/missing")
	if _, err := loader.Load(context.Background(), missing); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLoaderHTTPDisabledByDefault(t *testing.T) {
	src, err := bundle.FromURL("https://example.com/bundle.json")
	if err != nil {
		t.Fatalf("url source: %v", err)
	}
	if _, err := bundle.NewLoader().Load(context.Background(), src); err == nil {
		t.Fatalf("expected http to be disabled")
	}
}

func TestSourceFor(t *testing.T) {
	src, err := bundle.SourceFor("https://example.com/b.yaml")
	if err != nil || src.Kind() != bundle.SourceKindURL {
		t.Fatalf("expected url source, got %v (%v)", src, err)
	}
	src, err = bundle.SourceFor("./testdata/../testdata/scanner.yaml")
	if err != nil || src.Kind() != bundle.SourceKindFile || src.Location() != "testdata/scanner.yaml" {
		t.Fatalf("expected cleaned file source, got %v (%v)", src, err)
	}
	if _, err := bundle.FromURL("ftp://example.com/b.yaml"); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}
