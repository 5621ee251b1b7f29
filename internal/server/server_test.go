package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-scannergen/pkg/service"
	"github.com/goliatone/go-scannergen/pkg/store/memory"
	"github.com/goliatone/go-scannergen/pkg/testsupport"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.New(memory.New(testsupport.Bundle()))
	srv, err := New(context.Background(), svc, Config{CORSOrigins: []string{"http://localhost:5173"}})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestSpecLoadsAndCoversRoutes(t *testing.T) {
	spec, err := LoadSpec(context.Background())
	require.NoError(t, err)

	srv := newTestServer(t)
	for _, route := range srv.Engine.Routes() {
		item := spec.Paths.Find(specPath(route.Path))
		if assert.NotNil(t, item, "route %s missing from openapi.yaml", route.Path) {
			assert.NotNil(t, item.GetOperation(route.Method), "%s %s missing from openapi.yaml", route.Method, route.Path)
		}
	}
}

func TestHealthAndOpenAPI(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")
}

func TestSectionCRUD(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/sections", `{"title":"Extra","code":"// extra"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	rec = do(t, srv, http.MethodPut, "/api/sections/"+created.ID, `{"title":"Renamed","code":"// extra"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"title":"Renamed"`)

	rec = do(t, srv, http.MethodPost, "/api/sections/"+created.ID+"/move", `{"index":0}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/sections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sections []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sections))
	require.Len(t, sections, len(testsupport.Sections())+1)
	assert.Equal(t, created.ID, sections[0].ID)

	rec = do(t, srv, http.MethodDelete, "/api/sections/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/sections/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, rec).Code)
}

func TestMoveRequiresIndex(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/api/sections/greet/move", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidRequest, decodeError(t, rec).Code)
}

func TestQuestionCRUD(t *testing.T) {
	srv := newTestServer(t)

	body := `{"type":"choice","text":"Arch?","options":[{"text":"x86","value":"amd64"},{"text":"ARM","value":"arm64"}]}`
	rec := do(t, srv, http.MethodPost, "/api/questions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Options []struct {
			ID string `json:"id"`
		} `json:"options"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "choice", created.Type)
	require.Len(t, created.Options, 2)
	assert.NotEmpty(t, created.Options[0].ID)

	rec = do(t, srv, http.MethodPut, "/api/questions/name", `{"type":"text","text":"Name?","linkedSectionId":"greet","placeholderVariable":"NAME"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":"name"`)

	rec = do(t, srv, http.MethodPost, "/api/questions", `{"type":"slider"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/questions/"+created.ID+"/move", `{"index":0}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/questions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/questions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), created.ID)
}

func TestAnswersAndCode(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPut, "/api/sessions/s1/answers/name", `{"value":"Ada"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodPut, "/api/sessions/s1/answers/platform", `{"value":"linux"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `{"name":"Ada","platform":"linux"}`, rec.Body.String())

	rec = do(t, srv, http.MethodPut, "/api/sessions/s1/answers/ghost", `{"value":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/sessions/s1/answers/logging", `{"value":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/sessions/s1/answers/logging", `{"value":{"nested":true}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/sessions/s1/code", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Code     string   `json:"code"`
		Included []string `json:"included"`
		Empty    bool     `json:"empty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []string{"header", "footer", "greet", "linux"}, result.Included)
	assert.Contains(t, result.Code, "Hello, Ada")

	rec = do(t, srv, http.MethodGet, "/api/sessions/s1/code?renderer=text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	rec = do(t, srv, http.MethodGet, "/api/sessions/s1/code?renderer=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/sessions/s1/answers", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/sessions/s1/answers", "")
	assert.Equal(t, `{}`, rec.Body.String())
}

func TestGenerateInline(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/generate?renderer=text", `{"name":"Ada","platform":"windows","logging":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, "scanRegistry")
	assert.Contains(t, body, "enableLogging")
	assert.NotContains(t, body, "scanProc")

	rec = do(t, srv, http.MethodPost, "/api/generate", `["not","an","object"]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLintEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/lint", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"issues":[]}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/lint?session=s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing-required")
}

func TestPreview(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/preview/s1?variant=dark", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "Scanner Builder")

	rec = do(t, srv, http.MethodGet, "/preview/s1?theme=missing", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/sections", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSpecPath(t *testing.T) {
	assert.Equal(t, "/api/sessions/{session}/answers/{question}", specPath("/api/sessions/:session/answers/:question"))
	assert.Equal(t, "/healthz", specPath("/healthz"))
}
