package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/registry"
	"github.com/san-kum/stepviz/internal/step"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer() *Server {
	cfg := config.DefaultConfig()
	cfg.Presets = map[string]map[string]map[string]any{
		"bubble-sort": {"pair": {"array": []any{2, 1}}},
	}
	s := New(registry.New(), cfg, nil, nil)
	s.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, newServer(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)
}

func TestListAlgorithms(t *testing.T) {
	s := newServer()

	tests := []struct {
		name   string
		target string
		code   int
		count  int
	}{
		{"all", "/api/algorithms", http.StatusOK, 22},
		{"classical", "/api/algorithms?category=classical", http.StatusOK, 7},
		{"deep learning", "/api/algorithms?category=deep-learning", http.StatusOK, 5},
		{"quantum", "/api/algorithms?category=quantum", http.StatusOK, 5},
		{"unknown category", "/api/algorithms?category=nope", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, tt.target, "")
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.code != http.StatusOK {
				return
			}
			var out []algorithmSummary
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
			assert.Len(t, out, tt.count)
		})
	}
}

func TestGetAlgorithm(t *testing.T) {
	s := newServer()

	w := do(t, s, http.MethodGet, "/api/algorithms/bubble-sort", "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		ID      string                     `json:"id"`
		Schema  map[string]json.RawMessage `json:"schema"`
		Presets []string                   `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "bubble-sort", detail.ID)
	assert.Contains(t, detail.Schema, "array")
	assert.Contains(t, detail.Presets, "default")
	assert.Contains(t, detail.Presets, "pair")

	w = do(t, s, http.MethodGet, "/api/algorithms/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var miss struct {
		Available []string `json:"available"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &miss))
	assert.Len(t, miss.Available, 22)
}

func TestGetSteps(t *testing.T) {
	s := newServer()

	w := do(t, s, http.MethodGet, "/api/steps/bubble-sort?preset=pair", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var doc step.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.NoError(t, doc.Validate())
	assert.Equal(t, "bubble-sort", doc.AlgorithmID)
	assert.Equal(t, step.GeneratedByGo, doc.GeneratedBy)
	assert.Equal(t, "2026-02-03T04:05:06Z", doc.GeneratedAt)
	assert.Equal(t, []any{2.0, 1.0}, doc.Inputs["array"])

	w = do(t, s, http.MethodGet, "/api/steps/bubble-sort?preset=missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var miss struct {
		Available []string `json:"available"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &miss))
	assert.Equal(t, []string{"already-sorted", "default", "duplicates", "pair", "reversed"}, miss.Available)
}

func TestGetStepsRecordsResolvedInputs(t *testing.T) {
	w := do(t, newServer(), http.MethodGet, "/api/steps/gradient-descent?preset=momentum", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var doc step.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "momentum", doc.Inputs["optimizer"])
	assert.Equal(t, 0.05, doc.Inputs["learningRate"])
	assert.Equal(t, 20.0, doc.Inputs["numSteps"])
	assert.Equal(t, 3.0, doc.Inputs["startX"])
}

func TestPostSteps(t *testing.T) {
	s := newServer()

	tests := []struct {
		name string
		id   string
		body string
		code int
		want string
	}{
		{"defaults", "self-attention", "", http.StatusOK, `"algorithmId":"self-attention"`},
		{"override", "binary-search", `{"array": [1, 3, 5, 7], "target": 7}`, http.StatusOK, `"target":7`},
		{"precondition", "multi-head-attention", `{"numHeads": 3}`, http.StatusBadRequest, "must be divisible by numHeads"},
		{"bad type", "bubble-sort", `{"array": "nope"}`, http.StatusBadRequest, "array"},
		{"not an object", "bubble-sort", `[1, 2]`, http.StatusBadRequest, "JSON object"},
		{"unknown", "nope", `{}`, http.StatusNotFound, "available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/steps/"+tt.id, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}
