package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborworks/arbor"
	"github.com/arborworks/arbor/pkg/adapters/memory"
	"github.com/arborworks/arbor/pkg/domain"
)

const qaYAML = `
name: qa
params:
  question: string
nodes:
  - id: seed
    type: seed
    category: entry
    successors: [answer]
    init_params: [question]
    output_fields: [question]
  - id: answer
    type: answer
    category: exit
    input_fields: [question]
    output_fields: [result]
`

const brokenYAML = `
name: broken
nodes:
  - id: seed
    type: seed
    category: entry
    successors: [ghost]
`

func newTestHandler(t *testing.T) (http.Handler, *arbor.Engine) {
	t.Helper()
	loader := memory.NewLoader(map[string]string{
		"qa":     qaYAML,
		"broken": brokenYAML,
	})

	eng, err := arbor.New("",
		arbor.WithLoader(loader),
		arbor.WithRunStore(memory.NewStore()),
		arbor.WithBehavior("answer", arbor.Behavior{
			Call: func(ctx context.Context, in map[string]any) (map[string]any, error) {
				return map[string]any{"result": "answered: " + in["question"].(string)}, nil
			},
		}),
	)
	require.NoError(t, err)

	return NewHandler(eng), eng
}

func postRun(t *testing.T, handler http.Handler, name string, body RunRequest) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/definitions/"+name+"/runs", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestCreateRun(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postRun(t, handler, "qa", RunRequest{Params: map[string]any{"question": "why"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var record domain.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, domain.RunStatusCompleted, record.Status)
	assert.Equal(t, "answered: why", record.Output["result"])
	assert.NotEmpty(t, record.ID)
}

func TestCreateRun_UnknownDefinition(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postRun(t, handler, "nope", RunRequest{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRun_BadParamType(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postRun(t, handler, "qa", RunRequest{Params: map[string]any{"question": 12}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRun_SanitizesParams(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postRun(t, handler, "qa", RunRequest{Params: map[string]any{"question": "why\x00not"}})
	require.Equal(t, http.StatusCreated, w.Code)

	var record domain.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "answered: whynot", record.Output["result"])
}

func TestGetRunRoundTrip(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postRun(t, handler, "qa", RunRequest{Params: map[string]any{"question": "why"}})
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req := httptest.NewRequest("GET", "/runs/"+created.ID, nil)
	got := httptest.NewRecorder()
	handler.ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)

	req = httptest.NewRequest("DELETE", "/runs/"+created.ID, nil)
	deleted := httptest.NewRecorder()
	handler.ServeHTTP(deleted, req)
	assert.Equal(t, http.StatusNoContent, deleted.Code)

	req = httptest.NewRequest("GET", "/runs/"+created.ID, nil)
	missing := httptest.NewRecorder()
	handler.ServeHTTP(missing, req)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestListDefinitions(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/definitions", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "qa")
}

func TestValidateDefinition(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("POST", "/definitions/broken/validate", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Valid    bool     `json:"valid"`
		Problems []string `json:"problems"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Problems)
}

func TestGetGraph(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/definitions/qa/graph", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))
	assert.Contains(t, w.Body.String(), "seed")
}

func TestHealthAndInfo(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/info", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "arbor-http")
}

func TestCORSPreflight(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("OPTIONS", "/definitions", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamManager_SubscribeBroadcast(t *testing.T) {
	sm := NewStreamManager()

	ch, cancel := sm.Subscribe("run-1")
	defer cancel()

	sm.Broadcast("run-1", `{"type":"node_start"}`)
	sm.Broadcast("run-2", `{"type":"ignored"}`)

	select {
	case msg := <-ch:
		assert.Contains(t, msg, "node_start")
	default:
		t.Fatal("expected a broadcast message")
	}

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message: %s", msg)
	default:
	}
}
