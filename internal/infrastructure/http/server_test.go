package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/agent-multitool/internal/bootstrap"
	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/infrastructure/config"
)

type stubLLM struct{}

func (stubLLM) Generate(ctx context.Context, prompt string, contextDocs []string) (string, error) {
	return "The deadline is Friday.", nil
}

func (stubLLM) Chat(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	return "Hi there!", nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0, 1}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0, 1}
	}
	return out, nil
}

type stubEngine struct{ payload string }

func (s stubEngine) Query(ctx context.Context, ds *entities.Dataset, query string) (string, error) {
	return s.payload, nil
}

func newTestServer(t *testing.T, tablePayload string) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		LLM:    config.LLMConfig{Provider: "openai"},
		Vector: config.VectorConfig{Backend: "memory"},
		RAG:    config.RAGConfig{TopK: 4, ChunkSize: 500, ChunkOverlap: 20},
	}
	c, err := bootstrap.New(cfg, nil)
	require.NoError(t, err)
	c.LLM = stubLLM{}
	c.Embedder = stubEmbedder{}
	c.TableEngine = stubEngine{payload: tablePayload}
	t.Cleanup(func() { _ = c.Close() })

	ts := httptest.NewServer(NewServer(c, ":0", nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.ID)
	return body.ID
}

func postTurn(t *testing.T, ts *httptest.Server, id, query, mode string) (*http.Response, map[string]any) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query, "mode": mode})
	resp, err := http.Post(ts.URL+"/api/sessions/"+id+"/turns", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func uploadMultipart(t *testing.T, url, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestChatTurnAndHistory(t *testing.T) {
	ts := newTestServer(t, "")
	id := createSession(t, ts)

	resp, body := postTurn(t, ts, id, "hello, how are you", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "chat", body["capability"])
	assert.Equal(t, "Hi there!", body["text"])

	hresp, err := http.Get(ts.URL + "/api/sessions/" + id + "/history?capability=chat")
	require.NoError(t, err)
	defer hresp.Body.Close()

	var history struct {
		Capability string           `json:"capability"`
		Entries    []entities.Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(hresp.Body).Decode(&history))
	assert.Equal(t, "chat", history.Capability)
	require.Len(t, history.Entries, 2)
	assert.Equal(t, "**Selected tool:** `CHAT`\n\nHi there!", history.Entries[1].Content)
}

func TestBlankQueryRoutesToChat(t *testing.T) {
	ts := newTestServer(t, "")
	id := createSession(t, ts)

	for _, q := range []string{"", "   "} {
		resp, body := postTurn(t, ts, id, q, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "chat", body["capability"])
	}
}

func TestDocumentUploadAndRouting(t *testing.T) {
	ts := newTestServer(t, "")
	id := createSession(t, ts)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/sessions/"+id+"/document", strings.NewReader("Project plan. The deadline is Friday."))
	require.NoError(t, err)
	req.Header.Set("X-Filename", "plan.txt")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postTurn(t, ts, id, "according to the document, what is the deadline?", "smart")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pdf", body["capability"])
	assert.Equal(t, "The deadline is Friday.", body["text"])
}

func TestDatasetUploadAndChart(t *testing.T) {
	ts := newTestServer(t, `{"line": {"columns": ["quarter", "revenue"], "data": [["Q1", 10], ["Q2", 14]]}}`)
	id := createSession(t, ts)

	resp := uploadMultipart(t, ts.URL+"/api/sessions/"+id+"/dataset", "sales.csv", "quarter,revenue\nQ1,10\nQ2,14\n")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postTurn(t, ts, id, "show the revenue trend", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "csv", body["capability"])

	chart, ok := body["chart"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "line", chart["kind"])
}

func TestTurnErrors(t *testing.T) {
	ts := newTestServer(t, `not json`)
	id := createSession(t, ts)

	raw, err := http.Post(ts.URL+"/api/sessions/"+id+"/turns", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	resp, _ := postTurn(t, ts, id, "hello", "excel")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postTurn(t, ts, id, "summarise", "pdf")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	up := uploadMultipart(t, ts.URL+"/api/sessions/"+id+"/dataset", "d.csv", "a\n1\n")
	up.Body.Close()
	resp, body := postTurn(t, ts, id, "table please", "csv")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["error"], "output parse error")

	resp, _ = postTurn(t, ts, "missing", "hello", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCloseSession(t *testing.T) {
	ts := newTestServer(t, "")
	id := createSession(t, ts)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/sessions/" + id + "/resources")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", entities.ErrOutputParse), http.StatusBadGateway},
		{fmt.Errorf("x: %w", entities.ErrModelInvocation), http.StatusBadGateway},
		{entities.ErrPreconditionViolation, http.StatusConflict},
		{entities.ErrResourceNotReady, http.StatusConflict},
		{entities.ErrMissingCredential, http.StatusPreconditionFailed},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
