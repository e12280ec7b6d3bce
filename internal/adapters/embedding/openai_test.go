package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIAdapter_EmbedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "embed-test" {
			t.Errorf("unexpected model %q", req.Model)
		}

		// Reply out of order; the adapter places vectors by index.
		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = map[string]any{"object": "embedding", "index": j, "embedding": []float64{float64(j), 0.5}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	defer server.Close()

	adapter, err := NewOpenAIAdapter("sk-test", server.URL, "embed-test", nil)
	require.NoError(t, err)

	vecs, err := adapter.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for i, v := range vecs {
		assert.Equal(t, []float32{float32(i), 0.5}, v)
	}

	one, err := adapter.Embed(context.Background(), "solo")
	require.NoError(t, err)
	assert.Len(t, one, 2)
}

func TestOpenAIAdapter_MissingKey(t *testing.T) {
	_, err := NewOpenAIAdapter("", "", "", nil)
	assert.Error(t, err)
}
