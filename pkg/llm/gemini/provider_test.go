package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"supportly-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiStream(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, data := range []string{
			`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello"}]}}]}`,
			`{"candidates":[{"content":{"role":"model","parts":[{"text":", world"}]}}]}`,
		} {
			_, _ = w.Write([]byte("data: " + data + "\r\n\r\n"))
		}
	}))
	defer srv.Close()

	var out string
	p := NewGeminiProvider("key", srv.URL, "")
	err := p.Stream(context.Background(), []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	}, func(d string) error {
		out += d
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", out)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be brief", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
}

func TestGeminiStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewGeminiProvider("bad", srv.URL, "").Stream(context.Background(), llm.Prompt("hi"), func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
