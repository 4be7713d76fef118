package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"supportly-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls  int
	values []float32
	err    error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	s.calls++
	return s.values, s.err
}

func TestDimensionGuard(t *testing.T) {
	ctx := context.Background()

	ok := NewEmbedder(&stubProvider{values: []float32{0.1, 0.2, 0.3}}, 3)
	v, err := ok.Embed(ctx, "hello", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Len(t, v, 3)

	short := NewEmbedder(&stubProvider{values: []float32{0.1, 0.2}}, 3)
	_, err = short.Embed(ctx, "hello", TaskRetrievalDocument)
	assert.ErrorIs(t, err, rag.ErrEmbedding)

	failing := NewEmbedder(&stubProvider{err: errors.New("quota exceeded")}, 3)
	_, err = failing.Embed(ctx, "hello", TaskRetrievalDocument)
	assert.ErrorIs(t, err, rag.ErrEmbedding)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestCachedEmbedderMemoisesQueriesOnly(t *testing.T) {
	ctx := context.Background()
	stub := &stubProvider{values: []float32{1, 0}}
	cached := NewCachedEmbedder(NewEmbedder(stub, 2), nil, "test")

	for i := 0; i < 3; i++ {
		_, err := cached.Embed(ctx, "what is the refund policy?", TaskRetrievalQuery)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, stub.calls)

	for i := 0; i < 2; i++ {
		_, err := cached.Embed(ctx, "document chunk", TaskRetrievalDocument)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, stub.calls)
	assert.Equal(t, 2, cached.Dimension())
}

func TestGeminiProvider(t *testing.T) {
	var body geminiEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-embedding-004:embedContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":{"values":[0.5,0.25]}}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider("secret", "", srv.URL)
	values, err := p.Generate(context.Background(), "hello", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, values)
	assert.Equal(t, TaskRetrievalQuery, body.TaskType)
	assert.Equal(t, "hello", body.Content.Parts[0].Text)
}

func TestGeminiProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewGeminiProvider("k", "", srv.URL).Generate(context.Background(), "x", TaskRetrievalDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOllamaProviderNormalises(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":[3,4]}`))
	}))
	defer srv.Close()

	values, err := NewOllamaProvider(srv.URL, "").Generate(context.Background(), "x", "")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, values[0], 1e-6)
	assert.InDelta(t, 0.8, values[1], 1e-6)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(Options{Provider: "bogus", Dimension: 768})
	assert.Error(t, err)

	_, err = New(Options{Provider: "gemini", Dimension: 768})
	assert.Error(t, err)

	e, err := New(Options{Provider: "ollama", Dimension: 768})
	require.NoError(t, err)
	assert.Equal(t, 768, e.Dimension())
}
