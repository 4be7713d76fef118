package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"supportly-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ndjsonServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, l := range lines {
			_, _ = w.Write([]byte(l + "\n"))
			w.(http.Flusher).Flush()
		}
	}))
}

func TestOllamaStream(t *testing.T) {
	srv := ndjsonServer(t,
		`{"message":{"role":"assistant","content":"Refunds "},"done":false}`,
		`{"message":{"role":"assistant","content":"take 5 days."},"done":false}`,
		`{"message":{"role":"assistant","content":""},"done":true}`,
	)
	defer srv.Close()

	var deltas []string
	err := NewOllamaProvider(srv.URL, "llama3.2").Stream(context.Background(), llm.Prompt("q"), func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Refunds ", "take 5 days."}, deltas)
}

func TestOllamaStreamStopsWhenCallbackFails(t *testing.T) {
	srv := ndjsonServer(t,
		`{"message":{"content":"a"}}`,
		`{"message":{"content":"b"}}`,
		`{"message":{"content":"c"},"done":true}`,
	)
	defer srv.Close()

	stop := errors.New("peer gone")
	calls := 0
	err := NewOllamaProvider(srv.URL, "m").Stream(context.Background(), llm.Prompt("q"), func(d string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestOllamaStreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewOllamaProvider(srv.URL, "m").Stream(context.Background(), llm.Prompt("q"), func(string) error { return nil })
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "404"))

	empty := ndjsonServer(t, `{"message":{"content":""},"done":true}`)
	defer empty.Close()
	err = NewOllamaProvider(empty.URL, "m").Stream(context.Background(), llm.Prompt("q"), func(string) error { return nil })
	assert.ErrorIs(t, err, llm.ErrEmptyStream)
}
