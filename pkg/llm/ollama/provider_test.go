package ollama

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"curriculum-rag-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		fmt.Fprintln(w, `{"model":"llama3","message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"model":"llama3","message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"model":"llama3","message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	s, err := NewOllamaProvider(srv.URL, "llama3").ChatStream(context.Background(), []llm.Message{{Role: "model", Content: "x"}})
	require.NoError(t, err)
	defer s.Close()

	var tokens []string
	for {
		tok, err := s.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		tokens = append(tokens, tok)
	}
	assert.Equal(t, []string{"Hel", "lo"}, tokens)
}

func TestChatStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").ChatStream(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}
