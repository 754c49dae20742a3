package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaEmbed(t *testing.T) {
	var gotPath string
	var gotReq ollamaEmbedRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer ts.Close()

	e := NewOllamaEmbedder("nomic-embed-text", ts.URL)
	vec, err := e.Embed(context.Background(), "registrar opening hours")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if gotPath != "/api/embed" {
		t.Errorf("path = %q, want /api/embed", gotPath)
	}
	if gotReq.Model != "nomic-embed-text" {
		t.Errorf("model = %q, want nomic-embed-text", gotReq.Model)
	}
	if gotReq.Input != "registrar opening hours" {
		t.Errorf("input = %q", gotReq.Input)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("vector = %v, want [0.1 0.2 0.3]", vec)
	}
}

func TestOllamaEmbedServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	e := NewOllamaEmbedder("missing-model", ts.URL)
	_, err := e.Embed(context.Background(), "anything")
	if err == nil {
		t.Fatal("Embed against failing server returned nil error")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q does not mention the status code", err)
	}
}

func TestOllamaEmbedEmptyResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	defer ts.Close()

	e := NewOllamaEmbedder("nomic-embed-text", ts.URL)
	_, err := e.Embed(context.Background(), "anything")
	if err == nil || !strings.Contains(err.Error(), "no embeddings") {
		t.Errorf("err = %v, want no-embeddings error", err)
	}
}

func TestOllamaName(t *testing.T) {
	e := NewOllamaEmbedder("nomic-embed-text", "")
	if got := e.Name(); got != "ollama/nomic-embed-text" {
		t.Errorf("Name = %q", got)
	}
}
