package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGenerativeClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "secret" {
			t.Errorf("expected key in query, got %q", r.URL.Query().Get("key"))
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "what is a pcap?" {
			t.Errorf("unexpected request body: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"What do you "},{"text":"think a packet capture contains?"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGenerativeClient(srv.URL, "secret", "test-model", 5*time.Second)

	got, err := c.Generate(context.Background(), "what is a pcap?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "What do you think a packet capture contains?" {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestGenerativeClientBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c := NewGenerativeClient(srv.URL, "secret", "test-model", 5*time.Second)

	if _, err := c.Generate(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for backend 429")
	}
}

func TestGenerativeClientNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewGenerativeClient(srv.URL, "secret", "test-model", 5*time.Second)

	if _, err := c.Generate(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestEmbeddingsClientEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer hf-token" {
			t.Errorf("unexpected Authorization header: %s", got)
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Inputs) != 2 {
			t.Fatalf("expected 2 inputs, got %d", len(req.Inputs))
		}

		w.Write([]byte(`[[0.1, 0.2], [0.3, 0.4]]`))
	}))
	defer srv.Close()

	c := NewEmbeddingsClient(srv.URL, "hf-token", 5*time.Second)

	vectors, err := c.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[1][0] != 0.3 {
		t.Errorf("unexpected vector value: %v", vectors[1])
	}
}

func TestEmbeddingsClientCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[0.1]]`))
	}))
	defer srv.Close()

	c := NewEmbeddingsClient(srv.URL, "", 5*time.Second)

	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error for vector count mismatch")
	}
}

func TestEmbeddingsClientEmptyInput(t *testing.T) {
	c := NewEmbeddingsClient("http://embeddings.invalid", "", 5*time.Second)

	vectors, err := c.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed of empty input failed: %v", err)
	}
	if vectors != nil {
		t.Errorf("expected nil vectors, got %v", vectors)
	}
}
