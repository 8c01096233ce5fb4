package tutor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/terra-clan/mentor-engine/internal/models"
	"github.com/terra-clan/mentor-engine/internal/snippets"
	"github.com/terra-clan/mentor-engine/internal/storage"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func testCatalog(t *testing.T) *snippets.Catalog {
	t.Helper()
	dir := t.TempDir()
	content := `
snippets:
  - challenge_id: meity_pcap_1
    text: "Open the capture with rdpcap before filtering."
`
	if err := os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	c := snippets.NewCatalog()
	if err := c.LoadFromDir(dir); err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return c
}

func TestAskUsesRetrievedContext(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ctx := context.Background()

	if err := repo.InsertDocument(ctx, "pcap files contain captured network packets", []float32{0.1, 0.2, 0.3}, nil); err != nil {
		t.Fatalf("InsertDocument failed: %v", err)
	}

	gen := &fakeGenerator{response: "What do you think a capture file records?"}
	svc := NewService(repo, gen, &fakeEmbedder{}, testCatalog(t), 4)

	got := svc.Ask(ctx, &models.UserIdentity{ID: "u1"}, "what is a pcap?", []models.ChatMessage{
		{Role: "user", Content: "I'm stuck on challenge one"},
	})

	if got != "What do you think a capture file records?" {
		t.Errorf("unexpected response: %q", got)
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("expected 1 generate call, got %d", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "pcap files contain captured network packets") {
		t.Error("prompt should include the retrieved chunk")
	}
	if !strings.Contains(prompt, "user: I'm stuck on challenge one") {
		t.Error("prompt should include chat history")
	}
	if !strings.Contains(prompt, "what is a pcap?") {
		t.Error("prompt should include the question")
	}
}

func TestAskDegradesOnGeneratorFailure(t *testing.T) {
	repo := storage.NewMemoryRepository()
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	svc := NewService(repo, gen, &fakeEmbedder{}, testCatalog(t), 4)

	got := svc.Ask(context.Background(), &models.UserIdentity{ID: "u1"}, "help", nil)
	if got != degradedResponse {
		t.Errorf("expected degraded response, got %q", got)
	}
}

func TestAskSurvivesEmbedderFailure(t *testing.T) {
	repo := storage.NewMemoryRepository()
	gen := &fakeGenerator{response: "Which layer are you inspecting?"}
	svc := NewService(repo, gen, &fakeEmbedder{err: errors.New("endpoint down")}, testCatalog(t), 4)

	got := svc.Ask(context.Background(), &models.UserIdentity{ID: "u1"}, "help", nil)
	if got != "Which layer are you inspecting?" {
		t.Errorf("embedder failure must not block generation, got %q", got)
	}
	if !strings.Contains(gen.prompts[0], "No specific context found") {
		t.Error("prompt should fall back to general knowledge without retrieval")
	}
}

func TestSnippetKnownChallenge(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewService(repo, &fakeGenerator{}, &fakeEmbedder{}, testCatalog(t), 4)
	ctx := context.Background()

	got := svc.Snippet(ctx, &models.UserIdentity{ID: "u1"}, "meity_pcap_1")
	if got != "Open the capture with rdpcap before filtering." {
		t.Errorf("unexpected snippet: %q", got)
	}

	assertSnippetTicket(t, repo, "u1", "meity_pcap_1")
}

func TestSnippetUnknownChallenge(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewService(repo, &fakeGenerator{}, &fakeEmbedder{}, testCatalog(t), 4)
	ctx := context.Background()

	got := svc.Snippet(ctx, &models.UserIdentity{ID: "u1"}, "unknown_id")
	if got != snippets.PlaceholderText {
		t.Errorf("expected placeholder, got %q", got)
	}

	assertSnippetTicket(t, repo, "u1", "unknown_id")
}

func TestSnippetLoggingFailureIsSwallowed(t *testing.T) {
	repo := storage.NewMemoryRepository()
	repo.FailTickets = true
	svc := NewService(repo, &fakeGenerator{}, &fakeEmbedder{}, testCatalog(t), 4)

	got := svc.Snippet(context.Background(), &models.UserIdentity{ID: "u1"}, "meity_pcap_1")
	if got != "Open the capture with rdpcap before filtering." {
		t.Errorf("audit failure must not affect the snippet, got %q", got)
	}
}

func assertSnippetTicket(t *testing.T, repo *storage.MemoryRepository, userID, challengeID string) {
	t.Helper()
	ctx := context.Background()

	count, err := repo.CountAssistEvents(ctx, userID, challengeID)
	if err != nil {
		t.Fatalf("CountAssistEvents failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 logged ticket, got %d", count)
	}

	// The audit ticket is closed and never surfaces in the queue
	queue, err := repo.ListOpenPeerTickets(ctx)
	if err != nil {
		t.Fatalf("ListOpenPeerTickets failed: %v", err)
	}
	if len(queue) != 0 {
		t.Errorf("snippet tickets must not appear in the queue, got %d", len(queue))
	}
}
