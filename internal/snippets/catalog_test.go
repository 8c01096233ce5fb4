package snippets

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSnippetFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

func TestCatalogLoadAndGet(t *testing.T) {
	dir := t.TempDir()
	writeSnippetFile(t, dir, "net.yaml", `
snippets:
  - challenge_id: meity_pcap_1
    title: Reading packet captures
    text: "Start by opening the capture with rdpcap."
  - challenge_id: meity_web_1
    text: "Check the request headers first."
`)
	writeSnippetFile(t, dir, "extra.yml", `
snippets:
  - challenge_id: crypto_1
    text: "Look at the key length."
`)

	c := NewCatalog()
	if err := c.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	if c.Len() != 3 {
		t.Errorf("expected 3 snippets, got %d", c.Len())
	}

	text, ok := c.Get("meity_pcap_1")
	if !ok {
		t.Fatal("expected meity_pcap_1 to be present")
	}
	if text != "Start by opening the capture with rdpcap." {
		t.Errorf("unexpected snippet text: %q", text)
	}

	text, ok = c.Get("unknown_id")
	if ok {
		t.Error("expected unknown_id to be absent")
	}
	if text != PlaceholderText {
		t.Errorf("expected placeholder for unknown id, got %q", text)
	}
}

func TestCatalogSkipsInvalidEntries(t *testing.T) {
	dir := t.TempDir()
	writeSnippetFile(t, dir, "bad.yaml", `
snippets:
  - challenge_id: ""
    text: "orphaned"
  - challenge_id: ok_1
    text: "valid"
  - challenge_id: no_text
`)

	c := NewCatalog()
	if err := c.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	if c.Len() != 1 {
		t.Errorf("expected only the valid entry, got %d", c.Len())
	}
	if _, ok := c.Get("ok_1"); !ok {
		t.Error("valid entry missing")
	}
}

func TestCatalogBundledSnippets(t *testing.T) {
	dir := filepath.Join("..", "..", "snippets")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("snippets directory not found, skipping")
	}

	c := NewCatalog()
	if err := c.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	if _, ok := c.Get("meity_pcap_1"); !ok {
		t.Error("bundled catalog should contain meity_pcap_1")
	}
}
