package snippets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// PlaceholderText is returned when a challenge has no snippet
const PlaceholderText = "no snippet available"

// Snippet is one static hint tied to a challenge
type Snippet struct {
	ChallengeID string `yaml:"challenge_id" json:"challenge_id"`
	Text        string `yaml:"text" json:"text"`
	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
}

type snippetFile struct {
	Snippets []Snippet `yaml:"snippets"`
}

// Catalog holds the static snippet mapping keyed by challenge id.
// Content is fixed at load time; there is no dynamic snippet generation.
type Catalog struct {
	mu       sync.RWMutex
	snippets map[string]*Snippet
}

// NewCatalog creates an empty snippet catalog
func NewCatalog() *Catalog {
	return &Catalog{
		snippets: make(map[string]*Snippet),
	}
}

// LoadFromDir loads all YAML snippet files from a directory
func (c *Catalog) LoadFromDir(dir string) error {
	slog.Info("loading snippets from directory", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := c.LoadFromFile(file); err != nil {
			slog.Warn("failed to load snippet file", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("snippets loaded", "files", loaded, "entries", c.Len())
	return nil
}

// LoadFromFile loads snippets from a single YAML file
func (c *Catalog) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var sf snippetFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range sf.Snippets {
		s := sf.Snippets[i]
		if s.ChallengeID == "" || s.Text == "" {
			slog.Warn("skipping snippet without challenge_id or text", "file", path)
			continue
		}
		c.snippets[s.ChallengeID] = &s
	}

	return nil
}

// Get returns the snippet text for a challenge, or the placeholder and
// false when the challenge id is unrecognized.
func (c *Catalog) Get(challengeID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.snippets[challengeID]
	if !ok {
		return PlaceholderText, false
	}
	return s.Text, true
}

// Len returns the number of loaded snippets
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snippets)
}
