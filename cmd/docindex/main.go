package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/terra-clan/mentor-engine/internal/ai"
	"github.com/terra-clan/mentor-engine/internal/config"
	"github.com/terra-clan/mentor-engine/internal/storage"
)

// docindex ingests course material into the vector store used for
// retrieval. It reads plain text and markdown files, splits them into
// overlapping chunks, embeds each batch and inserts the results.
func main() {
	var (
		docsDir   = flag.String("docs", "./docs", "directory of .txt/.md course material")
		chunkSize = flag.Int("chunk-size", 1200, "max chunk length in characters")
		overlap   = flag.Int("overlap", 200, "overlap between consecutive chunks in characters")
		batchSize = flag.Int("batch-size", 16, "chunks embedded per request")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	embedder := ai.NewEmbeddingsClient(cfg.AI.EmbeddingsURL, cfg.AI.EmbeddingsKey, cfg.AI.RequestTimeout)

	if err := run(ctx, repo, embedder, *docsDir, *chunkSize, *overlap, *batchSize); err != nil {
		slog.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, repo storage.Repository, embedder ai.Embedder, docsDir string, chunkSize, overlap, batchSize int) error {
	if overlap >= chunkSize {
		return fmt.Errorf("overlap (%d) must be smaller than chunk size (%d)", overlap, chunkSize)
	}

	files, err := listSourceFiles(docsDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .txt or .md files found in %s", docsDir)
	}

	slog.Info("starting ingestion", "files", len(files), "chunk_size", chunkSize, "overlap", overlap)

	total := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable file", "file", path, "error", err)
			continue
		}

		chunks := chunkText(string(data), chunkSize, overlap)
		if len(chunks) == 0 {
			continue
		}

		name := filepath.Base(path)
		inserted, err := ingestChunks(ctx, repo, embedder, name, chunks, batchSize)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", name, err)
		}

		slog.Info("ingested file", "file", name, "chunks", inserted)
		total += inserted
	}

	slog.Info("ingestion complete", "chunks", total)
	return nil
}

func ingestChunks(ctx context.Context, repo storage.Repository, embedder ai.Embedder, source string, chunks []string, batchSize int) (int, error) {
	inserted := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		embeddings, err := embedder.Embed(ctx, batch)
		if err != nil {
			return inserted, fmt.Errorf("embedding batch failed: %w", err)
		}

		for i, content := range batch {
			metadata := map[string]string{
				"source": source,
				"chunk":  fmt.Sprintf("%d", start+i),
			}
			if err := repo.InsertDocument(ctx, content, embeddings[i], metadata); err != nil {
				return inserted, fmt.Errorf("insert failed: %w", err)
			}
			inserted++
		}
	}
	return inserted, nil
}

func listSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// chunkText splits text into chunks of at most size characters with the
// given overlap, preferring to break at paragraph or line boundaries.
func chunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	runes := []rune(text)

	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		// Back up to the nearest newline in the second half of the window
		// so chunks do not split mid sentence when avoidable.
		cut := end
		for i := end; i > start+size/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}

		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}
