// Package retrieval provides the text-chunk similarity store backing the
// retail assistant's product answers.
//
// Documents are chunked and embedded into a chromem-go collection; queries
// return the top-k most similar chunks. The store is an external
// collaborator from the funnel's point of view: failures and empty results
// both degrade to "no product info available".
package retrieval

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/philippgille/chromem-go"
)

// Chunking configuration, matching the ingestion pipeline the product
// documents were originally indexed with.
const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of trailing characters carried from
	// one chunk into the next, so a sentence split across a boundary stays
	// retrievable from both sides.
	DefaultChunkOverlap = 200
	// DefaultTopK is the number of snippets returned per query.
	DefaultTopK = 3
)

// Searcher is the capability the funnel engine depends on.
type Searcher interface {
	// Search returns up to k text snippets relevant to the query, most
	// similar first. An empty result is not an error.
	Search(ctx context.Context, query string, k int) ([]string, error)
}

// Opts holds configuration options for the retrieval store.
type Opts struct {
	// Path is the persistence directory. Empty means in-memory only.
	Path string
	// Collection names the chromem collection.
	Collection string
	// APIKey enables OpenAI embeddings; empty falls back to chromem's
	// default local embeddings.
	APIKey string
}

// Option defines a configuration option for the retrieval store.
type Option func(*Opts)

// WithPath sets the persistence directory.
func WithPath(path string) Option {
	return func(o *Opts) {
		o.Path = path
	}
}

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(o *Opts) {
		o.Collection = name
	}
}

// WithAPIKey sets the OpenAI API key used for embeddings.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// Store is a chromem-go backed snippet store.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewStore opens (or creates) the snippet collection. A persistence path
// makes the collection durable across restarts.
func NewStore(opts ...Option) (*Store, error) {
	cfg := Opts{Collection: "product-info"}
	for _, opt := range opts {
		opt(&cfg)
	}

	var db *chromem.DB
	var err error
	if cfg.Path != "" {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open retrieval database: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	var embeddingFunc chromem.EmbeddingFunc
	if cfg.APIKey != "" {
		embeddingFunc = chromem.NewEmbeddingFuncOpenAI(cfg.APIKey, chromem.EmbeddingModelOpenAI3Small)
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	slog.Info("retrieval.NewStore: collection ready", "collection", cfg.Collection, "persistent", cfg.Path != "", "openai_embeddings", cfg.APIKey != "")
	return &Store{db: db, collection: collection}, nil
}

// Search returns up to k snippet contents relevant to the query.
func (s *Store) Search(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	snippets := make([]string, 0, len(results))
	for _, result := range results {
		snippets = append(snippets, result.Content)
	}
	return snippets, nil
}

// Ingest walks a directory of text documents, chunks each file, and adds the
// chunks to the collection. Unsupported files are skipped; a file that fails
// to ingest is logged and does not abort the rest of the batch.
func (s *Store) Ingest(ctx context.Context, dir string) error {
	var total int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			slog.Debug("retrieval.Ingest: skipping unsupported file", "path", path)
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("retrieval.Ingest: failed to read file", "error", err, "path", path)
			return nil
		}

		base := strings.TrimSuffix(d.Name(), ext)
		chunks := ChunkText(normalizeWhitespace(string(content)), DefaultChunkSize, DefaultChunkOverlap)
		for i, chunk := range chunks {
			doc := chromem.Document{
				ID:      fmt.Sprintf("%s_chunk_%d", base, i),
				Content: chunk,
				Metadata: map[string]string{
					"source":       path,
					"chunk_index":  fmt.Sprintf("%d", i),
					"total_chunks": fmt.Sprintf("%d", len(chunks)),
				},
			}
			if err := s.collection.AddDocument(ctx, doc); err != nil {
				slog.Warn("retrieval.Ingest: failed to add chunk", "error", err, "id", doc.ID)
				continue
			}
			total++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk document directory: %w", err)
	}

	slog.Info("retrieval.Ingest: ingestion complete", "dir", dir, "chunks", total)
	return nil
}

var sentenceBoundary = regexp.MustCompile(`[.!?]+\s+`)

// ChunkText splits text into chunks of at most maxChunkSize characters,
// breaking on sentence boundaries where possible. Each chunk after the first
// begins with up to overlap characters of the previous chunk's tail.
func ChunkText(text string, maxChunkSize, overlap int) []string {
	if len(text) <= maxChunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{strings.TrimSpace(text)}
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range splitSentences(text) {
		if current.Len()+len(sentence) > maxChunkSize && current.Len() > 0 {
			chunk := strings.TrimSpace(current.String())
			chunks = append(chunks, chunk)
			current.Reset()
			if tail := chunkTail(chunk, overlap); tail != "" {
				current.WriteString(tail)
				current.WriteString(" ")
			}
		}
		current.WriteString(sentence)
		current.WriteString(" ")
	}
	// A final fragment that is nothing but carried-over overlap adds no
	// content and is dropped.
	last := strings.TrimSpace(current.String())
	if last != "" && (len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], last)) {
		chunks = append(chunks, last)
	}
	return chunks
}

// chunkTail returns the last n characters of s, shortened to the nearest
// word boundary so the overlap never starts mid-word.
func chunkTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	tail := s[len(s)-n:]
	if idx := strings.IndexByte(tail, ' '); idx != -1 {
		tail = tail[idx+1:]
	}
	return tail
}

// splitSentences splits text on sentence-ending punctuation.
func splitSentences(text string) []string {
	parts := sentenceBoundary.Split(text, -1)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeWhitespace collapses all whitespace runs to single spaces.
func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
