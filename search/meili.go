// Package search indexes the markdown vault into Meilisearch and answers
// knowledge lookups against it.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"github.com/attent-app/attent/log"
)

var logger = log.GetLogger("Search")

// Config holds Meilisearch connection settings
type Config struct {
	Host   string
	APIKey string
	Index  string
}

// Result is the outcome of a knowledge lookup
type Result struct {
	Found     bool
	Results   []Hit
	Formatted string
}

// Hit is one matching note
type Hit struct {
	DocumentID string
	Path       string
	Title      string
	Category   string
	Snippet    string
}

// Client wraps a Meilisearch index over knowledge notes
type Client struct {
	client   meilisearch.ServiceManager
	index    meilisearch.IndexManager
	indexUID string
}

// NewClient connects to Meilisearch and verifies the connection
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("meilisearch host not configured")
	}

	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to Meilisearch: %w", err)
	}

	index := client.Index(cfg.Index)

	logger.Info().Str("host", cfg.Host).Str("index", cfg.Index).Msg("connected to Meilisearch")

	return &Client{
		client:   client,
		index:    index,
		indexUID: cfg.Index,
	}, nil
}

// Query searches the knowledge index and formats the hits for the responder
func (c *Client) Query(ctx context.Context, query string) (Result, error) {
	if c == nil {
		return Result{}, nil
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:                 5,
		AttributesToHighlight: []string{"content", "title"},
		AttributesToCrop:      []string{"content"},
		CropLength:            200,
		MatchingStrategy:      "all",
	}

	resp, err := c.index.Search(query, searchReq)
	if err != nil {
		return Result{}, fmt.Errorf("knowledge search failed: %w", err)
	}

	result := Result{}
	for _, hit := range resp.Hits {
		h, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		entry := Hit{
			DocumentID: getString(h, "documentId"),
			Path:       getString(h, "path"),
			Title:      getString(h, "title"),
			Category:   getString(h, "category"),
			Snippet:    getString(h, "content"),
		}

		if formatted, ok := h["_formatted"].(map[string]interface{}); ok {
			if s := getString(formatted, "content"); s != "" {
				entry.Snippet = s
			}
		}

		result.Results = append(result.Results, entry)
	}

	result.Found = len(result.Results) > 0
	result.Formatted = formatHits(result.Results)
	return result, nil
}

// IndexNote upserts one note document keyed by its vault-relative path
func (c *Client) IndexNote(path, title, category, content string) error {
	if c == nil {
		return nil
	}

	doc := map[string]interface{}{
		"documentId": documentID(path),
		"path":       path,
		"title":      title,
		"category":   category,
		"content":    content,
		"indexedAt":  time.Now().UTC().Format(time.RFC3339),
	}

	_, err := c.index.AddDocuments([]map[string]interface{}{doc}, "documentId")
	return err
}

// DeleteNote removes a note document by its vault-relative path
func (c *Client) DeleteNote(path string) error {
	if c == nil {
		return nil
	}

	_, err := c.index.DeleteDocument(documentID(path))
	return err
}

// formatHits renders hits into the plain-text block handed to the responder
func formatHits(hits []Hit) string {
	if len(hits) == 0 {
		return ""
	}

	var b strings.Builder
	for i, h := range hits {
		title := h.Title
		if title == "" {
			title = h.Path
		}
		fmt.Fprintf(&b, "%d. %s", i+1, title)
		if h.Category != "" {
			fmt.Fprintf(&b, " (%s)", h.Category)
		}
		b.WriteString("\n")
		snippet := stripHighlight(h.Snippet)
		if snippet != "" {
			b.WriteString("   " + snippet + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// documentID makes a path safe as a Meilisearch document id
func documentID(path string) string {
	id := strings.NewReplacer("/", "_", "\\", "_", ".", "_", " ", "_").Replace(path)
	return strings.Trim(id, "_")
}

func stripHighlight(s string) string {
	s = strings.ReplaceAll(s, "<em>", "")
	s = strings.ReplaceAll(s, "</em>", "")
	return strings.TrimSpace(s)
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
