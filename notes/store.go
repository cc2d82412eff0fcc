// Package notes writes the markdown vault: a daily task journal and
// knowledge notes filed under category folders.
package notes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/attent-app/attent/assistant"
	"github.com/attent-app/attent/log"
)

var logger = log.GetLogger("Notes")

const defaultCategory = "inbox"

// Store writes markdown files under a vault directory
type Store struct {
	dir string
}

// NewStore creates a note store rooted at dir
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create notes directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the vault root
func (s *Store) Dir() string {
	return s.dir
}

// AppendTask mirrors a created task into the daily journal file
func (s *Store) AppendTask(ctx context.Context, draft assistant.TaskDraft, taskID string) error {
	day := time.Now().Format("2006-01-02")
	path := filepath.Join(s.dir, "tasks", day+".md")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	newFile := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		newFile = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open daily journal: %w", err)
	}
	defer f.Close()

	if newFile {
		if _, err := fmt.Fprintf(f, "# Tasks %s\n\n", day); err != nil {
			return err
		}
	}

	line := taskLine(draft, taskID)
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to append task line: %w", err)
	}

	logger.Debug().Str("task", taskID).Str("file", path).Msg("task mirrored into journal")
	return nil
}

// CreateKnowledgeNote writes one knowledge note and returns its path relative
// to the vault root
func (s *Store) CreateKnowledgeNote(ctx context.Context, knowledge assistant.KnowledgePayload) (string, error) {
	category := Slugify(knowledge.Category)
	if category == "" {
		category = defaultCategory
	}

	title := strings.TrimSpace(knowledge.Title)
	if title == "" {
		title = "untitled"
	}

	slug := Slugify(title)
	if slug == "" {
		slug = "note"
	}

	relDir := filepath.Join("knowledge", category)
	if err := os.MkdirAll(filepath.Join(s.dir, relDir), 0755); err != nil {
		return "", err
	}

	// Suffix on collision instead of overwriting an existing note
	relPath := filepath.Join(relDir, slug+".md")
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(s.dir, relPath)); os.IsNotExist(err) {
			break
		}
		relPath = filepath.Join(relDir, fmt.Sprintf("%s-%d.md", slug, i))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString(strings.TrimSpace(knowledge.Content))
	b.WriteString("\n")
	if len(knowledge.Tags) > 0 {
		b.WriteString("\n")
		for _, tag := range knowledge.Tags {
			tag = Slugify(tag)
			if tag != "" {
				b.WriteString("#" + tag + " ")
			}
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n> saved %s\n", time.Now().UTC().Format(time.RFC3339))

	if err := os.WriteFile(filepath.Join(s.dir, relPath), []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write knowledge note: %w", err)
	}

	logger.Info().Str("path", relPath).Msg("knowledge note created")
	return relPath, nil
}

func taskLine(draft assistant.TaskDraft, taskID string) string {
	var b strings.Builder
	b.WriteString("- [ ] " + strings.TrimSpace(draft.Title))
	if draft.DueDate != "" {
		b.WriteString(" (due " + draft.DueDate)
		if draft.DueTime != "" {
			b.WriteString(" " + draft.DueTime)
		}
		b.WriteString(")")
	}
	if draft.Project != "" {
		b.WriteString(" [" + draft.Project + "]")
	}
	if taskID != "" {
		b.WriteString(" <!-- task:" + taskID + " -->")
	}
	return b.String()
}

var slugUnsafeRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases and strips a string down to a safe filename fragment
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugUnsafeRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
