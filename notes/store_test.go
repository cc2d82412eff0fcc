package notes

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/attent-app/attent/assistant"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  Trim Me  ", "trim-me"},
		{"already-slugged", "already-slugged"},
		{"Café & Bar!!", "caf-bar"},
		{"---", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAppendTaskCreatesDailyJournal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	draft := assistant.TaskDraft{Title: "Buy milk", DueDate: "2026-09-02", Project: "home"}
	if err := store.AppendTask(context.Background(), draft, "task-1"); err != nil {
		t.Fatalf("AppendTask failed: %v", err)
	}
	if err := store.AppendTask(context.Background(), assistant.TaskDraft{Title: "Call dentist"}, "task-2"); err != nil {
		t.Fatalf("second AppendTask failed: %v", err)
	}

	day := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, "tasks", day+".md"))
	if err != nil {
		t.Fatalf("journal not written: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# Tasks "+day) {
		t.Errorf("journal missing header: %q", content)
	}
	if !strings.Contains(content, "- [ ] Buy milk (due 2026-09-02) [home]") {
		t.Errorf("journal missing first task line: %q", content)
	}
	if !strings.Contains(content, "- [ ] Call dentist") {
		t.Errorf("journal missing second task line: %q", content)
	}
	if strings.Count(content, "# Tasks") != 1 {
		t.Errorf("header duplicated on append: %q", content)
	}
}

func TestCreateKnowledgeNote(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	rel, err := store.CreateKnowledgeNote(context.Background(), assistant.KnowledgePayload{
		Title:    "Sourdough Starter",
		Content:  "Feed twice a day.",
		Category: "Cooking",
		Tags:     []string{"bread", "Fermentation"},
	})
	if err != nil {
		t.Fatalf("CreateKnowledgeNote failed: %v", err)
	}
	if rel != filepath.Join("knowledge", "cooking", "sourdough-starter.md") {
		t.Errorf("unexpected note path: %q", rel)
	}

	data, err := os.ReadFile(filepath.Join(dir, rel))
	if err != nil {
		t.Fatalf("note not written: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "# Sourdough Starter") {
		t.Errorf("note missing title: %q", content)
	}
	if !strings.Contains(content, "Feed twice a day.") {
		t.Errorf("note missing content: %q", content)
	}
	if !strings.Contains(content, "#bread") || !strings.Contains(content, "#fermentation") {
		t.Errorf("note missing tags: %q", content)
	}
}

func TestCreateKnowledgeNoteCollisionSuffix(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	payload := assistant.KnowledgePayload{Title: "Same Title", Content: "first"}
	first, err := store.CreateKnowledgeNote(context.Background(), payload)
	if err != nil {
		t.Fatalf("first note failed: %v", err)
	}
	payload.Content = "second"
	second, err := store.CreateKnowledgeNote(context.Background(), payload)
	if err != nil {
		t.Fatalf("second note failed: %v", err)
	}

	if first == second {
		t.Errorf("collision not suffixed: %q", second)
	}
	if !strings.HasSuffix(second, "same-title-2.md") {
		t.Errorf("unexpected suffix path: %q", second)
	}
}

func TestCreateKnowledgeNoteDefaults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	rel, err := store.CreateKnowledgeNote(context.Background(), assistant.KnowledgePayload{Content: "orphan fact"})
	if err != nil {
		t.Fatalf("CreateKnowledgeNote failed: %v", err)
	}
	if !strings.HasPrefix(rel, filepath.Join("knowledge", "inbox")) {
		t.Errorf("uncategorized note not filed under inbox: %q", rel)
	}
}
