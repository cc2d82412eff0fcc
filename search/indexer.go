package search

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// noteIndex is the slice of Client the indexer needs
type noteIndex interface {
	IndexNote(path, title, category, content string) error
	DeleteNote(path string) error
}

// Indexer watches the vault directory and keeps the search index in sync
type Indexer struct {
	root      string
	index     noteIndex
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewIndexer creates an indexer over the vault rooted at root
func NewIndexer(root string, index noteIndex) *Indexer {
	idx := &Indexer{
		root:   root,
		index:  index,
		stopCh: make(chan struct{}),
	}
	idx.debouncer = newDebouncer(defaultDebounceDelay, idx.processDebounced)
	return idx
}

// Start performs a full scan and then watches for changes
func (ix *Indexer) Start() error {
	var err error
	ix.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := ix.watchRecursive(ix.root); err != nil {
		ix.watcher.Close()
		return err
	}

	if err := ix.ScanAll(); err != nil {
		logger.Error().Err(err).Msg("initial vault scan failed")
	}

	ix.wg.Add(1)
	go ix.eventLoop()

	logger.Info().Str("root", ix.root).Msg("vault indexer started")
	return nil
}

// Stop shuts the indexer down and drains pending events
func (ix *Indexer) Stop() {
	close(ix.stopCh)
	ix.debouncer.Stop()
	if ix.watcher != nil {
		ix.watcher.Close()
	}
	ix.wg.Wait()
}

// ScanAll walks the vault and indexes every markdown file
func (ix *Indexer) ScanAll() error {
	return filepath.Walk(ix.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !isNoteFile(path) {
			return nil
		}
		if err := ix.indexFile(path); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("failed to index note")
		}
		return nil
	})
}

func (ix *Indexer) eventLoop() {
	defer ix.wg.Done()

	for {
		select {
		case <-ix.stopCh:
			return
		case event, ok := <-ix.watcher.Events:
			if !ok {
				return
			}
			ix.handleEvent(event)
		case err, ok := <-ix.watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("vault watcher error")
		}
	}
}

func (ix *Indexer) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if isNoteFile(event.Name) {
			ix.debouncer.Queue(event.Name, EventDelete)
		}
		return
	}

	isCreate := event.Op&fsnotify.Create != 0
	isWrite := event.Op&fsnotify.Write != 0
	if !isCreate && !isWrite {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if isCreate {
			ix.watcher.Add(event.Name)
		}
		return
	}

	if !isNoteFile(event.Name) {
		return
	}

	if isCreate {
		ix.debouncer.Queue(event.Name, EventCreate)
	} else {
		ix.debouncer.Queue(event.Name, EventWrite)
	}
}

func (ix *Indexer) processDebounced(path string, eventType EventType) {
	if eventType == EventDelete {
		rel := ix.relPath(path)
		if err := ix.index.DeleteNote(rel); err != nil {
			logger.Error().Err(err).Str("path", rel).Msg("failed to delete note from index")
		}
		return
	}

	if err := ix.indexFile(path); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to index note")
	}
}

func (ix *Indexer) indexFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rel := ix.relPath(path)
	title, content := splitNote(string(data))
	return ix.index.IndexNote(rel, title, noteCategory(rel), content)
}

func (ix *Indexer) relPath(path string) string {
	rel, err := filepath.Rel(ix.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (ix *Indexer) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := ix.watcher.Add(path); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("failed to watch directory")
			}
		}
		return nil
	})
}

func isNoteFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

// noteCategory derives the category from the vault-relative path,
// knowledge/cooking/foo.md yields "cooking"
func noteCategory(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) >= 3 && parts[0] == "knowledge" {
		return parts[1]
	}
	if len(parts) >= 2 {
		return parts[0]
	}
	return ""
}

// splitNote pulls the H1 title off the front of a markdown note
func splitNote(raw string) (title, content string) {
	content = strings.TrimSpace(raw)
	if strings.HasPrefix(content, "# ") {
		if idx := strings.IndexByte(content, '\n'); idx > 0 {
			title = strings.TrimSpace(content[2:idx])
			content = strings.TrimSpace(content[idx:])
		} else {
			title = strings.TrimSpace(content[2:])
			content = ""
		}
	}
	return title, content
}
