package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
	"github.com/newsquill-labs/newsquill-cli/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads agent prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
	watcher   *fsnotify.Watcher
	watchDone chan struct{}
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptPlannerSystem: `You are a senior blog editor and planning agent. Break a single blog assignment into sharply distinct subtasks that together form a compelling analysis post. Stay strictly on-topic. Avoid overlap. No fluff.`,

	driven.PromptQueryBuilderSystem: `You are a research query designer for investigative blog writing. Queries must be concrete, entity-rich, and verification-focused—good for search and vector recall. Prefer nouns, entities, metrics, mechanisms, and time windows. Avoid opinion words.`,

	driven.PromptDrafterSystem: `You are a senior editorial writer for a policy analysis blog. Write with clarity, edge, and receipts. Favor verification, mechanisms, incentives, and practical tradeoffs. Cite sources using the provided [SOURCE] lines when drawing facts.`,

	driven.PromptConsolidatorSystem: `You are a veteran magazine features editor. Combine the drafts into one cohesive analysis post. Voice: confident, sharp, plainspoken; avoid jargon unless necessary and define it once.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.newsquill/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".newsquill", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Watch starts invalidating the cache whenever a prompt file changes on disk.
// Edits take effect on the next Load without restarting the process.
// Call Close to stop watching.
func (s *PromptStore) Watch() error {
	// Ensure the directory exists before watching it.
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil // already watching
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := w.Add(s.promptDir); err != nil {
		w.Close()
		return fmt.Errorf("watch prompt directory: %w", err)
	}

	s.watcher = w
	s.watchDone = make(chan struct{})
	go s.watchLoop(w, s.watchDone)
	return nil
}

// watchLoop drains watcher events until the watcher is closed.
func (s *PromptStore) watchLoop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".txt" {
				continue
			}
			logger.Debug("Prompt file changed, clearing cache: %s", filepath.Base(event.Name))
			s.Reload()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("Prompt watcher error: %v", err)
		}
	}
}

// Close stops the file watcher, if one was started.
func (s *PromptStore) Close() error {
	s.mu.Lock()
	w := s.watcher
	done := s.watchDone
	s.watcher = nil
	s.watchDone = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Newsquill Prompts

This directory contains the system prompts for the drafting pipeline agents.

## Files

- ` + "`planner_system.txt`" + ` - Breaks an assignment into section subtasks
- ` + "`querybuilder_system.txt`" + ` - Designs retrieval queries per section
- ` + "`drafter_system.txt`" + ` - Writes each section from retrieved evidence
- ` + "`consolidator_system.txt`" + ` - Merges section drafts into the final post

## Customisation

Edit any file to change agent behaviour. Changes take effect on the next
generate command. Style and profanity guidance is appended at runtime, so
keep these files focused on voice and role.
`
	return os.WriteFile(path, []byte(content), 0600)
}
