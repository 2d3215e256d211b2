// Package prefs handles container-apps user preferences persistence.
// Preferences are stored in ~/.config/container-apps/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme         string `toml:"theme"`
	InstallFilter string `toml:"install_filter"`
	LastStore     string `toml:"last_store"`
}

const (
	defaultPrefsPath     = "~/.config/container-apps/prefs.toml"
	defaultTheme         = "Nightfox"
	defaultInstallFilter = "all"
)

// ErrClosed is returned by Update after Close.
var ErrClosed = errors.New("preferences store closed")

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

func defaults() Prefs {
	return Prefs{Theme: defaultTheme, InstallFilter: defaultInstallFilter}
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return defaults(), nil
	}

	prefs := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return defaults(), nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	if strings.TrimSpace(prefs.InstallFilter) == "" {
		prefs.InstallFilter = defaultInstallFilter
	}
	prefs.LastStore = strings.TrimSpace(prefs.LastStore)

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// Store is a preferences session: opened once at startup, injected into
// whatever needs it, closed on shutdown.
type Store struct {
	mu     sync.Mutex
	path   string
	prefs  Prefs
	dirty  bool
	closed bool
}

// Open loads the preferences at path. Unreadable files yield defaults.
func Open(path string) *Store {
	p, _ := Load(path)
	return &Store{path: path, prefs: p}
}

// Get returns the current preferences.
func (s *Store) Get() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Update applies fn and writes the result. A failed write keeps the change
// in memory and is retried by Close.
func (s *Store) Update(fn func(*Prefs)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next := s.prefs
	fn(&next)
	if next == s.prefs && !s.dirty {
		return nil
	}
	s.prefs = next
	if err := Save(s.path, s.prefs); err != nil {
		s.dirty = true
		return err
	}
	s.dirty = false
	return nil
}

// Close flushes pending changes. Later calls are no-ops.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.dirty {
		return nil
	}
	if err := Save(s.path, s.prefs); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
