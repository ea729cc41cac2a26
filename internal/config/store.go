// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zephyrup/zephyrup/internal/issue"
)

// Store reads and rewrites a single config file. Every write replaces the
// whole file; concurrent updates through the same Store are serialized.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewStore returns a Store for the config file at path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// OpenStore resolves the config file selected by opts without requiring it to exist.
func OpenStore(opts LoadOptions) (*Store, error) {
	path, _, err := resolvePath(opts.withEnv(os.Getenv))
	if err != nil {
		return nil, err
	}
	return NewStore(path), nil
}

// WithClock replaces the time source used for history timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Path returns the config file path.
func (s *Store) Path() string { return s.path }

// Load returns the stored configuration, or defaults when the file is missing.
func (s *Store) Load(ctx context.Context) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load config canceled: %w", err)
	}
	if !fileExists(s.path) {
		return DefaultConfig(), nil
	}
	cfg, err := loadFile(s.path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithResource(s.path).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Run 'zephyrup config dump' to print a valid configuration").
			Wrap(err).
			BuildError()
	}
	return cfg, nil
}

// Save validates cfg and atomically replaces the config file.
func (s *Store) Save(cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(cfg)
}

func (s *Store) save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+ConfigFileName+"-*."+ConfigFileExt)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(GenerateCUE(cfg)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Update loads the config, applies fn and saves the result. Nothing is
// written when fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(*Config) error) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(cfg); err != nil {
		return nil, err
	}
	if err := s.save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes the defaults unless the file already exists. It reports whether
// a file was created.
func (s *Store) Init() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fileExists(s.path) {
		return false, nil
	}
	return true, s.save(DefaultConfig())
}

// RegisterProject persists Config.RegisterProject.
func (s *Store) RegisterProject(ctx context.Context, path, name string) (ProjectRecord, error) {
	var rec ProjectRecord
	_, err := s.Update(ctx, func(c *Config) error {
		rec = c.RegisterProject(path, name, s.now())
		return nil
	})
	return rec, err
}

// OpenProject persists Config.OpenProject.
func (s *Store) OpenProject(ctx context.Context, path, name string) (ProjectRecord, error) {
	var rec ProjectRecord
	_, err := s.Update(ctx, func(c *Config) error {
		rec = c.OpenProject(path, name, s.now())
		return nil
	})
	return rec, err
}

// RenameProject persists Config.RenameProject.
func (s *Store) RenameProject(ctx context.Context, path, name string) error {
	_, err := s.Update(ctx, func(c *Config) error { return c.RenameProject(path, name) })
	return err
}

// RemoveProject persists Config.RemoveProject.
func (s *Store) RemoveProject(ctx context.Context, path string) error {
	_, err := s.Update(ctx, func(c *Config) error { return c.RemoveProject(path) })
	return err
}
