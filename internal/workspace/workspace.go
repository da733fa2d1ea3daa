package workspace

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/vendorroll/internal/logfields"
)

// Manager owns a single ephemeral workspace directory.
type Manager struct {
	baseDir string
	prefix  string
	tempDir string
}

// NewManager creates a workspace manager rooted at baseDir (os.TempDir when empty).
// prefix names the directory, typically the target being vendored.
func NewManager(baseDir, prefix string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if prefix == "" {
		prefix = "workspace"
	}
	return &Manager{baseDir: baseDir, prefix: prefix}
}

// Create makes a fresh, empty, uniquely named directory.
func (m *Manager) Create() error {
	if m.tempDir != "" {
		return fmt.Errorf("workspace already created: %s", m.tempDir)
	}
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base directory: %w", err)
	}
	tempDir, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("vendorroll-%s-", m.prefix))
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	m.tempDir = tempDir
	slog.Info("Created workspace", logfields.Path(tempDir))
	return nil
}

// GetPath returns the path to the workspace directory
func (m *Manager) GetPath() string {
	return m.tempDir
}

// Cleanup removes the workspace tree, including partially written content.
// A workspace that was never created or is already gone is not an error.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}

	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}

	slog.Info("Cleaned up workspace", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}

// With acquires a workspace, runs fn with its path and releases it on every
// exit path. fn's error takes precedence over a cleanup error.
func With(baseDir, prefix string, fn func(path string) error) (err error) {
	m := NewManager(baseDir, prefix)
	if err := m.Create(); err != nil {
		return err
	}
	defer func() {
		if cerr := m.Cleanup(); cerr != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Path(m.tempDir), logfields.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}()
	return fn(m.GetPath())
}
