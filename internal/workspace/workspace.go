// Package workspace manages the ephemeral working area holding one build's
// reconstructed document tree. Each build owns its area exclusively and the
// area is removed unconditionally when the build ends, success or failure.
// Concurrent builds get distinct areas; sharing one is undefined behavior.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bookforge/bookforge/internal/logfields"
)

// Manager handles working-area operations for a single build.
type Manager struct {
	baseDir string
	tempDir string
}

// NewManager creates a working-area manager rooted under baseDir
// (os.TempDir() when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create creates the working-area directory. The timestamp makes areas easy
// to find when debugging; the uuid suffix keeps two builds started in the
// same second apart.
func (m *Manager) Create() error {
	stamp := time.Now().Format("20060102-150405")
	dir := filepath.Join(m.baseDir, fmt.Sprintf("bookforge-%s-%s", stamp, uuid.NewString()[:8]))

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create working area: %w", err)
	}

	m.tempDir = dir
	slog.Info("Created working area", logfields.Path(dir))
	return nil
}

// Path returns the path to the working area.
func (m *Manager) Path() string {
	return m.tempDir
}

// Cleanup removes the working area. Safe to call when Create never ran.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}
	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup working area: %w", err)
	}
	slog.Info("Cleaned up working area", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}

// WriteFile writes content under the working area, creating parent
// directories as needed. The path must be relative to the area root.
func (m *Manager) WriteFile(relPath string, content []byte) error {
	if m.tempDir == "" {
		return fmt.Errorf("working area not created")
	}
	full := filepath.Join(m.tempDir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(full, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	return nil
}

// ReadFile reads a file back from the working area.
func (m *Manager) ReadFile(relPath string) ([]byte, error) {
	if m.tempDir == "" {
		return nil, fmt.Errorf("working area not created")
	}
	return os.ReadFile(filepath.Join(m.tempDir, relPath))
}
