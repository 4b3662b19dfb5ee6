package files

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// Manager provides file management operations
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger.With(slog.String("component", "file_manager"))}
}

// NeedsConversion reports whether input must be converted to output. With
// force set it always must; otherwise only when output is missing or not
// strictly newer than input.
func (m *Manager) NeedsConversion(input, output string, force bool) (bool, error) {
	if force {
		return true, nil
	}

	outInfo, err := os.Stat(output)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat output %s: %w", output, err)
	}

	inInfo, err := os.Stat(input)
	if err != nil {
		return false, fmt.Errorf("failed to stat input %s: %w", input, err)
	}

	upToDate := outInfo.ModTime().After(inInfo.ModTime())
	m.logger.Debug("Staleness check",
		slog.String("input", input),
		slog.String("output", output),
		slog.Bool("up_to_date", upToDate))
	return !upToDate, nil
}

// FileExists checks if a regular file exists at path
func (m *Manager) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ReadFile returns the content of path. A missing file is reported with
// fs.ErrNotExist in the chain.
func (m *Manager) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Error("Failed to read file",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return nil, err
	}
	return data, nil
}
