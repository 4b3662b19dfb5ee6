package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths holds the absolute directories the converter and server work in.
// Relative entries in Config are resolved against the working directory.
type Paths struct {
	InputDir  string
	OutputDir string
	StaticDir string
	LogsDir   string
}

// ResolvePaths returns the configured directories as absolute paths.
func (c *Config) ResolvePaths() (*Paths, error) {
	abs := func(p string) (string, error) {
		if p == "" {
			return "", nil
		}
		resolved, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path %s: %w", p, err)
		}
		return resolved, nil
	}

	paths := &Paths{}
	var err error
	if paths.InputDir, err = abs(c.Converter.InputDir); err != nil {
		return nil, err
	}
	if paths.OutputDir, err = abs(c.Converter.OutputDir); err != nil {
		return nil, err
	}
	if paths.StaticDir, err = abs(c.Server.StaticDir); err != nil {
		return nil, err
	}
	if c.Logging.FilePath != "" {
		logFile, err := abs(c.Logging.FilePath)
		if err != nil {
			return nil, err
		}
		paths.LogsDir = filepath.Dir(logFile)
	}
	return paths, nil
}

// EnsureDirectories creates the directories the process writes into.
// The input directory is never created; a missing input root is reported
// by the converter.
func (p *Paths) EnsureDirectories() error {
	logger := slog.Default()

	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// LogPathResolution logs the resolved directories at debug level.
func (p *Paths) LogPathResolution() {
	slog.Default().Debug("Path resolution",
		slog.String("input_dir", p.InputDir),
		slog.String("output_dir", p.OutputDir),
		slog.String("static_dir", p.StaticDir),
		slog.String("logs_dir", p.LogsDir))
}

// DateDir returns root/date.
func DateDir(root, date string) string {
	return filepath.Join(root, date)
}

// InputFilePath returns root/date/stock.parquet.
func InputFilePath(root, date, stock string) string {
	return filepath.Join(root, date, stock+InputExtension)
}

// DocumentPath returns root/date/stock.json.
func DocumentPath(root, date, stock string) string {
	return filepath.Join(root, date, stock+DocumentExtension)
}

// SummaryPath returns root/date/summary.<ext>.
func SummaryPath(root, date, ext string) string {
	return filepath.Join(root, date, SummaryBaseName+"."+strings.TrimPrefix(ext, "."))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
