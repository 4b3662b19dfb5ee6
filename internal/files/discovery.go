package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tickviewer/internal/config"
	"tickviewer/internal/validation"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Stem    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	logger *slog.Logger
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{logger: logger.With(slog.String("component", "discovery"))}
}

// DateDirs returns the 8-digit subdirectory names of root in ascending
// order. A missing root is returned as an error satisfying
// errors.Is(err, fs.ErrNotExist).
func (d *Discovery) DateDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
	}

	var dates []string
	for _, entry := range entries {
		if entry.IsDir() && validation.IsDate(entry.Name()) {
			dates = append(dates, entry.Name())
		}
	}
	sort.Strings(dates)

	d.logger.Debug("Date directories discovered",
		slog.String("root", root),
		slog.Int("count", len(dates)))
	return dates, nil
}

// ParquetFiles returns the regular *.parquet files in dir sorted by name.
// The extension match is case-sensitive, as on the capture side.
func (d *Discovery) ParquetFiles(dir string) ([]FileInfo, error) {
	return d.filesWithExtension(dir, config.InputExtension)
}

// Documents returns the stored *.json documents in dir sorted by name.
func (d *Discovery) Documents(dir string) ([]FileInfo, error) {
	return d.filesWithExtension(dir, config.DocumentExtension)
}

func (d *Discovery) filesWithExtension(dir, ext string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ext {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		if stem == "" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Stem:    stem,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Stems returns the stems of files in order.
func Stems(files []FileInfo) []string {
	stems := make([]string, len(files))
	for i, f := range files {
		stems[i] = f.Stem
	}
	return stems
}

// SortDescending orders date names newest first.
func SortDescending(dates []string) {
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
}
