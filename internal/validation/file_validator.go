package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "tickviewer/internal/errors"
)

// parquetMagic opens and closes every parquet file.
var parquetMagic = []byte("PAR1")

// ErrInputRootMissing is the cause attached when the input root does not exist.
var ErrInputRootMissing = errors.New("input directory does not exist")

// FileValidator provides common file validation functions for all executables
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory validates that input directory exists and is a directory
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return apperrors.NewStorageError(fmt.Sprintf("input directory %s does not exist", dir), ErrInputRootMissing)
	}
	if err != nil {
		v.logger.Error("Failed to stat input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat directory %s", dir), err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is not a directory", dir))
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateParquetFile checks that path is a non-empty regular file with a
// .parquet extension and the parquet magic at both ends.
func (v *FileValidator) ValidateParquetFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".parquet" {
		return apperrors.NewAppValidationError(fmt.Sprintf("file %s is not a parquet file (extension: %s)", path, ext))
	}

	info, err := os.Stat(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if info.Size() < int64(2*len(parquetMagic)) {
		return apperrors.NewAppValidationError(fmt.Sprintf("file %s is too small to be parquet (%d bytes)", path, info.Size()))
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	defer file.Close()

	head := make([]byte, len(parquetMagic))
	if _, err := io.ReadFull(file, head); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to read header of %s", path), err)
	}
	tail := make([]byte, len(parquetMagic))
	if _, err := file.ReadAt(tail, info.Size()-int64(len(tail))); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to read footer of %s", path), err)
	}
	if !bytes.Equal(head, parquetMagic) || !bytes.Equal(tail, parquetMagic) {
		v.logger.Warn("File lacks parquet magic",
			slog.String("file", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("file %s is not a parquet file (bad magic)", path))
	}

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}
