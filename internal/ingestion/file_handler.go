package ingestion

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrNoSpreadsheet is returned when the uploads directory holds no readable spreadsheet
var ErrNoSpreadsheet = errors.New("no spreadsheet found")

// FileHandler manages the uploads directory that spreadsheets are loaded from
type FileHandler struct {
	uploadsDir string
}

// NewFileHandler creates a new file handler
func NewFileHandler(uploadsDir string) *FileHandler {
	return &FileHandler{
		uploadsDir: uploadsDir,
	}
}

// Dir returns the uploads directory
func (fh *FileHandler) Dir() string {
	return fh.uploadsDir
}

// SaveUploadedFile saves an uploaded spreadsheet to the uploads directory
func (fh *FileHandler) SaveUploadedFile(filename string, content io.Reader) (string, error) {
	filename = filepath.Base(filename)
	if !IsSpreadsheetName(filename) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	// Ensure uploads directory exists
	if err := os.MkdirAll(fh.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	filePath := filepath.Join(fh.uploadsDir, filename)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

// LatestSpreadsheet returns the most recently modified spreadsheet in the uploads directory
func (fh *FileHandler) LatestSpreadsheet() (string, error) {
	files, err := os.ReadDir(fh.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoSpreadsheet
		}
		return "", fmt.Errorf("failed to read uploads directory: %w", err)
	}

	var latest string
	var latestMod time.Time
	for _, file := range files {
		if file.IsDir() || !IsSpreadsheetName(file.Name()) {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = file.Name()
			latestMod = info.ModTime()
		}
	}

	if latest == "" {
		return "", ErrNoSpreadsheet
	}
	return filepath.Join(fh.uploadsDir, latest), nil
}

// ClearUploads removes all files from the uploads directory
func (fh *FileHandler) ClearUploads() error {
	if err := os.RemoveAll(fh.uploadsDir); err != nil {
		return fmt.Errorf("failed to clear uploads directory: %w", err)
	}
	return os.MkdirAll(fh.uploadsDir, 0755)
}
