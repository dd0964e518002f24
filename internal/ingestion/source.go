package ingestion

import (
	"context"
	"fmt"
	"sync"

	"github.com/fmuoria/candidate-dashboard/internal/models"
)

// Source loads a complete candidate dataset
type Source interface {
	Load(ctx context.Context) (*models.Dataset, error)
}

// FileSource reads a spreadsheet from a fixed path
type FileSource struct {
	Path string
}

// Load reads the spreadsheet
func (s FileSource) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadSpreadsheetFile(s.Path)
}

// UploadsSource reads the newest spreadsheet from the uploads directory
type UploadsSource struct {
	Handler *FileHandler
}

// Load reads the most recently uploaded spreadsheet
func (s UploadsSource) Load(ctx context.Context) (*models.Dataset, error) {
	path, err := s.Handler.LatestSpreadsheet()
	if err != nil {
		return nil, fmt.Errorf("failed to find upload in %s: %w", s.Handler.Dir(), err)
	}
	return FileSource{Path: path}.Load(ctx)
}

// GmailSource fetches the newest spreadsheet mailed with a given subject.
// Without a Handler one is created from CredentialsPath on first use.
type GmailSource struct {
	Handler         *GmailHandler
	CredentialsPath string
	UploadsDir      string
	Subject         string

	mu sync.Mutex
}

// Load downloads the attachment and reads it
func (s *GmailSource) Load(ctx context.Context) (*models.Dataset, error) {
	s.mu.Lock()
	if s.Handler == nil {
		handler, err := NewGmailHandler(s.CredentialsPath, s.UploadsDir)
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to initialize Gmail handler: %w", err)
		}
		s.Handler = handler
	}
	handler := s.Handler
	s.mu.Unlock()

	path, err := handler.FetchSpreadsheetWithContext(ctx, s.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Gmail attachment: %w", err)
	}

	dataset, err := FileSource{Path: path}.Load(ctx)
	if err != nil {
		return nil, err
	}
	dataset.Source = "gmail:" + dataset.Source
	return dataset, nil
}
