// Package app wires configuration into the dashboard, its data sources
// and the chat assistant. Both the HTTP server and the desktop GUI start here.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fmuoria/candidate-dashboard/internal/chat"
	"github.com/fmuoria/candidate-dashboard/internal/config"
	"github.com/fmuoria/candidate-dashboard/internal/dashboard"
	"github.com/fmuoria/candidate-dashboard/internal/facets"
	"github.com/fmuoria/candidate-dashboard/internal/ingestion"
	"github.com/fmuoria/candidate-dashboard/internal/llm"
	"github.com/fmuoria/candidate-dashboard/internal/normalize"
)

// Source names accepted by POST /dataset and the GUI source picker
const (
	SourceFile    = "file"
	SourceUploads = "uploads"
	SourceGmail   = "gmail"
	SourceS3      = "s3"
)

// Services is everything a front end needs
type Services struct {
	Config    *config.Config
	Dashboard *dashboard.Dashboard
	Assistant *chat.Assistant
	Uploads   *ingestion.FileHandler
	Sources   map[string]ingestion.Source

	generator llm.Generator
}

// New builds the services described by cfg. It fails only when the
// synonym or field map files are broken; a missing model or data source
// is logged and left unconfigured.
func New(ctx context.Context, cfg *config.Config) (*Services, error) {
	synonyms, err := config.LoadSynonyms(cfg.SynonymsPath)
	if err != nil {
		return nil, err
	}
	fields, err := config.LoadFieldMap(cfg.FieldMapPath)
	if err != nil {
		return nil, err
	}

	schema := facets.NewSchema(fields, normalize.New(synonyms))
	d := dashboard.New(schema, cfg.PageSize)
	uploads := ingestion.NewFileHandler(cfg.UploadsDir)

	s := &Services{
		Config:    cfg,
		Dashboard: d,
		Uploads:   uploads,
		Sources:   Sources(ctx, cfg, uploads),
	}

	s.Assistant = chat.NewAssistant(nil, d.Dataset, time.Duration(cfg.ChatIntervalSeconds)*time.Second)
	s.ConnectModel(ctx)

	return s, nil
}

// Sources returns the data sources cfg enables
func Sources(ctx context.Context, cfg *config.Config, uploads *ingestion.FileHandler) map[string]ingestion.Source {
	sources := map[string]ingestion.Source{
		SourceUploads: ingestion.UploadsSource{Handler: uploads},
	}

	if cfg.DatasetPath != "" {
		sources[SourceFile] = ingestion.FileSource{Path: cfg.DatasetPath}
	}

	if cfg.GmailCredentialsPath != "" && cfg.GmailSubject != "" {
		sources[SourceGmail] = &ingestion.GmailSource{
			CredentialsPath: cfg.GmailCredentialsPath,
			UploadsDir:      cfg.UploadsDir,
			Subject:         cfg.GmailSubject,
		}
	}

	if cfg.S3Bucket != "" {
		s3src, err := ingestion.NewS3Source(ctx, ingestion.S3Config{
			Bucket:    cfg.S3Bucket,
			Key:       cfg.S3Key,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccountID: cfg.S3AccountID,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Printf("Object storage source disabled: %v", err)
		} else {
			sources[SourceS3] = s3src
		}
	}

	return sources
}

// NewGenerator creates the model client for the configured provider
func NewGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	gen := llm.DefaultGenerationConfig(cfg.GeminiModel)

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.APIKeys(), gen)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderVertex:
		cfg.ApplyToEnv()
		client, err := llm.NewVertexAIClient(ctx, cfg.GoogleCloudProject, cfg.GoogleCloudLocation, gen)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// ConnectModel (re)creates the model client from the current config. On
// failure the assistant stays unconfigured.
func (s *Services) ConnectModel(ctx context.Context) error {
	generator, err := NewGenerator(ctx, s.Config)
	if err != nil {
		log.Printf("Chat assistant disabled: %v", err)
		s.Assistant.SetGenerator(nil)
		return err
	}

	if s.generator != nil {
		s.generator.Close()
	}
	s.generator = generator
	s.Assistant.SetGenerator(generator)
	return nil
}

// Reload rebuilds the data sources after a config change
func (s *Services) Reload(ctx context.Context) {
	s.Sources = Sources(ctx, s.Config, s.Uploads)
}

// LoadInitial loads the first available dataset: the configured file, then
// the newest upload
func (s *Services) LoadInitial(ctx context.Context) error {
	var lastErr error
	for _, name := range []string{SourceFile, SourceUploads} {
		src, ok := s.Sources[name]
		if !ok {
			continue
		}
		if err := s.Dashboard.Load(ctx, src); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = dashboard.ErrNoData
	}
	return lastErr
}

// Close releases the model client
func (s *Services) Close() error {
	if s.generator != nil {
		return s.generator.Close()
	}
	return nil
}
