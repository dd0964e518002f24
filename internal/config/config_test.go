package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/fmuoria/candidate-dashboard/internal/facets"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("LoadFrom() = %+v, want defaults", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.GeminiAPIKeys = "k1, k2"
	cfg.PageSize = 25
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("round trip = %+v, want %+v", loaded, cfg)
	}
}

func TestLoadFromPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"dataset_path": "final_excel.xlsx"}`), 0600)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.DatasetPath != "final_excel.xlsx" {
		t.Errorf("DatasetPath = %q", cfg.DatasetPath)
	}
	if cfg.PageSize != 10 || cfg.Port != "8080" {
		t.Errorf("defaults lost: page_size=%d port=%q", cfg.PageSize, cfg.Port)
	}
}

func TestLoadFromInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{not json`), 0600)

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should fail on invalid JSON")
	}
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEYS", "a,b , ,c")
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("DATASET_PATH", "")

	cfg := DefaultConfig()
	cfg.OverrideFromEnv()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.PageSize)
	}
	if cfg.DatasetPath != "candidate_data.xlsx" {
		t.Errorf("empty env var should not override, got %q", cfg.DatasetPath)
	}
	if got := cfg.APIKeys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("APIKeys() = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "Gemini with key", mutate: func(c *Config) { c.GeminiAPIKeys = "key" }},
		{name: "Gemini without key", mutate: func(c *Config) {}, wantErr: true},
		{name: "Vertex with project", mutate: func(c *Config) {
			c.LLMProvider = ProviderVertex
			c.GoogleCloudProject = "proj"
		}},
		{name: "Vertex without project", mutate: func(c *Config) { c.LLMProvider = ProviderVertex }, wantErr: true},
		{name: "Unknown provider", mutate: func(c *Config) { c.LLMProvider = "other" }, wantErr: true},
		{name: "Bad page size", mutate: func(c *Config) {
			c.GeminiAPIKeys = "key"
			c.PageSize = 0
		}, wantErr: true},
		{name: "Bucket without key", mutate: func(c *Config) {
			c.GeminiAPIKeys = "key"
			c.S3Bucket = "candidates"
		}, wantErr: true},
		{name: "Missing credentials file", mutate: func(c *Config) {
			c.GeminiAPIKeys = "key"
			c.GmailCredentialsPath = "/nonexistent/credentials.json"
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadSynonyms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	os.WriteFile(path, []byte("locations:\n  Trivandrum: Thiruvananthapuram\nskills:\n  spring boot: Spring Boot\n"), 0600)

	syn, err := LoadSynonyms(path)
	if err != nil {
		t.Fatalf("LoadSynonyms() error: %v", err)
	}
	if syn.Locations["trivandrum"] != "thiruvananthapuram" {
		t.Errorf("location synonym not merged: %v", syn.Locations)
	}
	if syn.Skills["spring boot"] != "Spring Boot" {
		t.Errorf("skill synonym not merged: %v", syn.Skills)
	}
	if syn.Locations["bengaluru"] != "bangalore" {
		t.Error("defaults should be kept")
	}

	if _, err := LoadSynonyms("/nonexistent/synonyms.yaml"); err == nil {
		t.Error("LoadSynonyms() should fail on a missing file")
	}
}

func TestLoadFieldMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fields.yaml")
	os.WriteFile(path, []byte("location: [City]\nclients: [Account, client]\n"), 0600)

	fields, err := LoadFieldMap(path)
	if err != nil {
		t.Fatalf("LoadFieldMap() error: %v", err)
	}
	if !reflect.DeepEqual(fields[facets.Location], []string{"City"}) {
		t.Errorf("location columns = %v", fields[facets.Location])
	}
	if !reflect.DeepEqual(fields[facets.Client], []string{"Account", "client"}) {
		t.Errorf("client columns = %v", fields[facets.Client])
	}
	if !reflect.DeepEqual(fields[facets.Skill], facets.DefaultFieldMap()[facets.Skill]) {
		t.Error("untouched facets should keep their default columns")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("salary: [CTC]\n"), 0600)
	if _, err := LoadFieldMap(bad); err == nil {
		t.Error("LoadFieldMap() should reject unknown facets")
	}
}
