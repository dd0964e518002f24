package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LLM providers
const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
)

// Config holds application configuration
type Config struct {
	Port        string `json:"port"`
	DatasetPath string `json:"dataset_path"`
	UploadsDir  string `json:"uploads_dir"`
	PageSize    int    `json:"page_size"`

	SynonymsPath string `json:"synonyms_path"`
	FieldMapPath string `json:"field_map_path"`

	LLMProvider           string `json:"llm_provider"`
	GeminiAPIKeys         string `json:"gemini_api_keys"` // comma separated
	GeminiModel           string `json:"gemini_model"`
	GoogleCloudProject    string `json:"google_cloud_project"`
	GoogleCloudLocation   string `json:"google_cloud_location"`
	GoogleCredentialsPath string `json:"google_credentials_path"`
	ChatIntervalSeconds   int    `json:"chat_interval_seconds"`

	GmailCredentialsPath string `json:"gmail_credentials_path"`
	GmailSubject         string `json:"gmail_subject"`

	S3Bucket    string `json:"s3_bucket"`
	S3Key       string `json:"s3_key"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3AccountID string `json:"s3_account_id"` // Cloudflare R2 account, used when no endpoint is set
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Port:                "8080",
		DatasetPath:         "candidate_data.xlsx",
		UploadsDir:          "uploads",
		PageSize:            10,
		LLMProvider:         ProviderGemini,
		GeminiModel:         "gemini-2.5-flash",
		GoogleCloudLocation: "us-central1",
		ChatIntervalSeconds: 2,
		S3Region:            "auto",
	}
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/CandidateDashboard/config.json
// On Unix: ~/.config/CandidateDashboard/config.json
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		configDir = filepath.Join(os.Getenv("APPDATA"), "CandidateDashboard")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "CandidateDashboard")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load loads configuration from the default config path
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(configPath)
}

// LoadFrom loads configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to the default config path
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// OverrideFromEnv replaces values with the matching environment variables
func (c *Config) OverrideFromEnv() {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&c.Port, "PORT")
	setString(&c.DatasetPath, "DATASET_PATH")
	setString(&c.UploadsDir, "UPLOADS_DIR")
	setString(&c.SynonymsPath, "SYNONYMS_PATH")
	setString(&c.FieldMapPath, "FIELD_MAP_PATH")
	setString(&c.LLMProvider, "LLM_PROVIDER")
	setString(&c.GeminiAPIKeys, "GEMINI_API_KEY")
	setString(&c.GeminiAPIKeys, "GEMINI_API_KEYS")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.GoogleCloudProject, "GOOGLE_CLOUD_PROJECT")
	setString(&c.GoogleCloudLocation, "GOOGLE_CLOUD_LOCATION")
	setString(&c.GmailCredentialsPath, "GMAIL_CREDENTIALS_PATH")
	setString(&c.GmailSubject, "GMAIL_SUBJECT")
	setString(&c.S3Bucket, "S3_BUCKET")
	setString(&c.S3Key, "S3_KEY")
	setString(&c.S3Region, "S3_REGION")
	setString(&c.S3Endpoint, "S3_ENDPOINT")
	setString(&c.S3AccountID, "R2_ACCOUNT_ID")
	setString(&c.S3AccessKey, "S3_ACCESS_KEY")
	setString(&c.S3SecretKey, "S3_SECRET_KEY")

	if v := os.Getenv("PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PageSize = n
		}
	}
}

// APIKeys splits the configured Gemini keys
func (c *Config) APIKeys() []string {
	var keys []string
	for _, k := range strings.Split(c.GeminiAPIKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}

	switch c.LLMProvider {
	case ProviderGemini:
		if len(c.APIKeys()) == 0 {
			return fmt.Errorf("gemini_api_keys is required for the gemini provider")
		}
	case ProviderVertex:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("google_cloud_project is required for the vertex provider")
		}
		if c.GoogleCloudLocation == "" {
			return fmt.Errorf("google_cloud_location is required")
		}
	default:
		return fmt.Errorf("llm_provider must be %q or %q", ProviderGemini, ProviderVertex)
	}

	if c.GoogleCredentialsPath != "" {
		if _, err := os.Stat(c.GoogleCredentialsPath); err != nil {
			return fmt.Errorf("google credentials file not found: %w", err)
		}
	}

	if c.GmailCredentialsPath != "" {
		if _, err := os.Stat(c.GmailCredentialsPath); err != nil {
			return fmt.Errorf("gmail credentials file not found: %w", err)
		}
	}

	if c.S3Bucket != "" && c.S3Key == "" {
		return fmt.Errorf("s3_key is required when s3_bucket is set")
	}

	return nil
}

// ApplyToEnv applies configuration values to environment variables
func (c *Config) ApplyToEnv() {
	if c.GoogleCloudProject != "" {
		os.Setenv("GOOGLE_CLOUD_PROJECT", c.GoogleCloudProject)
	}
	if c.GoogleCloudLocation != "" {
		os.Setenv("GOOGLE_CLOUD_LOCATION", c.GoogleCloudLocation)
	}
	if c.GoogleCredentialsPath != "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", c.GoogleCredentialsPath)
	}
}
