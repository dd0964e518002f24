package llm

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Generator turns a prompt into model text
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close() error
}

// GenerationConfig holds the model name and sampling settings shared by
// every Generator implementation
type GenerationConfig struct {
	Model            string
	Temperature      float32
	TopP             float32
	MaxOutputTokens  int32
	ResponseMIMEType string
}

// DefaultGenerationConfig keeps answers close to the data and asks for JSON
func DefaultGenerationConfig(model string) GenerationConfig {
	return GenerationConfig{
		Model:            model,
		Temperature:      0.2,
		TopP:             0.95,
		MaxOutputTokens:  2048,
		ResponseMIMEType: "application/json",
	}
}

var retryInPattern = regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)\s*s`)

// IsRateLimitError reports whether err is a quota or rate limit rejection
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "resourceexhausted", "resource_exhausted", "quota", "rate limit"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// RetryAfter extracts the wait hinted by "retry in Ns" in a rate limit error
func RetryAfter(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	m := retryInPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0, false
	}
	secs, parseErr := strconv.ParseFloat(m[1], 64)
	if parseErr != nil {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}
