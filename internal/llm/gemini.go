package llm

import (
	"context"
	"fmt"
	"log"
	"sync"

	"google.golang.org/genai"
)

type generateFunc func(ctx context.Context, key int, prompt string) (string, error)

// GeminiClient calls the Gemini API with a pool of API keys. A key that hits
// its quota is rotated out for the next one.
type GeminiClient struct {
	mu       sync.Mutex
	current  int
	keys     int
	generate generateFunc
}

// NewGeminiClient creates one API client per key
func NewGeminiClient(ctx context.Context, apiKeys []string, gen GenerationConfig) (*GeminiClient, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("no Gemini API keys configured")
	}

	clients := make([]*genai.Client, 0, len(apiKeys))
	for i, key := range apiKeys {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client for key %d: %w", i, err)
		}
		clients = append(clients, client)
	}

	genConfig := geminiConfig(gen)

	generate := func(ctx context.Context, key int, prompt string) (string, error) {
		resp, err := clients[key].Models.GenerateContent(ctx, gen.Model, genai.Text(prompt), genConfig)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}

	log.Printf("Gemini client ready with %d key(s), model %s", len(clients), gen.Model)
	return newGeminiClient(len(clients), generate), nil
}

func geminiConfig(gen GenerationConfig) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(gen.Temperature),
		TopP:             genai.Ptr(gen.TopP),
		MaxOutputTokens:  gen.MaxOutputTokens,
		ResponseMIMEType: gen.ResponseMIMEType,
	}
}

func newGeminiClient(keys int, generate generateFunc) *GeminiClient {
	return &GeminiClient{keys: keys, generate: generate}
}

// GenerateContent tries the current key and moves through the pool on quota
// errors until every key has been tried once
func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < g.keys; attempt++ {
		key := g.currentKey()

		text, err := g.generate(ctx, key, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsRateLimitError(err) || ctx.Err() != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		if attempt < g.keys-1 {
			next := g.rotate(key)
			log.Printf("Gemini key %d rate limited, rotating to key %d", key, next)
		}
	}

	return "", fmt.Errorf("all %d Gemini API keys are rate limited: %w", g.keys, lastErr)
}

// CurrentKey returns the index of the key used for the next call
func (g *GeminiClient) CurrentKey() int {
	return g.currentKey()
}

func (g *GeminiClient) currentKey() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// rotate advances past from, unless another caller already did
func (g *GeminiClient) rotate(from int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == from {
		g.current = (g.current + 1) % g.keys
	}
	return g.current
}

// Close is a no-op; the genai clients hold no resources
func (g *GeminiClient) Close() error {
	return nil
}
