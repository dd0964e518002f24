package llm

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// DefaultVertexLocation is used when no location is configured
const DefaultVertexLocation = "us-central1"

// VertexAIClient answers prompts with a Gemini model hosted on Vertex AI,
// authenticated with Google Cloud application default credentials
type VertexAIClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewVertexAIClient connects to project/location and configures the model
// with gen
func NewVertexAIClient(ctx context.Context, project, location string, gen GenerationConfig) (*VertexAIClient, error) {
	if project == "" {
		return nil, fmt.Errorf("google cloud project is required for Vertex AI")
	}
	if location == "" {
		location = DefaultVertexLocation
	}

	client, err := genai.NewClient(ctx, project, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	model := client.GenerativeModel(gen.Model)
	configureVertexModel(model, gen)

	return &VertexAIClient{client: client, model: model}, nil
}

func configureVertexModel(model *genai.GenerativeModel, gen GenerationConfig) {
	model.SetTemperature(gen.Temperature)
	model.SetTopP(gen.TopP)
	if gen.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(gen.MaxOutputTokens)
	}
	model.ResponseMIMEType = gen.ResponseMIMEType
}

// GenerateContent sends a prompt to the model and returns the response text
func (v *VertexAIClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vertex ai: %w", err)
	}
	return vertexText(resp)
}

// vertexText joins the text parts of the first candidate
func vertexText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("vertex ai: no response candidates returned")
	}

	candidate := resp.Candidates[0]
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("vertex ai: empty response (finish reason %v)", candidate.FinishReason)
	}
	return b.String(), nil
}

// Close closes the Vertex AI client
func (v *VertexAIClient) Close() error {
	return v.client.Close()
}
