package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// GeminiProvider embeds text via Google's cloud text-embedding API, the
// last provider in the text-embedding selector, tried after the local ONNX
// Gemma provider (spec.md §2). Its availability depends only on the API
// key; the subscription summary is not consulted.
type GeminiProvider struct {
	apiKey string
	model  string
	client *http.Client
}

// NewGeminiProvider constructs a GeminiProvider. An empty apiKey makes
// IsAvailable() always report false rather than erroring at call time.
func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		apiKey: apiKey,
		model:  "text-embedding-004",
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) IsAvailable() bool {
	return p.apiKey != ""
}

type geminiEmbedRequest struct {
	Model   string           `json:"model"`
	Content geminiEmbedPart  `json:"content"`
}

type geminiEmbedPart struct {
	Parts []geminiEmbedText `json:"parts"`
}

type geminiEmbedText struct {
	Text string `json:"text"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// EmbedText calls the Gemini embedContent endpoint and L2-normalizes the
// returned vector.
func (p *GeminiProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("embedding: gemini API key not configured")
	}

	reqBody := geminiEmbedRequest{
		Model:   "models/" + p.model,
		Content: geminiEmbedPart{Parts: []geminiEmbedText{{Text: text}}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal gemini request: %w", err)
	}

	reqURL := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent?key=%s", p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding: gemini returned status %d", resp.StatusCode)
	}

	var parsed geminiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("embedding: decode gemini response: %w", err)
	}

	vec := parsed.Embedding.Values
	Normalize(vec)
	return vec, nil
}
