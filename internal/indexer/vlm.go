package indexer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/findit-app/findit/internal/ferrors"
)

// DescriptionResult is the structured output a VLM call parses into, per
// spec.md §4.1 layer 3: "{description, scene, subjects, actions, objects,
// mood, shot_type, lighting, colors, tags}". Fields are tolerant of partial
// responses — missing fields are left at their zero value rather than
// failing the whole clip.
type DescriptionResult struct {
	Description string   `json:"description"`
	Scene       string   `json:"scene"`
	Subjects    []string `json:"subjects"`
	Actions     []string `json:"actions"`
	Objects     []string `json:"objects"`
	Mood        string   `json:"mood"`
	ShotType    string   `json:"shot_type"`
	Lighting    string   `json:"lighting"`
	Colors      []string `json:"colors"`
	Tags        []string `json:"tags"`
}

// VLMGateway calls a VLM through an OpenRouter-like HTTP chat-completion
// gateway, the "VLM via an OpenRouter-like gateway" spec.md §4.1 layer 3
// names, following the same *http.Client{Timeout:...} idiom as the
// teacher's TMDBScraper.
type VLMGateway struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewVLMGateway constructs a gateway client; with an empty apiKey every
// Describe call returns a Validation error without making a request, so it
// is neither retried as transient nor recorded as a per-file failure: the
// indexer skips the layer.
func NewVLMGateway(apiKey, baseURL, model string) *VLMGateway {
	if model == "" {
		model = "openai/gpt-4o-mini"
	}
	return &VLMGateway{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *chatImageURL   `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Describe assembles a per-clip prompt (keyframe + transcript + prior tags)
// and calls the gateway, parsing the structured JSON response per spec.md
// §4.1 layer 3. Any status other than 200 OK is surfaced as a *ferrors.StatusError
// so the caller's retry logic (internal/network.RetryWithBackoff) can tell
// transient 429/5xx failures apart from permanent ones.
func (g *VLMGateway) Describe(ctx context.Context, keyframeJPEG []byte, transcript string, priorTags []string) (*DescriptionResult, error) {
	if g.apiKey == "" {
		return nil, ferrors.Validation("VLM gateway API key not configured")
	}

	prompt := buildPrompt(transcript, priorTags)
	content := []chatContent{{Type: "text", Text: prompt}}
	if len(keyframeJPEG) > 0 {
		dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(keyframeJPEG)
		content = append(content, chatContent{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL}})
	}

	reqBody := chatRequest{
		Model:    g.model,
		Messages: []chatMessage{{Role: "user", Content: content}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("indexer: marshal vlm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("indexer: build vlm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.KindTransient, "vlm request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ferrors.StatusError{Code: resp.StatusCode, Message: fmt.Sprintf("vlm gateway returned status %d", resp.StatusCode)}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("indexer: decode vlm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, ferrors.New(ferrors.KindFatalPerFile, "vlm gateway returned no choices")
	}

	var result DescriptionResult
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &result); err != nil {
		return nil, ferrors.Wrap(ferrors.KindFatalPerFile, "vlm response was not valid JSON", err)
	}
	return &result, nil
}

func buildPrompt(transcript string, priorTags []string) string {
	prompt := "Describe this video clip. Respond with a single JSON object with keys: " +
		"description, scene, subjects, actions, objects, mood, shot_type, lighting, colors, tags."
	if transcript != "" {
		prompt += "\n\nTranscript: " + transcript
	}
	if len(priorTags) > 0 {
		prompt += "\n\nKnown tags so far:"
		for _, t := range priorTags {
			prompt += " " + t
		}
	}
	return prompt
}
