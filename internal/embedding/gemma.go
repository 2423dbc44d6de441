package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/daulet/tokenizers"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/findit-app/findit/internal/models"
)

// GemmaProvider wraps an ONNX EmbeddingGemma text encoder, the first
// provider tried for text embeddings (spec.md §2: "EmbeddingGemma text
// encoder (ONNX, 768-d)"), ahead of Gemini. CLIP's text tower is a
// separate selector, used only to query the image index.
type GemmaProvider struct {
	modelPath     string
	tokenizerPath string

	session   *ort.DynamicAdvancedSession
	tokenizer *tokenizers.Tokenizer
}

// NewGemmaProvider constructs a GemmaProvider; the ONNX session is opened
// lazily on first IsAvailable() check.
func NewGemmaProvider(modelPath, tokenizerPath string) *GemmaProvider {
	return &GemmaProvider{modelPath: modelPath, tokenizerPath: tokenizerPath}
}

func (g *GemmaProvider) Name() string { return "gemma" }

func (g *GemmaProvider) IsAvailable() bool {
	if g.session != nil {
		return true
	}
	if _, err := os.Stat(g.modelPath); err != nil {
		return false
	}
	if _, err := os.Stat(g.tokenizerPath); err != nil {
		return false
	}
	if err := g.open(); err != nil {
		return false
	}
	return true
}

func (g *GemmaProvider) open() error {
	session, err := ort.NewDynamicAdvancedSession(g.modelPath, []string{"input_ids", "attention_mask"}, []string{"sentence_embedding"}, nil)
	if err != nil {
		return fmt.Errorf("embedding: open gemma session: %w", err)
	}
	tok, err := tokenizers.FromFile(g.tokenizerPath)
	if err != nil {
		session.Destroy()
		return fmt.Errorf("embedding: load gemma tokenizer: %w", err)
	}
	g.session = session
	g.tokenizer = tok
	return nil
}

// EmbedText runs EmbeddingGemma over text and L2-normalizes the result.
func (g *GemmaProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if !g.IsAvailable() {
		return nil, fmt.Errorf("embedding: gemma encoder unavailable")
	}
	enc := g.tokenizer.Encode(text)

	inputIDs := make([]int64, len(enc.IDs))
	attention := make([]int64, len(enc.IDs))
	for i, id := range enc.IDs {
		inputIDs[i] = int64(id)
		attention[i] = 1
	}

	idTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(inputIDs))), inputIDs)
	if err != nil {
		return nil, err
	}
	defer idTensor.Destroy()
	maskTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(attention))), attention)
	if err != nil {
		return nil, err
	}
	defer maskTensor.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, models.EmbeddingDimensions))
	if err != nil {
		return nil, err
	}
	defer output.Destroy()

	if err := g.session.Run([]ort.Value{idTensor, maskTensor}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("embedding: gemma inference: %w", err)
	}

	vec := append([]float32(nil), output.GetData()...)
	Normalize(vec)
	return vec, nil
}

// Close releases the ONNX session and tokenizer, if opened.
func (g *GemmaProvider) Close() {
	if g.session != nil {
		g.session.Destroy()
	}
	if g.tokenizer != nil {
		g.tokenizer.Close()
	}
}
