package embedding

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"

	"github.com/daulet/tokenizers"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/findit-app/findit/internal/models"
)

const clipInputSize = 224

// clipMean and clipStd are CLIP's standard per-channel (R, G, B)
// normalization constants.
var clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
var clipStd = [3]float32{0.26862954, 0.26130258, 0.27577711}

// ClipProvider wraps an ONNX CLIP image+text encoder pair, the first
// provider tried for both modalities per spec.md §2's "CLIP image+text
// encoder (ONNX, 768-d)".
type ClipProvider struct {
	imageModelPath string
	textModelPath  string
	tokenizerPath  string

	imageSession *ort.DynamicAdvancedSession
	textSession  *ort.DynamicAdvancedSession
	tokenizer    *tokenizers.Tokenizer
}

// NewClipProvider opens the ONNX sessions lazily on first IsAvailable()
// check; a missing model file degrades to unavailable rather than erroring
// at construction, per spec.md §4.1 ("CLIP model missing: skip layer 1...
// do not mark failed").
func NewClipProvider(imageModelPath, textModelPath, tokenizerPath string) *ClipProvider {
	return &ClipProvider{imageModelPath: imageModelPath, textModelPath: textModelPath, tokenizerPath: tokenizerPath}
}

func (c *ClipProvider) Name() string { return "clip" }

func (c *ClipProvider) IsAvailable() bool {
	if c.imageSession != nil {
		return true
	}
	if _, err := os.Stat(c.imageModelPath); err != nil {
		return false
	}
	if _, err := os.Stat(c.textModelPath); err != nil {
		return false
	}
	if err := c.open(); err != nil {
		return false
	}
	return true
}

func (c *ClipProvider) open() error {
	imgSession, err := ort.NewDynamicAdvancedSession(c.imageModelPath, []string{"pixel_values"}, []string{"image_embeds"}, nil)
	if err != nil {
		return fmt.Errorf("embedding: open clip image session: %w", err)
	}
	txtSession, err := ort.NewDynamicAdvancedSession(c.textModelPath, []string{"input_ids", "attention_mask"}, []string{"text_embeds"}, nil)
	if err != nil {
		imgSession.Destroy()
		return fmt.Errorf("embedding: open clip text session: %w", err)
	}
	tok, err := tokenizers.FromFile(c.tokenizerPath)
	if err != nil {
		imgSession.Destroy()
		txtSession.Destroy()
		return fmt.Errorf("embedding: load clip tokenizer: %w", err)
	}

	c.imageSession = imgSession
	c.textSession = txtSession
	c.tokenizer = tok
	return nil
}

// EmbedImage decodes jpegBytes, resizes to CLIP's 224x224 input size,
// normalizes with CLIP's standard per-channel mean/std, runs the encoder,
// and L2-normalizes the resulting embedding.
func (c *ClipProvider) EmbedImage(ctx context.Context, jpegBytes []byte) ([]float32, error) {
	if !c.IsAvailable() {
		return nil, fmt.Errorf("embedding: clip image encoder unavailable")
	}
	img, _, err := image.Decode(bytes.NewReader(jpegBytes))
	if err != nil {
		return nil, fmt.Errorf("embedding: decode keyframe: %w", err)
	}
	pixelValues := preprocessCLIPInput(img)

	input, err := ort.NewTensor(ort.NewShape(1, 3, clipInputSize, clipInputSize), pixelValues)
	if err != nil {
		return nil, err
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, models.EmbeddingDimensions))
	if err != nil {
		return nil, err
	}
	defer output.Destroy()

	if err := c.imageSession.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("embedding: clip image inference: %w", err)
	}

	vec := append([]float32(nil), output.GetData()...)
	Normalize(vec)
	return vec, nil
}

// EmbedText runs the CLIP text encoder, used by the search engine's image
// vector index query path (spec.md §4.2 step 4: "embed the query via CLIP
// text encoder").
func (c *ClipProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if !c.IsAvailable() {
		return nil, fmt.Errorf("embedding: clip text encoder unavailable")
	}
	ids := c.tokenizer.Encode(text)

	inputIDs := make([]int64, len(ids.IDs))
	attention := make([]int64, len(ids.IDs))
	for i, id := range ids.IDs {
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

	if err := c.textSession.Run([]ort.Value{idTensor, maskTensor}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("embedding: clip text inference: %w", err)
	}

	vec := append([]float32(nil), output.GetData()...)
	Normalize(vec)
	return vec, nil
}

// Close releases the ONNX sessions and tokenizer, if opened.
func (c *ClipProvider) Close() {
	if c.imageSession != nil {
		c.imageSession.Destroy()
	}
	if c.textSession != nil {
		c.textSession.Destroy()
	}
	if c.tokenizer != nil {
		c.tokenizer.Close()
	}
}

// preprocessCLIPInput resizes img to clipInputSize x clipInputSize with
// nearest-neighbor sampling and produces a CHW float32 tensor normalized by
// CLIP's standard per-channel mean/std. Nearest-neighbor keeps this
// dependency-free (no bilinear/box-filter library appears anywhere in the
// example pack) at a small quality cost that doesn't matter for a 224x224
// encoder input.
func preprocessCLIPInput(img image.Image) []float32 {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	out := make([]float32, 3*clipInputSize*clipInputSize)
	plane := clipInputSize * clipInputSize

	for y := 0; y < clipInputSize; y++ {
		srcY := bounds.Min.Y + y*srcH/clipInputSize
		for x := 0; x < clipInputSize; x++ {
			srcX := bounds.Min.X + x*srcW/clipInputSize
			r, g, b, _ := img.At(srcX, srcY).RGBA()

			rf := float32(r>>8) / 255.0
			gf := float32(g>>8) / 255.0
			bf := float32(b>>8) / 255.0

			idx := y*clipInputSize + x
			out[0*plane+idx] = (rf - clipMean[0]) / clipStd[0]
			out[1*plane+idx] = (gf - clipMean[1]) / clipStd[1]
			out[2*plane+idx] = (bf - clipMean[2]) / clipStd[2]
		}
	}
	return out
}
