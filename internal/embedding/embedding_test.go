package embedding

import (
	"testing"

	"github.com/findit-app/findit/internal/models"
)

type fakeProvider struct {
	name      string
	available bool
}

func (f fakeProvider) Name() string     { return f.name }
func (f fakeProvider) IsAvailable() bool { return f.available }

func TestSelectorPicksFirstAvailable(t *testing.T) {
	sel := NewSelector(
		fakeProvider{name: "a", available: false},
		fakeProvider{name: "b", available: true},
		fakeProvider{name: "c", available: true},
	)
	picked, ok := sel.Pick()
	if !ok {
		t.Fatal("expected a provider to be picked")
	}
	if picked.Name() != "b" {
		t.Errorf("expected first available provider 'b', got %q", picked.Name())
	}
}

func TestSelectorNoneAvailable(t *testing.T) {
	sel := NewSelector(
		fakeProvider{name: "a", available: false},
		fakeProvider{name: "b", available: false},
	)
	_, ok := sel.Pick()
	if ok {
		t.Fatal("expected no provider to be picked")
	}
}

func TestCacheGetPutNormalizesKey(t *testing.T) {
	c := NewCache(10)
	vec := []float32{1, 2, 3}
	c.Put("  Sunset Beach  ", vec)

	got, ok := c.Get("sunset beach")
	if !ok {
		t.Fatal("expected cache hit for normalized key")
	}
	if len(got) != 3 || got[0] != 1 {
		t.Errorf("unexpected cached value: %v", got)
	}
}

func TestCacheMiss(t *testing.T) {
	c := NewCache(10)
	if _, ok := c.Get("nothing here"); ok {
		t.Error("expected cache miss")
	}
}

func TestNormalizeProducesUnitVector(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	if v[0] < 0.599 || v[0] > 0.601 {
		t.Errorf("expected v[0] ~= 0.6, got %v", v[0])
	}
	if v[1] < 0.799 || v[1] > 0.801 {
		t.Errorf("expected v[1] ~= 0.8, got %v", v[1])
	}
}

func TestNormalizeZeroVectorIsNoop(t *testing.T) {
	v := []float32{0, 0, 0}
	Normalize(v)
	for _, f := range v {
		if f != 0 {
			t.Errorf("expected zero vector to remain zero, got %v", v)
		}
	}
}

func TestModelCompatible(t *testing.T) {
	if !ModelCompatible("clip", models.EmbeddingDimensions) {
		t.Error("expected compatible for matching dims and non-empty model")
	}
	if ModelCompatible("", models.EmbeddingDimensions) {
		t.Error("expected incompatible for empty model name")
	}
	if ModelCompatible("clip", models.EmbeddingDimensions+1) {
		t.Error("expected incompatible for mismatched dims")
	}
}

func TestClipProviderUnavailableWithoutModelFiles(t *testing.T) {
	p := NewClipProvider("/nonexistent/image.onnx", "/nonexistent/text.onnx", "/nonexistent/tokenizer.json")
	if p.IsAvailable() {
		t.Error("expected clip provider unavailable without model files")
	}
}

func TestGemmaProviderUnavailableWithoutModelFiles(t *testing.T) {
	p := NewGemmaProvider("/nonexistent/gemma.onnx", "/nonexistent/tokenizer.json")
	if p.IsAvailable() {
		t.Error("expected gemma provider unavailable without model files")
	}
}

func TestGeminiProviderUnavailableWithoutAPIKey(t *testing.T) {
	p := NewGeminiProvider("")
	if p.IsAvailable() {
		t.Error("expected gemini provider unavailable without an API key")
	}
}

func TestGeminiProviderAvailableWithAPIKey(t *testing.T) {
	p := NewGeminiProvider("fake-key")
	if !p.IsAvailable() {
		t.Error("expected gemini provider available once an API key is set")
	}
}
