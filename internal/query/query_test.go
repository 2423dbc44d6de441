package query

import "testing"

func TestDetectLanguageShortCJKFallback(t *testing.T) {
	d := DetectLanguage("森")
	if !d.IsCJK || d.Confidence != 0.5 {
		t.Errorf("expected CJK fallback with 0.5 confidence, got %+v", d)
	}
}

func TestDetectLanguageShortLatinFallback(t *testing.T) {
	d := DetectLanguage("hi")
	if d.IsCJK || d.Confidence != 0.5 {
		t.Errorf("expected non-CJK fallback with 0.5 confidence, got %+v", d)
	}
}

func TestDetectLanguageLongCJK(t *testing.T) {
	d := DetectLanguage("森林里有很多动物")
	if !d.IsCJK {
		t.Errorf("expected CJK detection, got %+v", d)
	}
}

func TestParsePositiveNegativeQuoted(t *testing.T) {
	p := Parse(`beach -rainy "golden hour"`)
	if len(p.Positive) != 1 || p.Positive[0] != "beach" {
		t.Errorf("positive = %v", p.Positive)
	}
	if len(p.Negative) != 1 || p.Negative[0] != "rainy" {
		t.Errorf("negative = %v", p.Negative)
	}
	if len(p.Quoted) != 1 || p.Quoted[0] != "golden hour" {
		t.Errorf("quoted = %v", p.Quoted)
	}
}

func TestParseBareDashIsNotNegative(t *testing.T) {
	p := Parse("- test")
	if len(p.Negative) != 0 {
		t.Errorf("bare dash should not be negative, got %v", p.Negative)
	}
}

func TestSegmentLatinWhitespace(t *testing.T) {
	got := Segment("golden hour beach", false)
	if len(got) != 3 {
		t.Errorf("expected 3 tokens, got %v", got)
	}
}

func TestSegmentCJKDictionaryGuided(t *testing.T) {
	got := Segment("海滩日落", true)
	if len(got) != 2 || got[0] != "海滩" || got[1] != "日落" {
		t.Errorf("expected [海滩 日落], got %v", got)
	}
}

func TestExpandDictionaryFallbackTranslatesCJKToEnglish(t *testing.T) {
	exp := Expand("海滩", nil)
	if !exp.HasTranslation {
		t.Fatal("expected dictionary translation to succeed")
	}
	if exp.TranslatedFTS != "beach" {
		t.Errorf("translated = %q, want beach", exp.TranslatedFTS)
	}
	if exp.EmbeddingText != "海滩" {
		t.Errorf("embedding text should stay original, got %q", exp.EmbeddingText)
	}
}

func TestExpandDictionaryFallbackTranslatesEnglishToCJK(t *testing.T) {
	exp := Expand("beach", nil)
	if !exp.HasTranslation || exp.TranslatedFTS != "海滩" {
		t.Errorf("expected translation to 海滩, got %+v", exp)
	}
}

func TestExpandNoTranslationForUnknownTerm(t *testing.T) {
	exp := Expand("xyzzy", nil)
	if exp.HasTranslation {
		t.Errorf("expected no translation for unknown term, got %+v", exp)
	}
}

type stubTranslator struct {
	out string
	ok  bool
}

func (s stubTranslator) Translate(text string, toCJK bool) (string, bool) { return s.out, s.ok }

func TestExpandPrefersExternalTranslator(t *testing.T) {
	exp := Expand("beach", stubTranslator{out: "沙滩", ok: true})
	if exp.TranslatedFTS != "沙滩" {
		t.Errorf("expected external translator output, got %q", exp.TranslatedFTS)
	}
}
