// Package query implements the language-detect, tokenize, and
// cross-language expansion stage in front of the hybrid search engine
// (spec.md §4.3). CJK detection composes a cheap Unicode-range scan (the
// teacher's own idiom for filename/title classification) with
// github.com/abadojack/whatlanggo for the general ≥3-character case.
package query

import (
	"sort"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// Detection is the language-detect output from spec.md §4.3.
type Detection struct {
	Code       string
	IsCJK      bool
	Confidence float64
}

// DetectLanguage classifies text per spec.md §4.3: text ≥3 characters uses
// whatlanggo's script-based recognizer; shorter text falls back to a
// CJK-codepoint scan with a fixed confidence of 0.5.
func DetectLanguage(text string) Detection {
	runeCount := len([]rune(text))
	if runeCount < 3 {
		return Detection{Code: fallbackCode(text), IsCJK: hasCJK(text), Confidence: 0.5}
	}

	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	isCJK := isCJKScript(info.Script) || hasCJK(text)
	return Detection{Code: code, IsCJK: isCJK, Confidence: info.Confidence}
}

func fallbackCode(text string) string {
	if hasCJK(text) {
		return "zh"
	}
	return "en"
}

func isCJKScript(s whatlanggo.Script) bool {
	switch s {
	case whatlanggo.Han, whatlanggo.Hiragana, whatlanggo.Katakana, whatlanggo.Hangul:
		return true
	}
	return false
}

// hasCJK reports whether text contains any CJK Unified Ideograph,
// Hiragana, Katakana, or Hangul codepoint.
func hasCJK(text string) bool {
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r),
			unicode.Is(unicode.Hiragana, r),
			unicode.Is(unicode.Katakana, r),
			unicode.Is(unicode.Hangul, r):
			return true
		}
	}
	return false
}

// Parsed is the output of tokenizing a raw query string, before
// segmentation or translation.
type Parsed struct {
	Positive []string
	Negative []string
	Quoted   []string
}

// Parse extracts positive tokens, negative tokens (prefixed with `-`), and
// quoted phrases (double-quoted runs) from a raw query string, per
// spec.md §4.3. Quoted phrases bypass stemming and translation entirely.
func Parse(raw string) Parsed {
	var p Parsed
	var rest strings.Builder

	inQuote := false
	var quoteBuf strings.Builder
	for _, r := range raw {
		switch {
		case r == '"':
			if inQuote {
				if quoteBuf.Len() > 0 {
					p.Quoted = append(p.Quoted, quoteBuf.String())
				}
				quoteBuf.Reset()
			}
			inQuote = !inQuote
		case inQuote:
			quoteBuf.WriteRune(r)
		default:
			rest.WriteRune(r)
		}
	}
	if inQuote && quoteBuf.Len() > 0 {
		// Unterminated quote: treat the trailing run as a normal token run.
		rest.WriteString(quoteBuf.String())
	}

	for _, tok := range strings.Fields(rest.String()) {
		if strings.HasPrefix(tok, "-") && len(tok) > 1 {
			p.Negative = append(p.Negative, strings.TrimPrefix(tok, "-"))
		} else {
			p.Positive = append(p.Positive, tok)
		}
	}
	return p
}

// Segment tokenizes text for FTS indexing/matching: whitespace splitting
// for Latin text, dictionary-guided greedy longest-match for CJK text per
// spec.md §4.3.
func Segment(text string, isCJK bool) []string {
	if !isCJK {
		return strings.Fields(text)
	}
	return segmentCJK(text)
}

func segmentCJK(text string) []string {
	words := dictionaryWords()
	sort.Slice(words, func(i, j int) bool { return len([]rune(words[i])) > len([]rune(words[j])) })

	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); {
		matched := false
		for _, w := range words {
			wr := []rune(w)
			if i+len(wr) <= len(runes) && string(runes[i:i+len(wr)]) == w {
				out = append(out, w)
				i += len(wr)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		out = append(out, string(runes[i]))
		i++
	}
	return out
}

// Translator is the platform-API translation collaborator, tried before
// the embedded dictionary per spec.md §4.3. Implementations wrap an
// external service; nil means "not configured".
type Translator interface {
	Translate(text string, toCJK bool) (string, bool)
}

// Expansion is the full query-pipeline output consumed by the search
// engine's cross-language fusion step (spec.md §4.3, §4.2).
type Expansion struct {
	OriginalFTS   string
	TranslatedFTS string
	HasTranslation bool
	EmbeddingText string
	Language      Detection
	Positive      []string
	Negative      []string
	Quoted        []string
}

// Expand runs the full pipeline: detect, parse, and translate the positive
// terms to the other script (CJK to English, otherwise English to Chinese)
// via translator (if configured) or the embedded dictionary. EmbeddingText is
// always the original text, since CLIP/text encoders are intrinsically
// multilingual (spec.md §4.3).
func Expand(raw string, translator Translator) Expansion {
	lang := DetectLanguage(raw)
	parsed := Parse(raw)

	exp := Expansion{
		OriginalFTS:   strings.Join(parsed.Positive, " "),
		EmbeddingText: raw,
		Language:      lang,
		Positive:      parsed.Positive,
		Negative:      parsed.Negative,
		Quoted:        parsed.Quoted,
	}

	translated, ok := translate(parsed.Positive, lang.IsCJK, translator)
	if ok {
		exp.TranslatedFTS = translated
		exp.HasTranslation = true
	}
	return exp
}

// translate tries the external translator first, falling back to the
// embedded dictionary, per spec.md §4.3. Quoted terms are never passed in
// (callers exclude parsed.Quoted from the terms they translate).
func translate(terms []string, fromCJK bool, translator Translator) (string, bool) {
	if len(terms) == 0 {
		return "", false
	}
	joined := strings.Join(terms, " ")

	if translator != nil {
		if out, ok := translator.Translate(joined, !fromCJK); ok {
			return out, true
		}
	}

	var out []string
	any := false
	for _, t := range terms {
		if fromCJK {
			if en, ok := zhToEn[t]; ok {
				out = append(out, en)
				any = true
				continue
			}
		} else {
			if zh, ok := enToZh[strings.ToLower(t)]; ok {
				out = append(out, zh)
				any = true
				continue
			}
		}
		out = append(out, t)
	}
	if !any {
		return "", false
	}
	return strings.Join(out, " "), true
}
