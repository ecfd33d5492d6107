package preprocess

import (
	"strings"
	"unicode"
)

// DefaultNgramSize is the n-gram size used for similarity scoring.
const DefaultNgramSize = 3

// TextProcessor turns raw text into n-gram sequences.
// The stopword set is built once in the constructor and only read afterwards,
// so a single TextProcessor can be shared between goroutines.
type TextProcessor struct {
	stopwords map[string]struct{}
}

// NewTextProcessor creates a processor backed by the built-in stopword list
func NewTextProcessor() *TextProcessor {
	return NewTextProcessorWithStopwords(defaultStopwords)
}

// NewTextProcessorWithStopwords creates a processor with a custom stopword list.
// Words are case-folded on insertion; blank entries are ignored.
func NewTextProcessorWithStopwords(words []string) *TextProcessor {
	stopwords := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		stopwords[w] = struct{}{}
	}

	return &TextProcessor{
		stopwords: stopwords,
	}
}

// IsStopword reports whether token is in the stopword set
func (p *TextProcessor) IsStopword(token string) bool {
	_, ok := p.stopwords[strings.ToLower(token)]
	return ok
}

// StopwordCount returns the number of distinct stopwords
func (p *TextProcessor) StopwordCount() int {
	return len(p.stopwords)
}

// Tokenize lowercases text, strips every rune that is neither a word character
// (letter, digit, underscore) nor whitespace, and splits on whitespace runs.
func Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}

	cleaned := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, text)

	tokens := strings.Fields(cleaned)
	if tokens == nil {
		return []string{}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// RemoveStopwords filters stopwords out of tokens, keeping relative order
func (p *TextProcessor) RemoveStopwords(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := p.stopwords[token]; ok {
			continue
		}
		filtered = append(filtered, token)
	}
	return filtered
}

// CreateNgrams joins every run of n consecutive tokens with a single space.
// It returns an empty slice when n <= 0 or there are fewer than n tokens.
func CreateNgrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return []string{}
	}

	ngrams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		ngrams = append(ngrams, strings.Join(tokens[i:i+n], " "))
	}
	return ngrams
}

// Preprocess tokenizes text, removes stopwords and builds n-grams of size n
func (p *TextProcessor) Preprocess(text string, n int) []string {
	tokens := Tokenize(text)
	filtered := p.RemoveStopwords(tokens)
	return CreateNgrams(filtered, n)
}
