package plagiarism

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultContextWindow is the number of bytes of context around a match
const DefaultContextWindow = 100

// FindContext locates needle in text case-insensitively and returns the
// surrounding excerpt of the original text, window/2 bytes on each side.
// Bounds are clamped to the text and widened to rune boundaries so a
// multi-byte character is never split. Returns "" when needle is absent.
func FindContext(text, needle string, window int) string {
	if text == "" || needle == "" {
		return ""
	}

	folded, offsets := foldWithOffsets(text)
	foldedNeedle := strings.Map(unicode.ToLower, needle)

	idx := strings.Index(folded, foldedNeedle)
	if idx == -1 {
		return ""
	}

	// Map the match back to byte offsets in the original text
	matchStart := offsets[idx]
	matchEnd := len(text)
	if end := idx + len(foldedNeedle); end < len(folded) {
		matchEnd = offsets[end]
	}

	half := window / 2
	if half < 0 {
		half = 0
	}

	start := max(0, matchStart-half)
	end := min(len(text), matchEnd+half)

	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	return text[start:end]
}

// foldWithOffsets lowercases text rune by rune and records, for every byte of
// the folded string, the byte offset of the rune it came from in text.
func foldWithOffsets(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text))

	for i, r := range text {
		before := b.Len()
		if r == utf8.RuneError {
			// Keep invalid bytes as-is so lengths stay aligned
			_, size := utf8.DecodeRuneInString(text[i:])
			b.WriteString(text[i : i+size])
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
		for j := before; j < b.Len(); j++ {
			offsets = append(offsets, i)
		}
	}

	return b.String(), offsets
}
