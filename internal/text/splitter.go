package text

import (
	"strings"
	"unicode"
)

// Chunk is a bounded, sentence-aligned slice of the source text. Index is
// 1-based and determines the final audio ordering. Chunks are immutable once
// produced by Split.
type Chunk struct {
	Index int
	Text  string
}

// Split divides text into chunks of at most bound runes, closing chunks only
// at sentence boundaries. A sentence ends at '.', '?' or '!' followed by
// whitespace. A single sentence longer than bound is cut into raw slices of
// exactly bound runes; the last slice seeds the next accumulating chunk so it
// can still absorb following short sentences.
//
// Joining the returned chunk texts with single spaces reproduces a
// whitespace-normalized form of the input. Split never returns an empty
// result for input that contains any non-whitespace text.
func Split(text string, bound int) []Chunk {
	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			parts = append(parts, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, raw := range splitSentences(text) {
		sent := strings.TrimSpace(raw)
		if sent == "" {
			continue
		}
		runes := []rune(sent)

		if len(runes) > bound {
			// Oversized sentence: close whatever accumulated, then slice
			// the sentence at exactly bound runes. The final remainder
			// becomes the new accumulator.
			flush()
			for len(runes) > bound {
				parts = append(parts, string(runes[:bound]))
				runes = runes[bound:]
			}
			current.WriteString(string(runes))
			currentLen = len(runes)
			continue
		}

		// +1 for the joining space.
		if currentLen > 0 && currentLen+len(runes)+1 > bound {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sent)
		currentLen += len(runes)
	}
	flush()

	if len(parts) == 0 {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	chunks := make([]Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = Chunk{Index: i + 1, Text: p}
	}
	return chunks
}

// splitSentences cuts text after terminal punctuation ('.', '?', '!') that is
// followed by whitespace. The punctuation stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		// Consume a run of terminal punctuation ("?!", "...") as one boundary.
		end := i
		for end+1 < len(runes) && isTerminal(runes[end+1]) {
			end++
		}
		if end+1 < len(runes) && unicode.IsSpace(runes[end+1]) {
			sentences = append(sentences, string(runes[start:end+1]))
			start = end + 1
		}
		i = end
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}
