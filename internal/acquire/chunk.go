package acquire

import (
	"regexp"
	"strings"
)

const (
	// DefaultChunkSize bounds one analyzer submission.
	DefaultChunkSize = 8000
	// DefaultChunkOverlap carries trailing context into the next chunk so
	// evidence spanning a boundary is not lost.
	DefaultChunkOverlap = 500
)

var sentenceEndRe = regexp.MustCompile(`([.!?])\s+`)

// Chunker splits normalized text into analyzer-sized chunks, breaking at
// paragraph, then sentence, then word boundaries, preserving reading
// order.
type Chunker struct {
	MaxSize int
	Overlap int
}

// NewChunker returns a Chunker with the given bounds; zero values use
// the defaults.
func NewChunker(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = DefaultChunkOverlap
	}
	return &Chunker{MaxSize: maxSize, Overlap: overlap}
}

// Split breaks text into chunks bounded by MaxSize (plus at most the
// overlap carried from the previous chunk).
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.MaxSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	seedOnly := false // current holds only carried-over overlap

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		// Seed the next chunk with trailing context from this one.
		if c.Overlap > 0 && len(chunk) > c.Overlap {
			current.WriteString(chunk[len(chunk)-c.Overlap:])
			current.WriteString("\n")
			seedOnly = true
		}
	}

	// overflows reports whether adding n more characters should close the
	// current chunk. A chunk holding only the overlap seed always accepts
	// the next unit, otherwise seeding could flush pure-overlap chunks.
	overflows := func(n int) bool {
		return current.Len()+n > c.MaxSize && current.Len() > 0 && !seedOnly
	}

	write := func(sep, s string) {
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(s)
		seedOnly = false
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if overflows(len(para) + 2) {
			flush()
		}

		if len(para) <= c.MaxSize {
			write("\n\n", para)
			continue
		}

		// Paragraph alone exceeds the bound: fall back to sentences.
		for _, sentence := range splitSentences(para) {
			if overflows(len(sentence) + 1) {
				flush()
			}
			if len(sentence) <= c.MaxSize {
				write(" ", sentence)
				continue
			}
			// Degenerate run with no sentence breaks: split on words.
			for _, word := range strings.Fields(sentence) {
				if overflows(len(word) + 1) {
					flush()
				}
				write(" ", word)
			}
		}
	}

	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func splitSentences(text string) []string {
	marked := sentenceEndRe.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FilterChunks keeps chunks that mention at least one criterion keyword.
// When the filter would discard everything, the first chunks are kept as
// a fallback sample so the analyzer always sees some content.
func FilterChunks(chunks []string, keywords []string, fallbackKeep int) []string {
	if len(keywords) == 0 {
		return chunks
	}
	var kept []string
	for _, chunk := range chunks {
		lower := strings.ToLower(chunk)
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				kept = append(kept, chunk)
				break
			}
		}
	}
	if len(kept) > 0 {
		return kept
	}
	if fallbackKeep <= 0 || fallbackKeep > len(chunks) {
		fallbackKeep = len(chunks)
	}
	return chunks[:fallbackKeep]
}
