package chunker

import (
	"strings"

	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/domain"
)

// Options control how a document's text is split. Sizes are in runes.
type Options struct {
	Separator string
	ChunkSize int
	Overlap   int
}

func DefaultOptions() Options {
	return Options{
		Separator: config.ChunkSeparator,
		ChunkSize: config.ChunkSize,
		Overlap:   config.ChunkOverlap,
	}
}

// Split divides text into overlapping chunks. The text is split into atomic
// units on the separator and units are accumulated greedily; when appending
// the next unit would push the chunk past ChunkSize the chunk is closed and
// the next one is pre-seeded with the trailing Overlap runes of it. A unit
// longer than ChunkSize is never split mid-unit: it lands in a chunk of its
// own (plus the seed) even though that chunk exceeds ChunkSize.
func Split(text, source string, opts Options) []domain.DocumentChunk {
	if text == "" {
		return nil
	}
	if opts.Separator == "" {
		opts.Separator = config.ChunkSeparator
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = config.ChunkSize
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.ChunkSize {
		opts.Overlap = 0
	}

	units := strings.Split(text, opts.Separator)
	sepLen := len([]rune(opts.Separator))

	var chunks []domain.DocumentChunk
	cur := ""        // assembled chunk so far, seed included
	curLen := 0      // rune length of cur
	hasUnit := false // cur holds at least one unit beyond the seed

	emit := func() {
		chunks = append(chunks, domain.DocumentChunk{
			Text:           cur,
			SourceDocument: source,
			Ordinal:        len(chunks),
		})
		seed := tail(cur, opts.Overlap)
		cur = seed
		curLen = len([]rune(seed))
		hasUnit = false
	}

	for _, u := range units {
		uLen := len([]rune(u))
		if hasUnit && curLen+sepLen+uLen > opts.ChunkSize {
			emit()
		}
		if cur == "" && !hasUnit {
			cur = u
			curLen = uLen
		} else {
			cur += opts.Separator + u
			curLen += sepLen + uLen
		}
		hasUnit = true
	}
	if hasUnit {
		chunks = append(chunks, domain.DocumentChunk{
			Text:           cur,
			SourceDocument: source,
			Ordinal:        len(chunks),
		})
	}
	return chunks
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
