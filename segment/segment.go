// Package segment splits raw document text into overlapping chunks suitable
// for embedding and retrieval.
package segment

import (
	"errors"
	"strings"
	"unicode"
)

var ErrInvalidConfiguration = errors.New("invalid chunk configuration")

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50

	// A boundary break is only accepted when it lies at or past this
	// fraction of the window, so chunks never degenerate into fragments.
	boundaryFraction = 0.7
)

type Options struct {
	ChunkSize int
	Overlap   int
}

func DefaultOptions() Options {
	return Options{
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultOverlap,
	}
}

// Split segments text into chunks of at most ChunkSize runes, preferring to
// break at a sentence terminator, then a newline, then any whitespace.
// Consecutive chunks share Overlap runes. Empty input yields no chunks and no
// error.
func Split(text string, opts Options) ([]string, error) {
	if opts.ChunkSize <= 0 || opts.Overlap < 0 || opts.Overlap >= opts.ChunkSize {
		return nil, ErrInvalidConfiguration
	}

	if text == "" {
		return nil, nil
	}

	var (
		runes     = []rune(text)
		total     = len(runes)
		threshold = int(float64(opts.ChunkSize) * boundaryFraction)
	)

	var chunks []string

	start := 0
	for start < total {
		end := start + opts.ChunkSize
		if end > total {
			end = total
		}

		window := runes[start:end]

		// The final window keeps whatever is left; earlier windows try
		// to end on a natural boundary. A break is only taken when the
		// shortened window still outruns the overlap, so the next start
		// never moves backward.
		if end < total {
			if cut := breakPoint(window, threshold); cut >= 0 && cut+1 > opts.Overlap {
				window = window[:cut+1]
				end = start + cut + 1
			}
		}

		chunks = append(chunks, strings.TrimSpace(string(window)))

		if end >= total {
			break
		}

		start = end - opts.Overlap
	}

	return chunks, nil
}

// breakPoint returns the index of the best boundary in window, or -1 when no
// boundary lies at or past threshold. Sentence terminators win over newlines,
// newlines over other whitespace.
func breakPoint(window []rune, threshold int) int {
	if cut := lastIndexFunc(window, isSentenceEnd); cut >= threshold {
		return cut
	}

	if cut := lastIndexFunc(window, func(r rune) bool { return r == '\n' }); cut >= threshold {
		return cut
	}

	if cut := lastIndexFunc(window, unicode.IsSpace); cut >= threshold {
		return cut
	}

	return -1
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func lastIndexFunc(runes []rune, match func(rune) bool) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if match(runes[i]) {
			return i
		}
	}

	return -1
}
