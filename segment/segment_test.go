package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyText(t *testing.T) {
	chunks, err := Split("", DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitInvalidConfiguration(t *testing.T) {
	cases := []struct {
		name string
		opts Options
	}{
		{"zero chunk size", Options{ChunkSize: 0, Overlap: 0}},
		{"negative chunk size", Options{ChunkSize: -10, Overlap: 0}},
		{"negative overlap", Options{ChunkSize: 100, Overlap: -1}},
		{"overlap equals chunk size", Options{ChunkSize: 100, Overlap: 100}},
		{"overlap exceeds chunk size", Options{ChunkSize: 100, Overlap: 150}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split("some text", tc.opts)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestSplitShortText(t *testing.T) {
	chunks, err := Split("hello world", DefaultOptions())
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitDocument(t *testing.T) {
	// 1200 characters of sentence-shaped text.
	sentence := "The quick brown fox jumps over the lazy dog near the river. "
	text := strings.Repeat(sentence, 20)[:1200]

	chunks, err := Split(text, Options{ChunkSize: 500, Overlap: 50})
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 500)
		assert.NotEmpty(t, chunk)
	}
}

func TestSplitOverlapRegion(t *testing.T) {
	// Boundary-free input keeps full windows, so the overlap region is
	// exactly the configured size and must appear in both chunks.
	text := strings.Repeat("a", 80) + strings.Repeat("b", 80)

	chunks, err := Split(text, Options{ChunkSize: 100, Overlap: 20})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	first := []rune(chunks[0])
	tail := string(first[len(first)-20:])
	assert.True(t, strings.HasPrefix(chunks[1], tail))
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	// A period past the 70% threshold should end the chunk even though a
	// later space exists.
	text := strings.Repeat("x", 80) + ". " + strings.Repeat("y", 40)

	chunks, err := Split(text, Options{ChunkSize: 100, Overlap: 10})
	require.NoError(t, err)

	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasSuffix(chunks[0], "."))
}

func TestSplitFallsBackToWhitespace(t *testing.T) {
	// No sentence terminator or newline anywhere, but a space inside the
	// acceptance region.
	text := strings.Repeat("x", 90) + " " + strings.Repeat("y", 60)

	chunks, err := Split(text, Options{ChunkSize: 100, Overlap: 10})
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("x", 90), chunks[0])
}

func TestSplitKeepsFullWindowWithoutBoundary(t *testing.T) {
	// A boundary before the threshold is rejected and the window is kept
	// whole, even though it splits mid-run.
	text := "ab " + strings.Repeat("c", 150)

	chunks, err := Split(text, Options{ChunkSize: 100, Overlap: 0})
	require.NoError(t, err)

	require.NotEmpty(t, chunks)
	assert.Equal(t, 100, len([]rune(chunks[0])))
}

func TestSplitTerminates(t *testing.T) {
	// Maximum permitted overlap still makes forward progress.
	text := strings.Repeat("z", 5000)

	chunks, err := Split(text, Options{ChunkSize: 100, Overlap: 99})
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestSplitLargeOverlapWithEarlyBoundary(t *testing.T) {
	// A boundary inside the acceptance region but short of the overlap
	// width is rejected, keeping the full window instead of pulling the
	// next start backward.
	text := strings.Repeat("x", 75) + "." + strings.Repeat("y", 300)

	chunks, err := Split(text, Options{ChunkSize: 100, Overlap: 90})
	require.NoError(t, err)

	require.NotEmpty(t, chunks)
	assert.Equal(t, 100, len([]rune(chunks[0])))
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 100)
	}
}

func TestSplitLargeOverlapAcceptsLateBoundary(t *testing.T) {
	// A boundary past the overlap width is still honored.
	text := strings.Repeat("x", 95) + "." + strings.Repeat("y", 200)

	chunks, err := Split(text, Options{ChunkSize: 100, Overlap: 90})
	require.NoError(t, err)

	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasSuffix(chunks[0], "."))
}

func TestSplitCoversText(t *testing.T) {
	text := strings.Repeat("m", 1000)

	chunks, err := Split(text, Options{ChunkSize: 300, Overlap: 30})
	require.NoError(t, err)

	covered := 0
	for i, chunk := range chunks {
		n := len([]rune(chunk))
		if i > 0 {
			n -= 30
		}
		covered += n
	}
	assert.Equal(t, 1000, covered)
}
