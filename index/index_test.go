package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, dim int) *Index {
	t.Helper()

	ix, err := Open(t.TempDir(), dim, nil)
	require.NoError(t, err)

	return ix
}

func TestOpenEmptyDirectory(t *testing.T) {
	ix := newTestIndex(t, 4)

	stats := ix.Stats()
	assert.Equal(t, 0, stats.TotalVectors)
	assert.Equal(t, 0, stats.DocumentCount)
}

func TestOpenDefaultDimension(t *testing.T) {
	ix, err := Open(t.TempDir(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDimension, ix.Dimension())
}

func TestAppend(t *testing.T) {
	ix := newTestIndex(t, 4)

	count, err := ix.Append(
		[][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}},
		[]string{"first chunk", "second chunk"},
		"a.txt",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stats := ix.Stats()
	assert.Equal(t, 2, stats.TotalVectors)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, []string{"a.txt"}, stats.Documents)
}

func TestAppendDimensionMismatch(t *testing.T) {
	ix := newTestIndex(t, 4)

	_, err := ix.Append([][]float32{{1, 2, 3}}, []string{"chunk"}, "a.txt")
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	// A bad vector anywhere in the batch rejects the whole batch.
	_, err = ix.Append(
		[][]float32{{1, 0, 0, 0}, {1, 2}},
		[]string{"good", "bad"},
		"a.txt",
	)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, ix.Stats().TotalVectors)
}

func TestAppendEmptyBatch(t *testing.T) {
	ix := newTestIndex(t, 4)

	_, err := ix.Append(nil, nil, "a.txt")
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestAppendBatchMismatch(t *testing.T) {
	ix := newTestIndex(t, 4)

	_, err := ix.Append([][]float32{{1, 0, 0, 0}}, []string{"one", "two"}, "a.txt")
	assert.ErrorIs(t, err, ErrBatchMismatch)
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := newTestIndex(t, 4)

	results, err := ix.Search([]float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchInvalidTopK(t *testing.T) {
	ix := newTestIndex(t, 4)

	_, err := ix.Search([]float32{1, 0, 0, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = ix.Search([]float32{1, 0, 0, 0}, -3)
	assert.ErrorIs(t, err, ErrInvalidTopK)
}

func TestSearchQueryDimension(t *testing.T) {
	ix := newTestIndex(t, 4)

	_, err := ix.Search([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearchRanking(t *testing.T) {
	ix := newTestIndex(t, 4)

	_, err := ix.Append([][]float32{{1, 0, 0, 0}}, []string{"chunk a"}, "a.txt")
	require.NoError(t, err)
	_, err = ix.Append([][]float32{{0, 1, 0, 0}}, []string{"chunk b"}, "b.txt")
	require.NoError(t, err)

	results, err := ix.Search([]float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "chunk a", results[0].Chunk)
	assert.Equal(t, "a.txt", results[0].Document)
	assert.Equal(t, 0.0, results[0].Distance)
}

func TestSearchOrderedAndBounded(t *testing.T) {
	ix := newTestIndex(t, 2)

	_, err := ix.Append(
		[][]float32{{3, 0}, {1, 0}, {2, 0}},
		[]string{"far", "near", "middle"},
		"doc.txt",
	)
	require.NoError(t, err)

	// k beyond the index size returns exactly total results.
	results, err := ix.Search([]float32{0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "near", results[0].Chunk)
	assert.Equal(t, "middle", results[1].Chunk)
	assert.Equal(t, "far", results[2].Chunk)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Distance, results[i-1].Distance)
	}
}

func TestSearchTiesFavorInsertionOrder(t *testing.T) {
	ix := newTestIndex(t, 2)

	_, err := ix.Append([][]float32{{1, 0}}, []string{"inserted first"}, "a.txt")
	require.NoError(t, err)
	_, err = ix.Append([][]float32{{1, 0}}, []string{"inserted second"}, "b.txt")
	require.NoError(t, err)

	results, err := ix.Search([]float32{1, 0}, 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "inserted first", results[0].Chunk)
	assert.Equal(t, "inserted second", results[1].Chunk)
}

func TestPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()

	ix, err := Open(dir, 4, nil)
	require.NoError(t, err)

	_, err = ix.Append(
		[][]float32{{0.25, -1.5, 3.125, 0}, {1, 1, 1, 1}},
		[]string{"alpha", "beta"},
		"a.txt",
	)
	require.NoError(t, err)
	_, err = ix.Append([][]float32{{-2, 0.5, 0, 7}}, []string{"gamma"}, "b.txt")
	require.NoError(t, err)

	require.NoError(t, ix.Persist())

	query := []float32{0.1, 0.2, 0.3, 0.4}
	before, err := ix.Search(query, 3)
	require.NoError(t, err)

	reopened, err := Open(dir, 4, nil)
	require.NoError(t, err)

	assert.Equal(t, ix.Stats(), reopened.Stats())

	after, err := reopened.Search(query, 3)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPersistThenAppendThenPersist(t *testing.T) {
	dir := t.TempDir()

	ix, err := Open(dir, 2, nil)
	require.NoError(t, err)

	_, err = ix.Append([][]float32{{1, 0}}, []string{"one"}, "a.txt")
	require.NoError(t, err)
	require.NoError(t, ix.Persist())

	_, err = ix.Append([][]float32{{0, 1}}, []string{"two"}, "b.txt")
	require.NoError(t, err)
	require.NoError(t, ix.Persist())

	reopened, err := Open(dir, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Stats().TotalVectors)
}

func TestOpenRejectsInconsistentSnapshot(t *testing.T) {
	dir := t.TempDir()

	ix, err := Open(dir, 2, nil)
	require.NoError(t, err)

	_, err = ix.Append([][]float32{{1, 0}, {0, 1}}, []string{"one", "two"}, "a.txt")
	require.NoError(t, err)
	require.NoError(t, ix.Persist())

	// Metadata shorter than the blob's vector count.
	meta := []byte(`{"chunks":["one"],"documents":["a.txt"]}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), meta, 0o644))

	reopened, err := Open(dir, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, reopened.Stats().TotalVectors)
}

func TestOpenRejectsGarbageBlob(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, vectorsFile), []byte("not a blob"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), []byte(`{"chunks":[],"documents":[]}`), 0o644))

	ix, err := Open(dir, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Stats().TotalVectors)
}

func TestClear(t *testing.T) {
	dir := t.TempDir()

	ix, err := Open(dir, 2, nil)
	require.NoError(t, err)

	_, err = ix.Append([][]float32{{1, 0}}, []string{"one"}, "a.txt")
	require.NoError(t, err)
	require.NoError(t, ix.Persist())

	require.NoError(t, ix.Clear())

	assert.Equal(t, 0, ix.Stats().TotalVectors)
	assert.NoFileExists(t, filepath.Join(dir, vectorsFile))
	assert.NoFileExists(t, filepath.Join(dir, metadataFile))

	// Clearing again with no files present is not an error.
	require.NoError(t, ix.Clear())
}
