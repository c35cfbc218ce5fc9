// Package index implements an exact, flat vector index over squared
// Euclidean distance, with chunk texts and source document names kept as
// parallel metadata. Small corpora make a linear scan both simpler and exact,
// so no approximate structure is used.
package index

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyBatch        = errors.New("empty batch")
	ErrBatchMismatch     = errors.New("vectors and chunk texts differ in length")
	ErrInvalidTopK       = errors.New("top-k must be at least 1")
	ErrIndexCorrupt      = errors.New("index snapshot is corrupt")
)

const DefaultDimension = 384

// Index owns three parallel collections: vectors, chunk texts and document
// names. They grow together in append-only transactions and are never
// individually deleted.
type Index struct {
	mu sync.RWMutex

	// persistMu serializes snapshots so a later persist is never
	// overtaken by an earlier one.
	persistMu sync.Mutex

	dim       int
	dir       string
	vectors   [][]float32
	chunks    []string
	documents []string

	log *zap.Logger
}

type Result struct {
	Chunk    string  `json:"chunk"`
	Document string  `json:"document"`
	Distance float64 `json:"distance"`
}

type Stats struct {
	TotalVectors  int      `json:"total_vectors"`
	DocumentCount int      `json:"document_count"`
	Documents     []string `json:"documents"`
}

// Open binds an index to dir, loading the persisted snapshot when both
// companion files exist and agree with each other. A corrupt or inconsistent
// snapshot is logged and discarded in favor of a fresh empty index.
func Open(dir string, dim int, log *zap.Logger) (*Index, error) {
	if dim <= 0 {
		dim = DefaultDimension
	}
	if log == nil {
		log = zap.NewNop()
	}

	log = log.With(
		zap.String("component", "vector_index"),
		zap.Int("dimension", dim),
	)

	ix := &Index{
		dim: dim,
		dir: dir,
		log: log,
	}

	if err := ix.load(); err != nil {
		log.Warn("discarding persisted snapshot", zap.Error(err))

		ix.vectors = nil
		ix.chunks = nil
		ix.documents = nil
	}

	return ix, nil
}

func (ix *Index) Dimension() int {
	return ix.dim
}

// Append adds a batch of vectors with their chunk texts, all attributed to
// one source document. The three parallel collections grow by exactly
// len(vectors) entries or not at all.
func (ix *Index) Append(vectors [][]float32, chunks []string, document string) (int, error) {
	if len(vectors) == 0 || len(chunks) == 0 {
		return 0, ErrEmptyBatch
	}

	if len(vectors) != len(chunks) {
		return 0, ErrBatchMismatch
	}

	for _, v := range vectors {
		if len(v) != ix.dim {
			return 0, ErrDimensionMismatch
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.vectors = append(ix.vectors, vectors...)
	ix.chunks = append(ix.chunks, chunks...)
	for range vectors {
		ix.documents = append(ix.documents, document)
	}

	ix.log.Info("vectors appended",
		zap.String("document", document),
		zap.Int("count", len(vectors)),
		zap.Int("total", len(ix.vectors)),
	)

	return len(vectors), nil
}

// Search returns the min(k, total) indexed chunks closest to query by
// squared Euclidean distance, ascending. Ties rank earlier-inserted entries
// first. An empty index yields empty results, not an error.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	if k < 1 {
		return nil, ErrInvalidTopK
	}

	if len(query) != ix.dim {
		return nil, ErrDimensionMismatch
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	total := len(ix.vectors)
	if total == 0 {
		return []Result{}, nil
	}

	order := make([]int, total)
	distances := make([]float64, total)
	for i, v := range ix.vectors {
		order[i] = i
		distances[i] = squaredL2(query, v)
	}

	sort.SliceStable(order, func(a, b int) bool {
		return distances[order[a]] < distances[order[b]]
	})

	if k > total {
		k = total
	}

	results := make([]Result, k)
	for i := 0; i < k; i++ {
		j := order[i]
		results[i] = Result{
			Chunk:    ix.chunks[j],
			Document: ix.documents[j],
			Distance: distances[j],
		}
	}

	return results, nil
}

// Stats reports the current size of the index and the distinct source
// documents, in first-seen order.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[string]struct{})
	documents := make([]string, 0)
	for _, doc := range ix.documents {
		if _, ok := seen[doc]; ok {
			continue
		}
		seen[doc] = struct{}{}
		documents = append(documents, doc)
	}

	return Stats{
		TotalVectors:  len(ix.vectors),
		DocumentCount: len(documents),
		Documents:     documents,
	}
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
