package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// The snapshot is a pair of companion files: a binary vector blob and a JSON
// metadata record whose i-th entries describe the i-th vector in the blob.
const (
	vectorsFile  = "index.bin"
	metadataFile = "metadata.json"

	blobVersion uint32 = 1
)

var blobMagic = [4]byte{'D', 'C', 'V', 'X'}

type blobHeader struct {
	Magic   [4]byte
	Version uint32
	Dim     uint32
	Count   uint64
}

type metadata struct {
	Chunks    []string `json:"chunks"`
	Documents []string `json:"documents"`
}

// Persist serializes the current vectors and metadata, writing each file to a
// temporary location and renaming it into place so a crash mid-write never
// leaves a half-written file behind. The in-memory index stays valid whether
// or not persistence succeeds.
func (ix *Index) Persist() error {
	ix.persistMu.Lock()
	defer ix.persistMu.Unlock()

	// Slice headers are stable under the append-only discipline, so a
	// consistent snapshot only needs the lengths captured together.
	ix.mu.RLock()
	vectors := ix.vectors
	meta := metadata{
		Chunks:    ix.chunks,
		Documents: ix.documents,
	}
	ix.mu.RUnlock()

	if err := os.MkdirAll(ix.dir, 0o755); err != nil {
		return fmt.Errorf("persist vector index: %w", err)
	}

	if err := ix.writeVectors(vectors); err != nil {
		return fmt.Errorf("persist vector index: %w", err)
	}

	if err := ix.writeMetadata(meta); err != nil {
		return fmt.Errorf("persist vector index: %w", err)
	}

	ix.log.Info("vector index persisted", zap.Int("total", len(vectors)))
	return nil
}

// Clear resets the index to empty at the same dimension and removes both
// persisted files. Deletion of an already-missing file is logged, not
// propagated.
func (ix *Index) Clear() error {
	ix.mu.Lock()
	ix.vectors = nil
	ix.chunks = nil
	ix.documents = nil
	ix.mu.Unlock()

	ix.persistMu.Lock()
	defer ix.persistMu.Unlock()

	for _, name := range []string{vectorsFile, metadataFile} {
		err := os.Remove(filepath.Join(ix.dir, name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clear vector index: %w", err)
		}
		if errors.Is(err, os.ErrNotExist) {
			ix.log.Debug("snapshot file already absent", zap.String("file", name))
		}
	}

	ix.log.Info("vector index cleared")
	return nil
}

func (ix *Index) writeVectors(vectors [][]float32) error {
	f, err := os.CreateTemp(ix.dir, vectorsFile+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	w := bufio.NewWriter(f)

	header := blobHeader{
		Magic:   blobMagic,
		Version: blobVersion,
		Dim:     uint32(ix.dim),
		Count:   uint64(len(vectors)),
	}

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		f.Close()
		return err
	}

	for _, v := range vectors {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			f.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), filepath.Join(ix.dir, vectorsFile))
}

func (ix *Index) writeMetadata(meta metadata) error {
	f, err := os.CreateTemp(ix.dir, metadataFile+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := json.NewEncoder(f).Encode(&meta); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), filepath.Join(ix.dir, metadataFile))
}

// load restores a snapshot when both companion files are present. Structural
// inconsistency between them is ErrIndexCorrupt; the caller falls back to an
// empty index.
func (ix *Index) load() error {
	vectorsPath := filepath.Join(ix.dir, vectorsFile)
	metadataPath := filepath.Join(ix.dir, metadataFile)

	if _, err := os.Stat(vectorsPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, err := os.Stat(metadataPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	vectors, err := ix.readVectors(vectorsPath)
	if err != nil {
		return err
	}

	f, err := os.Open(metadataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	var meta metadata
	if err := json.NewDecoder(f).Decode(&meta); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	if len(meta.Chunks) != len(vectors) || len(meta.Documents) != len(vectors) {
		return fmt.Errorf("%w: %d vectors, %d chunks, %d documents",
			ErrIndexCorrupt, len(vectors), len(meta.Chunks), len(meta.Documents))
	}

	ix.vectors = vectors
	ix.chunks = meta.Chunks
	ix.documents = meta.Documents

	ix.log.Info("vector index loaded", zap.Int("total", len(vectors)))
	return nil
}

func (ix *Index) readVectors(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var header blobHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	if header.Magic != blobMagic || header.Version != blobVersion {
		return nil, fmt.Errorf("%w: unrecognized blob header", ErrIndexCorrupt)
	}

	if int(header.Dim) != ix.dim {
		return nil, fmt.Errorf("%w: blob dimension %d, index dimension %d",
			ErrIndexCorrupt, header.Dim, ix.dim)
	}

	vectors := make([][]float32, 0, header.Count)
	for i := uint64(0); i < header.Count; i++ {
		v := make([]float32, header.Dim)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
		}
		vectors = append(vectors, v)
	}

	if _, err := r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data in vector blob", ErrIndexCorrupt)
	}

	return vectors, nil
}
