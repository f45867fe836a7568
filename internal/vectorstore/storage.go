// Package vectorstore persists a vector index together with its row-aligned
// chunk texts as one unit.
package vectorstore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"studyrag/internal/domain"
	"studyrag/internal/vectorstore/flat"
)

const (
	// IndexFile holds the binary vector rows (dimension, count, float32 rows).
	IndexFile = "index.bin"
	// ChunksFile holds the row-aligned chunk texts as a JSON string array.
	ChunksFile = "chunks.json"

	indexMagic = uint32(0x53524758) // "SRGX"
)

// ErrCountMismatch is returned when the chunk count and the vector row count
// disagree. The pairing between a chunk and its row is positional, so a
// mismatched unit must never be created or written.
var ErrCountMismatch = errors.New("vectorstore: chunk count does not match vector row count")

// Unit bundles a vector index with its chunk sequence. The two are only ever
// created, saved, and loaded together; row i of the index always corresponds
// to Chunks[i].
type Unit struct {
	Index  *flat.Index
	Chunks []domain.Chunk
}

// NewUnit pairs an index with its chunk texts, enforcing the count invariant.
func NewUnit(index *flat.Index, texts []string) (*Unit, error) {
	if index.Len() != len(texts) {
		return nil, ErrCountMismatch
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{Position: i, Text: t}
	}
	return &Unit{Index: index, Chunks: chunks}, nil
}

// Texts returns the chunk texts in row order.
func (u *Unit) Texts() []string {
	out := make([]string, len(u.Chunks))
	for i, c := range u.Chunks {
		out[i] = c.Text
	}
	return out
}

// Save writes both artifacts of the unit under dir, creating it if needed.
// Each file is written to a temp file and renamed into place so a crash
// mid-write cannot leave behind a truncated artifact.
func Save(dir string, u *Unit) error {
	if u.Index.Len() != len(u.Chunks) {
		return ErrCountMismatch
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeIndexFile(filepath.Join(dir, IndexFile), u.Index); err != nil {
		return fmt.Errorf("write index artifact: %w", err)
	}
	if err := writeChunksFile(filepath.Join(dir, ChunksFile), u.Texts()); err != nil {
		return fmt.Errorf("write chunks artifact: %w", err)
	}
	return nil
}

// Load restores a previously saved unit from dir. If neither or only one of
// the companion artifacts exists, it returns (nil, nil): the caller falls
// back to the empty "nothing processed yet" state. A half-present unit is
// logged, since it indicates an interrupted save. Genuine I/O and decode
// faults are returned as errors, never masked as absence.
func Load(dir string) (*Unit, error) {
	indexPath := filepath.Join(dir, IndexFile)
	chunksPath := filepath.Join(dir, ChunksFile)

	haveIndex := fileExists(indexPath)
	haveChunks := fileExists(chunksPath)
	if !haveIndex && !haveChunks {
		return nil, nil
	}
	if haveIndex != haveChunks {
		log.Printf("vectorstore: inconsistent persisted state in %s (index=%v chunks=%v), ignoring", dir, haveIndex, haveChunks)
		return nil, nil
	}

	index, err := readIndexFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("read index artifact: %w", err)
	}
	texts, err := readChunksFile(chunksPath)
	if err != nil {
		return nil, fmt.Errorf("read chunks artifact: %w", err)
	}
	u, err := NewUnit(index, texts)
	if err != nil {
		return nil, fmt.Errorf("persisted unit is desynchronized: %w", err)
	}
	return u, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeIndexFile(path string, index *flat.Index) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := tmp
	header := []uint32{indexMagic, uint32(index.Dimension()), uint32(index.Len())}
	for _, h := range header {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			tmp.Close()
			return err
		}
	}
	for _, row := range index.Rows() {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readIndexFile(path string) (*flat.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var magic, dim, count uint32
	for _, p := range []*uint32{&magic, &dim, &count} {
		if err := binary.Read(f, binary.LittleEndian, p); err != nil {
			return nil, err
		}
	}
	if magic != indexMagic {
		return nil, fmt.Errorf("unrecognized index file format in %s", path)
	}
	if count == 0 {
		return flat.Build(nil)
	}
	rows := make([][]float32, count)
	for i := range rows {
		row := make([]float32, dim)
		if err := binary.Read(f, binary.LittleEndian, row); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("truncated index file %s: %w", path, err)
			}
			return nil, err
		}
		rows[i] = row
	}
	return flat.Build(rows)
}

func writeChunksFile(path string, texts []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".chunks-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(texts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readChunksFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var texts []string
	if err := json.Unmarshal(data, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}
