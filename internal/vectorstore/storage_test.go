package vectorstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/vectorstore/flat"
)

func buildUnit(t *testing.T, vectors [][]float32, texts []string) *Unit {
	t.Helper()
	ix, err := flat.Build(vectors)
	require.NoError(t, err)
	u, err := NewUnit(ix, texts)
	require.NoError(t, err)
	return u
}

func TestNewUnitRejectsCountMismatch(t *testing.T) {
	ix, err := flat.Build([][]float32{{1, 2}})
	require.NoError(t, err)

	_, err = NewUnit(ix, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	vectors := [][]float32{
		{0.25, -1.5, 3},
		{1, 2, 3},
		{-0.125, 0, 42},
	}
	texts := []string{"first chunk text", "second chunk text", "third chunk text"}
	u := buildUnit(t, vectors, texts)
	require.NoError(t, Save(dir, u))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, u.Index.Dimension(), loaded.Index.Dimension())
	assert.Equal(t, u.Index.Len(), loaded.Index.Len())
	assert.Equal(t, texts, loaded.Texts())
	for i, c := range loaded.Chunks {
		assert.Equal(t, i, c.Position)
	}

	// Search behavior is identical to the freshly built index.
	query := []float32{0.5, 0.5, 2.5}
	want, err := u.Index.Search(query, 3)
	require.NoError(t, err)
	got, err := loaded.Index.Search(query, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadEmptyDirReturnsNone(t *testing.T) {
	u, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestLoadHalfPresentUnitReturnsNone(t *testing.T) {
	dir := t.TempDir()
	u := buildUnit(t, [][]float32{{1, 2}}, []string{"only chunk"})
	require.NoError(t, Save(dir, u))
	require.NoError(t, os.Remove(filepath.Join(dir, ChunksFile)))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// And the other way around.
	dir = t.TempDir()
	require.NoError(t, Save(dir, u))
	require.NoError(t, os.Remove(filepath.Join(dir, IndexFile)))
	loaded, err = Load(dir)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadCorruptIndexFails(t *testing.T) {
	dir := t.TempDir()
	u := buildUnit(t, [][]float32{{1, 2}, {3, 4}}, []string{"a", "b"})
	require.NoError(t, Save(dir, u))

	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFile), []byte("garbage"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadDesynchronizedUnitFails(t *testing.T) {
	dir := t.TempDir()
	u := buildUnit(t, [][]float32{{1, 2}, {3, 4}}, []string{"a", "b"})
	require.NoError(t, Save(dir, u))

	// Rewrite the chunk artifact with the wrong number of entries.
	data, err := json.Marshal([]string{"a"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ChunksFile), data, 0o644))

	_, err = Load(dir)
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestSaveOverwritesPriorUnit(t *testing.T) {
	dir := t.TempDir()
	first := buildUnit(t, [][]float32{{1, 1}, {2, 2}}, []string{"a", "b"})
	require.NoError(t, Save(dir, first))

	second := buildUnit(t, [][]float32{{9, 9, 9}}, []string{"replacement"})
	require.NoError(t, Save(dir, second))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 1, loaded.Index.Len())
	assert.Equal(t, 3, loaded.Index.Dimension())
	assert.Equal(t, []string{"replacement"}, loaded.Texts())
}

func TestChunksArtifactIsReadableJSON(t *testing.T) {
	dir := t.TempDir()
	u := buildUnit(t, [][]float32{{1}}, []string{"utf-8 chunk text: naïve café 東京"})
	require.NoError(t, Save(dir, u))

	data, err := os.ReadFile(filepath.Join(dir, ChunksFile))
	require.NoError(t, err)
	var texts []string
	require.NoError(t, json.Unmarshal(data, &texts))
	assert.Equal(t, u.Texts(), texts)
}
