package archive

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mapped"
	"github.com/hupe1980/mapped/codec"
	"github.com/hupe1980/mapped/filter"
)

type colMeta struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

func buildAndCommit(t *testing.T, dir string, opts ...DirOption) {
	t.Helper()
	a, err := NewDirArchive(dir, opts...)
	require.NoError(t, err)

	col, err := a.NewEntry("prices")
	require.NoError(t, err)
	data, err := col.NewEntry("data")
	require.NoError(t, err)
	writeBlock(t, data, "columnar bytes")
	require.NoError(t, mapped.NewObject(col, "md", colMeta{Name: "prices", Rows: 14}, nil))

	nested, err := a.NewEntry("idx")
	require.NoError(t, err)
	inner, err := nested.NewEntry("primary")
	require.NoError(t, err)
	writeBlock(t, inner, "index bytes")

	require.NoError(t, a.Commit())
}

func TestDirArchive_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	buildAndCommit(t, dir)

	// Manifest exists at the root.
	_, err := os.Stat(filepath.Join(dir, ManifestName))
	require.NoError(t, err)

	r, err := OpenDir(dir)
	require.NoError(t, err)
	defer r.Close()

	region, err := mapped.GetRegionRecursive(r, []string{"prices", "data"})
	require.NoError(t, err)
	assert.Equal(t, "columnar bytes", string(region.Bytes()))

	idx, err := mapped.GetRegionRecursive(r, []string{"idx", "primary"})
	require.NoError(t, err)
	assert.Equal(t, "index bytes", string(idx.Bytes()))

	node, err := r.GetStructure("prices")
	require.NoError(t, err)
	var md colMeta
	require.NoError(t, mapped.GetObject(node, "md", &md, r.Codec()))
	assert.Equal(t, colMeta{Name: "prices", Rows: 14}, md)
}

func TestDirArchive_RepeatedLookupsShareRegion(t *testing.T) {
	dir := t.TempDir()
	buildAndCommit(t, dir)

	r, err := OpenDir(dir)
	require.NoError(t, err)
	defer r.Close()

	a, err := mapped.GetRegionRecursive(r, []string{"prices", "data"})
	require.NoError(t, err)
	b, err := mapped.GetRegionRecursive(r, []string{"prices", "data"})
	require.NoError(t, err)

	// Lazy mapping happens once; both lookups view the same mapping.
	assert.Same(t, a.Handle(), b.Handle())
}

func TestDirArchive_CallerCloseKeepsMappingAlive(t *testing.T) {
	dir := t.TempDir()
	buildAndCommit(t, dir)

	r, err := OpenDir(dir)
	require.NoError(t, err)
	defer r.Close()

	first, err := mapped.GetRegionRecursive(r, []string{"prices", "data"})
	require.NoError(t, err)
	assert.Equal(t, "columnar bytes", string(first.Bytes()))
	require.NoError(t, first.Close())

	// Closing a returned region drops only that caller's reference; the
	// reconstituter still holds the mapping and later lookups must serve
	// readable bytes.
	second, err := mapped.GetRegionRecursive(r, []string{"prices", "data"})
	require.NoError(t, err)
	assert.Equal(t, "columnar bytes", string(second.Bytes()))
	require.NoError(t, second.Close())

	third, err := mapped.GetRegionRecursive(r, []string{"prices", "data"})
	require.NoError(t, err)
	assert.Equal(t, "columnar bytes", string(third.Bytes()))
	require.NoError(t, third.Close())
}

func TestDirArchive_CompressedEntry(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte("tick 42 bid 99 ask 101 "), 2048)

	a, err := NewDirArchive(dir)
	require.NoError(t, err)
	col, err := a.NewEntry("prices")
	require.NoError(t, err)
	leaf, err := col.NewEntry("data.zst")
	require.NoError(t, err)

	// Compressed payloads stream through a filter into a region writer;
	// the entry name's extension carries the codec.
	w := mapped.NewRegionWriter(leaf)
	fw, err := filter.NewWriter(w, filter.KindForName("data.zst"))
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, fw.Close())
	require.NoError(t, w.Close())
	require.NoError(t, a.Commit())

	r, err := OpenDir(dir)
	require.NoError(t, err)
	defer r.Close()

	region, err := mapped.GetRegionRecursive(r, []string{"prices", "data.zst"})
	require.NoError(t, err)
	defer region.Close()
	assert.Less(t, region.Len(), len(payload), "repetitive payload should shrink on disk")

	fr, err := filter.NewReader(mapped.NewRegionReader(region), filter.KindForName("data.zst"))
	require.NoError(t, err)
	defer fr.Close()

	out, err := io.ReadAll(fr)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDirArchive_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	buildAndCommit(t, dir)

	// Corrupt one committed entry behind the manifest's back.
	victim := filepath.Join(dir, "idx", "primary")
	data, err := os.ReadFile(victim)
	require.NoError(t, err)
	data[0] ^= 0xFF
	require.NoError(t, os.WriteFile(victim, data, 0o644))

	r, err := OpenDir(dir)
	require.NoError(t, err)
	defer r.Close()

	_, err = mapped.GetRegionRecursive(r, []string{"idx", "primary"})
	var ce *ChecksumError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "idx/primary", ce.File)
}

func TestDirArchive_CommitOnce(t *testing.T) {
	dir := t.TempDir()
	a, err := NewDirArchive(dir)
	require.NoError(t, err)
	require.NoError(t, a.Commit())
	assert.Error(t, a.Commit())
}

func TestDirArchive_SyncOnCommit(t *testing.T) {
	dir := t.TempDir()
	buildAndCommit(t, dir, WithSyncOnCommit(true), WithCodec(codec.JSON{}))

	r, err := OpenDir(dir)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "json", r.Codec().Name())
}

func TestOpenDir_MissingManifest(t *testing.T) {
	_, err := OpenDir(t.TempDir())
	var ioe *mapped.IOError
	require.ErrorAs(t, err, &ioe)
}

func TestDirArchive_NotFound(t *testing.T) {
	dir := t.TempDir()
	buildAndCommit(t, dir)

	r, err := OpenDir(dir)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.GetRegion("ghost")
	assert.ErrorIs(t, err, mapped.ErrNotFound)

	_, err = r.GetStructure("ghost")
	assert.ErrorIs(t, err, mapped.ErrNotFound)
}

func TestDirArchive_MixedContentAndChildren(t *testing.T) {
	dir := t.TempDir()
	a, err := NewDirArchive(dir)
	require.NoError(t, err)

	col, err := a.NewEntry("col")
	require.NoError(t, err)
	// Content directly on the node plus a metadata child.
	writeBlock(t, col, "inline payload")
	require.NoError(t, mapped.NewObject(col, "md", colMeta{Name: "col", Rows: 1}, nil))

	require.NoError(t, a.Commit())

	r, err := OpenDir(dir)
	require.NoError(t, err)
	defer r.Close()

	region, err := r.GetRegion("col")
	require.NoError(t, err)
	assert.Equal(t, "inline payload", string(region.Bytes()))

	node, err := r.GetStructure("col")
	require.NoError(t, err)
	var md colMeta
	require.NoError(t, mapped.GetObject(node, "md", &md, nil))
	assert.Equal(t, 1, md.Rows)
}
