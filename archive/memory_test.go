package archive

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mapped"
)

func writeBlock(t *testing.T, s mapped.Serializer, data string) mapped.FrozenMemoryRegion {
	t.Helper()
	w, err := s.AllocateWritable(len(data), 1)
	require.NoError(t, err)
	copy(w.Bytes(), data)
	region, err := w.Freeze()
	require.NoError(t, err)
	return region
}

func TestMemoryArchive_SingleBlock(t *testing.T) {
	root := NewMemoryArchive()
	col, err := root.NewEntry("col")
	require.NoError(t, err)
	writeBlock(t, col, "payload")

	region, err := root.Reconstituter().GetRegion("col")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(region.Bytes()))
}

func TestMemoryArchive_MultiBlockConcatenation(t *testing.T) {
	root := NewMemoryArchive()
	col, err := root.NewEntry("col")
	require.NoError(t, err)

	// Several independent freezes accumulate in write order.
	writeBlock(t, col, "one ")
	writeBlock(t, col, "two ")
	writeBlock(t, col, "three")

	r := root.Reconstituter()

	// Concurrent first reads race on the lazy merge.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			region, err := r.GetRegion("col")
			assert.NoError(t, err)
			assert.Equal(t, "one two three", string(region.Bytes()))
		}()
	}
	wg.Wait()
}

func TestMemoryArchive_EmptyEntry(t *testing.T) {
	root := NewMemoryArchive()
	_, err := root.NewEntry("empty")
	require.NoError(t, err)

	region, err := root.Reconstituter().GetRegion("empty")
	require.NoError(t, err)
	assert.Zero(t, region.Len())
}

func TestMemoryArchive_SiblingMetadata(t *testing.T) {
	// A logical entry holding both a binary payload child and an "md"
	// metadata child.
	root := NewMemoryArchive()
	col, err := root.NewEntry("prices")
	require.NoError(t, err)

	payload, err := col.NewEntry("data")
	require.NoError(t, err)
	writeBlock(t, payload, "\x01\x02\x03")

	require.NoError(t, mapped.NewObject(col, "md", map[string]int{"rows": 3}, nil))

	node, err := root.Reconstituter().GetStructure("prices")
	require.NoError(t, err)

	data, err := node.GetRegion("data")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data.Bytes())

	var md map[string]int
	require.NoError(t, mapped.GetObject(node, "md", &md, nil))
	assert.Equal(t, 3, md["rows"])
}

func TestMemoryArchive_Commit(t *testing.T) {
	assert.NoError(t, NewMemoryArchive().Commit())
}
