package codec

import (
	"testing"
)

type benchEntry struct {
	Path  []string `json:"path"`
	File  string   `json:"file"`
	Size  int64    `json:"size"`
	Sum64 uint64   `json:"xxh64,string"`
}

type benchManifest struct {
	Version int          `json:"version"`
	Codec   string       `json:"codec"`
	Entries []benchEntry `json:"entries"`
}

func benchPayload() benchManifest {
	m := benchManifest{Version: 1, Codec: "go-json"}
	for i := 0; i < 64; i++ {
		m.Entries = append(m.Entries, benchEntry{
			Path:  []string{"columns", "prices", "chunk"},
			File:  "columns/prices/chunk",
			Size:  1 << 20,
			Sum64: 0xdeadbeef + uint64(i),
		})
	}
	return m
}

func benchmarkMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(MustMarshal(c, v))))

	var sink []byte
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkUnmarshal(b *testing.B, c Codec, data []byte) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v benchManifest
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCodec_Marshal_Manifest(b *testing.B) {
	payload := benchPayload()

	b.Run("stdlib", func(b *testing.B) { benchmarkMarshal(b, JSON{}, payload) })
	b.Run("go-json", func(b *testing.B) { benchmarkMarshal(b, GoJSON{}, payload) })
}

func BenchmarkCodec_Unmarshal_Manifest(b *testing.B) {
	data := MustMarshal(JSON{}, benchPayload())

	b.Run("stdlib", func(b *testing.B) { benchmarkUnmarshal(b, JSON{}, data) })
	b.Run("go-json", func(b *testing.B) { benchmarkUnmarshal(b, GoJSON{}, data) })
}
