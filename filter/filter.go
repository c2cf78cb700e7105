// Package filter adapts byte streams through compression codecs.
//
// The region layer never interprets the bytes it stores; callers that
// want compressed payload entries wrap their writers and readers here.
// The kind is conventionally carried in the entry name extension
// (".zst", ".lz4", ".gz") and recovered with KindForName.
package filter

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Kind selects a compression codec.
type Kind int

const (
	// None passes bytes through unchanged.
	None Kind = iota
	// Gzip uses the gzip format.
	Gzip
	// Zstd uses the Zstandard format.
	Zstd
	// LZ4 uses the lz4 frame format.
	LZ4
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindForName infers the codec from a name's extension. Names without a
// recognized extension map to None.
func KindForName(name string) Kind {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return Gzip
	case strings.HasSuffix(name, ".zst"), strings.HasSuffix(name, ".zstd"):
		return Zstd
	case strings.HasSuffix(name, ".lz4"):
		return LZ4
	default:
		return None
	}
}

// NewWriter wraps w in a compressing stream. The caller must Close the
// returned writer to flush codec framing; closing does not close w.
func NewWriter(w io.Writer, kind Kind) (io.WriteCloser, error) {
	switch kind {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w)
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("filter: unknown kind %v", kind)
	}
}

// NewReader wraps r in a decompressing stream.
func NewReader(r io.Reader, kind Kind) (io.ReadCloser, error) {
	switch kind {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("filter: unknown kind %v", kind)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
