package mapped

import "strings"

// FileRef is a URI-like reference to a mappable source. Only the "file"
// scheme resolves to a local path the mapper can use; other schemes are
// rejected by MapFile.
type FileRef struct {
	scheme string
	path   string
}

// NewFileRef returns a file-scheme reference to a local path.
func NewFileRef(path string) FileRef {
	return FileRef{scheme: "file", path: path}
}

// ParseFileRef parses "scheme://rest" references; input without a scheme
// separator is treated as a local path.
func ParseFileRef(s string) FileRef {
	if i := strings.Index(s, "://"); i >= 0 {
		return FileRef{scheme: s[:i], path: s[i+3:]}
	}
	return FileRef{scheme: "file", path: s}
}

// Scheme returns the reference's scheme.
func (r FileRef) Scheme() string { return r.scheme }

// Path returns the local filesystem path. Meaningful only for the
// "file" scheme.
func (r FileRef) Path() string { return r.path }

func (r FileRef) String() string { return r.scheme + "://" + r.path }
