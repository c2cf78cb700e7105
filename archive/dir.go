package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/mapped"
	"github.com/hupe1980/mapped/codec"
)

// ManifestName is the file the directory backend writes at the archive
// root on Commit.
const ManifestName = "MANIFEST.json"

// manifestVersion is bumped when the on-disk layout changes.
const manifestVersion = 1

type manifest struct {
	Version int             `json:"version"`
	Codec   string          `json:"codec"`
	Entries []manifestEntry `json:"entries"`
}

type manifestEntry struct {
	// Path is the logical entry path, one segment per element.
	Path []string `json:"path"`
	// File is the relative on-disk location of the entry's bytes.
	File  string `json:"file"`
	Size  int64  `json:"size"`
	Sum64 uint64 `json:"xxh64,string"`
}

// ChecksumError indicates an entry whose on-disk bytes no longer match
// the checksum the manifest recorded at commit time.
type ChecksumError struct {
	File string
	Want uint64
	Got  uint64
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("archive: checksum mismatch for %s: manifest %016x, data %016x",
		e.File, e.Want, e.Got)
}

// DirOption configures the directory backend.
type DirOption func(*dirOptions)

type dirOptions struct {
	codec        codec.Codec
	logger       *mapped.Logger
	syncOnCommit bool
}

// WithCodec sets the codec recorded in the manifest. If nil is passed,
// codec.Default is used.
func WithCodec(c codec.Codec) DirOption {
	return func(o *dirOptions) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger sets the logger used for commit/open progress.
func WithLogger(l *mapped.Logger) DirOption {
	return func(o *dirOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSyncOnCommit makes Commit fsync every entry file and the manifest
// before returning.
func WithSyncOnCommit(sync bool) DirOption {
	return func(o *dirOptions) {
		o.syncOnCommit = sync
	}
}

func applyDirOptions(opts []DirOption) dirOptions {
	o := dirOptions{
		codec:  codec.Default,
		logger: mapped.NoopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DirArchive is the write side of the directory backend. The entry tree
// is staged on the heap and written out on Commit: one file per
// content-bearing node, plus a manifest listing every entry with its
// size and xxhash64 checksum. Commit is the only operation that touches
// the filesystem.
type DirArchive struct {
	dir       string
	opts      dirOptions
	staging   *MemoryArchive
	committed bool
}

var _ mapped.StructuredSerializer = (*DirArchive)(nil)

// NewDirArchive creates the target directory and returns an empty
// archive rooted there.
func NewDirArchive(dir string, opts ...DirOption) (*DirArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &mapped.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	return &DirArchive{
		dir:     dir,
		opts:    applyDirOptions(opts),
		staging: NewMemoryArchive(),
	}, nil
}

func (a *DirArchive) AllocateWritable(n int, alignment int) (*mapped.MutableMemoryRegion, error) {
	return a.staging.AllocateWritable(n, alignment)
}

func (a *DirArchive) Freeze(region *mapped.MutableMemoryRegion) (mapped.FrozenMemoryRegion, error) {
	return a.staging.Freeze(region)
}

func (a *DirArchive) NewEntry(name string) (mapped.StructuredSerializer, error) {
	return a.staging.NewEntry(name)
}

// Commit writes every staged entry to disk and finalizes the archive
// with an atomically renamed manifest. An archive commits once.
func (a *DirArchive) Commit() error {
	if a.committed {
		return fmt.Errorf("archive: %s already committed", a.dir)
	}

	m := manifest{
		Version: manifestVersion,
		Codec:   a.opts.codec.Name(),
	}
	if err := a.commitNode(a.staging, nil, &m); err != nil {
		return err
	}

	// Deterministic manifest ordering regardless of build order.
	sort.Slice(m.Entries, func(i, j int) bool {
		return strings.Join(m.Entries[i].Path, "\x00") < strings.Join(m.Entries[j].Path, "\x00")
	})

	encoded, err := codec.JSON{}.Marshal(m)
	if err != nil {
		return fmt.Errorf("archive: encode manifest: %w", err)
	}

	tmp := filepath.Join(a.dir, ManifestName+".tmp")
	if err := a.writeFile(tmp, encoded); err != nil {
		return err
	}
	final := filepath.Join(a.dir, ManifestName)
	if err := os.Rename(tmp, final); err != nil {
		return &mapped.IOError{Op: "rename", Path: final, Err: err}
	}

	a.committed = true
	a.opts.logger.WithPath(a.dir).Info("archive committed", "entries", len(m.Entries))
	return nil
}

// commitNode writes node content (if any) and recurses into children.
func (a *DirArchive) commitNode(node *MemoryArchive, path []string, m *manifest) error {
	if len(node.blocks) > 0 {
		if len(path) == 0 {
			return fmt.Errorf("archive: root node cannot hold content")
		}

		rel := filepath.Join(path...)
		if len(node.children) > 0 {
			// A node with both content and children stores its bytes in a
			// reserved file inside its directory. The manifest records the
			// exact location either way.
			rel = filepath.Join(rel, "_data")
		}

		region, err := node.content()
		if err != nil {
			return err
		}

		abs := filepath.Join(a.dir, rel)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return &mapped.IOError{Op: "mkdir", Path: filepath.Dir(abs), Err: err}
		}
		if err := a.writeFile(abs, region.Bytes()); err != nil {
			return err
		}

		m.Entries = append(m.Entries, manifestEntry{
			Path:  append([]string(nil), path...),
			File:  filepath.ToSlash(rel),
			Size:  int64(region.Len()),
			Sum64: xxhash.Sum64(region.Bytes()),
		})
	}

	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		childPath := append(append([]string(nil), path...), name)
		if err := a.commitNode(node.children[name], childPath, m); err != nil {
			return err
		}
	}
	return nil
}

func (a *DirArchive) writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &mapped.IOError{Op: "create", Path: path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return &mapped.IOError{Op: "write", Path: path, Err: err}
	}
	if a.opts.syncOnCommit {
		if err := f.Sync(); err != nil {
			f.Close()
			return &mapped.IOError{Op: "sync", Path: path, Err: err}
		}
	}
	if err := f.Close(); err != nil {
		return &mapped.IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// DirReconstituter is the read side of the directory backend. Entry
// regions are memory-mapped lazily on first access and verified against
// the manifest checksum once, then shared by every subsequent lookup.
// Each lookup hands out an independent reference on the mapping, so
// returned regions are closed on their own schedule. Safe for
// concurrent readers.
type DirReconstituter struct {
	dir   string
	codec codec.Codec
	root  *dirNode
}

type dirNode struct {
	children map[string]*dirNode

	file string
	size int64
	sum  uint64

	once   sync.Once
	region mapped.FrozenMemoryRegion
	err    error
}

var _ mapped.StructuredReconstituter = (*DirReconstituter)(nil)

// OpenDir opens a committed archive. Only the manifest is read eagerly.
func OpenDir(dir string, opts ...DirOption) (*DirReconstituter, error) {
	o := applyDirOptions(opts)

	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, &mapped.IOError{Op: "open", Path: filepath.Join(dir, ManifestName), Err: err}
	}

	var m manifest
	if err := (codec.JSON{}).Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("archive: decode manifest: %w", err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("archive: unsupported manifest version %d", m.Version)
	}

	c := o.codec
	if named, ok := codec.ByName(m.Codec); ok {
		c = named
	}

	root := &dirNode{children: make(map[string]*dirNode)}
	for _, e := range m.Entries {
		node := root
		for _, segment := range e.Path {
			child, ok := node.children[segment]
			if !ok {
				child = &dirNode{children: make(map[string]*dirNode)}
				node.children[segment] = child
			}
			node = child
		}
		node.file = e.File
		node.size = e.Size
		node.sum = e.Sum64
	}

	o.logger.WithPath(dir).Debug("archive opened", "entries", len(m.Entries))
	return &DirReconstituter{dir: dir, codec: c, root: root}, nil
}

// Codec returns the codec the archive was committed with.
func (r *DirReconstituter) Codec() codec.Codec { return r.codec }

func (r *DirReconstituter) GetRegion(name string) (mapped.FrozenMemoryRegion, error) {
	return r.nodeRegion(r.root, name)
}

func (r *DirReconstituter) GetStructure(name string) (mapped.StructuredReconstituter, error) {
	child, ok := r.root.children[name]
	if !ok {
		return nil, fmt.Errorf("archive: structure %q: %w", name, mapped.ErrNotFound)
	}
	return &dirStructure{owner: r, node: child}, nil
}

// Close unmaps every region loaded so far. Regions handed out remain
// valid until their own handles are released; Close only drops the
// reconstituter's references.
func (r *DirReconstituter) Close() error {
	r.closeNode(r.root)
	return nil
}

func (r *DirReconstituter) closeNode(node *dirNode) {
	if node.region.Len() > 0 {
		_ = node.region.Close()
	}
	for _, child := range node.children {
		r.closeNode(child)
	}
}

func (r *DirReconstituter) nodeRegion(parent *dirNode, name string) (mapped.FrozenMemoryRegion, error) {
	child, ok := parent.children[name]
	if !ok || child.file == "" {
		return mapped.FrozenMemoryRegion{}, fmt.Errorf("archive: entry %q: %w", name, mapped.ErrNotFound)
	}

	child.once.Do(func() {
		abs := filepath.Join(r.dir, filepath.FromSlash(child.file))
		region, err := mapped.MapFile(mapped.NewFileRef(abs), 0, mapped.MapToEnd)
		if err != nil {
			child.err = err
			return
		}
		if got := xxhash.Sum64(region.Bytes()); got != child.sum {
			_ = region.Close()
			child.err = &ChecksumError{File: child.file, Want: child.sum, Got: got}
			return
		}
		child.region = region
	})
	if child.err != nil {
		return mapped.FrozenMemoryRegion{}, child.err
	}

	// Every lookup returns its own reference on the shared mapping;
	// closing a returned region never tears down the cached one.
	return child.region.Range(0, child.region.Len())
}

// dirStructure is a non-root view into the manifest tree.
type dirStructure struct {
	owner *DirReconstituter
	node  *dirNode
}

var _ mapped.StructuredReconstituter = (*dirStructure)(nil)

func (s *dirStructure) GetRegion(name string) (mapped.FrozenMemoryRegion, error) {
	return s.owner.nodeRegion(s.node, name)
}

func (s *dirStructure) GetStructure(name string) (mapped.StructuredReconstituter, error) {
	child, ok := s.node.children[name]
	if !ok {
		return nil, fmt.Errorf("archive: structure %q: %w", name, mapped.ErrNotFound)
	}
	return &dirStructure{owner: s.owner, node: child}, nil
}
