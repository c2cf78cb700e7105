package blob

import (
	"context"
	"path"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/hupe1980/mapped"
)

// Option configures a Reconstituter.
type Option func(*options)

type options struct {
	prefix  string
	ctx     context.Context
	limiter *rate.Limiter
	logger  *mapped.Logger
}

// WithPrefix roots the tree at a key prefix inside the store.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithContext sets the context used for store fetches. The structured
// read interface is synchronous and carries no context of its own, so
// cancellation is bound at construction.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithRateLimit throttles store fetches client-side.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(o *options) { o.limiter = rate.NewLimiter(limit, burst) }
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *mapped.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Reconstituter resolves structured tree paths against an object store:
// every leaf entry is one object, keyed by its slash-joined path under
// the configured prefix. Fetched entries land in heap-backed frozen
// regions and are cached per key; concurrent lookups of the same key are
// deduplicated through singleflight, and every lookup returns its own
// reference on the cached region. Safe for concurrent readers.
type Reconstituter struct {
	store  Store
	prefix string
	shared *reconstituterShared
}

// reconstituterShared is common to every node of one tree.
type reconstituterShared struct {
	ctx     context.Context
	ser     *mapped.MemorySerializer
	group   singleflight.Group
	cache   regionCache
	limiter *rate.Limiter
	logger  *mapped.Logger
}

var _ mapped.StructuredReconstituter = (*Reconstituter)(nil)

// NewReconstituter returns the root node of a store-backed tree.
func NewReconstituter(store Store, opts ...Option) *Reconstituter {
	o := options{
		ctx:    context.Background(),
		logger: mapped.NoopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Reconstituter{
		store:  store,
		prefix: o.prefix,
		shared: &reconstituterShared{
			ctx:     o.ctx,
			ser:     mapped.NewMemorySerializer(),
			limiter: o.limiter,
			logger:  o.logger,
		},
	}
}

func (r *Reconstituter) GetRegion(name string) (mapped.FrozenMemoryRegion, error) {
	key := path.Join(r.prefix, name)

	if region, ok := r.shared.cache.get(key); ok {
		return region.Range(0, region.Len())
	}

	v, err, _ := r.shared.group.Do(key, func() (any, error) {
		if region, ok := r.shared.cache.get(key); ok {
			return region, nil
		}
		if r.shared.limiter != nil {
			if err := r.shared.limiter.Wait(r.shared.ctx); err != nil {
				return nil, err
			}
		}

		data, err := r.store.Get(r.shared.ctx, key)
		if err != nil {
			return nil, err
		}
		r.shared.logger.WithEntry(key).Debug("fetched blob", "bytes", len(data))

		dst, err := r.shared.ser.AllocateWritable(len(data), 1)
		if err != nil {
			return nil, err
		}
		copy(dst.Bytes(), data)
		region, err := dst.Freeze()
		if err != nil {
			return nil, err
		}
		r.shared.cache.put(key, region)
		return region, nil
	})
	if err != nil {
		return mapped.FrozenMemoryRegion{}, err
	}

	// The cache keeps its own reference; every caller gets one of its
	// own and closes it independently.
	region := v.(mapped.FrozenMemoryRegion)
	return region.Range(0, region.Len())
}

// GetStructure descends by extending the key prefix; object stores have
// no directories, so every structure exists implicitly.
func (r *Reconstituter) GetStructure(name string) (mapped.StructuredReconstituter, error) {
	return &Reconstituter{
		store:  r.store,
		prefix: path.Join(r.prefix, name),
		shared: r.shared,
	}, nil
}
