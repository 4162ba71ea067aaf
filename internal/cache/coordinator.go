package cache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nlstn/go-odata-metamodel/internal/metadata"
	"github.com/nlstn/go-odata-metamodel/internal/observability"
)

// BuildFunc converts the model behind an identity.
type BuildFunc func(ctx context.Context) (*metadata.ConvertedMetadata, error)

// Coordinator returns one shared graph per identity. Concurrent requests for an
// identity that is not cached yet share a single build; failed builds are not
// stored, so the next request retries. A build that is still running when its
// identity is evicted hands its result to its waiters but never stores it.
type Coordinator struct {
	store  Store
	group  singleflight.Group
	logger *slog.Logger
	obs    *observability.Config

	mu          sync.Mutex
	generations map[string]uint64
	running     map[string]int
}

// NewCoordinator creates a coordinator backed by store. A nil store gets a MemoryStore
// and a nil logger gets slog.Default().
func NewCoordinator(store Store, logger *slog.Logger) *Coordinator {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:       store,
		logger:      logger,
		generations: make(map[string]uint64),
		running:     make(map[string]int),
	}
}

// SetLogger replaces the logger. nil resets it to slog.Default().
func (c *Coordinator) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger
}

// SetObservability sets where cache hits, misses and evictions are recorded.
func (c *Coordinator) SetObservability(cfg *observability.Config) {
	c.obs = cfg
}

// GetOrBuild returns the cached graph for identity, or runs build once and caches
// its result. Callers waiting on someone else's build give up when ctx is done;
// the build itself keeps running and still populates the cache.
func (c *Coordinator) GetOrBuild(ctx context.Context, identity string, build BuildFunc) (*metadata.ConvertedMetadata, error) {
	if converted, ok := c.store.Load(identity); ok {
		c.obs.RecordCacheHit(ctx)
		return converted, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(identity, func() (any, error) {
		if converted, ok := c.store.Load(identity); ok {
			return converted, nil
		}
		c.obs.RecordCacheMiss(buildCtx)

		generation := c.startBuild(identity)
		converted, err := build(buildCtx)
		stored := c.finishBuild(identity, generation, converted, err)
		if err != nil {
			c.logger.Warn("Metadata conversion failed", "identity", identity, "error", err)
			return nil, err
		}
		if stored {
			c.logger.Debug("Metadata conversion cached", "identity", identity, "entity_types", len(converted.EntityTypes))
		} else {
			c.logger.Debug("Metadata conversion evicted while building", "identity", identity)
		}
		return converted, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.obs.RecordCacheHit(ctx)
		}
		converted, _ := res.Val.(*metadata.ConvertedMetadata)
		return converted, nil
	}
}

func (c *Coordinator) startBuild(identity string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running[identity]++
	return c.generations[identity]
}

// finishBuild stores a successful result unless identity was evicted since the
// build started. It reports whether the result was stored.
func (c *Coordinator) finishBuild(identity string, generation uint64, converted *metadata.ConvertedMetadata, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running[identity]--
	if c.running[identity] == 0 {
		delete(c.running, identity)
	}
	if err != nil || c.generations[identity] != generation {
		return false
	}
	c.store.Store(identity, converted)
	return true
}

// Evict drops the cached graph for identity and discards the result of any build
// for it that is still running. It reports whether a graph was cached or a build
// was running.
func (c *Coordinator) Evict(ctx context.Context, identity string) bool {
	c.mu.Lock()
	building := c.running[identity] > 0
	if building {
		c.generations[identity]++
	} else {
		delete(c.generations, identity)
	}
	deleted := c.store.Delete(identity)
	c.mu.Unlock()

	// Later requests start a new build instead of joining the discarded one.
	c.group.Forget(identity)

	if !deleted && !building {
		return false
	}
	c.obs.RecordEviction(ctx)
	c.logger.Debug("Metadata conversion evicted", "identity", identity)
	return true
}

// Len returns the number of cached graphs.
func (c *Coordinator) Len() int {
	return c.store.Len()
}
