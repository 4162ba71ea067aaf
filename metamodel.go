// Package metamodel converts OData V4 service metadata, together with its vocabulary
// annotations, into a linked object graph and resolves metadata paths against it.
//
// The input is the flattened CSDL JSON document a V4 meta model exposes. A Converter
// turns it into a *ConvertedMetadata in which entity types know their properties,
// keys, navigation targets and bound actions, entity sets know their navigation
// bindings, and every element carries the annotation list that targets it.
//
// # Converting
//
// Conversions are cached by source identity, so repeated requests for the same
// model return the same graph instance:
//
//	converter := metamodel.NewConverter(metamodel.Config{})
//	doc, err := metamodel.ParseDocument(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	graph, err := converter.Convert(ctx, metamodel.NewDocumentSource(doc), nil)
//
// # Capabilities
//
// Capabilities switch off annotation content the consuming application cannot
// render. With IntentBasedNavigation disabled, for example, intent-based
// navigation entries are removed from UI.Identification and UI.LineItem:
//
//	caps := metamodel.Capabilities{metamodel.IntentBasedNavigation: false}
//	graph, err := converter.ConvertDocument(doc, caps)
//
// Capabilities only apply when a graph is built. A cached graph is returned as is.
//
// # Resolving paths
//
//	target := converter.ResolvePath(graph, "/Orders/$NavigationPropertyBinding/Items/Quantity@Common.Label")
package metamodel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nlstn/go-odata-metamodel/internal/annotations"
	"github.com/nlstn/go-odata-metamodel/internal/cache"
	"github.com/nlstn/go-odata-metamodel/internal/csdl"
	"github.com/nlstn/go-odata-metamodel/internal/metadata"
	"github.com/nlstn/go-odata-metamodel/internal/observability"
	"github.com/nlstn/go-odata-metamodel/internal/resolver"
)

// Config controls optional converter behaviours.
type Config struct {
	// Capabilities are used when Convert is called without capabilities.
	// Nil enables every capability.
	Capabilities Capabilities

	// Store holds converted graphs. Defaults to an unbounded in-memory store.
	Store CacheStore

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// CacheStore keeps converted graphs by source identity.
type CacheStore = cache.Store

// NewMemoryStore returns the default in-memory CacheStore.
func NewMemoryStore() CacheStore {
	return cache.NewMemoryStore()
}

// Converter converts metadata documents and caches the results.
type Converter struct {
	capabilities  Capabilities
	cache         *cache.Coordinator
	logger        *slog.Logger
	observability *observability.Config
}

// NewConverter creates a Converter with the given configuration.
func NewConverter(cfg Config) *Converter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		capabilities: cfg.Capabilities,
		cache:        cache.NewCoordinator(cfg.Store, logger),
		logger:       logger,
	}
}

// SetLogger sets a custom logger for the converter.
// If logger is nil, slog.Default() is used.
func (c *Converter) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger
	c.cache.SetLogger(logger)
}

// Convert returns the graph for src. The first call for an identity builds the
// graph with caps, or the configured capabilities when caps is nil; later calls
// return the cached graph until the identity is evicted.
func (c *Converter) Convert(ctx context.Context, src Source, caps Capabilities) (*ConvertedMetadata, error) {
	if src == nil {
		return nil, fmt.Errorf("metamodel: source is required")
	}
	identity := src.Identity()
	if caps == nil {
		caps = c.capabilities
	}

	return c.cache.GetOrBuild(ctx, identity, func(ctx context.Context) (*metadata.ConvertedMetadata, error) {
		doc, err := src.Document(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load metadata source %q: %w", identity, err)
		}
		return c.build(ctx, identity, doc, caps)
	})
}

// ConvertDocument converts doc without caching the result.
func (c *Converter) ConvertDocument(doc Document, caps Capabilities) (*ConvertedMetadata, error) {
	if caps == nil {
		caps = c.capabilities
	}
	return c.build(context.Background(), "", doc, caps)
}

func (c *Converter) build(ctx context.Context, identity string, doc csdl.Document, caps annotations.Capabilities) (*metadata.ConvertedMetadata, error) {
	ctx, conversion := c.observability.StartConversion(ctx, identity, caps.String())

	converted, err := metadata.Convert(doc, caps)
	if err != nil {
		conversion.End(ctx, err, 0, 0, 0)
		c.logger.Error("Metadata conversion failed", "identity", identity, "error", err)
		return nil, &ConversionError{Identity: identity, Err: err}
	}

	conversion.End(ctx, nil, len(converted.EntityTypes), len(converted.EntitySets), len(converted.AnnotationLists))
	c.logger.Info("Metadata converted",
		"identity", identity,
		"namespace", converted.Namespace,
		"entity_types", len(converted.EntityTypes),
		"entity_sets", len(converted.EntitySets),
		"annotation_lists", len(converted.AnnotationLists),
		"capabilities", caps.String(),
	)
	return converted, nil
}

// Evict drops the cached graph of the source with the given identity. Call it when
// the source model is disposed. It reports whether a graph was cached.
func (c *Converter) Evict(ctx context.Context, identity string) bool {
	return c.cache.Evict(ctx, identity)
}

// Cached returns the number of cached graphs.
func (c *Converter) Cached() int {
	return c.cache.Len()
}

// ResolvePath returns the object path points to in graph, or nil.
func (c *Converter) ResolvePath(graph *ConvertedMetadata, path string) any {
	return c.ResolvePathWithTrace(graph, path).Target
}

// ResolvePathWithTrace resolves path and returns the objects visited on the way.
func (c *Converter) ResolvePathWithTrace(graph *ConvertedMetadata, path string) Resolution {
	res := resolver.ResolveWithTrace(graph, path)
	if res.Target == nil {
		c.logger.Debug("Metadata path not resolved", "path", path, "visited", len(res.VisitedObjects))
	}
	return res
}

// InvolvedDataModelObjects describes the sets, types and navigation properties
// involved in reaching path. outer, when given, is the location the path is viewed
// from and is rebased onto the path's starting entity set.
func (c *Converter) InvolvedDataModelObjects(graph *ConvertedMetadata, path string, outer *DataModelObjectPath) *DataModelObjectPath {
	return resolver.InvolvedDataModelObjects(graph, path, outer)
}

// SupportsSemanticKey reports whether the entity type targeted by path declares a
// Common.SemanticKey.
func (c *Converter) SupportsSemanticKey(graph *ConvertedMetadata, path string) bool {
	return resolver.SupportsSemanticKey(graph, path)
}
