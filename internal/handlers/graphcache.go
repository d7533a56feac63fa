package handlers

import (
	"context"
	"sync"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/routegraph"
)

// GraphLoader is the slice of the store the cache needs.
type GraphLoader interface {
	LoadGraph(ctx context.Context) (*routegraph.Graph, error)
}

// GraphCache holds the persisted distance graph in memory for request-time
// lookups. The engine itself is pure; caching is this layer's concern. The
// cache is replaced wholesale after each schedule import, so readers always
// see a consistent graph.
type GraphCache struct {
	mu     sync.RWMutex
	graph  *routegraph.Graph
	loader GraphLoader
}

// NewGraphCache builds a cache over the given loader, starting empty.
func NewGraphCache(loader GraphLoader) *GraphCache {
	return &GraphCache{
		graph:  routegraph.New(),
		loader: loader,
	}
}

// Reload re-reads the persisted graph and swaps it in.
func (c *GraphCache) Reload(ctx context.Context) error {
	g, err := c.loader.LoadGraph(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.graph = g
	c.mu.Unlock()
	return nil
}

// Graph returns the current graph snapshot.
func (c *GraphCache) Graph() *routegraph.Graph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graph
}

// Resolve implements pricing.DistanceSource against the cached graph.
func (c *GraphCache) Resolve(from, to string) (float64, bool) {
	return c.Graph().Resolve(from, to)
}
