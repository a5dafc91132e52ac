package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/paulmach/osm"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

// FetchNetwork returns the street graph around center, from cache when
// possible. Remote failures wrap into *domain.FetchError; the network layer
// is the one layer whose absence callers treat as fatal.
func (f *Fetcher) FetchNetwork(ctx context.Context, center domain.GeoPoint, distMeters float64) (*domain.StreetGraph, error) {
	key := domain.GraphCacheKey(center, distMeters)

	var cachedGraph domain.StreetGraph
	if f.cached(ctx, key, "graph", &cachedGraph) {
		return &cachedGraph, nil
	}

	if err := f.networkPace.Wait(ctx); err != nil {
		return nil, err
	}

	slog.Info("fetching street network", "lat", center.Lat, "lon", center.Lon, "dist_m", distMeters)
	body, err := f.client.Query(ctx, f.networkQL(center, distMeters), "network")
	if err != nil {
		return nil, &domain.FetchError{Layer: "street_network", Err: err}
	}

	o := &osm.OSM{}
	if err := json.Unmarshal(body, o); err != nil {
		return nil, &domain.FetchError{Layer: "street_network", Err: fmt.Errorf("decode overpass response: %w", err)}
	}

	graph := buildGraph(o)
	if len(graph.Edges) == 0 {
		return nil, &domain.FetchError{
			Layer: "street_network",
			Err:   fmt.Errorf("no streets within %.0fm of %.4f,%.4f", distMeters, center.Lat, center.Lon),
		}
	}

	f.store(ctx, key, graph)
	slog.Info("street network fetched", "nodes", len(graph.Nodes), "edges", len(graph.Edges))
	return graph, nil
}

// buildGraph assembles way polylines into a street graph. Ways are kept as
// single edges with their full shape; endpoint nodes anchor the edge in the
// node table.
func buildGraph(o *osm.OSM) *domain.StreetGraph {
	locs := make(map[int64]domain.GeoPoint, len(o.Nodes))
	for _, n := range o.Nodes {
		locs[int64(n.ID)] = domain.GeoPoint{Lat: n.Lat, Lon: n.Lon}
	}

	graph := &domain.StreetGraph{
		Nodes: make(map[int64]domain.GeoPoint),
		Edges: make([]domain.GraphEdge, 0, len(o.Ways)),
	}
	for _, w := range o.Ways {
		ids := make([]int64, 0, len(w.Nodes))
		shape := make([]domain.GeoPoint, 0, len(w.Nodes))
		for _, wn := range w.Nodes {
			id := int64(wn.ID)
			if p, ok := locs[id]; ok {
				ids = append(ids, id)
				shape = append(shape, p)
			}
		}
		if len(shape) < 2 {
			continue
		}

		from, to := ids[0], ids[len(ids)-1]
		graph.Nodes[from] = locs[from]
		graph.Nodes[to] = locs[to]
		graph.Edges = append(graph.Edges, domain.GraphEdge{
			From:  from,
			To:    to,
			Shape: domain.GeoLineString{Coordinates: shape},
			Tags:  domain.NewTags(w.Tags.Map()),
		})
	}
	return graph
}
