package project

import "github.com/obdakit/graphol-go/internal/graphol"

// Diagram returns the diagram with the given id, or nil.
func (px *Index) Diagram(id string) *graphol.Diagram {
	px.mu.RLock()
	defer px.mu.RUnlock()
	return px.diagrams[id]
}

// Diagrams returns all diagrams registered in the project.
func (px *Index) Diagrams() []*graphol.Diagram {
	px.mu.RLock()
	defer px.mu.RUnlock()
	diagrams := make([]*graphol.Diagram, 0, len(px.diagrams))
	for _, d := range px.diagrams {
		diagrams = append(diagrams, d)
	}
	return diagrams
}

// Item returns the item with the given id in the given diagram, or nil.
func (px *Index) Item(diagram, id string) graphol.Item {
	px.mu.RLock()
	defer px.mu.RUnlock()
	return px.items[diagram][id]
}

// Node returns the node with the given id in the given diagram, or nil.
func (px *Index) Node(diagram, id string) graphol.Item {
	px.mu.RLock()
	defer px.mu.RUnlock()
	return px.nodes[diagram][id]
}

// Edge returns the edge with the given id in the given diagram, or nil.
func (px *Index) Edge(diagram, id string) graphol.Item {
	px.mu.RLock()
	defer px.mu.RUnlock()
	return px.edges[diagram][id]
}

// Items returns all items in the given diagram. With no argument it returns
// every item in the project. Unknown diagrams yield an empty result.
func (px *Index) Items(diagram ...string) []graphol.Item {
	px.mu.RLock()
	defer px.mu.RUnlock()
	return collect(px.items, diagram...)
}

// Nodes returns all nodes in the given diagram, or in the whole project when
// no diagram is given.
func (px *Index) Nodes(diagram ...string) []graphol.Item {
	px.mu.RLock()
	defer px.mu.RUnlock()
	return collect(px.nodes, diagram...)
}

// Edges returns all edges in the given diagram, or in the whole project when
// no diagram is given.
func (px *Index) Edges(diagram ...string) []graphol.Item {
	px.mu.RLock()
	defer px.mu.RUnlock()
	return collect(px.edges, diagram...)
}

// IsEmpty returns true iff no item exists in any diagram. Registered but
// empty diagrams do not count as content.
func (px *Index) IsEmpty() bool {
	px.mu.RLock()
	defer px.mu.RUnlock()
	return len(px.items) == 0
}

// CountOptions selects what Count counts.
//
// Item and Predicate are mutually exclusive: Item counts node/edge
// occurrences of that type, Predicate counts distinct predicate names of
// that type. With both zero the total item count is returned. Diagram
// optionally restricts any of the three modes to one diagram.
type CountOptions struct {
	Item      graphol.ItemType
	Predicate graphol.ItemType
	Diagram   string
}

// Count counts items or predicates per the given options. Supplying both
// the Item and Predicate selectors is a contract violation and returns
// ErrAmbiguousSelector; addressing unknown diagrams, types or names simply
// counts zero.
func (px *Index) Count(opts CountOptions) (int, error) {
	if opts.Item != "" && opts.Predicate != "" {
		return 0, ErrAmbiguousSelector
	}

	px.mu.RLock()
	defer px.mu.RUnlock()

	switch {
	case opts.Item != "":
		if opts.Diagram != "" {
			return len(px.types[opts.Diagram][opts.Item]), nil
		}
		total := 0
		for _, byType := range px.types {
			total += len(byType[opts.Item])
		}
		return total, nil

	case opts.Predicate != "":
		total := 0
		for key, entry := range px.predicates {
			if key.Type != opts.Predicate {
				continue
			}
			if opts.Diagram != "" {
				if len(entry.nodes[opts.Diagram]) > 0 {
					total++
				}
			} else if len(entry.nodes) > 0 {
				total++
			}
		}
		return total, nil

	default:
		if opts.Diagram != "" {
			return len(px.items[opts.Diagram]), nil
		}
		total := 0
		for _, bucket := range px.items {
			total += len(bucket)
		}
		return total, nil
	}
}

// PredicateFilter narrows a Predicates query. Zero values widen the match:
// an empty Type matches every predicate type, an empty Name every predicate
// name, an empty Diagram every diagram.
type PredicateFilter struct {
	Type    graphol.ItemType
	Name    string
	Diagram string
}

// Predicates returns the predicate node occurrences matching the filter,
// unioned across diagrams and types where the filter leaves the dimension
// open. Unknown keys yield an empty result, never an error.
func (px *Index) Predicates(filter PredicateFilter) []graphol.Item {
	px.mu.RLock()
	defer px.mu.RUnlock()

	var result []graphol.Item
	for key, entry := range px.predicates {
		if filter.Type != "" && key.Type != filter.Type {
			continue
		}
		if filter.Name != "" && key.Name != filter.Name {
			continue
		}
		if filter.Diagram != "" {
			for _, item := range entry.nodes[filter.Diagram] {
				result = append(result, item)
			}
			continue
		}
		for _, bucket := range entry.nodes {
			for _, item := range bucket {
				result = append(result, item)
			}
		}
	}
	return result
}

// Metas returns the predicate keys that currently have stored metadata,
// optionally restricted to the given type tags.
func (px *Index) Metas(types ...graphol.ItemType) []PredicateKey {
	px.mu.RLock()
	defer px.mu.RUnlock()

	var keys []PredicateKey
	for key, entry := range px.predicates {
		if entry.meta == nil {
			continue
		}
		if len(types) > 0 && !containsType(types, key.Type) {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// Stats returns a summary of index size.
func (px *Index) Stats() map[string]int {
	px.mu.RLock()
	defer px.mu.RUnlock()

	items, nodes, edges := 0, 0, 0
	for _, bucket := range px.items {
		items += len(bucket)
	}
	for _, bucket := range px.nodes {
		nodes += len(bucket)
	}
	for _, bucket := range px.edges {
		edges += len(bucket)
	}
	predicates, metas := 0, 0
	for _, entry := range px.predicates {
		if len(entry.nodes) > 0 {
			predicates++
		}
		if entry.meta != nil {
			metas++
		}
	}
	return map[string]int{
		"diagrams":   len(px.diagrams),
		"items":      items,
		"nodes":      nodes,
		"edges":      edges,
		"predicates": predicates,
		"metas":      metas,
	}
}

// collect gathers one diagram bucket or the union of all buckets.
// Must be called with at least a read lock held.
func collect(view map[string]map[string]graphol.Item, diagram ...string) []graphol.Item {
	if len(diagram) > 0 && diagram[0] != "" {
		bucket := view[diagram[0]]
		result := make([]graphol.Item, 0, len(bucket))
		for _, item := range bucket {
			result = append(result, item)
		}
		return result
	}
	var result []graphol.Item
	for _, bucket := range view {
		for _, item := range bucket {
			result = append(result, item)
		}
	}
	return result
}

func containsType(types []graphol.ItemType, t graphol.ItemType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
