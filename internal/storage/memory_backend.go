package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/obdakit/graphol-go/internal/graphol"
	"github.com/obdakit/graphol-go/internal/project"
)

// MemoryBackend implements Backend with plain maps. It is used in tests
// and as a lightweight mirror target when on-disk persistence is not
// wanted.
type MemoryBackend struct {
	mu       sync.RWMutex
	diagrams map[string]string                         // id -> name
	items    map[string]graphol.Item                   // diagram/id -> item
	metas    map[project.PredicateKey]graphol.PredicateMeta
}

// NewMemoryBackend creates a new empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		diagrams: make(map[string]string),
		items:    make(map[string]graphol.Item),
		metas:    make(map[project.PredicateKey]graphol.PredicateMeta),
	}
}

// Initialize is a no-op for the in-memory backend.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error { return nil }

// Close is a no-op for the in-memory backend.
func (m *MemoryBackend) Close() error { return nil }

// Snapshot replaces the backend content with the current index content.
func (m *MemoryBackend) Snapshot(ctx context.Context, px *project.Index) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.diagrams = make(map[string]string)
	m.items = make(map[string]graphol.Item)
	m.metas = make(map[project.PredicateKey]graphol.PredicateMeta)

	for _, d := range px.Diagrams() {
		m.diagrams[d.ID()] = d.Name
	}
	for _, item := range px.Items() {
		m.items[docKey(item.Diagram(), item.ID())] = item
	}
	for _, key := range px.Metas() {
		m.metas[key] = px.Meta(key.Type, key.Name)
	}
	return nil
}

// Restore replays the stored project into the given index.
func (m *MemoryBackend) Restore(ctx context.Context, px *project.Index) error {
	m.mu.RLock()
	diagrams := make(map[string]*graphol.Diagram, len(m.diagrams))
	for id, name := range m.diagrams {
		d := graphol.NewDiagram(id)
		d.Name = name
		diagrams[id] = d
	}
	for _, item := range m.items {
		d, ok := diagrams[item.Diagram()]
		if !ok {
			d = graphol.NewDiagram(item.Diagram())
			diagrams[item.Diagram()] = d
		}
		d.AddItem(item)
	}
	metas := make([]graphol.PredicateMeta, 0, len(m.metas))
	for _, meta := range m.metas {
		metas = append(metas, meta)
	}
	m.mu.RUnlock()

	for _, d := range diagrams {
		px.AddDiagram(d)
	}
	for _, meta := range metas {
		px.AddMeta(meta.Type, meta.Name, meta)
	}
	return nil
}

// PutDiagram stores a diagram record.
func (m *MemoryBackend) PutDiagram(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diagrams[id] = name
	return nil
}

// DeleteDiagram removes a diagram record.
func (m *MemoryBackend) DeleteDiagram(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.diagrams, id)
	return nil
}

// PutItem stores one item record.
func (m *MemoryBackend) PutItem(ctx context.Context, item graphol.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[docKey(item.Diagram(), item.ID())] = item
	return nil
}

// DeleteItem removes one item record.
func (m *MemoryBackend) DeleteItem(ctx context.Context, item graphol.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, docKey(item.Diagram(), item.ID()))
	return nil
}

// PutMeta stores predicate metadata.
func (m *MemoryBackend) PutMeta(ctx context.Context, meta graphol.PredicateMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metas[project.PredicateKey{Type: meta.Type, Name: meta.Name}] = meta
	return nil
}

// DeleteMeta removes predicate metadata.
func (m *MemoryBackend) DeleteMeta(ctx context.Context, typ graphol.ItemType, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.metas, project.PredicateKey{Type: typ, Name: name})
	return nil
}

// Search performs full-text search over stored predicate occurrences.
func (m *MemoryBackend) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return []SearchResult{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []SearchResult
	for _, item := range m.items {
		if !item.IsPredicate() {
			continue
		}

		text := item.Text()
		if meta, ok := m.metas[project.PredicateKey{Type: item.Type(), Name: item.Text()}]; ok {
			text += " " + meta.Description
		}

		docTokens := make(map[string]int)
		for _, token := range tokenize(text) {
			docTokens[token]++
		}

		score := 0.0
		for _, token := range queryTokens {
			score += float64(docTokens[token])
		}
		if score > 0 {
			results = append(results, SearchResult{
				NodeID:  item.ID(),
				Diagram: item.Diagram(),
				Type:    item.Type(),
				Name:    item.Text(),
				Score:   score,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].NodeID < results[j].NodeID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ItemCount returns the number of stored item records.
func (m *MemoryBackend) ItemCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// DiagramCount returns the number of stored diagram records.
func (m *MemoryBackend) DiagramCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.diagrams)
}
