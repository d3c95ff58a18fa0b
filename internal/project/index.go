// Package project provides the in-memory index for a Graphol ontology project.
//
// The Index maintains four synchronized views over the set of items present
// in the project: by diagram, by diagram and type, by node/edge kind, and by
// predicate identity across diagrams. It is mutated exclusively through
// AddItem/RemoveItem style notifications raised by the diagram layer, and
// answers count/lookup/enumeration queries in time proportional to the
// result rather than the whole project.
package project

import (
	"sync"

	"github.com/obdakit/graphol-go/internal/graphol"
)

// PredicateKey identifies one predicate across the whole project: two nodes
// with the same key in different diagrams are occurrences of the same
// predicate.
type PredicateKey struct {
	// Type is the predicate type tag.
	Type graphol.ItemType `json:"type"`

	// Name is the predicate display name.
	Name string `json:"name"`
}

// predicateEntry holds the per-diagram node occurrences of one predicate and
// its optional metadata. Metadata presence is independent of occurrence
// presence: the entry survives with empty occurrences as long as metadata is
// stored, and vice versa.
type predicateEntry struct {
	nodes map[string]map[string]graphol.Item
	meta  *graphol.PredicateMeta
}

// Index is the project index.
//
// The nested maps are created lazily on insert and pruned as soon as they
// become empty, so iteration never yields stale empty buckets and emptiness
// checks cost O(non-empty structure).
//
// All methods are safe for concurrent use. Event notifications are delivered
// synchronously after the structural update completes and the internal lock
// has been released, so subscribers may query the index from their handler.
type Index struct {
	mu sync.RWMutex

	diagrams   map[string]*graphol.Diagram
	items      map[string]map[string]graphol.Item
	types      map[string]map[graphol.ItemType]map[string]graphol.Item
	nodes      map[string]map[string]graphol.Item
	edges      map[string]map[string]graphol.Item
	predicates map[PredicateKey]*predicateEntry

	handlers []func(Event)
}

// NewIndex creates an empty project index.
func NewIndex() *Index {
	return &Index{
		diagrams:   make(map[string]*graphol.Diagram),
		items:      make(map[string]map[string]graphol.Item),
		types:      make(map[string]map[graphol.ItemType]map[string]graphol.Item),
		nodes:      make(map[string]map[string]graphol.Item),
		edges:      make(map[string]map[string]graphol.Item),
		predicates: make(map[PredicateKey]*predicateEntry),
	}
}

// AddDiagram registers the diagram and indexes every item it currently owns.
// Returns false if a diagram with the same id is already known (no-op).
//
// The diagram-added notification is emitted strictly before any of the
// per-item notifications.
func (px *Index) AddDiagram(diagram *graphol.Diagram) bool {
	if diagram == nil {
		return false
	}
	px.mu.Lock()
	if _, ok := px.diagrams[diagram.ID()]; ok {
		px.mu.Unlock()
		return false
	}
	px.diagrams[diagram.ID()] = diagram
	px.mu.Unlock()

	px.emit(Event{Kind: EventDiagramAdded, Diagram: diagram.ID()})
	for _, item := range diagram.Items() {
		// Items are owned by the diagram being added, so the foreign-item
		// contract check cannot fire here.
		_, _ = px.AddItem(diagram, item)
	}
	return true
}

// RemoveDiagram removes every item indexed under the diagram, then the
// diagram itself. Returns false if the diagram is unknown (no-op).
//
// Per-item notifications are emitted before the diagram-removed notification.
func (px *Index) RemoveDiagram(diagram *graphol.Diagram) bool {
	if diagram == nil {
		return false
	}
	px.mu.RLock()
	_, known := px.diagrams[diagram.ID()]
	px.mu.RUnlock()
	if !known {
		return false
	}

	// Snapshot first: removal mutates the structures being iterated.
	for _, item := range px.Items(diagram.ID()) {
		_, _ = px.RemoveItem(diagram, item)
	}

	px.mu.Lock()
	delete(px.diagrams, diagram.ID())
	px.mu.Unlock()

	px.emit(Event{Kind: EventDiagramRemoved, Diagram: diagram.ID()})
	return true
}

// AddItem indexes the item under the given diagram. Returns false if an item
// with the same id is already indexed in that diagram (idempotent add).
//
// Passing an item whose Diagram() does not match the given diagram is a
// caller bug and is rejected with ErrForeignItem rather than indexed under
// the wrong key.
func (px *Index) AddItem(diagram *graphol.Diagram, item graphol.Item) (bool, error) {
	if diagram == nil || item == nil {
		return false, ErrNilReference
	}
	if item.Diagram() != diagram.ID() {
		return false, ErrForeignItem
	}

	did := diagram.ID()
	px.mu.Lock()
	if _, ok := px.items[did][item.ID()]; ok {
		px.mu.Unlock()
		return false, nil
	}

	putItem(px.items, did, item)

	byType := px.types[did]
	if byType == nil {
		byType = make(map[graphol.ItemType]map[string]graphol.Item)
		px.types[did] = byType
	}
	putItem2(byType, item.Type(), item)

	if item.IsNode() {
		putItem(px.nodes, did, item)
		if item.IsPredicate() {
			key := PredicateKey{Type: item.Type(), Name: item.Text()}
			entry := px.predicates[key]
			if entry == nil {
				entry = &predicateEntry{nodes: make(map[string]map[string]graphol.Item)}
				px.predicates[key] = entry
			}
			putItem(entry.nodes, did, item)
		}
	}
	if item.IsEdge() {
		putItem(px.edges, did, item)
	}
	px.mu.Unlock()

	px.emit(Event{Kind: EventItemAdded, Diagram: did, Item: item})
	return true, nil
}

// RemoveItem is the structural inverse of AddItem: it drops the item from
// every view, pruning nested containers that become empty. Removing an item
// that is not indexed is a no-op (returns false).
func (px *Index) RemoveItem(diagram *graphol.Diagram, item graphol.Item) (bool, error) {
	if diagram == nil || item == nil {
		return false, ErrNilReference
	}
	if item.Diagram() != diagram.ID() {
		return false, ErrForeignItem
	}

	did := diagram.ID()
	px.mu.Lock()
	if _, ok := px.items[did][item.ID()]; !ok {
		px.mu.Unlock()
		return false, nil
	}

	dropItem(px.items, did, item.ID())

	if byType := px.types[did]; byType != nil {
		dropItem2(byType, item.Type(), item.ID())
		if len(byType) == 0 {
			delete(px.types, did)
		}
	}

	if item.IsNode() {
		dropItem(px.nodes, did, item.ID())
		if item.IsPredicate() {
			key := PredicateKey{Type: item.Type(), Name: item.Text()}
			if entry := px.predicates[key]; entry != nil {
				dropItem(entry.nodes, did, item.ID())
				if len(entry.nodes) == 0 && entry.meta == nil {
					delete(px.predicates, key)
				}
			}
		}
	}
	if item.IsEdge() {
		dropItem(px.edges, did, item.ID())
	}
	px.mu.Unlock()

	px.emit(Event{Kind: EventItemRemoved, Diagram: did, Item: item})
	return true, nil
}

// AddMeta stores metadata for the given predicate identity, overwriting any
// previous value. The predicate entry is created if no occurrence of the
// predicate exists yet.
func (px *Index) AddMeta(typ graphol.ItemType, name string, meta graphol.PredicateMeta) {
	key := PredicateKey{Type: typ, Name: name}
	px.mu.Lock()
	entry := px.predicates[key]
	if entry == nil {
		entry = &predicateEntry{nodes: make(map[string]map[string]graphol.Item)}
		px.predicates[key] = entry
	}
	entry.meta = &meta
	px.mu.Unlock()

	px.emit(Event{Kind: EventMetaAdded, Predicate: key})
}

// RemoveMeta deletes the metadata stored for the given predicate identity,
// leaving its node occurrences untouched. Removing absent metadata is a
// no-op (returns false).
func (px *Index) RemoveMeta(typ graphol.ItemType, name string) bool {
	key := PredicateKey{Type: typ, Name: name}
	px.mu.Lock()
	entry := px.predicates[key]
	if entry == nil || entry.meta == nil {
		px.mu.Unlock()
		return false
	}
	entry.meta = nil
	if len(entry.nodes) == 0 {
		delete(px.predicates, key)
	}
	px.mu.Unlock()

	px.emit(Event{Kind: EventMetaRemoved, Predicate: key})
	return true
}

// Meta returns the metadata stored for the given predicate identity, or a
// freshly constructed default value if none is stored.
func (px *Index) Meta(typ graphol.ItemType, name string) graphol.PredicateMeta {
	px.mu.RLock()
	defer px.mu.RUnlock()
	if entry := px.predicates[PredicateKey{Type: typ, Name: name}]; entry != nil && entry.meta != nil {
		return *entry.meta
	}
	return graphol.NewPredicateMeta(typ, name)
}

// HasMeta reports whether metadata is stored for the given predicate identity.
func (px *Index) HasMeta(typ graphol.ItemType, name string) bool {
	px.mu.RLock()
	defer px.mu.RUnlock()
	entry := px.predicates[PredicateKey{Type: typ, Name: name}]
	return entry != nil && entry.meta != nil
}

// Nested map helpers. Keeping lazy creation and prune-on-empty here means
// the per-view bookkeeping in AddItem/RemoveItem cannot drift apart.

func putItem(view map[string]map[string]graphol.Item, key string, item graphol.Item) {
	bucket := view[key]
	if bucket == nil {
		bucket = make(map[string]graphol.Item)
		view[key] = bucket
	}
	bucket[item.ID()] = item
}

func dropItem(view map[string]map[string]graphol.Item, key, id string) {
	if bucket := view[key]; bucket != nil {
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(view, key)
		}
	}
}

func putItem2(view map[graphol.ItemType]map[string]graphol.Item, key graphol.ItemType, item graphol.Item) {
	bucket := view[key]
	if bucket == nil {
		bucket = make(map[string]graphol.Item)
		view[key] = bucket
	}
	bucket[item.ID()] = item
}

func dropItem2(view map[graphol.ItemType]map[string]graphol.Item, key graphol.ItemType, id string) {
	if bucket := view[key]; bucket != nil {
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(view, key)
		}
	}
}
