package project

import "github.com/obdakit/graphol-go/internal/graphol"

// EventKind identifies the mutation an Event describes.
type EventKind string

const (
	EventDiagramAdded   EventKind = "diagram_added"
	EventDiagramRemoved EventKind = "diagram_removed"
	EventItemAdded      EventKind = "item_added"
	EventItemRemoved    EventKind = "item_removed"
	EventMetaAdded      EventKind = "meta_added"
	EventMetaRemoved    EventKind = "meta_removed"
)

// Event is a change notification raised by an Index mutator.
//
// Diagram is set for diagram and item events, Item for item events, and
// Predicate for meta events.
type Event struct {
	Kind      EventKind
	Diagram   string
	Item      graphol.Item
	Predicate PredicateKey
}

// Subscribe registers a handler for all future change notifications.
//
// Handlers run synchronously on the mutating goroutine, after the structural
// update has completed and the index lock has been released: ordering
// guarantees (diagram before its items on add, items before the diagram on
// remove) are preserved, and handlers may query the index reentrantly.
func (px *Index) Subscribe(handler func(Event)) {
	px.mu.Lock()
	defer px.mu.Unlock()
	px.handlers = append(px.handlers, handler)
}

func (px *Index) emit(ev Event) {
	px.mu.RLock()
	handlers := px.handlers
	px.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}
