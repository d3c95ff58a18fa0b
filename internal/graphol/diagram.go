package graphol

import "fmt"

// Diagram is one canvas of the ontology project, owning a collection of
// nodes and edges. The diagram owns its items' lifetime; the project index
// holds non-owning references keyed by diagram and item id.
type Diagram struct {
	// DiagramID is the diagram identifier, unique within the project.
	DiagramID string

	// Name is the human readable diagram name.
	Name string

	items map[string]Item
	idgen *IDGenerator
}

// NewDiagram creates an empty diagram with the given identifier.
func NewDiagram(id string) *Diagram {
	return &Diagram{
		DiagramID: id,
		Name:      id,
		items:     make(map[string]Item),
		idgen:     NewIDGenerator(),
	}
}

// ID returns the diagram identifier.
func (d *Diagram) ID() string { return d.DiagramID }

// AddItem stores the item in the diagram, replacing any item with the same id.
func (d *Diagram) AddItem(item Item) {
	d.items[item.ID()] = item
}

// RemoveItem drops the item with the given id. Unknown ids are a no-op.
func (d *Diagram) RemoveItem(id string) {
	delete(d.items, id)
}

// Item returns the item with the given id, or nil.
func (d *Diagram) Item(id string) Item {
	return d.items[id]
}

// Items returns all items currently owned by the diagram.
func (d *Diagram) Items() []Item {
	items := make([]Item, 0, len(d.items))
	for _, item := range d.items {
		items = append(items, item)
	}
	return items
}

// NewNode creates a node owned by this diagram with a generated id.
func (d *Diagram) NewNode(typ ItemType, label string) *Node {
	n := &Node{
		NodeID:    d.idgen.Next("n"),
		DiagramID: d.DiagramID,
		NodeType:  typ,
		Label:     label,
	}
	d.AddItem(n)
	return n
}

// NewEdge creates an edge owned by this diagram with a generated id.
func (d *Diagram) NewEdge(typ ItemType, source, target string) *Edge {
	e := &Edge{
		EdgeID:    d.idgen.Next("e"),
		DiagramID: d.DiagramID,
		EdgeType:  typ,
		Source:    source,
		Target:    target,
	}
	d.AddItem(e)
	return e
}

// IDGenerator produces incremental string identifiers keyed by prefix
// (n0, n1, ..., e0, e1, ...). It is owned by the diagram that uses it,
// not shared globally.
type IDGenerator struct {
	next map[string]int
}

// NewIDGenerator creates an empty generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{next: make(map[string]int)}
}

// Next returns the next identifier for the given prefix.
func (g *IDGenerator) Next(prefix string) string {
	id := fmt.Sprintf("%s%d", prefix, g.next[prefix])
	g.next[prefix]++
	return id
}
