// Package graphol provides the data model for Graphol ontology diagrams.
//
// It defines the item types that appear on a diagram (predicate nodes,
// constructor nodes and edges), the Diagram container that owns them, and
// the predicate metadata attached to predicate identities.
package graphol

// ItemType represents the kind of a diagram item.
type ItemType string

// Predicate nodes denote OWL entities and share a (type, name) identity
// across diagrams.
const (
	ConceptNode     ItemType = "concept_node"
	RoleNode        ItemType = "role_node"
	AttributeNode   ItemType = "attribute_node"
	ValueDomainNode ItemType = "value_domain_node"
	IndividualNode  ItemType = "individual_node"
)

// Constructor nodes build anonymous expressions and carry no predicate name.
const (
	DomainRestrictionNode   ItemType = "domain_restriction_node"
	RangeRestrictionNode    ItemType = "range_restriction_node"
	UnionNode               ItemType = "union_node"
	DisjointUnionNode       ItemType = "disjoint_union_node"
	IntersectionNode        ItemType = "intersection_node"
	ComplementNode          ItemType = "complement_node"
	EnumerationNode         ItemType = "enumeration_node"
	RoleChainNode           ItemType = "role_chain_node"
	RoleInverseNode         ItemType = "role_inverse_node"
	DatatypeRestrictionNode ItemType = "datatype_restriction_node"
	PropertyAssertionNode   ItemType = "property_assertion_node"
	FacetNode               ItemType = "facet_node"
)

const (
	InclusionEdge   ItemType = "inclusion_edge"
	EquivalenceEdge ItemType = "equivalence_edge"
	InputEdge       ItemType = "input_edge"
	MembershipEdge  ItemType = "membership_edge"
)

// IsNode returns true if the item type denotes a node.
func (t ItemType) IsNode() bool {
	switch t {
	case InclusionEdge, EquivalenceEdge, InputEdge, MembershipEdge:
		return false
	}
	return t != ""
}

// IsEdge returns true if the item type denotes an edge.
func (t ItemType) IsEdge() bool {
	switch t {
	case InclusionEdge, EquivalenceEdge, InputEdge, MembershipEdge:
		return true
	}
	return false
}

// IsPredicate returns true if the item type denotes an OWL predicate.
func (t ItemType) IsPredicate() bool {
	switch t {
	case ConceptNode, RoleNode, AttributeNode, ValueDomainNode, IndividualNode:
		return true
	}
	return false
}

// Item is a node or an edge within a diagram.
//
// Identity attributes are immutable for the lifetime of the item inside the
// index: renaming a predicate is modeled as remove-then-add under the new
// name, never as an in-place key update.
type Item interface {
	// ID is the item identifier, unique within its diagram.
	ID() string

	// Diagram is the identifier of the diagram owning this item.
	Diagram() string

	// Type is the item kind.
	Type() ItemType

	// IsNode reports whether the item is a node.
	IsNode() bool

	// IsEdge reports whether the item is an edge.
	IsEdge() bool

	// IsPredicate reports whether the item denotes an OWL predicate.
	IsPredicate() bool

	// Text is the predicate display name. Empty for non-predicate items.
	Text() string
}

// Node represents a node occurrence on a diagram.
type Node struct {
	// NodeID is the node identifier, unique within the diagram.
	NodeID string `json:"id"`

	// DiagramID is the identifier of the owning diagram.
	DiagramID string `json:"diagram"`

	// NodeType is the node kind.
	NodeType ItemType `json:"type"`

	// Label is the predicate display name (predicate nodes only).
	Label string `json:"label,omitempty"`
}

// ID implements Item.
func (n *Node) ID() string { return n.NodeID }

// Diagram implements Item.
func (n *Node) Diagram() string { return n.DiagramID }

// Type implements Item.
func (n *Node) Type() ItemType { return n.NodeType }

// IsNode implements Item.
func (n *Node) IsNode() bool { return true }

// IsEdge implements Item.
func (n *Node) IsEdge() bool { return false }

// IsPredicate implements Item.
func (n *Node) IsPredicate() bool { return n.NodeType.IsPredicate() }

// Text implements Item.
func (n *Node) Text() string { return n.Label }

// Edge represents a directed edge between two nodes on a diagram.
type Edge struct {
	// EdgeID is the edge identifier, unique within the diagram.
	EdgeID string `json:"id"`

	// DiagramID is the identifier of the owning diagram.
	DiagramID string `json:"diagram"`

	// EdgeType is the edge kind.
	EdgeType ItemType `json:"type"`

	// Source is the ID of the source node.
	Source string `json:"source"`

	// Target is the ID of the target node.
	Target string `json:"target"`
}

// ID implements Item.
func (e *Edge) ID() string { return e.EdgeID }

// Diagram implements Item.
func (e *Edge) Diagram() string { return e.DiagramID }

// Type implements Item.
func (e *Edge) Type() ItemType { return e.EdgeType }

// IsNode implements Item.
func (e *Edge) IsNode() bool { return false }

// IsEdge implements Item.
func (e *Edge) IsEdge() bool { return true }

// IsPredicate implements Item.
func (e *Edge) IsPredicate() bool { return false }

// Text implements Item.
func (e *Edge) Text() string { return "" }
