package graphol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemType_Classification(t *testing.T) {
	t.Parallel()

	t.Run("PredicateNodes", func(t *testing.T) {
		t.Parallel()
		for _, typ := range []ItemType{ConceptNode, RoleNode, AttributeNode, ValueDomainNode, IndividualNode} {
			assert.True(t, typ.IsNode(), "%s", typ)
			assert.True(t, typ.IsPredicate(), "%s", typ)
			assert.False(t, typ.IsEdge(), "%s", typ)
		}
	})

	t.Run("ConstructorNodes", func(t *testing.T) {
		t.Parallel()
		for _, typ := range []ItemType{
			DomainRestrictionNode, RangeRestrictionNode, UnionNode, DisjointUnionNode,
			IntersectionNode, ComplementNode, EnumerationNode, RoleChainNode,
			RoleInverseNode, DatatypeRestrictionNode, PropertyAssertionNode, FacetNode,
		} {
			assert.True(t, typ.IsNode(), "%s", typ)
			assert.False(t, typ.IsPredicate(), "%s", typ)
		}
	})

	t.Run("Edges", func(t *testing.T) {
		t.Parallel()
		for _, typ := range []ItemType{InclusionEdge, EquivalenceEdge, InputEdge, MembershipEdge} {
			assert.True(t, typ.IsEdge(), "%s", typ)
			assert.False(t, typ.IsNode(), "%s", typ)
			assert.False(t, typ.IsPredicate(), "%s", typ)
		}
	})
}

func TestNode_Item(t *testing.T) {
	t.Parallel()

	n := &Node{NodeID: "n0", DiagramID: "d1", NodeType: ConceptNode, Label: "Person"}

	assert.Equal(t, "n0", n.ID())
	assert.Equal(t, "d1", n.Diagram())
	assert.Equal(t, ConceptNode, n.Type())
	assert.True(t, n.IsNode())
	assert.False(t, n.IsEdge())
	assert.True(t, n.IsPredicate())
	assert.Equal(t, "Person", n.Text())
}

func TestEdge_Item(t *testing.T) {
	t.Parallel()

	e := &Edge{EdgeID: "e0", DiagramID: "d1", EdgeType: InclusionEdge, Source: "n0", Target: "n1"}

	assert.Equal(t, "e0", e.ID())
	assert.True(t, e.IsEdge())
	assert.False(t, e.IsNode())
	assert.False(t, e.IsPredicate())
	assert.Empty(t, e.Text())
}

func TestDiagram(t *testing.T) {
	t.Parallel()

	t.Run("GeneratedIDs", func(t *testing.T) {
		t.Parallel()
		d := NewDiagram("d1")

		a := d.NewNode(ConceptNode, "Person")
		b := d.NewNode(ConceptNode, "Agent")
		e := d.NewEdge(InclusionEdge, a.ID(), b.ID())

		assert.Equal(t, "n0", a.ID())
		assert.Equal(t, "n1", b.ID())
		assert.Equal(t, "e0", e.ID())
		assert.Len(t, d.Items(), 3)
	})

	t.Run("RemoveItem", func(t *testing.T) {
		t.Parallel()
		d := NewDiagram("d1")
		n := d.NewNode(ConceptNode, "Person")

		d.RemoveItem(n.ID())
		d.RemoveItem("ghost")

		assert.Nil(t, d.Item(n.ID()))
		assert.Empty(t, d.Items())
	})
}

func TestIDGenerator(t *testing.T) {
	t.Parallel()

	g := NewIDGenerator()

	assert.Equal(t, "n0", g.Next("n"))
	assert.Equal(t, "n1", g.Next("n"))
	assert.Equal(t, "e0", g.Next("e"))
	assert.Equal(t, "n2", g.Next("n"))
}

func TestNewPredicateMeta(t *testing.T) {
	t.Parallel()

	t.Run("KindByType", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, MetaConcept, NewPredicateMeta(ConceptNode, "Person").Kind)
		assert.Equal(t, MetaRole, NewPredicateMeta(RoleNode, "worksFor").Kind)
		assert.Equal(t, MetaAttribute, NewPredicateMeta(AttributeNode, "age").Kind)
		assert.Equal(t, MetaPlain, NewPredicateMeta(IndividualNode, "alice").Kind)
	})

	t.Run("StructuralEquality", func(t *testing.T) {
		t.Parallel()
		a := NewPredicateMeta(RoleNode, "worksFor")
		b := NewPredicateMeta(RoleNode, "worksFor")
		assert.Equal(t, a, b)

		b.Functional = true
		assert.NotEqual(t, a, b)
	})
}
