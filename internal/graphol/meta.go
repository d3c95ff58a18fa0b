package graphol

// MetaKind discriminates the predicate metadata variants.
type MetaKind string

const (
	MetaPlain     MetaKind = "plain"
	MetaConcept   MetaKind = "concept"
	MetaRole      MetaKind = "role"
	MetaAttribute MetaKind = "attribute"
)

// PredicateMeta holds the descriptive and logical characteristics of a
// predicate identity (type tag + name), independent of its node occurrences.
//
// The boolean characteristics are meaningful only for the kind they belong
// to: Functional applies to roles and attributes, the remaining role flags
// to roles only. Values compare structurally.
type PredicateMeta struct {
	// Kind selects the variant.
	Kind MetaKind `json:"kind"`

	// Type is the predicate type tag this metadata belongs to.
	Type ItemType `json:"type"`

	// Name is the predicate display name.
	Name string `json:"name"`

	// Description is free-form predicate documentation.
	Description string `json:"description,omitempty"`

	// URL is a reference link for the predicate.
	URL string `json:"url,omitempty"`

	// Role and attribute characteristics.
	Functional        bool `json:"functional,omitempty"`
	InverseFunctional bool `json:"inverse_functional,omitempty"`
	Symmetric         bool `json:"symmetric,omitempty"`
	Asymmetric        bool `json:"asymmetric,omitempty"`
	Reflexive         bool `json:"reflexive,omitempty"`
	Irreflexive       bool `json:"irreflexive,omitempty"`
	Transitive        bool `json:"transitive,omitempty"`
}

// NewPredicateMeta builds the default metadata value for a predicate,
// with the variant kind selected by the predicate type tag and no
// characteristics set.
func NewPredicateMeta(typ ItemType, name string) PredicateMeta {
	kind := MetaPlain
	switch typ {
	case ConceptNode:
		kind = MetaConcept
	case RoleNode:
		kind = MetaRole
	case AttributeNode:
		kind = MetaAttribute
	}
	return PredicateMeta{Kind: kind, Type: typ, Name: name}
}
