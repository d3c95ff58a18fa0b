package project

import "errors"

// Contract violation errors. These indicate a bug in the caller, not a
// recoverable runtime condition, and are never returned for plain
// unknown-key lookups (those yield empty results instead).
var (
	// ErrNilReference is returned when a mutator receives a nil diagram or item.
	ErrNilReference = errors.New("project: nil diagram or item reference")

	// ErrForeignItem is returned when an item is added to or removed from a
	// diagram it does not belong to.
	ErrForeignItem = errors.New("project: item does not belong to the given diagram")

	// ErrAmbiguousSelector is returned by Count when both the item and
	// predicate selectors are supplied.
	ErrAmbiguousSelector = errors.New("project: item and predicate selectors are mutually exclusive")
)
