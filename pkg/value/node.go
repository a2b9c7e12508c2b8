// Package value implements the typed, validated in-memory value tree
// (spec.md §3, §4.E). A Node is created by the schema-directed parser
// (pkg/parser) or by explicit construction for tests and programmatic
// edits; it is owned exclusively by its parent's child sequence and
// destroyed, recursively, when removed from that sequence.
//
// Per spec.md §9's design note on dynamic dispatch, Node does not use a Go
// interface-per-base-type: the base type tag plus a single `scalar any`
// field is the tagged-variant equivalent of the source's C union, with
// typed accessor methods keyed off BaseType doing the discrimination.
package value

import (
	"sync"
	"time"

	"github.com/ncxlabs/netconfd/pkg/schema"
)

// Flags are the per-node boolean state bits enumerated in spec.md §3.
type Flags uint16

const (
	FlagDirty Flags = 1 << iota
	FlagSubtreeDirty
	FlagDeletedMarker
	FlagSetByDefault
	FlagHasWithDefaultDefault
	FlagIsMetaval
	FlagDuplicatesOKCached
)

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// ParseStatus is the node's final parse-result classification (spec.md
// §4.F "Error aggregation": the first non-OK among {value, metadata,
// instance-count}).
type ParseStatus int

const (
	StatusOK ParseStatus = iota
	StatusValueError
	StatusMetadataError
	StatusInstanceCountError
)

// Node is one value in the parsed tree.
type Node struct {
	Name      string
	Namespace string // resolved namespace identifier (nsid)

	Obj     schema.Object
	TypeDef schema.TypeDef
	// BaseType is the *effective* base type: equal to Obj.BaseType() except
	// for union leaves (set to the matching member's type, spec.md §4.F
	// "Union") and any leaves (set once the first inner event is seen,
	// spec.md §4.F "Any").
	BaseType schema.BaseType

	scalar any

	children []*Node
	metadata []*Metadata
	index    []*Node // index chain: list nodes only, weak refs into children

	EditVars *EditVars

	Flags       Flags
	ParseStatus ParseStatus

	// TargetObj is the schema object a leafref/instance-identifier value
	// resolves to, set by the XPath phase-two validation pass once the
	// finalized schema is available (spec.md §4.G "Output": "the validator
	// sets a target-object pointer in the parse control block"). nil for
	// every other base type, or when phase two hasn't run yet.
	TargetObj schema.Object

	virtual *virtualState

	// parent is a weak (non-owning) back-pointer, per spec.md §9's design
	// note: value nodes form a tree, never a shared-ownership graph.
	parent *Node
}

// New constructs a Node bound to obj, with base-type-specific storage left
// zero-valued; callers set the scalar/children via the typed setters or the
// parser's dispatch handlers.
func New(name, namespace string, obj schema.Object) *Node {
	bt := schema.Empty
	var td schema.TypeDef
	if obj != nil {
		bt = obj.BaseType()
		td = obj.TypeDef()
	}
	return &Node{
		Name:      name,
		Namespace: namespace,
		Obj:       obj,
		TypeDef:   td,
		BaseType:  bt,
	}
}

// Parent returns the owning parent, or nil for a root node.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the live child sequence, including deleted markers.
// Most callers should use NextSibling/LiveChildren for an iteration that skips
// deleted markers (spec.md §3 invariant).
func (n *Node) Children() []*Node { return n.children }

// Metadata returns this node's metadata (XML attribute) sequence.
func (n *Node) Metadata() []*Metadata { return n.metadata }

// IndexChain returns the list node's key reference chain (nil for
// non-list nodes).
func (n *Node) IndexChain() []*Node { return n.index }

// SetIndexChain replaces the index chain; used by GenerateIndexChain and by
// direct constructors in tests.
func (n *Node) SetIndexChain(chain []*Node) { n.index = chain }

// MarkDeleted sets the deleted-marker flag. Per spec.md §3, deleted-marker
// nodes are skipped by iteration but retained until the enclosing edit
// operation completes.
func (n *Node) MarkDeleted() { n.Flags |= FlagDeletedMarker }

// IsDeleted reports whether the deleted-marker flag is set.
func (n *Node) IsDeleted() bool { return n.Flags.Has(FlagDeletedMarker) }

// MarkDirty sets the dirty flag on n and propagates subtree-dirty to every
// ancestor up to the configuration root (spec.md §4.E).
func (n *Node) MarkDirty() {
	n.Flags |= FlagDirty
	for p := n.parent; p != nil; p = p.parent {
		if p.Flags.Has(FlagSubtreeDirty) {
			break
		}
		p.Flags |= FlagSubtreeDirty
	}
}

// mu guards virtual-value cache state; one mutex per node keeps the
// accessor safe even though parsing itself is single-threaded per
// spec.md §5 (admin/metrics code may read concurrently).
type virtualState struct {
	mu        sync.Mutex
	provider  VirtualProvider
	cached    bool
	value     Node
	cachedAt  time.Time
}
