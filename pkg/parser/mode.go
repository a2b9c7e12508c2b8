// Package parser implements the schema-directed value parser (spec.md
// §4.F): it walks an XML event stream (pkg/xmlevents) alongside a schema
// Object tree (pkg/schema) and produces a validated value.Node tree,
// recording every violation on an rpcerror.Queue instead of aborting on
// the first one.
package parser

// Mode selects which of the two historical NETCONF ingress paths this
// parse follows (spec.md §9's Open Question on nc:operation tolerance,
// resolved against original_source/netconf's agt_val_parse.c/
// mgr_val_parse.c split).
type Mode int

const (
	// ModeAgent parses an incoming <rpc> payload arriving at a managed
	// device: nc:operation is legal only on objects whose schema marks
	// AcceptsEditOperation, and an unknown element under a container is a
	// hard error.
	ModeAgent Mode = iota
	// ModeManager parses an incoming <rpc-reply>/notification payload
	// received by a manager application: nc:operation is tolerated
	// anywhere (a managed device may echo it back), and unknown elements
	// are recorded as warnings rather than errors so a manager can still
	// make use of a partially-recognized reply.
	ModeManager
)
