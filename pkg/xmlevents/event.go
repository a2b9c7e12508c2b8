// Package xmlevents adapts the standard library's encoding/xml token
// stream into the start/empty/string/end event shape the schema-directed
// parser dispatches on (spec.md §4.D, §9 "XML reader lookahead").
//
// encoding/xml already resolves element and attribute namespaces against
// the in-scope xmlns declarations, so Reader does not re-implement that;
// it only adds the one-event lookahead needed to collapse a self-closing
// element into a single Empty event instead of a Start immediately
// followed by an End, and a small namespace-scope stack for resolving
// QName-valued element content (leafref/identityref/instance-identifier
// values carry a prefix:local-name pair that isn't an element or
// attribute name, so encoding/xml never resolves it).
//
// This wraps encoding/xml.Decoder rather than a third-party tokenizer:
// the pack's own NETCONF client code (cisco-ie-netgonf) decodes every
// message with encoding/xml, and no example repo offers a third-party
// streaming XML alternative.
package xmlevents

import "encoding/xml"

// Kind discriminates the four event shapes the parser dispatches on.
type Kind int

const (
	// Start is a non-empty opening tag, e.g. <foo>.
	Start Kind = iota
	// Empty is a self-closing tag, e.g. <foo/>, or an opening tag
	// immediately followed by its matching end tag with no content between.
	Empty
	// String is character data between a Start and its matching End.
	String
	// End is a closing tag, e.g. </foo>.
	End
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case Empty:
		return "empty"
	case String:
		return "string"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Event is one node in the collapsed XML event stream.
type Event struct {
	Kind Kind
	// Name is the element name for Start/Empty/End events. Name.Space is
	// the resolved namespace URI (not a raw prefix), courtesy of
	// encoding/xml's own scope tracking.
	Name xml.Name
	// Attrs holds the element's attributes for Start/Empty events, with
	// Attr.Name.Space similarly resolved.
	Attrs []xml.Attr
	// Text holds character data for String events.
	Text string
}
