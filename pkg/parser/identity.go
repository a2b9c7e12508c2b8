package parser

import (
	"strings"

	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/schema"
	"github.com/ncxlabs/netconfd/pkg/value"
	"github.com/ncxlabs/netconfd/pkg/xmlevents"
)

// parseIdentityref reads an identityref leaf's QName-valued text content
// and resolves its prefix against the XML scope active at the read
// position, then records the node's IdentityrefValue (spec.md §4.F
// "Identityref"). When obj's typedef declares a base identity, the
// resolved identity is looked up and checked against it: an ancestor-or-
// self identity must equal the declared base, or the value is rejected.
func (p *Parser) parseIdentityref(ev *xmlevents.Event, node *value.Node, obj schema.Object, path string) error {
	// Read the text without consuming the leaf's End event: the reader
	// pops this element's namespace scope on End (pkg/xmlevents/reader.go),
	// so a prefix bound by an xmlns declared on the leaf's own start tag
	// (e.g. <type xmlns:ex="urn:ex">ex:fast-ether</type>, legal and common
	// in NETCONF PDUs) must be resolved while that scope is still active.
	text, err := p.readTextLeaveEnd(ev)
	if err != nil {
		return err
	}
	prefix, local, _ := strings.Cut(text, ":")
	if local == "" {
		local, prefix = prefix, ""
	}
	ns, ok := p.r.ResolvePrefix(prefix)
	if ev.Kind != xmlevents.Empty {
		if _, err := p.r.Next(); err != nil {
			return err
		}
	}
	if !ok {
		p.errs.Add(rpcerror.New(rpcerror.TagInvalidValue, path, "unresolvable identity prefix in \""+text+"\""))
		node.ParseStatus = value.StatusValueError
		return nil
	}
	node.SetIdentityref(value.IdentityrefValue{Namespace: ns, LocalName: local})

	if obj == nil || obj.TypeDef() == nil {
		return nil
	}
	base := obj.TypeDef().IdentityBase()
	if base == nil {
		return nil
	}
	ident := obj.TypeDef().ResolveIdentity(ns, local)
	if ident == nil || !ident.IsDerivedFrom(base) {
		p.errs.Add(rpcerror.New(rpcerror.TagInvalidValue, path, "identity \""+text+"\" is not derived from its declared base"))
		node.ParseStatus = value.StatusValueError
	}
	return nil
}
