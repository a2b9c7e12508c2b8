package parser

import (
	"encoding/xml"

	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/schema"
	"github.com/ncxlabs/netconfd/pkg/value"
)

// reservedAttr names the honored XML attributes tracked for the
// no-repeat check (spec.md §4.F "Instance-count validation"); a
// schema-declared MetaDef marked Multivalued is exempt.
type reservedAttr int

const (
	attrOperation reservedAttr = iota
	attrInsert
	attrKey
	attrValue
	attrWithDefault
)

// Reserved metadata namespaces honored directly by the parser (spec.md §6
// "honored XML attributes"), independent of any schema MetaDef.
const (
	nsNetconfBase = "urn:ietf:params:xml:ns:netconf:base:1.0"
	nsYang1       = "urn:ietf:params:xml:ns:yang:1"
	nsWithDefault = "urn:ietf:params:xml:ns:yang:ietf-netconf-with-defaults:1.0"
)

// parseMetadata processes an element's attributes: nc:operation,
// yang:insert/key/value, wd:default, and any schema-declared metadata.
// Recognized attributes populate node.EditVars / node.Flags; namespace
// declarations (xmlns, xmlns:*) are skipped; anything else is checked against obj.MetadataDefs() and, failing that, recorded
// as unknown-attribute (a warning in ModeManager, an error in ModeAgent).
// The returned bool reports whether the post-parse instance-count check
// (spec.md §4.F) failed; the caller applies it to node.ParseStatus only
// after the value itself has been parsed, so a value error still takes
// priority per "Error aggregation".
func (p *Parser) parseMetadata(node *value.Node, obj schema.Object, attrs []xml.Attr, path string) bool {
	var ev *value.EditVars
	ensureVars := func() *value.EditVars {
		if ev == nil {
			ev = &value.EditVars{}
		}
		return ev
	}

	seenReserved := make(map[reservedAttr]bool, 4)
	seenDeclared := make(map[string]bool, len(attrs))
	dup := func(r reservedAttr) bool {
		if seenReserved[r] {
			return true
		}
		seenReserved[r] = true
		return false
	}

	for _, a := range attrs {
		switch {
		case a.Name.Space == nsNetconfBase && a.Name.Local == "operation":
			if dup(attrOperation) {
				p.duplicateAttribute(path, a.Name.Local)
				continue
			}
			p.handleOperationAttr(node, obj, a.Value, path, ensureVars)
		case a.Name.Space == nsYang1 && a.Name.Local == "insert":
			if dup(attrInsert) {
				p.duplicateAttribute(path, a.Name.Local)
				continue
			}
			op, ok := value.ParseInsertOp(a.Value)
			if !ok {
				p.errs.Add(rpcerror.New(rpcerror.TagBadAttribute, path, "invalid yang:insert value \""+a.Value+"\""))
				continue
			}
			ensureVars().Insert = op
		case a.Name.Space == nsYang1 && a.Name.Local == "key":
			if dup(attrKey) {
				p.duplicateAttribute(path, a.Name.Local)
				continue
			}
			ensureVars().Key = a.Value
		case a.Name.Space == nsYang1 && a.Name.Local == "value":
			if dup(attrValue) {
				p.duplicateAttribute(path, a.Name.Local)
				continue
			}
			ensureVars().Value = a.Value
		case a.Name.Space == nsWithDefault && a.Name.Local == "default":
			if dup(attrWithDefault) {
				p.duplicateAttribute(path, a.Name.Local)
				continue
			}
			if a.Value == "true" || a.Value == "1" {
				node.Flags |= value.FlagHasWithDefaultDefault
			}
		case a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns"):
			// Namespace declarations scope prefixes; they are not metadata.
			continue
		default:
			def := metadataDef(obj, a.Name.Space, a.Name.Local)
			if def == nil {
				p.unknownAttribute(path, a.Name.Local)
				continue
			}
			key := a.Name.Space + " " + a.Name.Local
			if !def.Multivalued && seenDeclared[key] {
				p.duplicateAttribute(path, a.Name.Local)
				continue
			}
			seenDeclared[key] = true
			node.AddMetadata(&value.Metadata{Name: a.Name.Local, Namespace: a.Name.Space, Value: a.Value})
		}
	}
	node.EditVars = ev

	cerr := checkInstanceCount(obj, ev, path)
	if cerr != nil {
		p.errs.Add(cerr)
	}
	return cerr != nil
}

// checkInstanceCount applies spec.md §4.F's "Instance-count validation for
// attributes": insert is legal only on list/leaf-list, key only on list,
// value only on leaf-list, and a before/after insert must carry the
// matching anchor attribute for its kind.
func checkInstanceCount(obj schema.Object, ev *value.EditVars, path string) *rpcerror.RPCError {
	if ev == nil {
		return nil
	}
	bt := schema.Any
	if obj != nil {
		bt = obj.BaseType()
	}
	isList := bt == schema.List
	isLeafList := bt == schema.ListOfStrings

	if ev.Insert != value.InsertNone && !isList && !isLeafList {
		return rpcerror.New(rpcerror.TagBadAttribute, path, "yang:insert is only legal on a list or leaf-list")
	}
	if ev.Key != "" && !isList {
		return rpcerror.New(rpcerror.TagBadAttribute, path, "yang:key is only legal on a list")
	}
	if ev.Value != "" && !isLeafList {
		return rpcerror.New(rpcerror.TagBadAttribute, path, "yang:value is only legal on a leaf-list")
	}
	switch ev.Insert {
	case value.InsertBefore, value.InsertAfter:
		if isList && ev.Key == "" {
			return rpcerror.New(rpcerror.TagMissingAttribute, path, "yang:insert=\"before\"/\"after\" on a list requires yang:key")
		}
		if isLeafList && ev.Value == "" {
			return rpcerror.New(rpcerror.TagMissingAttribute, path, "yang:insert=\"before\"/\"after\" on a leaf-list requires yang:value")
		}
	}
	return nil
}

func (p *Parser) handleOperationAttr(node *value.Node, obj schema.Object, raw, path string, ensureVars func() *value.EditVars) {
	op, ok := value.ParseEditOp(raw)
	if !ok {
		p.errs.Add(rpcerror.New(rpcerror.TagBadAttribute, path, "invalid nc:operation value \""+raw+"\""))
		return
	}
	if p.mode == ModeAgent && obj != nil && !obj.AcceptsEditOperation() {
		p.errs.Add(rpcerror.New(rpcerror.TagBadAttribute, path, "nc:operation is not legal on this element"))
		return
	}
	ensureVars().Op = op
	if op == value.EditDelete || op == value.EditRemove {
		node.MarkDeleted()
	}
}

func metadataDef(obj schema.Object, namespace, name string) *schema.MetaDef {
	if obj == nil {
		return nil
	}
	for i, def := range obj.MetadataDefs() {
		if def.Name == name && def.Namespace == namespace {
			return &obj.MetadataDefs()[i]
		}
	}
	return nil
}

func (p *Parser) unknownAttribute(path, name string) {
	err := rpcerror.New(rpcerror.TagUnknownAttribute, path, "unknown attribute \""+name+"\"")
	if p.mode == ModeManager {
		err.Severity = rpcerror.SeverityWarning
	}
	p.errs.Add(err)
}

// duplicateAttribute records spec.md §4.F's "no attribute appears more
// than once" rule (except where a schema MetaDef explicitly allows it).
func (p *Parser) duplicateAttribute(path, name string) {
	p.errs.Add(rpcerror.New(rpcerror.TagBadAttribute, path, "attribute \""+name+"\" must not repeat"))
}
