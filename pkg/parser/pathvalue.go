package parser

import (
	"strings"

	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/schema"
	"github.com/ncxlabs/netconfd/pkg/value"
	"github.com/ncxlabs/netconfd/pkg/xmlevents"
	"github.com/ncxlabs/netconfd/pkg/xpath"
)

// parsePathValue handles the two path-valued base types (spec.md §4.G
// "Leafref"/"Instance-identifier"). Only phase one (syntactic) validation
// happens here, while the whole document is still being read; phase two
// (resolving the path against the value tree and checking
// require-instance) happens in ValidateReferences once ParseDocument
// returns.
func (p *Parser) parsePathValue(ev *xmlevents.Event, node *value.Node, path string, bt schema.BaseType) error {
	text, err := p.readText(ev)
	if err != nil {
		return err
	}

	switch bt {
	case schema.Leafref:
		node.SetLeafrefValue(text)
		expr := ""
		if node.TypeDef != nil {
			expr = node.TypeDef.LeafrefPath()
		}
		if expr == "" {
			return nil
		}
		parsed, perr := xpath.Parse(expr)
		if perr != nil {
			// A malformed leafref path is a schema authoring defect, not an
			// instance error, but it still has to surface somewhere: record
			// it against this instance so it isn't silently ignored.
			p.errs.Add(xpath.SyntaxError(path, expr, perr.Error()))
			node.ParseStatus = value.StatusValueError
			return nil
		}
		p.pending = append(p.pending, pendingRef{node: node, path: path, expr: expr, parsed: parsed, requireInstance: node.TypeDef == nil || node.TypeDef.LeafrefRequireInstance()})
		return nil

	case schema.InstanceIdentifier:
		node.SetInstanceIdentifierValue(text)
		if strings.TrimSpace(text) == "" {
			p.errs.Add(rpcerror.New(rpcerror.TagInvalidValue, path, "instance-identifier value must not be empty"))
			node.ParseStatus = value.StatusValueError
			return nil
		}
		parsed, perr := xpath.Parse(text)
		if perr != nil {
			p.errs.Add(xpath.SyntaxError(path, text, perr.Error()))
			node.ParseStatus = value.StatusValueError
			return nil
		}
		if !parsed.Absolute {
			p.errs.Add(rpcerror.New(rpcerror.TagInvalidValue, path, "instance-identifier must be an absolute path"))
			node.ParseStatus = value.StatusValueError
			return nil
		}
		strict := node.TypeDef == nil || node.TypeDef.InstanceIdentifierStrict()
		p.pending = append(p.pending, pendingRef{node: node, path: path, expr: text, parsed: parsed, requireInstance: strict, keyStrict: strict})
		return nil

	default:
		return &malformedErr{"parsePathValue called with non-path base type"}
	}
}

// ValidateReferences runs phase two of the two-phase path validation
// (spec.md §4.G): every leafref/instance-identifier collected while
// parsing is resolved against root, using resolve to turn a step's
// prefix into a namespace. A reference whose predicates fail the key
// checks is not resolved further. A reference whose target doesn't exist
// is recorded as data-missing only when require-instance applies;
// current()-relative predicates are resolved from the reference's own
// node.
func (p *Parser) ValidateReferences(root *value.Node, resolve xpath.Resolver) {
	for _, ref := range p.pending {
		kerrs := xpath.CheckKeys(ref.parsed, p.rootObj, resolve, ref.keyStrict, ref.path)
		for _, kerr := range kerrs {
			p.errs.Add(kerr)
		}
		if len(kerrs) > 0 {
			continue
		}

		if target, ok := xpath.ResolveTarget(ref.parsed, p.rootObj, resolve); ok {
			ref.node.TargetObj = target
			switch ref.node.BaseType {
			case schema.Leafref:
				for _, terr := range xpath.CheckLeafrefTarget(target, ref.node.Obj, ref.requireInstance, ref.path, ref.expr) {
					p.errs.Add(terr)
				}
			case schema.InstanceIdentifier:
				for _, terr := range xpath.CheckInstanceIdentifierTarget(target, ref.node.Obj, ref.path, ref.expr) {
					p.errs.Add(terr)
				}
			}
		}

		targets, err := xpath.Resolve(ref.parsed, ref.node, root, resolve)
		if err != nil {
			p.errs.Add(xpath.SyntaxError(ref.path, ref.expr, err.Error()))
			continue
		}
		if len(targets) == 0 && ref.requireInstance {
			p.errs.Add(xpath.InstanceError(ref.path, ref.expr))
		}
	}
}
