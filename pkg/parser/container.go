package parser

import (
	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/schema"
	"github.com/ncxlabs/netconfd/pkg/value"
	"github.com/ncxlabs/netconfd/pkg/xmlevents"
)

// parseContainer reads obj's children off the wire until the matching End
// event, dispatching each by looking up the schema object it corresponds
// to and recursing through parseElement. It backs container, case, and
// list base types alike (spec.md §4.F): a list only differs in that its
// caller additionally runs GenerateIndexChain afterward.
func (p *Parser) parseContainer(ev *xmlevents.Event, node *value.Node, obj schema.Object, path string) error {
	if ev.Kind == xmlevents.Empty {
		return nil
	}
	for {
		next, err := p.r.Next()
		if err != nil {
			return err
		}
		if next.Kind == xmlevents.End {
			return nil
		}
		if next.Kind != xmlevents.Start && next.Kind != xmlevents.Empty {
			return &malformedErr{"unexpected character data inside a container"}
		}

		childPath := path + "/" + next.Name.Local
		childObj := findChildObject(obj, next.Name.Space, next.Name.Local)
		if childObj == nil {
			p.unknownElement(childPath, next.Name.Local)
			if serr := p.skipSubtree(next); serr != nil {
				return serr
			}
			continue
		}

		child, perr := p.parseElement(next, childObj, childPath)
		if perr != nil {
			return perr
		}
		node.AppendChild(child)
	}
}

// findChildObject locates the declared child object matching (namespace,
// local) among obj's children, looking through any intervening choice/case
// wrappers transparently: a choice and its cases are schema-only grouping
// constructs that never appear as elements on the wire (spec.md §4.F
// "Choice/Case").
func findChildObject(obj schema.Object, namespace, local string) schema.Object {
	if obj == nil {
		return nil
	}
	for _, c := range obj.Children() {
		if c.BaseType() == schema.Choice || c.BaseType() == schema.Case {
			if found := findChildObject(c, namespace, local); found != nil {
				return found
			}
			continue
		}
		if c.Name() == local && c.Namespace() == namespace {
			return c
		}
	}
	return nil
}

func (p *Parser) unknownElement(path, name string) {
	err := rpcerror.New(rpcerror.TagUnknownElement, path, "unknown element \""+name+"\"")
	if p.mode == ModeManager {
		err.Severity = rpcerror.SeverityWarning
	}
	p.errs.Add(err)
}
