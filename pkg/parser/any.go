package parser

import (
	"github.com/ncxlabs/netconfd/pkg/schema"
	"github.com/ncxlabs/netconfd/pkg/value"
	"github.com/ncxlabs/netconfd/pkg/xmlevents"
)

// parseAny implements spec.md §4.F "Any": the first inner event decides the
// effective shape. A start/empty child means "treat as container and
// recurse with a generic anyxml schema" — no declared schema object, so
// every descendant is built schema-less and ordered by arrival
// (value.AppendChild falls back to arrival order whenever Obj is nil). A
// string means "treat as generic string leaf". An immediate end means "the
// empty type".
func (p *Parser) parseAny(ev *xmlevents.Event, node *value.Node, path string) error {
	if ev.Kind == xmlevents.Empty {
		node.BaseType = schema.Empty
		node.SetEmpty()
		return nil
	}

	next, err := p.r.Peek()
	if err != nil {
		return err
	}

	switch next.Kind {
	case xmlevents.End:
		if _, err := p.r.Next(); err != nil {
			return err
		}
		node.BaseType = schema.Empty
		node.SetEmpty()
		return nil
	case xmlevents.Start, xmlevents.Empty:
		node.BaseType = schema.Container
		return p.parseAnyChildren(node, path)
	default: // xmlevents.String
		node.BaseType = schema.String
		text, terr := p.readText(ev)
		if terr != nil {
			return terr
		}
		node.SetString(text)
		return nil
	}
}

// parseAnyChildren reads generic anyxml children until the matching End
// event. Each child is built schema-less (Obj == nil) and recursively
// dispatched through parseAny, so nested containers/leaves inside an any
// subtree keep the same start/string/end disambiguation.
func (p *Parser) parseAnyChildren(node *value.Node, path string) error {
	for {
		next, err := p.r.Next()
		if err != nil {
			return err
		}
		if next.Kind == xmlevents.End {
			return nil
		}
		if next.Kind != xmlevents.Start && next.Kind != xmlevents.Empty {
			return &malformedErr{"unexpected character data inside an anyxml container"}
		}

		childPath := path + "/" + next.Name.Local
		child := value.New(next.Name.Local, next.Name.Space, nil)
		p.parseMetadata(child, nil, next.Attrs, childPath)
		if perr := p.parseAny(next, child, childPath); perr != nil {
			return perr
		}
		node.AppendChild(child)
	}
}
