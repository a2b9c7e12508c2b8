package parser

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"

	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/schema"
	"github.com/ncxlabs/netconfd/pkg/value"
	"github.com/ncxlabs/netconfd/pkg/xmlevents"
	"github.com/ncxlabs/netconfd/pkg/xpath"
)

// Parser drives one document's schema-directed parse. A Parser is
// single-use: construct one per inbound message (spec.md §5, single
// goroutine per session at a time).
type Parser struct {
	r       *xmlevents.Reader
	mode    Mode
	errs    *rpcerror.Queue
	rootObj schema.Object

	// pending collects leafref/instance-identifier nodes whose target
	// existence can only be checked once the whole document (and, for an
	// edit-config payload, the datastore it merges into) is available —
	// spec.md §4.G "two-phase validation", phase two.
	pending []pendingRef
}

type pendingRef struct {
	node            *value.Node
	path            string
	expr            string
	parsed          *xpath.Path
	requireInstance bool
	// keyStrict is true only for the strict instance-identifier dialect:
	// every list along the path must name all of its declared keys
	// (spec.md §4.G "Target rules"). leafref and schema-instance-identifier
	// paths leave this false, tolerating missing keys.
	keyStrict bool
}

// New constructs a Parser reading from r in the given mode.
func New(r *xmlevents.Reader, mode Mode) *Parser {
	return &Parser{r: r, mode: mode, errs: rpcerror.NewQueue()}
}

// Errors returns the error queue accumulated so far.
func (p *Parser) Errors() *rpcerror.Queue { return p.errs }

// ParseDocument parses one top-level element against rootObj and returns
// the resulting value tree. The returned error is non-nil only for a
// malformed XML token stream (spec.md §4.D); schema/value violations are
// recorded on the Errors queue instead of failing the parse.
func (p *Parser) ParseDocument(rootObj schema.Object) (*value.Node, error) {
	p.rootObj = rootObj
	ev, err := p.r.Next()
	if err != nil {
		return nil, err
	}
	if ev.Kind != xmlevents.Start && ev.Kind != xmlevents.Empty {
		return nil, &malformedErr{"expected a start element"}
	}
	root, err := p.parseElement(ev, rootObj, "/"+ev.Name.Local)
	if err != nil {
		return nil, err
	}
	return root, nil
}

// ParseLoadConfig parses the server-internal load-config wrapper (spec.md
// §4.F "Special case — internal load-config"): unlike a normal document,
// the wrapper has no closing tag in this context, so the parser reads
// exactly one child of the top-level element and returns without waiting
// for an End event on either the wrapper or a missing one.
func (p *Parser) ParseLoadConfig(rootObj schema.Object) (*value.Node, error) {
	p.rootObj = rootObj
	ev, err := p.r.Next()
	if err != nil {
		return nil, err
	}
	if ev.Kind != xmlevents.Start && ev.Kind != xmlevents.Empty {
		return nil, &malformedErr{"expected a start element"}
	}
	path := "/" + ev.Name.Local
	node := value.New(ev.Name.Local, ev.Name.Space, rootObj)
	p.parseMetadata(node, rootObj, ev.Attrs, path)
	node.BaseType = schema.Container
	if rootObj != nil {
		node.BaseType = rootObj.BaseType()
	}
	if ev.Kind == xmlevents.Empty {
		return node, nil
	}

	next, err := p.r.Next()
	if err != nil {
		return nil, err
	}
	if next.Kind == xmlevents.End {
		return node, nil
	}
	if next.Kind != xmlevents.Start && next.Kind != xmlevents.Empty {
		return nil, &malformedErr{"unexpected character data inside load-config wrapper"}
	}

	childPath := path + "/" + next.Name.Local
	childObj := findChildObject(rootObj, next.Name.Space, next.Name.Local)
	if childObj == nil {
		p.unknownElement(childPath, next.Name.Local)
		if serr := p.skipSubtree(next); serr != nil {
			return nil, serr
		}
		return node, nil
	}
	child, perr := p.parseElement(next, childObj, childPath)
	if perr != nil {
		return nil, perr
	}
	node.AppendChild(child)
	return node, nil
}

type malformedErr struct{ reason string }

func (e *malformedErr) Error() string { return e.reason }

// parseElement parses one element (already consumed as ev) against obj,
// dispatching on obj's base type, and returns the constructed node.
func (p *Parser) parseElement(ev *xmlevents.Event, obj schema.Object, path string) (*value.Node, error) {
	node := value.New(ev.Name.Local, ev.Name.Space, obj)
	instanceCountErr := p.parseMetadata(node, obj, ev.Attrs, path)

	bt := schema.Any
	if obj != nil {
		bt = obj.BaseType()
	}
	node.BaseType = bt

	if node.IsDeleted() {
		// A delete/remove operation tolerates an empty node regardless of
		// base type: skip content validation entirely.
		return node, p.skipSubtree(ev)
	}

	var err error
	switch bt {
	case schema.Empty:
		err = p.parseEmpty(ev, node, path)
	case schema.Boolean:
		err = p.parseScalar(ev, node, path, parseBool)
	case schema.Int8, schema.Int16, schema.Int32, schema.Int64:
		err = p.parseScalar(ev, node, path, p.makeIntParser(obj, bt))
	case schema.Uint8, schema.Uint16, schema.Uint32, schema.Uint64:
		err = p.parseScalar(ev, node, path, p.makeUintParser(obj, bt))
	case schema.Decimal64:
		err = p.parseScalar(ev, node, path, p.makeDecimalParser(obj))
	case schema.Float64:
		err = p.parseScalar(ev, node, path, parseFloatFn)
	case schema.String:
		err = p.parseScalar(ev, node, path, p.makeStringParser(obj))
	case schema.Binary:
		err = p.parseScalar(ev, node, path, p.makeBinaryParser(obj))
	case schema.Enumeration:
		err = p.parseScalar(ev, node, path, p.makeEnumParser(obj))
	case schema.Bits:
		err = p.parseScalar(ev, node, path, p.makeBitsParser(obj))
	case schema.ListOfStrings:
		err = p.parseScalar(ev, node, path, p.makeListOfStringsParser(obj))
	case schema.Identityref:
		err = p.parseIdentityref(ev, node, obj, path)
	case schema.Leafref, schema.InstanceIdentifier:
		err = p.parsePathValue(ev, node, path, bt)
	case schema.Union:
		err = p.parseUnion(ev, node, obj, path)
	case schema.Container, schema.Case, schema.Choice:
		err = p.parseContainer(ev, node, obj, path)
	case schema.List:
		err = p.parseContainer(ev, node, obj, path)
		value.GenerateIndexChain(node, path, p.errs)
	case schema.Any:
		err = p.parseAny(ev, node, path)
	default:
		// Extern/Intern: accept and discard the subtree without schema
		// validation; these carry no contract in spec.md §4.F.
		err = p.skipSubtree(ev)
	}

	// spec.md §4.F "Error aggregation": the node's final status is the
	// first non-OK among {value, metadata, instance-count}; instance-count
	// is recorded (via parseMetadata, before the value was parsed) but only
	// wins the status if no value error superseded it above.
	if instanceCountErr && node.ParseStatus == value.StatusOK {
		node.ParseStatus = value.StatusInstanceCountError
	}
	return node, err
}

// parseScalar handles the common shape for every leaf base type: an Empty
// event means empty text, a Start/String*/End sequence concatenates the
// text content (XML allows split CharData runs), then convert both
// validates the lexical value and stores it on node via the matching
// typed setter. A rejected lexical value records an invalid-value error
// and leaves the node's scalar at its zero value.
func (p *Parser) parseScalar(ev *xmlevents.Event, node *value.Node, path string, convert func(node *value.Node, text string) error) error {
	text, err := p.readText(ev)
	if err != nil {
		return err
	}
	if cerr := convert(node, text); cerr != nil {
		rerr := rpcerror.New(rpcerror.TagInvalidValue, path, cerr.Error())
		if le, ok := cerr.(*lexErr); ok {
			if le.info != nil {
				rerr = rerr.WithInfo(le.info)
			}
			if le.appTag != "" {
				rerr = rerr.WithAppTag(le.appTag)
			}
		}
		p.errs.Add(rerr)
		node.ParseStatus = value.StatusValueError
	}
	return nil
}

// rangeViolationErr builds the lexErr for a range violation, attaching the
// YANG-declared error-app-tag/error-message when the range that rejected
// the value carries one (spec.md §4.F "Numbers").
func rangeViolationErr(ranges []schema.Range, text string) *lexErr {
	le := &lexErr{
		reason: "value " + text + " is out of range",
		info:   rpcerror.Info{"bad-value": text},
	}
	for _, r := range ranges {
		if r.ErrorMessage != "" {
			le.reason = r.ErrorMessage
		}
		if r.ErrorAppTag != "" {
			le.appTag = r.ErrorAppTag
		}
	}
	return le
}

// readText consumes and concatenates character data until the matching
// End event, per spec.md §9 "XML reader lookahead" (a leaf never has
// element children, only text).
func (p *Parser) readText(ev *xmlevents.Event) (string, error) {
	if ev.Kind == xmlevents.Empty {
		return "", nil
	}
	var sb strings.Builder
	for {
		next, err := p.r.Next()
		if err != nil {
			return "", err
		}
		switch next.Kind {
		case xmlevents.String:
			sb.WriteString(next.Text)
		case xmlevents.End:
			return sb.String(), nil
		default:
			return "", &malformedErr{"unexpected child element inside a leaf"}
		}
	}
}

// readTextLeaveEnd behaves like readText but peeks for the matching End
// event instead of consuming it, leaving it for the caller to read once
// it no longer needs anything scoped to this element (e.g. a namespace
// binding declared on the element's own start tag, which the reader pops
// on End — pkg/xmlevents/reader.go). Callers must consume the pending End
// themselves via p.r.Next() once done, unless ev.Kind is Empty (no
// separate End token exists for a self-closing element).
func (p *Parser) readTextLeaveEnd(ev *xmlevents.Event) (string, error) {
	if ev.Kind == xmlevents.Empty {
		return "", nil
	}
	var sb strings.Builder
	for {
		next, err := p.r.Peek()
		if err != nil {
			return "", err
		}
		switch next.Kind {
		case xmlevents.String:
			sb.WriteString(next.Text)
			if _, err := p.r.Next(); err != nil {
				return "", err
			}
		case xmlevents.End:
			return sb.String(), nil
		default:
			return "", &malformedErr{"unexpected child element inside a leaf"}
		}
	}
}

// parseEmpty accepts <x/>, <x></x>, and whitespace-only content <x>   </x>
// alike (spec.md §4.F "Empty"): the reader only collapses the fully-empty
// forms to an Empty event, so whitespace-only text arrives as its own
// CharData run before the End event and has to be trimmed and tolerated
// here rather than rejected.
func (p *Parser) parseEmpty(ev *xmlevents.Event, node *value.Node, path string) error {
	node.SetEmpty()
	if ev.Kind == xmlevents.Empty {
		return nil
	}
	next, err := p.r.Next()
	if err != nil {
		return err
	}
	if next.Kind == xmlevents.String {
		if strings.TrimSpace(next.Text) != "" {
			p.errs.Add(rpcerror.New(rpcerror.TagInvalidValue, path, "empty-type leaf must have no content"))
			return p.skipUntilEnd()
		}
		next, err = p.r.Next()
		if err != nil {
			return err
		}
	}
	if next.Kind != xmlevents.End {
		p.errs.Add(rpcerror.New(rpcerror.TagInvalidValue, path, "empty-type leaf must have no content"))
		return p.skipUntilEnd()
	}
	return nil
}

// parseBool accepts only the literal lexical forms "true"/"false"
// (spec.md §4.F "Boolean"): YANG boolean has no numeric lexical form, so
// "1"/"0" are rejected like any other malformed literal.
func parseBool(node *value.Node, text string) error {
	switch text {
	case "true":
		node.SetBool(true)
		return nil
	case "false":
		node.SetBool(false)
		return nil
	default:
		return &lexErr{reason: "invalid boolean literal \"" + text + "\""}
	}
}

// lexErr is a rejected lexical value. info/appTag carry the structured
// error-info spec.md §4.F attaches to a range violation or an undeclared
// enum literal; both are nil/empty for a plain syntax error.
type lexErr struct {
	reason string
	info   rpcerror.Info
	appTag string
}

func (e *lexErr) Error() string { return e.reason }

func parseFloatFn(node *value.Node, text string) error {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return &lexErr{reason: "invalid floating-point literal \"" + text + "\""}
	}
	node.SetFloat(v)
	return nil
}

func (p *Parser) makeIntParser(obj schema.Object, bt schema.BaseType) func(*value.Node, string) error {
	return func(node *value.Node, text string) error {
		v, err := parseIntLex(text, bitSizeFor(bt))
		if err != nil {
			return &lexErr{reason: "invalid integer literal \"" + text + "\""}
		}
		if obj != nil && obj.TypeDef() != nil && !rangeOK(obj.TypeDef().Ranges(), float64(v)) {
			return rangeViolationErr(obj.TypeDef().Ranges(), text)
		}
		node.SetInt(v)
		return nil
	}
}

func (p *Parser) makeUintParser(obj schema.Object, bt schema.BaseType) func(*value.Node, string) error {
	return func(node *value.Node, text string) error {
		v, err := parseUintLex(text, bitSizeFor(bt))
		if err != nil {
			return &lexErr{reason: "invalid unsigned integer literal \"" + text + "\""}
		}
		if obj != nil && obj.TypeDef() != nil && !rangeOK(obj.TypeDef().Ranges(), float64(v)) {
			return rangeViolationErr(obj.TypeDef().Ranges(), text)
		}
		node.SetUint(v)
		return nil
	}
}

func (p *Parser) makeDecimalParser(obj schema.Object) func(*value.Node, string) error {
	return func(node *value.Node, text string) error {
		fd := 0
		if obj != nil && obj.TypeDef() != nil {
			fd = obj.TypeDef().FractionDigits()
		}
		unscaled, err := parseDecimal64Lex(text, fd)
		if err != nil {
			return &lexErr{reason: "invalid decimal64 literal \"" + text + "\""}
		}
		if obj != nil && obj.TypeDef() != nil {
			scale := 1.0
			for i := 0; i < fd; i++ {
				scale *= 10
			}
			if !rangeOK(obj.TypeDef().Ranges(), float64(unscaled)/scale) {
				return rangeViolationErr(obj.TypeDef().Ranges(), text)
			}
		}
		node.SetDecimal(value.Decimal64{Unscaled: unscaled, FractionDigits: fd})
		return nil
	}
}

func (p *Parser) makeStringParser(obj schema.Object) func(*value.Node, string) error {
	return func(node *value.Node, text string) error {
		if obj != nil && obj.TypeDef() != nil {
			td := obj.TypeDef()
			if !lengthOK(td.LengthRestrictions(), len([]rune(text))) {
				return &lexErr{reason: "string length out of range"}
			}
			for _, pat := range td.Patterns() {
				re, err := regexp.Compile(pat)
				if err == nil && !re.MatchString(text) {
					return &lexErr{reason: "value does not match required pattern"}
				}
			}
		}
		node.SetString(text)
		return nil
	}
}

func (p *Parser) makeBinaryParser(obj schema.Object) func(*value.Node, string) error {
	return func(node *value.Node, text string) error {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return &lexErr{reason: "invalid base64 content"}
		}
		if obj != nil && obj.TypeDef() != nil && !lengthOK(obj.TypeDef().LengthRestrictions(), len(decoded)) {
			return &lexErr{reason: "binary length out of range"}
		}
		node.SetBinary(decoded)
		return nil
	}
}

func (p *Parser) makeEnumParser(obj schema.Object) func(*value.Node, string) error {
	return func(node *value.Node, text string) error {
		if obj != nil && obj.TypeDef() != nil {
			found := false
			for _, e := range obj.TypeDef().EnumValues() {
				if e == text {
					found = true
					break
				}
			}
			if !found {
				return &lexErr{
					reason: "\"" + text + "\" is not a declared enum value",
					info:   rpcerror.Info{"bad-value": text},
				}
			}
		}
		node.SetEnum(text)
		return nil
	}
}

func (p *Parser) makeBitsParser(obj schema.Object) func(*value.Node, string) error {
	return func(node *value.Node, text string) error {
		tokens := strings.Fields(text)
		if obj != nil && obj.TypeDef() != nil {
			declared := obj.TypeDef().BitNames()
			for _, t := range tokens {
				if !contains(declared, t) {
					return &lexErr{reason: "\"" + t + "\" is not a declared bit name"}
				}
			}
		}
		node.SetBits(tokens)
		return nil
	}
}

func (p *Parser) makeListOfStringsParser(obj schema.Object) func(*value.Node, string) error {
	return func(node *value.Node, text string) error {
		node.SetListOfStrings(strings.Fields(text))
		return nil
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (p *Parser) skipUntilEnd() error {
	depth := 1
	for depth > 0 {
		next, err := p.r.Next()
		if err != nil {
			return err
		}
		switch next.Kind {
		case xmlevents.Start:
			depth++
		case xmlevents.End:
			depth--
		}
	}
	return nil
}

// skipSubtree discards ev's entire subtree (used for Any/deleted nodes).
func (p *Parser) skipSubtree(ev *xmlevents.Event) error {
	if ev.Kind == xmlevents.Empty {
		return nil
	}
	return p.skipUntilEnd()
}
