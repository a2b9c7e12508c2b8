package parser

import (
	"regexp"

	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/schema"
	"github.com/ncxlabs/netconfd/pkg/value"
	"github.com/ncxlabs/netconfd/pkg/xmlevents"
)

// parseUnion reads a union leaf's text content once, then tries each
// member type's lexical validator in declaration order, committing the
// first one that accepts the text (spec.md §4.F "Union": "tried in
// declaration order; the first member whose lexical form accepts the
// value wins"). node.BaseType is rewritten to the winning member's base
// type, per node.go's doc comment on the field. If no member accepts the
// value, spec.md §4.F requires reporting the first member's error rather
// than a generic "matches no member type" message.
func (p *Parser) parseUnion(ev *xmlevents.Event, node *value.Node, obj schema.Object, path string) error {
	text, err := p.readText(ev)
	if err != nil {
		return err
	}

	var members []schema.TypeDef
	if obj != nil && obj.TypeDef() != nil {
		members = obj.TypeDef().UnionMembers()
	}

	var firstErr error
	for _, member := range members {
		if merr := tryUnionMember(node, member, text); merr == nil {
			return nil
		} else if firstErr == nil {
			firstErr = merr
		}
	}

	reason := "value \"" + text + "\" matches no member type of this union"
	if firstErr != nil {
		reason = firstErr.Error()
	}
	rerr := rpcerror.New(rpcerror.TagInvalidValue, path, reason)
	if le, ok := firstErr.(*lexErr); ok {
		if le.info != nil {
			rerr = rerr.WithInfo(le.info)
		}
		if le.appTag != "" {
			rerr = rerr.WithAppTag(le.appTag)
		}
	}
	p.errs.Add(rerr)
	node.ParseStatus = value.StatusValueError
	return nil
}

// tryUnionMember attempts to commit text against one union member type,
// returning the rejection reason (with node left unmodified) so the
// caller can both try the next member and, if every member rejects the
// value, report the first member's error per spec.md §4.F.
func tryUnionMember(node *value.Node, member schema.TypeDef, text string) error {
	bt := member.BaseType()
	switch bt {
	case schema.Boolean:
		switch text {
		case "true":
			node.SetBool(true)
		case "false":
			node.SetBool(false)
		default:
			return &lexErr{reason: "invalid boolean literal \"" + text + "\""}
		}
	case schema.Int8, schema.Int16, schema.Int32, schema.Int64:
		v, err := parseIntLex(text, bitSizeFor(bt))
		if err != nil {
			return &lexErr{reason: "invalid integer literal \"" + text + "\""}
		}
		if !rangeOK(member.Ranges(), float64(v)) {
			return rangeViolationErr(member.Ranges(), text)
		}
		node.SetInt(v)
	case schema.Uint8, schema.Uint16, schema.Uint32, schema.Uint64:
		v, err := parseUintLex(text, bitSizeFor(bt))
		if err != nil {
			return &lexErr{reason: "invalid unsigned integer literal \"" + text + "\""}
		}
		if !rangeOK(member.Ranges(), float64(v)) {
			return rangeViolationErr(member.Ranges(), text)
		}
		node.SetUint(v)
	case schema.Decimal64:
		unscaled, err := parseDecimal64Lex(text, member.FractionDigits())
		if err != nil {
			return &lexErr{reason: "invalid decimal64 literal \"" + text + "\""}
		}
		node.SetDecimal(value.Decimal64{Unscaled: unscaled, FractionDigits: member.FractionDigits()})
	case schema.Enumeration:
		found := false
		for _, e := range member.EnumValues() {
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
		node.SetEnum(text)
	case schema.String:
		if !lengthOK(member.LengthRestrictions(), len([]rune(text))) {
			return &lexErr{reason: "string length out of range"}
		}
		for _, pat := range member.Patterns() {
			re, err := regexp.Compile(pat)
			if err == nil && !re.MatchString(text) {
				return &lexErr{reason: "value does not match required pattern"}
			}
		}
		node.SetString(text)
	default:
		return &lexErr{reason: "union member type has no lexical form to try"}
	}
	node.BaseType = bt
	node.TypeDef = member
	return nil
}
