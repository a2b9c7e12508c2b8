package xpath

import "github.com/ncxlabs/netconfd/pkg/rpcerror"

// SyntaxError reports a malformed path-arg expression, recorded as a
// bad-element rpc-error at the node carrying the expression (spec.md §4.G
// "syntactic pre-compile").
func SyntaxError(path, expr, reason string) *rpcerror.RPCError {
	return rpcerror.New(rpcerror.TagBadElement, path, "malformed path expression \""+expr+"\": "+reason)
}

// Parser performs the syntactic pre-compile pass: turning a path-arg
// string into a Path AST without resolving any name against a schema.
// Resolution (phase two) happens in resolve.go once a schema is
// available.
type Parser struct {
	lex *Lexer
	tok Token
}

// Parse parses expr (a leafref path-arg or an instance-identifier
// expression) into a Path.
func Parse(expr string) (*Path, error) {
	p := &Parser{lex: NewLexer(expr)}
	p.advance()
	path, err := p.parsePath(expr)
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != TokEOF {
		return nil, &parseErr{expr: expr, reason: "trailing input after path expression"}
	}
	return path, nil
}

type parseErr struct {
	expr, reason string
}

func (e *parseErr) Error() string { return "malformed path expression \"" + e.expr + "\": " + e.reason }

func (p *Parser) advance() {
	p.tok = p.lex.Next()
	// "//" (descendant axis) is outside the restricted grammar: retag it as
	// a token no production accepts, so it surfaces as a syntax error.
	if p.tok.Kind == TokSlash && p.tok.Text == "//" {
		p.tok.Kind = TokDot
	}
}

func (p *Parser) parsePath(expr string) (*Path, error) {
	path := &Path{}
	if p.tok.Kind == TokSlash {
		path.Absolute = true
		p.advance()
	} else {
		for p.tok.Kind == TokDotDot {
			path.UpLevels++
			p.advance()
			if p.tok.Kind != TokSlash {
				return nil, &parseErr{expr: expr, reason: "expected '/' after '..'"}
			}
			p.advance()
		}
		if path.UpLevels == 0 {
			return nil, &parseErr{expr: expr, reason: "path must be absolute or begin with '..'"}
		}
	}

	// A bare "/" (absolute, no steps) denotes the document root itself
	// (spec.md §8 boundary case): resolves with no error rather than being
	// rejected for having no steps.
	if path.Absolute && p.tok.Kind == TokEOF {
		return path, nil
	}

	for {
		step, err := p.parseStep(expr)
		if err != nil {
			return nil, err
		}
		path.Steps = append(path.Steps, step)
		if p.tok.Kind != TokSlash {
			break
		}
		p.advance()
	}
	if len(path.Steps) == 0 {
		return nil, &parseErr{expr: expr, reason: "path has no steps"}
	}
	return path, nil
}

func (p *Parser) parseStep(expr string) (Step, error) {
	name, err := p.parseQName(expr)
	if err != nil {
		return Step{}, err
	}
	step := Step{Name: name}
	for p.tok.Kind == TokLBracket {
		pred, err := p.parsePredicate(expr)
		if err != nil {
			return Step{}, err
		}
		step.Predicates = append(step.Predicates, pred)
	}
	return step, nil
}

func (p *Parser) parseQName(expr string) (QName, error) {
	if p.tok.Kind != TokIdentifier {
		return QName{}, &parseErr{expr: expr, reason: "expected name"}
	}
	first := p.tok.Text
	p.advance()
	if p.tok.Kind == TokColon {
		p.advance()
		if p.tok.Kind != TokIdentifier {
			return QName{}, &parseErr{expr: expr, reason: "expected name after ':'"}
		}
		local := p.tok.Text
		p.advance()
		return QName{Prefix: first, Local: local}, nil
	}
	return QName{Local: first}, nil
}

func (p *Parser) parsePredicate(expr string) (Predicate, error) {
	p.advance() // consume '['
	key, err := p.parseQName(expr)
	if err != nil {
		return Predicate{}, err
	}
	if p.tok.Kind != TokEquals {
		return Predicate{}, &parseErr{expr: expr, reason: "expected '=' in predicate"}
	}
	p.advance()

	pred := Predicate{Key: key}
	switch p.tok.Kind {
	case TokString:
		lit := p.tok.Text
		pred.Literal = &lit
		p.advance()
	case TokCurrentFn:
		p.advance()
		relPath, err := p.parseCurrentRelPath(expr)
		if err != nil {
			return Predicate{}, err
		}
		pred.CurrentRelPath = relPath
	default:
		return Predicate{}, &parseErr{expr: expr, reason: "predicate value must be a quoted string or current()"}
	}

	if p.tok.Kind != TokRBracket {
		return Predicate{}, &parseErr{expr: expr, reason: "expected ']'"}
	}
	p.advance()
	return pred, nil
}

// parseCurrentRelPath parses the "/../../leaf" tail that follows
// current() in a leafref predicate's right-hand side.
func (p *Parser) parseCurrentRelPath(expr string) (*Path, error) {
	rel := &Path{}
	for p.tok.Kind == TokSlash {
		p.advance()
		if p.tok.Kind == TokDotDot {
			rel.UpLevels++
			p.advance()
			continue
		}
		step, err := p.parseStep(expr)
		if err != nil {
			return nil, err
		}
		rel.Steps = append(rel.Steps, step)
	}
	return rel, nil
}
