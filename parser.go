package nexus

import (
	"fmt"
)

// S is the AST node type: a tagged S-expression. The first element is the
// string tag; the rest are children (nested S nodes or raw Go values such
// as identifier names, operator strings, and literal values).
//
// Node shapes produced by this parser:
//
//	("block", stmt...)
//	("var", name string, init, mutable bool)
//	("assign", target, expr)
//	("context", name string, inputs, outputs, body)
//	("inputs", name string...)          ("outputs", name string...)
//	("reaction", name string, watched string, guard, body)
//	("gate", scrutinee, branch..., else?)
//	("branch", predicate, action)       ("else", action)
//	("cmpfrom", op string, rhs)         gate predicate starting with a comparison op
//	("flow", op string, lhs, rhs)       operands in source order
//	("opool", elem...)                  ("kpool", pair...)
//	("pair", key string, value)
//	("quantum", alt...)
//	("binop", op string, left, right)   ("unop", op string, operand)
//	("call", callee, arg...)
//	("idx", recv, index)                ("slice", recv, lo, hi)
//	("id", name string)
//	("int", int64) ("num", float64) ("str", string) ("bool", bool) ("noop")
type S = []any

// L builds an S-expression node.
func L(tag string, parts ...any) S {
	n := make(S, 0, len(parts)+1)
	n = append(n, tag)
	n = append(n, parts...)
	return n
}

// tag/child/children are the shared accessors for S nodes.
func tag(n S) string     { return n[0].(string) }
func children(n S) []any { return n[1:] }
func child(n S, i int) S { return n[i+1].(S) }

// ----- errors -----

// ParseError reports a grammar violation at a 1-based line and 0-based
// column. Incomplete is set when the parser ran out of tokens, which the
// REPL uses to prompt for a continuation line.
type ParseError struct {
	Line       int
	Col        int
	Msg        string
	Expected   string
	Found      string
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// IsIncomplete reports whether err is a ParseError caused by premature
// end of input.
func IsIncomplete(err error) bool {
	pe, ok := err.(*ParseError)
	return ok && pe.Incomplete
}

// ----- parser -----

type parser struct {
	toks []Token
	i    int
	src  string

	// One Span per finished node, appended in post-order (children before
	// parent). BuildSpanIndexPostOrder binds these to node paths.
	post []Span
}

// ParseSExpr parses Nexus source into a ("block", ...) program node.
func ParseSExpr(src string) (S, error) {
	ast, _, err := ParseSExprWithSpans(src)
	return ast, err
}

// ParseSExprWithSpans parses and additionally returns the post-order node
// spans recorded during parsing.
func ParseSExprWithSpans(src string) (S, []Span, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, nil, err
	}
	p := &parser{toks: toks, src: src}
	ast, perr := p.parseProgram()
	if perr != nil {
		return nil, nil, perr
	}
	return ast, p.post, nil
}

// ParseSExprInteractiveWithSpans is the REPL entry point; identical grammar,
// but callers are expected to probe the error with IsIncomplete.
func ParseSExprInteractiveWithSpans(src string) (S, []Span, error) {
	return ParseSExprWithSpans(src)
}

func (p *parser) peek() Token { return p.toks[p.i] }

func (p *parser) peekN(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.i+n]
}
func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) advance() Token {
	t := p.toks[p.i]
	if t.Type != EOF {
		p.i++
	}
	return t
}

func (p *parser) match(tt TokenType) bool {
	if p.peek().Type == tt {
		p.advance()
		return true
	}
	return false
}

func (p *parser) need(tt TokenType, expected string) (Token, *ParseError) {
	if p.peek().Type == tt {
		return p.advance(), nil
	}
	return Token{}, p.errHere(expected)
}

func (p *parser) errHere(expected string) *ParseError {
	t := p.peek()
	found := t.Lexeme
	if t.Type == EOF {
		found = "end of input"
	}
	return &ParseError{
		Line:       t.Line,
		Col:        t.Col,
		Msg:        fmt.Sprintf("expected %s, found %q", expected, found),
		Expected:   expected,
		Found:      found,
		Incomplete: t.Type == EOF,
	}
}

func (p *parser) errAt(t Token, msg string) *ParseError {
	return &ParseError{Line: t.Line, Col: t.Col, Msg: msg, Found: t.Lexeme}
}

// fin records the span for a node whose tokens run from startIdx to the
// previously consumed token, then returns the node. Called after all child
// nodes are finished, so spans land in post-order.
func (p *parser) fin(startIdx int, n S) S {
	start := p.toks[startIdx].StartByte
	end := start
	if p.i > startIdx {
		end = p.prev().EndByte
	}
	p.post = append(p.post, Span{StartByte: start, EndByte: end})
	return n
}

// leaf records a span covering a single token.
func (p *parser) leaf(t Token, n S) S {
	p.post = append(p.post, Span{StartByte: t.StartByte, EndByte: t.EndByte})
	return n
}

// zeroWidth records a zero-width span at the current position, used for
// synthesized nodes such as omitted slice bounds.
func (p *parser) zeroWidth(n S) S {
	at := p.peek().StartByte
	p.post = append(p.post, Span{StartByte: at, EndByte: at})
	return n
}

// ----- grammar: program & statements -----

func (p *parser) parseProgram() (S, *ParseError) {
	startIdx := p.i
	stmts := []any{"block"}
	for p.peek().Type != EOF {
		st, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	return p.fin(startIdx, S(stmts)), nil
}

// parseBlock parses "{ stmt... }".
func (p *parser) parseBlock() (S, *ParseError) {
	startIdx := p.i
	if _, err := p.need(LCURLY, "'{'"); err != nil {
		return nil, err
	}
	stmts := []any{"block"}
	for p.peek().Type != RCURLY {
		if p.peek().Type == EOF {
			return nil, p.errHere("'}'")
		}
		st, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	p.advance() // '}'
	return p.fin(startIdx, S(stmts)), nil
}

func (p *parser) parseStmt() (S, *ParseError) {
	switch p.peek().Type {
	case HASHVAR:
		return p.parseVarDecl(false)
	case ATVAR:
		return p.parseVarDecl(true)
	case TILDE:
		return p.parseTildeDecl()
	}

	// Backward flow is recognized only at statement head: "target <= source".
	// Anywhere else "<=" is the comparison operator.
	if p.peek().Type == ID && p.peekN(1).Type == LESS_EQ {
		return p.parseBackflow()
	}

	startIdx := p.i
	e, err := p.expr(bpFlow)
	if err != nil {
		return nil, err
	}

	// Plain assignment: "name = expr" or "pool[k] = expr".
	if p.peek().Type == ASSIGN {
		switch tag(e) {
		case "id", "idx":
		default:
			return nil, p.errAt(p.peek(), "left side of '=' must be a name or an indexed pool element")
		}
		p.advance()
		rhs, err := p.expr(bpFlow)
		if err != nil {
			return nil, err
		}
		return p.fin(startIdx, L("assign", e, rhs)), nil
	}
	return e, nil
}

func (p *parser) parseVarDecl(mutable bool) (S, *ParseError) {
	startIdx := p.i
	p.advance() // #var / @var
	nameTok, err := p.need(ID, "binding name")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(ASSIGN, "'='"); err != nil {
		return nil, err
	}
	init, err2 := p.expr(bpFlow)
	if err2 != nil {
		return nil, err2
	}
	return p.fin(startIdx, L("var", nameTok.Lexeme, init, mutable)), nil
}

func (p *parser) parseBackflow() (S, *ParseError) {
	startIdx := p.i
	nameTok := p.advance()
	target := p.leaf(nameTok, L("id", nameTok.Lexeme))
	p.advance() // <=
	src, err := p.expr(bpFlow + 1)
	if err != nil {
		return nil, err
	}
	left := p.fin(startIdx, L("flow", "<=", target, src))
	// The received value may keep flowing: "x <= f(1) => output".
	return p.exprLoop(left, startIdx, bpFlow)
}

func (p *parser) parseTildeDecl() (S, *ParseError) {
	startIdx := p.i
	p.advance() // '~'
	switch p.peek().Type {
	case CONTEXT:
		return p.parseContextDecl(startIdx)
	case REACTION:
		return p.parseReactionDecl(startIdx)
	default:
		return nil, p.errHere("'context' or 'reaction' after '~'")
	}
}

func (p *parser) parseContextDecl(startIdx int) (S, *ParseError) {
	p.advance() // 'context'
	nameTok, err := p.need(ID, "context name")
	if err != nil {
		return nil, err
	}

	insIdx := p.i
	if _, err := p.need(LROUND, "'('"); err != nil {
		return nil, err
	}
	ins := []any{"inputs"}
	for p.peek().Type != RROUND {
		t, err := p.need(ID, "input name")
		if err != nil {
			return nil, err
		}
		ins = append(ins, t.Lexeme)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RROUND, "')'"); err != nil {
		return nil, err
	}
	inputs := p.fin(insIdx, S(ins))

	outsIdx := p.i
	outs := []any{"outputs"}
	if p.match(ARROW) {
		outsIdx = p.i
		if p.match(LROUND) {
			for p.peek().Type != RROUND {
				t, err := p.need(ID, "output name")
				if err != nil {
					return nil, err
				}
				outs = append(outs, t.Lexeme)
				if !p.match(COMMA) {
					break
				}
			}
			if _, err := p.need(RROUND, "')'"); err != nil {
				return nil, err
			}
		} else {
			t, err := p.need(ID, "output name")
			if err != nil {
				return nil, err
			}
			outs = append(outs, t.Lexeme)
		}
	}
	outputs := p.fin(outsIdx, S(outs))

	body, perr := p.parseBlock()
	if perr != nil {
		return nil, perr
	}
	return p.fin(startIdx, L("context", nameTok.Lexeme, inputs, outputs, body)), nil
}

func (p *parser) parseReactionDecl(startIdx int) (S, *ParseError) {
	p.advance() // 'reaction'
	nameTok, err := p.need(ID, "reaction name")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(ON, "'on'"); err != nil {
		return nil, err
	}
	watchTok, err := p.need(ID, "watched binding name")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(WHEN, "'when'"); err != nil {
		return nil, err
	}
	guard, perr := p.expr(bpOr + 1)
	if perr != nil {
		return nil, perr
	}
	body, perr := p.parseBlock()
	if perr != nil {
		return nil, perr
	}
	return p.fin(startIdx, L("reaction", nameTok.Lexeme, watchTok.Lexeme, guard, body)), nil
}

// ----- grammar: expressions -----

// Binding powers, low to high. Quantum alternation and gate branch lists
// consume '|' themselves, so alternatives and branch bodies are parsed one
// notch above bpOr and a bare '|' terminates them.
const (
	bpFlow    = 10 // => <> @> <@ ++>
	bpGate    = 15 // scrutinee ? ...
	bpOr      = 30 // |
	bpAnd     = 35 // &
	bpCmp     = 40 // == != < <= > >=
	bpAdd     = 50 // + -
	bpMul     = 60 // * / %
	bpPow     = 70 // ** (right associative)
	bpUnary   = 80 // prefix - !
	bpPostfix = 90 // call, index, slice
)

// lbp returns the left binding power of an infix/postfix token.
func lbp(tt TokenType) (int, bool) {
	switch tt {
	case FLOW_TO, FLOW_BIDIR, FLOW_PUSH, FLOW_PULL, FLOW_APPEND:
		return bpFlow, true
	case QUESTION:
		return bpGate, true
	case PIPE:
		return bpOr, true
	case AMP:
		return bpAnd, true
	case EQ, NEQ, LESS, LESS_EQ, GREATER, GREATER_EQ:
		return bpCmp, true
	case PLUS, MINUS:
		return bpAdd, true
	case MULT, DIV, MOD:
		return bpMul, true
	case POW:
		return bpPow, true
	case LROUND, LSQUARE, KPOOL_OPEN:
		return bpPostfix, true
	default:
		return 0, false
	}
}

func isCmpToken(tt TokenType) bool {
	switch tt {
	case EQ, NEQ, LESS, LESS_EQ, GREATER, GREATER_EQ:
		return true
	default:
		return false
	}
}

func (p *parser) expr(minBP int) (S, *ParseError) {
	startIdx := p.i
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	return p.exprLoop(left, startIdx, minBP)
}

// exprLoop extends left with infix/postfix operators of binding power at
// least minBP. startIdx is the token index where left began; parent node
// spans cover from there.
func (p *parser) exprLoop(left S, startIdx, minBP int) (S, *ParseError) {
	for {
		t := p.peek()
		bp, ok := lbp(t.Type)
		if !ok || bp < minBP {
			return left, nil
		}

		switch {
		case t.Type == QUESTION:
			p.advance()
			g, err := p.parseGateBranches(startIdx, left)
			if err != nil {
				return nil, err
			}
			left = g

		case t.Type == LROUND:
			p.advance()
			call := []any{"call", left}
			for p.peek().Type != RROUND {
				if p.peek().Type == EOF {
					return nil, p.errHere("')'")
				}
				arg, err := p.expr(bpFlow + 1)
				if err != nil {
					return nil, err
				}
				call = append(call, arg)
				if !p.match(COMMA) {
					break
				}
			}
			if _, err := p.need(RROUND, "')'"); err != nil {
				return nil, err
			}
			left = p.fin(startIdx, S(call))

		case t.Type == LSQUARE:
			p.advance()
			idx, err := p.parseIndexTail(startIdx, left)
			if err != nil {
				return nil, err
			}
			left = idx

		case t.Type == KPOOL_OPEN:
			// "p[:b]" and "p[:]" arrive with their head lexed as the '[:'
			// token; in postfix position it re-reads as open bracket plus
			// omitted low bound.
			p.advance()
			sl, err := p.parseOpenLowSlice(startIdx, left)
			if err != nil {
				return nil, err
			}
			left = sl

		case bp == bpFlow:
			p.advance()
			rhs, err := p.expr(bpFlow + 1)
			if err != nil {
				return nil, err
			}
			left = p.fin(startIdx, L("flow", t.Lexeme, left, rhs))

		default: // ordinary binary operator
			p.advance()
			nextBP := bp + 1
			if t.Type == POW {
				nextBP = bp // right associative
			}
			rhs, err := p.expr(nextBP)
			if err != nil {
				return nil, err
			}
			left = p.fin(startIdx, L("binop", t.Lexeme, left, rhs))
		}
	}
}

// parseGateBranches parses "pred => action (| pred => action)* (| else => action)?"
// after the '?' has been consumed.
func (p *parser) parseGateBranches(startIdx int, scrutinee S) (S, *ParseError) {
	gate := []any{"gate", scrutinee}
	for {
		if p.match(ELSE) {
			elseIdx := p.i - 1
			if _, err := p.need(FLOW_TO, "'=>' after 'else'"); err != nil {
				return nil, err
			}
			action, err := p.expr(bpOr + 1)
			if err != nil {
				return nil, err
			}
			gate = append(gate, p.fin(elseIdx, L("else", action)))
			break
		}

		brIdx := p.i
		var pred S
		if isCmpToken(p.peek().Type) {
			opTok := p.advance()
			rhs, err := p.expr(bpCmp + 1)
			if err != nil {
				return nil, err
			}
			pred = p.fin(brIdx, L("cmpfrom", opTok.Lexeme, rhs))
		} else {
			var err *ParseError
			pred, err = p.expr(bpOr + 1)
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.need(FLOW_TO, "'=>' after gate predicate"); err != nil {
			return nil, err
		}
		action, err := p.expr(bpOr + 1)
		if err != nil {
			return nil, err
		}
		gate = append(gate, p.fin(brIdx, L("branch", pred, action)))

		if !p.match(PIPE) {
			break
		}
	}
	return p.fin(startIdx, S(gate)), nil
}

// parseOpenLowSlice parses the rest of a slice whose '[' and ':' were
// consumed together as the '[:' token.
func (p *parser) parseOpenLowSlice(startIdx int, recv S) (S, *ParseError) {
	lo := p.zeroWidth(L("noop"))
	if p.match(RSQUARE) {
		hi := p.zeroWidth(L("noop"))
		return p.fin(startIdx, L("slice", recv, lo, hi)), nil
	}
	hi, err := p.expr(bpFlow + 1)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RSQUARE, "']'"); err != nil {
		return nil, err
	}
	return p.fin(startIdx, L("slice", recv, lo, hi)), nil
}

// parseIndexTail parses the bracket suffix after '['. Index "p[i]",
// slice "p[a:b]" with either bound optional. "p[1:]" arrives with its tail
// lexed as the ':]' token; it is re-read here as colon plus close bracket.
func (p *parser) parseIndexTail(startIdx int, recv S) (S, *ParseError) {
	// "p[:]" and "p[:b]"
	if p.peek().Type == KPOOL_CLOSE {
		p.advance()
		lo := p.zeroWidth(L("noop"))
		hi := p.zeroWidth(L("noop"))
		return p.fin(startIdx, L("slice", recv, lo, hi)), nil
	}
	if p.match(COLON) {
		lo := p.zeroWidth(L("noop"))
		if p.match(RSQUARE) {
			hi := p.zeroWidth(L("noop"))
			return p.fin(startIdx, L("slice", recv, lo, hi)), nil
		}
		hi, err := p.expr(bpFlow + 1)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RSQUARE, "']'"); err != nil {
			return nil, err
		}
		return p.fin(startIdx, L("slice", recv, lo, hi)), nil
	}

	e, err := p.expr(bpFlow + 1)
	if err != nil {
		return nil, err
	}
	switch p.peek().Type {
	case RSQUARE:
		p.advance()
		return p.fin(startIdx, L("idx", recv, e)), nil
	case KPOOL_CLOSE: // "p[1:]"
		p.advance()
		hi := p.zeroWidth(L("noop"))
		return p.fin(startIdx, L("slice", recv, e, hi)), nil
	case COLON:
		p.advance()
		if p.match(RSQUARE) {
			hi := p.zeroWidth(L("noop"))
			return p.fin(startIdx, L("slice", recv, e, hi)), nil
		}
		hi, err := p.expr(bpFlow + 1)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RSQUARE, "']'"); err != nil {
			return nil, err
		}
		return p.fin(startIdx, L("slice", recv, e, hi)), nil
	default:
		return nil, p.errHere("']' or ':'")
	}
}

func (p *parser) prefix() (S, *ParseError) {
	t := p.peek()
	switch t.Type {
	case INTEGER:
		p.advance()
		return p.leaf(t, L("int", t.Literal.(int64))), nil
	case NUMBER:
		p.advance()
		return p.leaf(t, L("num", t.Literal.(float64))), nil
	case STRING:
		p.advance()
		return p.leaf(t, L("str", t.Literal.(string))), nil
	case BOOLEAN:
		p.advance()
		return p.leaf(t, L("bool", t.Literal.(bool))), nil
	case NOOP:
		p.advance()
		return p.leaf(t, L("noop")), nil
	case ID:
		p.advance()
		return p.leaf(t, L("id", t.Lexeme)), nil

	case MINUS, BANG:
		startIdx := p.i
		p.advance()
		operand, err := p.expr(bpUnary)
		if err != nil {
			return nil, err
		}
		return p.fin(startIdx, L("unop", t.Lexeme, operand)), nil

	case LROUND:
		p.advance()
		e, err := p.expr(bpFlow)
		if err != nil {
			return nil, err
		}
		if _, perr := p.need(RROUND, "')'"); perr != nil {
			return nil, perr
		}
		return e, nil

	case QUANTUM:
		return p.parseQuantum()

	case OPOOL_OPEN:
		return p.parseOrderedPool()

	case KPOOL_OPEN:
		return p.parseKeyedPool()

	default:
		return nil, p.errHere("an expression")
	}
}

// parseQuantum parses "?: alt (| alt)*". Alternatives are tried in order at
// evaluation time; the separating '|' binds lower than logical or, so an
// or-expression alternative needs parentheses.
func (p *parser) parseQuantum() (S, *ParseError) {
	startIdx := p.i
	p.advance() // '?:'
	q := []any{"quantum"}
	for {
		alt, err := p.expr(bpOr + 1)
		if err != nil {
			return nil, err
		}
		q = append(q, alt)
		if !p.match(PIPE) {
			break
		}
	}
	return p.fin(startIdx, S(q)), nil
}

func (p *parser) parseOrderedPool() (S, *ParseError) {
	startIdx := p.i
	p.advance() // '[|'
	pool := []any{"opool"}
	for p.peek().Type != OPOOL_CLOSE {
		if p.peek().Type == EOF {
			return nil, p.errHere("'|]'")
		}
		e, err := p.expr(bpFlow + 1)
		if err != nil {
			return nil, err
		}
		pool = append(pool, e)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(OPOOL_CLOSE, "'|]'"); err != nil {
		return nil, err
	}
	return p.fin(startIdx, S(pool)), nil
}

func (p *parser) parseKeyedPool() (S, *ParseError) {
	startIdx := p.i
	p.advance() // '[:'
	pool := []any{"kpool"}
	seen := map[string]bool{}
	for p.peek().Type != KPOOL_CLOSE {
		if p.peek().Type == EOF {
			return nil, p.errHere("':]'")
		}
		pairIdx := p.i
		var key string
		switch p.peek().Type {
		case ID:
			key = p.advance().Lexeme
		case STRING:
			key = p.advance().Literal.(string)
		default:
			return nil, p.errHere("a key name")
		}
		if seen[key] {
			return nil, p.errAt(p.toks[pairIdx], fmt.Sprintf("duplicate key %q in keyed pool", key))
		}
		seen[key] = true
		if _, err := p.need(ASSIGN, "'=' after key"); err != nil {
			return nil, err
		}
		val, err := p.expr(bpFlow + 1)
		if err != nil {
			return nil, err
		}
		pool = append(pool, p.fin(pairIdx, L("pair", key, val)))
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(KPOOL_CLOSE, "':]'"); err != nil {
		return nil, err
	}
	return p.fin(startIdx, S(pool)), nil
}
