package nexus

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LROUND   // "("
	RROUND   // ")"
	LSQUARE  // "["
	RSQUARE  // "]"
	LCURLY   // "{"
	RCURLY   // "}"
	COMMA    // ","
	COLON    // ":" (slice separator)
	QUESTION // "?" (gate opener)
	PIPE     // "|" (logical or / branch separator)
	AMP      // "&"
	BANG     // "!"
	TILDE    // "~" (declaration sigil)

	// Operators
	PLUS
	MINUS
	MULT
	DIV
	MOD
	POW    // "**"
	ASSIGN // "="
	EQ     // "=="
	NEQ    // "!="
	LESS
	LESS_EQ // "<=" (comparison, or backward flow at statement head)
	GREATER
	GREATER_EQ
	ARROW // "->" (context output marker)

	// Flow operators
	FLOW_TO     // "=>"
	FLOW_BIDIR  // "<>"
	FLOW_PUSH   // "@>"
	FLOW_PULL   // "<@"
	FLOW_APPEND // "++>"
	QUANTUM     // "?:"

	// Pool delimiters
	OPOOL_OPEN  // "[|"
	OPOOL_CLOSE // "|]"
	KPOOL_OPEN  // "[:"
	KPOOL_CLOSE // ":]"

	// Literals & identifiers
	ID
	STRING
	INTEGER
	NUMBER
	BOOLEAN
	NOOP

	// Declaration forms & keywords
	HASHVAR // "#var"
	ATVAR   // "@var"
	CONTEXT
	REACTION
	ELSE
	ON
	WHEN
)

// Token is a lexical token with optional literal value. StartByte/EndByte
// delimit the token in the source; the parser uses them to record node spans.
type Token struct {
	Type      TokenType
	Lexeme    string      // raw text slice
	Literal   interface{} // parsed value for literals
	Line      int         // 1-based
	Col       int         // 0-based
	StartByte int
	EndByte   int
}

var keywords = map[string]TokenType{
	"true":     BOOLEAN,
	"false":    BOOLEAN,
	"noop":     NOOP,
	"context":  CONTEXT,
	"reaction": REACTION,
	"else":     ELSE,
	"on":       ON,
	"when":     WHEN,
}

// Lexer scans a Nexus source string into tokens.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 0-based column within line
	tokens []Token

	// precise token start position
	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:  src,
		line: 1,
		col:  0,
	}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) rewindToStart() {
	l.col -= l.cur - l.start
	l.cur = l.start
}

func (l *Lexer) addToken(tt TokenType, lit interface{}) Token {
	lex := l.src[l.start:l.cur]
	tok := Token{
		Type:      tt,
		Lexeme:    lex,
		Literal:   lit,
		Line:      l.tokStartLine,
		Col:       l.tokStartCol,
		StartByte: l.start,
		EndByte:   l.cur,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch ch {
		case ' ', '\r', '\n', '\t':
			l.advance()
			l.start = l.cur
		default:
			return
		}
	}
}

// helpers

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

// ----- errors -----

type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEXICAL ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (l *Lexer) err(msg string) error {
	return &LexError{Line: l.line, Col: l.col, Msg: msg}
}

// ----- scanners -----

// scanString parses a double-quoted string literal with JSON-style escapes.
func (l *Lexer) scanString() (string, error) {
	if l.src[l.start] != '"' {
		return "", l.err("internal: scanString without quote")
	}
	l.advance() // consume the delimiter

	var out []rune
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == '"' {
			return string(out), nil
		}
		if ch == '\n' {
			return "", l.err("string was not terminated")
		}
		if ch == '\\' {
			if l.isAtEnd() {
				return "", l.err("unfinished escape sequence")
			}
			esc, _ := l.advance()
			switch esc {
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			case '/':
				out = append(out, '/')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'u':
				var hex string
				for i := 0; i < 4; i++ {
					b, ok := l.peek()
					if !ok || !isHex(b) {
						return "", l.err("unicode escape was not terminated (expect 4 hex digits)")
					}
					hex += string(b)
					l.advance()
				}
				v, err := strconv.ParseInt(hex, 16, 32)
				if err != nil {
					return "", l.err("invalid unicode escape")
				}
				out = append(out, rune(v))
			default:
				return "", l.err(fmt.Sprintf("invalid escape sequence: \\%c", esc))
			}
			continue
		}
		if ch < utf8.RuneSelf {
			out = append(out, rune(ch))
			continue
		}
		// Non-ASCII byte: back up and decode the full rune.
		l.cur--
		r, size := utf8.DecodeRuneInString(l.src[l.cur:])
		if r == utf8.RuneError && size == 1 {
			return "", l.err("invalid UTF-8 in source")
		}
		out = append(out, r)
		l.cur += size
		l.col += size - 1
	}
	return "", l.err("string was not terminated")
}

// scanIdentifier parses [A-Za-z_][A-Za-z0-9_]*
func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanNumber parses an integer or float; supports 1.23 and 1.23e-4.
func (l *Lexer) scanNumber() (tok TokenType, lit interface{}, err error) {
	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}

	sawDot := false
	if b, ok := l.peek(); ok && b == '.' {
		if b2, ok2 := l.peekN(1); ok2 && isDigit(b2) {
			l.advance() // consume '.'
			sawDot = true
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		}
	}

	sawExp := false
	if b, ok := l.peek(); ok && (b == 'e' || b == 'E') {
		saveCur, saveCol := l.cur, l.col
		l.advance()
		if b2, ok := l.peek(); ok && (b2 == '+' || b2 == '-') {
			l.advance()
		}
		if b3, ok := l.peek(); ok && isDigit(b3) {
			sawExp = true
			for {
				b4, ok := l.peek()
				if !ok || !isDigit(b4) {
					break
				}
				l.advance()
			}
		} else {
			l.cur, l.col = saveCur, saveCol
		}
	}

	lex := l.src[l.start:l.cur]
	if !sawDot && !sawExp {
		v, convErr := strconv.ParseInt(lex, 10, 64)
		if convErr != nil {
			return ILLEGAL, nil, l.err("invalid integer literal")
		}
		return INTEGER, v, nil
	}
	vf, convErr := strconv.ParseFloat(lex, 64)
	if convErr != nil {
		return ILLEGAL, nil, l.err("invalid float literal")
	}
	return NUMBER, vf, nil
}

// ignoreUntilNewline eats until '\n' or EOF.
func (l *Lexer) ignoreUntilNewline() {
	for {
		b, ok := l.peek()
		if !ok || b == '\n' {
			return
		}
		l.advance()
	}
}

// wordFollows reports whether the given word starts at the current position
// and ends at a word boundary. Used to tell "#var"/"@var" from comments and
// stray sigils without consuming anything.
func (l *Lexer) wordFollows(word string) bool {
	for i := 0; i < len(word); i++ {
		b, ok := l.peekN(i)
		if !ok || b != word[i] {
			return false
		}
	}
	if b, ok := l.peekN(len(word)); ok && isAlphaNum(b) {
		return false
	}
	return true
}

// ----- main scanner -----

func (l *Lexer) scanToken() (Token, error) {
	for {
		l.skipWhitespace()
		l.tokStartLine = l.line
		l.tokStartCol = l.col
		l.start = l.cur

		if l.isAtEnd() {
			return l.addToken(EOF, nil), nil
		}

		ch, _ := l.advance()

		// Single-char tokens & punctuation
		switch ch {
		case '(':
			return l.addToken(LROUND, "("), nil
		case ')':
			return l.addToken(RROUND, ")"), nil
		case ']':
			return l.addToken(RSQUARE, "]"), nil
		case '{':
			return l.addToken(LCURLY, "{"), nil
		case '}':
			return l.addToken(RCURLY, "}"), nil
		case ',':
			return l.addToken(COMMA, ","), nil
		case '&':
			return l.addToken(AMP, "&"), nil
		case '~':
			return l.addToken(TILDE, "~"), nil
		case '/':
			return l.addToken(DIV, "/"), nil
		case '%':
			return l.addToken(MOD, "%"), nil
		}

		// Multi-char operators, maximal munch: the longest operator that
		// matches from the current byte wins over any shorter prefix.
		switch ch {
		case '[':
			if b, ok := l.peek(); ok && b == '|' {
				l.advance()
				return l.addToken(OPOOL_OPEN, "[|"), nil
			}
			if b, ok := l.peek(); ok && b == ':' {
				l.advance()
				return l.addToken(KPOOL_OPEN, "[:"), nil
			}
			return l.addToken(LSQUARE, "["), nil
		case '|':
			if b, ok := l.peek(); ok && b == ']' {
				l.advance()
				return l.addToken(OPOOL_CLOSE, "|]"), nil
			}
			return l.addToken(PIPE, "|"), nil
		case ':':
			if b, ok := l.peek(); ok && b == ']' {
				l.advance()
				return l.addToken(KPOOL_CLOSE, ":]"), nil
			}
			return l.addToken(COLON, ":"), nil
		case '?':
			if b, ok := l.peek(); ok && b == ':' {
				l.advance()
				return l.addToken(QUANTUM, "?:"), nil
			}
			return l.addToken(QUESTION, "?"), nil
		case '*':
			if b, ok := l.peek(); ok && b == '*' {
				l.advance()
				return l.addToken(POW, "**"), nil
			}
			return l.addToken(MULT, "*"), nil
		case '+':
			if b, ok := l.peek(); ok && b == '+' {
				if b2, ok2 := l.peekN(1); ok2 && b2 == '>' {
					l.advance()
					l.advance()
					return l.addToken(FLOW_APPEND, "++>"), nil
				}
			}
			return l.addToken(PLUS, "+"), nil
		case '-':
			if b, ok := l.peek(); ok && b == '>' {
				l.advance()
				return l.addToken(ARROW, "->"), nil
			}
			return l.addToken(MINUS, "-"), nil
		case '=':
			if b, ok := l.peek(); ok && b == '>' {
				l.advance()
				return l.addToken(FLOW_TO, "=>"), nil
			}
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(EQ, "=="), nil
			}
			return l.addToken(ASSIGN, "="), nil
		case '!':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(NEQ, "!="), nil
			}
			return l.addToken(BANG, "!"), nil
		case '<':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(LESS_EQ, "<="), nil
			}
			if b, ok := l.peek(); ok && b == '>' {
				l.advance()
				return l.addToken(FLOW_BIDIR, "<>"), nil
			}
			if b, ok := l.peek(); ok && b == '@' {
				l.advance()
				return l.addToken(FLOW_PULL, "<@"), nil
			}
			return l.addToken(LESS, "<"), nil
		case '>':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(GREATER_EQ, ">="), nil
			}
			return l.addToken(GREATER, ">"), nil
		case '@':
			if b, ok := l.peek(); ok && b == '>' {
				l.advance()
				return l.addToken(FLOW_PUSH, "@>"), nil
			}
			if l.wordFollows("var") {
				l.advance()
				l.advance()
				l.advance()
				return l.addToken(ATVAR, "@var"), nil
			}
			return Token{}, l.err("stray '@' (expected '@var' or '@>')")
		}

		// '#': a declaration when immediately followed by the word "var",
		// otherwise a line comment.
		if ch == '#' {
			if l.wordFollows("var") {
				l.advance()
				l.advance()
				l.advance()
				return l.addToken(HASHVAR, "#var"), nil
			}
			l.ignoreUntilNewline()
			l.start = l.cur
			continue
		}

		// Strings
		if ch == '"' {
			l.rewindToStart()
			text, err := l.scanString()
			if err != nil {
				return Token{}, err
			}
			return l.addToken(STRING, text), nil
		}

		// Numbers
		if isDigit(ch) {
			l.rewindToStart()
			tt, lit, err := l.scanNumber()
			if err != nil {
				return Token{}, err
			}
			return l.addToken(tt, lit), nil
		}

		// Identifiers / keywords
		if isAlpha(ch) {
			l.rewindToStart()
			lex := l.scanIdentifier()
			if tt, ok := keywords[lex]; ok {
				switch tt {
				case BOOLEAN:
					return l.addToken(BOOLEAN, lex == "true"), nil
				case NOOP:
					return l.addToken(NOOP, nil), nil
				default:
					return l.addToken(tt, lex), nil
				}
			}
			return l.addToken(ID, lex), nil
		}

		return Token{}, l.err(fmt.Sprintf("unexpected character: %q", ch))
	}
}

// Scan tokenizes the entire source and returns tokens (EOF included).
func (l *Lexer) Scan() ([]Token, error) {
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return l.tokens, nil
		}
	}
}

// Tokenize is the convenience entry point used by the parser and debug views.
func Tokenize(src string) ([]Token, error) {
	return NewLexer(src).Scan()
}
