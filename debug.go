// Read-only debug views: a token-stream listing and an indented AST dump.
// Both parse fresh and have no effect on evaluation; the CLI exposes them
// as the tokens and ast subcommands.
package nexus

import (
	"fmt"
	"strings"
)

var tokenNames = map[TokenType]string{
	EOF:         "EOF",
	ILLEGAL:     "ILLEGAL",
	LROUND:      "LROUND",
	RROUND:      "RROUND",
	LSQUARE:     "LSQUARE",
	RSQUARE:     "RSQUARE",
	LCURLY:      "LCURLY",
	RCURLY:      "RCURLY",
	COMMA:       "COMMA",
	COLON:       "COLON",
	QUESTION:    "QUESTION",
	PIPE:        "PIPE",
	AMP:         "AMP",
	BANG:        "BANG",
	TILDE:       "TILDE",
	PLUS:        "PLUS",
	MINUS:       "MINUS",
	MULT:        "MULT",
	DIV:         "DIV",
	MOD:         "MOD",
	POW:         "POW",
	ASSIGN:      "ASSIGN",
	EQ:          "EQ",
	NEQ:         "NEQ",
	LESS:        "LESS",
	LESS_EQ:     "LESS_EQ",
	GREATER:     "GREATER",
	GREATER_EQ:  "GREATER_EQ",
	ARROW:       "ARROW",
	FLOW_TO:     "FLOW_TO",
	FLOW_BIDIR:  "FLOW_BIDIR",
	FLOW_PUSH:   "FLOW_PUSH",
	FLOW_PULL:   "FLOW_PULL",
	FLOW_APPEND: "FLOW_APPEND",
	QUANTUM:     "QUANTUM",
	OPOOL_OPEN:  "OPOOL_OPEN",
	OPOOL_CLOSE: "OPOOL_CLOSE",
	KPOOL_OPEN:  "KPOOL_OPEN",
	KPOOL_CLOSE: "KPOOL_CLOSE",
	ID:          "ID",
	STRING:      "STRING",
	INTEGER:     "INTEGER",
	NUMBER:      "NUMBER",
	BOOLEAN:     "BOOLEAN",
	NOOP:        "NOOP",
	HASHVAR:     "HASHVAR",
	ATVAR:       "ATVAR",
	CONTEXT:     "CONTEXT",
	REACTION:    "REACTION",
	ELSE:        "ELSE",
	ON:          "ON",
	WHEN:        "WHEN",
}

// TokenName returns the symbolic name of a token type.
func TokenName(tt TokenType) string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	return fmt.Sprintf("TOKEN(%d)", int(tt))
}

// DebugTokens tokenizes src and returns one line per token:
// position, name, and lexeme.
func DebugTokens(src string) (string, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return "", WrapErrorWithSource(err, src)
	}
	var b strings.Builder
	for _, t := range toks {
		fmt.Fprintf(&b, "%4d:%-3d %-12s %q", t.Line, t.Col+1, TokenName(t.Type), t.Lexeme)
		if t.Literal != nil {
			fmt.Fprintf(&b, " (%v)", t.Literal)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// DebugAST parses src and returns an indented rendering of the tree.
func DebugAST(src string) (string, error) {
	ast, err := ParseSExpr(src)
	if err != nil {
		return "", WrapErrorWithSource(err, src)
	}
	var b strings.Builder
	writeNode(&b, ast, 0)
	return b.String(), nil
}

func writeNode(b *strings.Builder, n S, depth int) {
	pad := strings.Repeat("  ", depth)
	hasSub := false
	for _, c := range children(n) {
		if _, ok := c.(S); ok {
			hasSub = true
			break
		}
	}

	b.WriteString(pad)
	b.WriteByte('(')
	b.WriteString(tag(n))

	if !hasSub {
		for _, c := range children(n) {
			b.WriteByte(' ')
			b.WriteString(atomString(c))
		}
		b.WriteString(")\n")
		return
	}

	// Atoms stay on the tag line; child nodes each get their own line.
	for _, c := range children(n) {
		if _, ok := c.(S); !ok {
			b.WriteByte(' ')
			b.WriteString(atomString(c))
		}
	}
	b.WriteByte('\n')
	for _, c := range children(n) {
		if sub, ok := c.(S); ok {
			writeNode(b, sub, depth+1)
		}
	}
	b.WriteString(pad)
	b.WriteString(")\n")
}

func atomString(c any) string {
	switch v := c.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
