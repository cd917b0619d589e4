// User-facing error wrapping and caret-snippet rendering.
//
// Turns lexer/parser/runtime diagnostics into readable snippets with a
// caret pointing at the offending column:
//
//	PARSE ERROR at 3:12: expected an expression, found ")"
//
//	   2 | #var x = (1 + 2
//	   3 |               )
//	       |             ^
//
// Lex and parse columns are 0-based internally and rendered 1-based;
// RuntimeError positions are already 1-based. Output is plain text; the
// CLI applies color on top.
package nexus

import (
	"fmt"
	"strings"
)

// WrapErrorWithSource renders err against src with a name-less header.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName recognizes *LexError, *ParseError and *RuntimeError and
// returns an error whose message is a caret-annotated snippet. Other errors
// pass through unchanged.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "LEXICAL ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "PARSE ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *RuntimeError:
		if e.Line == 0 {
			return err
		}
		// Errors raised inside a context or reaction carry the source
		// they were declared in; render the snippet against that text.
		if e.src != "" {
			src, srcName = e.src, e.srcName
		}
		header := fmt.Sprintf("RUNTIME ERROR [%s]", e.Kind)
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, header, srcName, e.Line, e.Col, e.Msg))
	default:
		return err
	}
}

// prettyErrorStringLabeled builds the snippet: header, one line of context
// before and after when available, and a caret under the 1-based column.
// Out-of-range coordinates are clamped so rendering never fails.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad < 0 {
		caretPad = 0
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
