// Package echo reconstructs structured records from the line-oriented,
// indentation-driven text emitted by "ros2 topic echo". The format is an
// untyped YAML subset: "key: value" scalar lines, "key:" lines opening a
// nested mapping scope, and "---" lines delimiting message frames. There
// is no fixed schema; nesting is tracked with an explicit indent stack so
// the parser stays resumable across line-by-line feeding.
package echo

import (
	"strings"
	"sync/atomic"

	"github.com/NMBawiskar/ros-data-publisher/rosmsg"
)

// FrameDelimiter is the reserved boundary token separating message frames.
const FrameDelimiter = "---"

// frame is one open nesting scope: the column its key started at and the
// dotted path accumulated down to it. The stack is always sorted by indent
// ascending from bottom to top; the top is the most deeply nested open scope.
type frame struct {
	indent int
	path   string
}

// Parser consumes echo output one line at a time and produces one nested
// record per complete frame. A Parser is owned by a single pipeline and is
// not safe for concurrent use.
type Parser struct {
	flat  rosmsg.Flat
	stack []frame

	malformed atomic.Uint64
}

// NewParser returns a parser with empty frame state.
func NewParser() *Parser {
	return &Parser{flat: rosmsg.Flat{}}
}

// Feed processes one raw line. When the line completes a non-empty frame,
// the frame's nested record is returned with ok=true; otherwise ok is
// false. Blank lines are ignored. Lines that do not match the
// "identifier: value" grammar are dropped without affecting frame state:
// multi-line scalars, list syntax, and anchors are outside the supported
// subset.
func (p *Parser) Feed(line string) (rosmsg.Record, bool) {
	line = strings.TrimRight(line, " \t\r\n")
	trimmed := strings.TrimSpace(line)

	if trimmed == "" {
		return nil, false
	}

	if trimmed == FrameDelimiter {
		var rec rosmsg.Record
		produced := false
		if len(p.flat) > 0 {
			rec = rosmsg.BuildTree(p.flat)
			produced = true
		}
		p.Reset()
		return rec, produced
	}

	p.feedKeyLine(line, trimmed)
	return nil, false
}

// Reset discards all in-flight frame state. Called on every frame boundary
// so no nesting or path state leaks between frames.
func (p *Parser) Reset() {
	p.flat = rosmsg.Flat{}
	p.stack = p.stack[:0]
}

// MalformedLines reports how many lines were dropped for failing the
// key/value grammar since the parser was created.
func (p *Parser) MalformedLines() uint64 {
	return p.malformed.Load()
}

// feedKeyLine handles a single non-blank, non-boundary line.
func (p *Parser) feedKeyLine(line, trimmed string) {
	indent := leadingSpaces(line)

	ident, rest, ok := splitKeyValue(trimmed)
	if !ok {
		p.malformed.Add(1)
		return
	}

	// Close every sibling or deeper scope whose indent this line has
	// dedented past (or matched).
	for len(p.stack) > 0 && p.stack[len(p.stack)-1].indent >= indent {
		p.stack = p.stack[:len(p.stack)-1]
	}

	fullKey := ident
	if len(p.stack) > 0 {
		fullKey = p.stack[len(p.stack)-1].path + "." + ident
	}

	if rest == "" {
		// Opens a nested mapping scope; no scalar recorded yet.
		p.stack = append(p.stack, frame{indent: indent, path: fullKey})
		return
	}

	p.flat[fullKey] = rosmsg.Coerce(rest)
}

// leadingSpaces counts leading space characters of the raw line.
func leadingSpaces(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

// splitKeyValue matches `identifier ":" rest` where identifier is
// [A-Za-z_][A-Za-z0-9_]* and rest is the trimmed remainder after the colon.
func splitKeyValue(content string) (ident, rest string, ok bool) {
	colon := strings.IndexByte(content, ':')
	if colon <= 0 {
		return "", "", false
	}

	ident = content[:colon]
	if !isIdentifier(ident) {
		return "", "", false
	}

	rest = strings.TrimSpace(content[colon+1:])
	return ident, rest, true
}

func isIdentifier(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return len(s) > 0
}
