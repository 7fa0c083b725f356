// Package xmlmini is a minimal XML tokenizer and tree builder for the
// supplier protocol. The supplier's tag vocabulary is small and fixed, so the
// parser deliberately skips namespaces, attributes and CDATA handling;
// attributes inside a tag are tolerated but ignored.
package xmlmini

import (
	"fmt"
	"regexp"
	"strings"
)

// Element is one node of the parsed tree. Text holds the concatenated
// character data directly under this element.
type Element struct {
	Tag      string
	Text     string
	Children []*Element
}

// token kinds produced by the scan.
const (
	tokOpen = iota
	tokClose
	tokSelfClose
	tokText
)

type token struct {
	kind int
	name string // tag name for open/close/selfClose
	text string // character data for text tokens
}

// One regex drives the whole scan: a tag (with optional leading slash and
// optional trailing slash) or a run of character data.
var tokenRe = regexp.MustCompile(`<\s*(/?)\s*([A-Za-z_][A-Za-z0-9_.:-]*)((?:[^>"']|"[^"]*"|'[^']*')*?)(/?)\s*>|([^<]+)`)

// Sanitize strips a UTF-8 byte-order-mark and embedded NUL bytes. The
// supplier's edge occasionally emits both; they break tokenization if left in.
func Sanitize(raw []byte) []byte {
	s := raw
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		s = s[3:]
	}
	if i := indexByte(s, 0); i >= 0 {
		out := make([]byte, 0, len(s))
		for _, b := range s {
			if b != 0 {
				out = append(out, b)
			}
		}
		return out
	}
	return s
}

func indexByte(b []byte, c byte) int {
	for i := range b {
		if b[i] == c {
			return i
		}
	}
	return -1
}

// Parse tokenizes raw XML and builds an element tree. The input is sanitized
// first. A close tag that does not match the innermost open tag fails the
// whole parse: a partial tree from malformed supplier XML is worse than no
// tree at all.
func Parse(raw []byte) (*Element, error) {
	text := string(Sanitize(raw))
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("xmlmini: empty document")
	}

	// XML declarations and comments are not part of the token grammar.
	trimmed = stripProlog(trimmed)

	root := &Element{Tag: ""}
	stack := []*Element{root}

	for _, m := range tokenRe.FindAllStringSubmatch(trimmed, -1) {
		switch {
		case m[5] != "": // text
			if t := strings.TrimSpace(m[5]); t != "" {
				top := stack[len(stack)-1]
				top.Text += unescape(t)
			}
		case m[1] == "/": // close
			if len(stack) == 1 {
				return nil, fmt.Errorf("xmlmini: unexpected close tag </%s>", m[2])
			}
			top := stack[len(stack)-1]
			if top.Tag != m[2] {
				return nil, fmt.Errorf("xmlmini: mismatched close tag </%s>, open tag is <%s>", m[2], top.Tag)
			}
			stack = stack[:len(stack)-1]
		case m[4] == "/": // self-close
			top := stack[len(stack)-1]
			top.Children = append(top.Children, &Element{Tag: m[2]})
		default: // open
			el := &Element{Tag: m[2]}
			top := stack[len(stack)-1]
			top.Children = append(top.Children, el)
			stack = append(stack, el)
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("xmlmini: unclosed tag <%s>", stack[len(stack)-1].Tag)
	}
	if len(root.Children) == 0 {
		return nil, fmt.Errorf("xmlmini: no elements found")
	}
	if len(root.Children) == 1 {
		return root.Children[0], nil
	}
	// Multiple top-level elements; keep them under the synthetic root.
	return root, nil
}

func stripProlog(s string) string {
	for {
		s = strings.TrimSpace(s)
		switch {
		case strings.HasPrefix(s, "<?"):
			if i := strings.Index(s, "?>"); i >= 0 {
				s = s[i+2:]
				continue
			}
			return s
		case strings.HasPrefix(s, "<!--"):
			if i := strings.Index(s, "-->"); i >= 0 {
				s = s[i+3:]
				continue
			}
			return s
		}
		return s
	}
}

var unescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func unescape(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return unescaper.Replace(s)
}

// FindFirst returns the first element with the given tag in depth-first
// order, including the receiver itself. Nil when absent.
func (e *Element) FindFirst(tag string) *Element {
	if e == nil {
		return nil
	}
	if e.Tag == tag {
		return e
	}
	for _, c := range e.Children {
		if found := c.FindFirst(tag); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every element with the given tag, searching the whole
// subtree recursively.
func (e *Element) FindAll(tag string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	if e.Tag == tag {
		out = append(out, e)
	}
	for _, c := range e.Children {
		out = append(out, c.FindAll(tag)...)
	}
	return out
}

// ChildText returns the text of the first direct or nested child with the
// given tag, or "".
func (e *Element) ChildText(tag string) string {
	if f := e.FindFirst(tag); f != nil && f != e {
		return f.Text
	}
	return ""
}
