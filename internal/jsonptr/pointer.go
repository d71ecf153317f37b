// Package jsonptr implements RFC 6901 JSON Pointer parsing and resolution
// over the generic JSON tree shape produced by encoding/json
// (map[string]interface{}, []interface{}, and scalars).
package jsonptr

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer is a parsed JSON Pointer: an ordered list of reference tokens,
// already unescaped. An empty Pointer refers to the whole document.
type Pointer []string

// New parses a raw JSON Pointer string ("" or starting with "/") into its
// reference tokens.
func New(raw string) (Pointer, error) {
	if raw == "" {
		return Pointer{}, nil
	}
	if !strings.HasPrefix(raw, "/") {
		return nil, fmt.Errorf("jsonptr: pointer %q must be empty or start with '/'", raw)
	}
	parts := strings.Split(raw[1:], "/")
	tokens := make(Pointer, len(parts))
	for i, p := range parts {
		tokens[i] = unescape(p)
	}
	return tokens, nil
}

// String renders the pointer back to RFC 6901 text form.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range p {
		b.WriteByte('/')
		b.WriteString(escape(t))
	}
	return b.String()
}

// Escape applies RFC 6901 token escaping ('~' -> '~0', '/' -> '~1').
func Escape(tok string) string {
	return escape(tok)
}

func escape(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	return strings.ReplaceAll(tok, "/", "~1")
}

func unescape(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	return strings.ReplaceAll(tok, "~0", "~")
}

// ParseArrayIndex validates and parses a reference token as an array index.
// It rejects leading zeros (other than "0" itself) and negative numbers,
// per RFC 6901.
func ParseArrayIndex(tok string) (int, error) {
	if tok == "" {
		return 0, fmt.Errorf("jsonptr: empty array index")
	}
	if tok == "0" {
		return 0, nil
	}
	if tok[0] == '0' || tok[0] == '-' {
		return 0, fmt.Errorf("jsonptr: invalid array index %q", tok)
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("jsonptr: invalid array index %q: %w", tok, err)
	}
	return n, nil
}

// Get resolves the pointer against doc and returns the referenced value.
func Get(doc any, raw string) (any, error) {
	p, err := New(raw)
	if err != nil {
		return nil, err
	}
	return p.Get(doc)
}

// Get resolves an already-parsed pointer against doc.
func (p Pointer) Get(doc any) (any, error) {
	cur := doc
	for i, tok := range p {
		next, err := step(cur, tok)
		if err != nil {
			return nil, fmt.Errorf("jsonptr: %w at %q", err, Pointer(p[:i+1]).String())
		}
		cur = next
	}
	return cur, nil
}

func step(cur any, tok string) (any, error) {
	switch c := cur.(type) {
	case map[string]any:
		v, ok := c[tok]
		if !ok {
			return nil, ErrNotFound
		}
		return v, nil
	case []any:
		if tok == "-" {
			return nil, ErrNotFound
		}
		idx, err := ParseArrayIndex(tok)
		if err != nil {
			return nil, ErrNotFound
		}
		if idx < 0 || idx >= len(c) {
			return nil, ErrNotFound
		}
		return c[idx], nil
	default:
		return nil, ErrNotFound
	}
}

// Parent resolves the pointer's parent container and returns it along with
// the final reference token. A root pointer returns (nil, "", nil).
func (p Pointer) Parent(doc any) (parent any, last string, err error) {
	if len(p) == 0 {
		return nil, "", nil
	}
	parent, err = Pointer(p[:len(p)-1]).Get(doc)
	if err != nil {
		return nil, "", err
	}
	return parent, p[len(p)-1], nil
}

// Set writes value at the pointer's location in doc, copy-on-write: every
// container along the path is shallow-cloned, so doc itself is left
// unmodified and the returned value shares untouched substructures with it.
// The immediate parent container of the final token must already exist;
// callers needing array insertion semantics build the updated container
// themselves and Set it at the parent pointer.
func (p Pointer) Set(doc any, value any) (any, error) {
	if len(p) == 0 {
		return value, nil
	}

	parentPath := Pointer(p[:len(p)-1])
	last := p[len(p)-1]

	parent, err := parentPath.Get(doc)
	if err != nil {
		return nil, err
	}

	var updatedParent any
	switch c := parent.(type) {
	case map[string]any:
		cp := make(map[string]any, len(c)+1)
		for k, v := range c {
			cp[k] = v
		}
		cp[last] = value
		updatedParent = cp
	case []any:
		idx, err := ParseArrayIndex(last)
		if err != nil || idx < 0 || idx >= len(c) {
			return nil, fmt.Errorf("jsonptr: cannot set array index %q", last)
		}
		cp := make([]any, len(c))
		copy(cp, c)
		cp[idx] = value
		updatedParent = cp
	default:
		return nil, fmt.Errorf("jsonptr: parent at %q is not an object or array", parentPath.String())
	}

	return parentPath.Set(doc, updatedParent)
}
