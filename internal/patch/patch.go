// Package patch implements a JSON Patch engine: RFC 6902 apply semantics
// with one deliberate deviation in the "add" operation (see Apply), plus a
// structural diff (MakePatch) that only guarantees
// Apply(a, MakePatch(a, b)) == b, not op-minimality.
//
// The add deviation exists because replaying two sibling histories that
// each independently add the same object key must preserve both
// contributions when both values are arrays.
package patch

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/openprocurement/concord/internal/jsonptr"
)

// Op names one of the six RFC 6902 operation types.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
	OpMove    Op = "move"
	OpCopy    Op = "copy"
	OpTest    Op = "test"
)

// Operation is a single step of a Patch.
type Operation struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	From  string `json:"from,omitempty"`
}

// Patch is an ordered sequence of operations.
type Patch []Operation

// Apply applies patch to document and returns the resulting value. The
// input document is not mutated; a JSON round-trip copy is made first.
func Apply(document any, p Patch) (any, error) {
	doc, err := deepCopy(document)
	if err != nil {
		return nil, fmt.Errorf("patch: deep copy document: %w", err)
	}
	return ApplyInPlace(doc, p)
}

// ApplyInPlace applies patch to document without copying it first. Each
// operation rebuilds the containers along its path (copy-on-write), so
// document itself is not modified and the result shares untouched
// substructures with it.
func ApplyInPlace(document any, p Patch) (any, error) {
	for i, op := range p {
		var err error
		switch op.Op {
		case OpAdd:
			document, err = applyAdd(document, op.Path, op.Value)
		case OpRemove:
			document, err = applyRemove(document, op.Path)
		case OpReplace:
			document, err = applyReplace(document, op.Path, op.Value)
		case OpMove:
			document, err = applyMove(document, op.From, op.Path)
		case OpCopy:
			document, err = applyCopy(document, op.From, op.Path)
		case OpTest:
			err = applyTest(document, op.Path, op.Value)
		case "":
			return nil, fmt.Errorf("%w: operation %d missing op", ErrMalformedPatch, i)
		default:
			return nil, fmt.Errorf("%w: unsupported op %q at step %d", ErrMalformedPatch, op.Op, i)
		}
		if err != nil {
			return nil, fmt.Errorf("patch: step %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}
	return document, nil
}

// applyAdd implements the non-standard add:
//   - path ends in "-" on an array parent: append
//   - path is a numeric index on an array parent: insert, erroring out of range
//   - path is a key absent from an object parent: set
//   - path is a key present on an object parent: concatenate if both sides
//     are arrays, otherwise overwrite
func applyAdd(document any, rawPath string, value any) (any, error) {
	p, err := jsonptr.New(rawPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPatch, err)
	}
	if len(p) == 0 {
		return value, nil
	}

	parent, last, err := p.Parent(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathNotFound, err)
	}

	switch container := parent.(type) {
	case []any:
		if last == "-" {
			updated := append(append([]any{}, container...), value)
			return jsonptr.Pointer(p[:len(p)-1]).Set(document, updated)
		}
		idx, err := jsonptr.ParseArrayIndex(last)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPatchConflict, err)
		}
		if idx < 0 || idx > len(container) {
			return nil, fmt.Errorf("%w: index %d out of range for array of length %d", ErrPatchConflict, idx, len(container))
		}
		updated := make([]any, 0, len(container)+1)
		updated = append(updated, container[:idx]...)
		updated = append(updated, value)
		updated = append(updated, container[idx:]...)
		return jsonptr.Pointer(p[:len(p)-1]).Set(document, updated)

	case map[string]any:
		existing, exists := container[last]
		if !exists {
			return jsonptr.Pointer(p).Set(document, value)
		}
		existingArr, existingIsArray := existing.([]any)
		newArr, newIsArray := value.([]any)
		if existingIsArray && newIsArray {
			merged := make([]any, 0, len(existingArr)+len(newArr))
			merged = append(merged, existingArr...)
			merged = append(merged, newArr...)
			return jsonptr.Pointer(p).Set(document, merged)
		}
		return jsonptr.Pointer(p).Set(document, value)

	default:
		return nil, fmt.Errorf("%w: parent of %q is not an object or array", ErrPatchConflict, rawPath)
	}
}

func applyRemove(document any, rawPath string) (any, error) {
	p, err := jsonptr.New(rawPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPatch, err)
	}
	if len(p) == 0 {
		return nil, nil
	}
	parent, last, err := p.Parent(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathNotFound, err)
	}

	switch container := parent.(type) {
	case []any:
		idx, err := jsonptr.ParseArrayIndex(last)
		if err != nil || idx < 0 || idx >= len(container) {
			return nil, fmt.Errorf("%w: index %q out of range", ErrPatchConflict, last)
		}
		updated := make([]any, 0, len(container)-1)
		updated = append(updated, container[:idx]...)
		updated = append(updated, container[idx+1:]...)
		return jsonptr.Pointer(p[:len(p)-1]).Set(document, updated)

	case map[string]any:
		if _, ok := container[last]; !ok {
			return nil, fmt.Errorf("%w: key %q absent", ErrPathNotFound, last)
		}
		updated := make(map[string]any, len(container)-1)
		for k, v := range container {
			if k == last {
				continue
			}
			updated[k] = v
		}
		return jsonptr.Pointer(p[:len(p)-1]).Set(document, updated)

	default:
		return nil, fmt.Errorf("%w: parent of %q is not an object or array", ErrPatchConflict, rawPath)
	}
}

func applyReplace(document any, rawPath string, value any) (any, error) {
	if _, err := jsonptr.Get(document, rawPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathNotFound, err)
	}
	p, err := jsonptr.New(rawPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPatch, err)
	}
	return p.Set(document, value)
}

func applyMove(document any, fromPath, toPath string) (any, error) {
	val, err := jsonptr.Get(document, fromPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathNotFound, err)
	}
	cp, err := deepCopy(val)
	if err != nil {
		return nil, err
	}
	doc, err := applyRemove(document, fromPath)
	if err != nil {
		return nil, err
	}
	return applyAdd(doc, toPath, cp)
}

func applyCopy(document any, fromPath, toPath string) (any, error) {
	val, err := jsonptr.Get(document, fromPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathNotFound, err)
	}
	cp, err := deepCopy(val)
	if err != nil {
		return nil, err
	}
	return applyAdd(document, toPath, cp)
}

func applyTest(document any, rawPath string, expected any) error {
	actual, err := jsonptr.Get(document, rawPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPathNotFound, err)
	}
	if !jsonEqual(actual, expected) {
		return fmt.Errorf("%w: test failed at %q", ErrPatchConflict, rawPath)
	}
	return nil
}

func jsonEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ab, err1 := json.Marshal(a)
	bb, err2 := json.Marshal(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(ab) == string(bb)
}

func deepCopy(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
