// Package ident turns loosely shaped foreign keys into plain string ids.
//
// The data provider returns a relation either as a bare scalar ("9", 9) or as
// the expanded related record ({"id": 9, "name": "..."}), sometimes nested
// more than one level. Ref captures both shapes while decoding and Resolve
// collapses them to a string. An empty string means "unresolvable" and must
// never be used as a map key.
package ident

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type kind uint8

const (
	kindEmpty kind = iota
	kindScalar
	kindNested
)

// wellKnownKeys are tried, in order, after the caller's preferred keys and
// before the plain "id" field.
var wellKnownKeys = []string{
	"product_id",
	"supplier_id",
	"invoice_id",
	"return_number",
	"salesman_id",
	"customer_code",
	"code",
	"key",
	"value",
}

// maxDepth bounds recursion through nested relation objects.
const maxDepth = 8

// Ref is a decoded foreign key: empty, a scalar or a nested object.
type Ref struct {
	kind   kind
	scalar string
	nested map[string]any
}

// Scalar builds a scalar Ref.
func Scalar(v string) Ref {
	return Ref{kind: kindScalar, scalar: v}
}

// Nested builds an object Ref.
func Nested(m map[string]any) Ref {
	if m == nil {
		return Ref{}
	}
	return Ref{kind: kindNested, nested: m}
}

// IsZero reports whether the field was null, missing or an array.
func (r Ref) IsZero() bool {
	return r.kind == kindEmpty
}

// Object returns the nested map when the Ref holds one.
func (r Ref) Object() (map[string]any, bool) {
	return r.nested, r.kind == kindNested
}

// UnmarshalJSON never fails on shape; only syntactically broken JSON errors.
func (r *Ref) UnmarshalJSON(data []byte) error {
	*r = Ref{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch t := v.(type) {
	case map[string]any:
		*r = Nested(t)
	case []any:
		// arrays are never a single id
	default:
		if s := scalarString(t); s != "" {
			*r = Scalar(s)
		}
	}
	return nil
}

// MarshalJSON writes the Ref back in its original shape.
func (r Ref) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case kindScalar:
		return json.Marshal(r.scalar)
	case kindNested:
		return json.Marshal(r.nested)
	default:
		return []byte("null"), nil
	}
}

// Resolve returns the id held by the Ref, preferring preferredKeys when the
// Ref is an object.
func (r Ref) Resolve(preferredKeys ...string) string {
	switch r.kind {
	case kindScalar:
		return r.scalar
	case kindNested:
		return resolveMap(r.nested, preferredKeys, 0)
	default:
		return ""
	}
}

// Resolve extracts an id from an arbitrary decoded JSON value.
func Resolve(v any, preferredKeys ...string) string {
	return resolveValue(v, preferredKeys, 0)
}

func resolveValue(v any, preferredKeys []string, depth int) string {
	switch t := v.(type) {
	case nil:
		return ""
	case map[string]any:
		return resolveMap(t, preferredKeys, depth)
	case Ref:
		if m, ok := t.Object(); ok {
			return resolveMap(m, preferredKeys, depth)
		}
		return t.Resolve()
	case []any:
		return ""
	default:
		return scalarString(t)
	}
}

func resolveMap(m map[string]any, preferredKeys []string, depth int) string {
	if depth >= maxDepth || len(m) == 0 {
		return ""
	}

	for _, key := range preferredKeys {
		if id := lookup(m, key, preferredKeys, depth); id != "" {
			return id
		}
	}
	for _, key := range wellKnownKeys {
		if id := lookup(m, key, preferredKeys, depth); id != "" {
			return id
		}
	}
	return lookup(m, "id", preferredKeys, depth)
}

func lookup(m map[string]any, key string, preferredKeys []string, depth int) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	return resolveValue(v, preferredKeys, depth+1)
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
