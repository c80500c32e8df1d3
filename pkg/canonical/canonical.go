// Package canonical implements the deterministic byte serialization
// that hashing (internal/hashchain), signing (internal/envelope), and
// patch generation (internal/diffengine) all share — spec.md §4.A.
//
// Two semantically-equal values must yield byte-identical output:
// object keys sort by code point, arrays keep input order, numbers are
// printed in shortest round-trip form, and there is no insignificant
// whitespace. Drift between the hashing-time and verification-time
// encoding breaks every subsequent changeset (spec.md §9), so this is
// the single routine every caller goes through — never json.Marshal
// directly on anything that ends up hashed or signed.
package canonical

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Marshal produces the canonical byte encoding of v. v may be any
// value accepted by encoding/json (a struct, map, slice, or a decoded
// any-tree from json.Unmarshal) — it is first round-tripped through
// encoding/json to obtain a normalized any-tree, then re-encoded with
// sorted keys and shortest-form numbers.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal: %w", err)
	}

	// Decode with UseNumber so integers are not lossily round-tripped
	// through float64 before we reformat them.
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("canonical: decode: %w", err)
	}

	var b strings.Builder
	if err := encode(&b, tree); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// Equal reports whether a and b canonicalize to identical bytes.
func Equal(a, b any) (bool, error) {
	ca, err := Marshal(a)
	if err != nil {
		return false, err
	}
	cb, err := Marshal(b)
	if err != nil {
		return false, err
	}
	return string(ca) == string(cb), nil
}

func encode(b *strings.Builder, v any) error {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case json.Number:
		return encodeNumber(b, t)
	case float64:
		return encodeNumber(b, json.Number(strconv.FormatFloat(t, 'g', -1, 64)))
	case string:
		encodeString(b, t)
	case []any:
		return encodeArray(b, t)
	case map[string]any:
		return encodeObject(b, t)
	default:
		return fmt.Errorf("canonical: unsupported type %T", v)
	}
	return nil
}

func encodeNumber(b *strings.Builder, n json.Number) error {
	// Re-parse and reformat in shortest round-trip form so "1.0" and "1"
	// (or differing exponent styles) canonicalize identically.
	if f, err := n.Float64(); err == nil {
		if i, err := n.Int64(); err == nil && float64(i) == f {
			b.WriteString(strconv.FormatInt(i, 10))
			return nil
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		return nil
	}
	return fmt.Errorf("canonical: invalid number %q", string(n))
}

func encodeString(b *strings.Builder, s string) {
	// encoding/json's string escaping is exactly what we want (valid
	// UTF-8, minimal escapes); reuse it rather than hand-rolling one.
	enc, _ := json.Marshal(s)
	b.Write(enc)
}

func encodeArray(b *strings.Builder, arr []any) error {
	b.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := encode(b, elem); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

func encodeObject(b *strings.Builder, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		encodeString(b, k)
		b.WriteByte(':')
		if err := encode(b, obj[k]); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}
