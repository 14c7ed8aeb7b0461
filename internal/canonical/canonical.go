// Package canonical provides deterministic JSON serialization, hashing, and
// stable identifier derivation.
//
// Canonical form: minified UTF-8, object keys sorted lexicographically,
// arrays in original order (callers sort upstream when set semantics are
// wanted), primitives unchanged. Two callers producing the same logical
// value obtain byte-identical output.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// FindingNamespace is the fixed UUID namespace under which stable finding
// identifiers are derived.
const FindingNamespace = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

// Canonicalize recursively normalizes a decoded JSON value: maps get their
// keys sorted, slices keep their order, scalars pass through. The input is
// expected to come from a json.Decoder with UseNumber so numeric literals
// survive round-trips unchanged.
func Canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = Canonicalize(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = Canonicalize(child)
		}
		return out
	default:
		return v
	}
}

// Bytes serializes a JSON value to its canonical byte encoding.
//
// The value may be raw JSON text ([]byte or json.RawMessage), a decoded Go
// value, or any struct marshalable by encoding/json; it is normalized to a
// generic value first so struct field order cannot leak into the output.
func Bytes(v any) ([]byte, error) {
	raw, err := toRaw(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SHA256 returns the lowercase-hex SHA-256 of the canonical encoding of v.
func SHA256(v any) (string, error) {
	b, err := Bytes(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// HashBytes returns the lowercase-hex SHA-256 of raw bytes.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// UUIDv5 derives an RFC 4122 §4.3 name-based UUID (SHA-1) from the given
// namespace UUID and name.
func UUIDv5(namespace, name string) (string, error) {
	ns, err := uuid.Parse(namespace)
	if err != nil {
		return "", fmt.Errorf("parse namespace uuid: %w", err)
	}
	return uuid.NewSHA1(ns, []byte(name)).String(), nil
}

// FindingID derives the stable identifier for a logical finding. The same
// composite key always yields the same UUID across runs and machines.
func FindingID(gate, code, subCode, severity, message, objectType, objectID string) string {
	name := strings.Join([]string{gate, code, subCode, severity, message, objectType, objectID}, "|")
	id, err := UUIDv5(FindingNamespace, name)
	if err != nil {
		// FindingNamespace is a compile-time constant; Parse cannot fail.
		panic(err)
	}
	return id
}

// toRaw normalizes any input into decoded generic JSON with json.Number
// scalars.
func toRaw(v any) (any, error) {
	var text []byte
	switch val := v.(type) {
	case []byte:
		text = val
	case json.RawMessage:
		text = val
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		text = encoded
	}

	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return out, nil
}

// writeCanonical emits the canonical encoding of a decoded JSON value.
// Strings are encoded via encoding/json with HTML escaping disabled so the
// output is plain minified UTF-8.
func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(val.String())
	case string:
		return writeString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, child := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, child); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported canonical value type %T", v)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode string: %w", err)
	}
	// Encoder appends a trailing newline; canonical form has none.
	buf.Truncate(buf.Len() - 1)
	return nil
}
