package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Request identifies a cacheable computation.
//
// Two requests derive the same cache key exactly when they carry the same
// Key, the same Args in the same order, and the same Fields regardless of
// map insertion order. Category and TTL only influence entry lifetime, never
// the key itself.
type Request struct {
	// Key is the logical name of the computation, e.g. "market:Ranchi:rice".
	// It is retained on the stored entry for substring invalidation.
	Key string

	// Args are ordered positional arguments that distinguish variants of the
	// same logical key.
	Args []any

	// Fields are named arguments. They are rendered in sorted key order, so
	// insertion order does not affect the derived cache key.
	Fields map[string]any

	// Category selects the default TTL when TTL is zero.
	Category string

	// TTL overrides the category default when positive. Negative means
	// compute without retaining the result.
	TTL time.Duration
}

// cacheKey derives the deterministic store key: the logical key joined with
// a short SHA-256 digest of the canonical rendering of Args and Fields.
func (r Request) cacheKey() (string, error) {
	args, err := canonicalize(r.Args)
	if err != nil {
		return "", errors.Join(ErrKeyDerivation, err)
	}
	fields, err := canonicalizeFields(r.Fields)
	if err != nil {
		return "", errors.Join(ErrKeyDerivation, err)
	}

	sum := sha256.Sum256([]byte(r.Key + "|" + string(args) + "|" + string(fields)))
	return r.Key + ":" + hex.EncodeToString(sum[:8]), nil
}

// canonicalize produces a deterministic JSON rendering of v.
// Maps are rendered with sorted keys at every nesting level; everything else
// uses standard JSON encoding, which is already deterministic for slices and
// structs.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeFields(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeFields(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []byte("{")
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		val, err := canonicalize(m[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out = append(out, name...)
		out = append(out, ':')
		out = append(out, val...)
	}
	return append(out, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	out := []byte("[")
	for i, v := range s {
		if i > 0 {
			out = append(out, ',')
		}
		val, err := canonicalize(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, val...)
	}
	return append(out, ']'), nil
}
