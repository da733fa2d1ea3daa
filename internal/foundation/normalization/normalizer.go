// Package normalization maps loosely written configuration values onto their
// canonical enum spelling.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer converts case- and whitespace-insensitive aliases to canonical values.
type Normalizer[T comparable] struct {
	values    map[string]T
	canonical map[T]bool
	validKeys []string
}

// NewNormalizer creates a normalizer from alias -> canonical value pairs.
func NewNormalizer[T comparable](values map[string]T) *Normalizer[T] {
	n := &Normalizer[T]{
		values:    make(map[string]T, len(values)),
		canonical: make(map[T]bool, len(values)),
	}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.canonical[v] = true
		n.validKeys = append(n.validKeys, key)
	}
	sort.Strings(n.validKeys)
	return n
}

// Normalize returns the canonical value for raw.
func (n *Normalizer[T]) Normalize(raw string) (T, error) {
	if v, ok := n.values[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %s", raw, strings.Join(n.validKeys, ", "))
}

// Valid reports whether value is one of the canonical values.
func (n *Normalizer[T]) Valid(value T) bool {
	return n.canonical[value]
}

// ValidKeys returns all accepted spellings in sorted order.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
