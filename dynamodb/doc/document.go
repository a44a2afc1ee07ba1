// Package doc models the MongoDB-style documents accepted by the compiler.
//
// A filter document is an ordered list of fields. Each field value is either a
// literal (equality) or a single-key operator object such as {"$gte": 10}.
// Field order matters: placeholders are numbered in document order, so D is a
// slice rather than a map.
package doc

import (
	"sort"
)

// E is a single document field.
type E struct {
	Key   string
	Value any
}

// D is an ordered document. Duplicate keys are kept and compiled once per occurrence.
type D []E

// Has reports whether the document contains a field with the given name.
func (d D) Has(name string) bool {
	for _, e := range d {
		if e.Key == name {
			return true
		}
	}
	return false
}

// Get returns the value of the first field with the given name.
func (d D) Get(name string) (any, bool) {
	for _, e := range d {
		if e.Key == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the field names in document order.
func (d D) Keys() []string {
	keys := make([]string, 0, len(d))
	for _, e := range d {
		keys = append(keys, e.Key)
	}
	return keys
}

// With returns a copy of d with the field prepended.
func (d D) With(key string, value any) D {
	out := make(D, 0, len(d)+1)
	out = append(out, E{Key: key, Value: value})
	return append(out, d...)
}

// FromMap converts a plain map into a document.
// Go maps carry no order, so keys are sorted to keep compilation deterministic.
func FromMap(m map[string]any) D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := make(D, 0, len(m))
	for _, k := range keys {
		d = append(d, E{Key: k, Value: m[k]})
	}
	return d
}

// Term is a resolved filter field.
type Term struct {
	Field string
	Value Value
}

// Terms resolves every field of a filter document into its tagged value.
func Terms(d D) []Term {
	terms := make([]Term, 0, len(d))
	for _, e := range d {
		terms = append(terms, Term{Field: e.Key, Value: ValueOf(e.Value)})
	}
	return terms
}
