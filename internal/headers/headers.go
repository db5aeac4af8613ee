// Package headers defines the ordered header collection the analyzers
// consume. Order and exact casing are preserved as received: both are
// detection signals, so names are never canonicalized and case-variant
// duplicates are kept side by side.
package headers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Pair is a single header name/value as received.
type Pair struct {
	Name  string
	Value string
}

// Set is an ordered header collection. The zero value is an empty set.
type Set struct {
	pairs []Pair
}

// FromPairs builds a Set preserving the given order.
func FromPairs(pairs []Pair) Set {
	s := Set{pairs: make([]Pair, len(pairs))}
	copy(s.pairs, pairs)
	return s
}

// FromMapOrdered builds a Set from parallel name/value slices.
func FromMapOrdered(names, values []string) (Set, error) {
	if len(names) != len(values) {
		return Set{}, fmt.Errorf("headers: %d names but %d values", len(names), len(values))
	}
	s := Set{pairs: make([]Pair, 0, len(names))}
	for i := range names {
		s.pairs = append(s.pairs, Pair{Name: names[i], Value: values[i]})
	}
	return s, nil
}

// Add appends a header, keeping insertion order.
func (s *Set) Add(name, value string) {
	s.pairs = append(s.pairs, Pair{Name: name, Value: value})
}

// Len returns the number of headers, duplicates included.
func (s Set) Len() int { return len(s.pairs) }

// Pairs returns the headers in received order. Callers must not mutate.
func (s Set) Pairs() []Pair { return s.pairs }

// Names returns header names in received order.
func (s Set) Names() []string {
	names := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		names[i] = p.Name
	}
	return names
}

// Values returns header values in received order.
func (s Set) Values() []string {
	values := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		values[i] = p.Value
	}
	return values
}

// Get returns the first value for an exact-case name match.
func (s Set) Get(name string) (string, bool) {
	for _, p := range s.pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// GetFold returns the first value for a case-insensitive name match.
func (s Set) GetFold(name string) (string, bool) {
	for _, p := range s.pairs {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether an exact-case name is present.
func (s Set) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Index returns the position of the first exact-case match, or -1.
func (s Set) Index(name string) int {
	for i, p := range s.pairs {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// UnmarshalJSON decodes a JSON object into the set, preserving key order
// and keeping duplicate keys. encoding/json's map decoding would lose
// both, so this walks the token stream instead.
func (s *Set) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("headers: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("headers: expected JSON object, got %v", tok)
	}

	s.pairs = s.pairs[:0]
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("headers: non-string key %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		switch v := valTok.(type) {
		case string:
			s.pairs = append(s.pairs, Pair{Name: name, Value: v})
		case float64, bool, nil:
			s.pairs = append(s.pairs, Pair{Name: name, Value: fmt.Sprint(v)})
		default:
			return fmt.Errorf("headers: value for %q is not a scalar", name)
		}
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return fmt.Errorf("headers: %w", err)
	}
	return nil
}

// MarshalJSON encodes the set as a JSON object in received order.
// Duplicate names are emitted as duplicate keys.
func (s Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
