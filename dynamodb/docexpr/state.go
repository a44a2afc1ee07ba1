// Package docexpr turns resolved document fields into DynamoDB expression
// fragments with #k<N> name and :v<N> value placeholders.
//
// One State is created per compile call. Every mapped field consumes exactly one
// counter slot, so placeholder numbers are unique across condition and update
// clauses of the same request.
package docexpr

import (
	"fmt"
	"strings"

	"github.com/acksell/docddb/dynamodb/codec"
	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// State accumulates placeholders and expression fragments for one request.
type State struct {
	counter   *int
	names     map[string]string
	values    map[string]types.AttributeValue
	fragments []string
}

func NewState() *State {
	return &State{
		counter: new(int),
		names:   make(map[string]string),
		values:  make(map[string]types.AttributeValue),
	}
}

// Collector returns a State sharing the counter and placeholder maps with s
// but writing to its own fragment list.
func (s *State) Collector() *State {
	return &State{
		counter: s.counter,
		names:   s.names,
		values:  s.values,
	}
}

// Map adds the fragment "name <symbol> value" for a filter field.
func (s *State) Map(name string, v doc.Value) error {
	return s.mapField(name, v, "")
}

// MapWithGlue adds "name<glue>value", ignoring the value's operator.
func (s *State) MapWithGlue(name string, v doc.Value, glue string) error {
	return s.mapField(name, v, glue)
}

// MapName adds a bare name placeholder, as used by REMOVE.
func (s *State) MapName(name string) {
	_, namePH := s.next(name)
	s.fragments = append(s.fragments, namePH)
}

// MapAll maps every term of a filter document in order.
func (s *State) MapAll(terms []doc.Term) error {
	for _, t := range terms {
		if err := s.Map(t.Field, t.Value); err != nil {
			return err
		}
	}
	return nil
}

// next consumes one counter slot and registers the name placeholder for it.
func (s *State) next(name string) (int, string) {
	i := *s.counter
	*s.counter++
	namePH := fmt.Sprintf("#k%d", i)
	s.names[namePH] = name
	return i, namePH
}

func (s *State) mapField(name string, v doc.Value, glue string) error {
	i, namePH := s.next(name)

	av, err := codec.Encode(v.Operand())
	if err != nil {
		return fmt.Errorf("field %q: %w", name, err)
	}
	valuePH := fmt.Sprintf(":v%d", i)
	s.values[valuePH] = av

	if glue == "" {
		glue = " " + v.Symbol() + " "
	}
	s.fragments = append(s.fragments, namePH+glue+valuePH)
	return nil
}

// Condition joins the fragments with " AND ".
func (s *State) Condition() string {
	return strings.Join(s.fragments, " AND ")
}

// Fragments returns the fragments added to this State, in order.
func (s *State) Fragments() []string {
	return append([]string(nil), s.fragments...)
}

// Len is the number of fragments added to this State.
func (s *State) Len() int {
	return len(s.fragments)
}

// Counter is the next placeholder index.
func (s *State) Counter() int {
	return *s.counter
}

// Names returns the name placeholder map, or nil if nothing was mapped.
func (s *State) Names() map[string]string {
	if len(s.names) == 0 {
		return nil
	}
	return s.names
}

// Values returns the value placeholder map, or nil if no value was mapped.
func (s *State) Values() map[string]types.AttributeValue {
	if len(s.values) == 0 {
		return nil
	}
	return s.values
}
