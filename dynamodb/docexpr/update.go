package docexpr

import (
	"strings"

	"github.com/acksell/docddb/dynamodb/doc"
)

// CompileUpdate builds an update expression from u, one clause per directive in
// document order, e.g. "SET #k3 = :v3 ADD #k4 :v4 REMOVE #k5".
func CompileUpdate(s *State, u doc.Update) (string, error) {
	clauses := make([]string, 0, len(u))
	for _, d := range u {
		c := s.Collector()
		var action string
		switch d.Kind {
		case doc.Set:
			action = "SET "
			for _, e := range d.Fields {
				if err := c.MapWithGlue(e.Key, doc.ValueOf(e.Value), " = "); err != nil {
					return "", err
				}
			}
		case doc.Inc:
			action = "ADD "
			for _, e := range d.Fields {
				if err := c.MapWithGlue(e.Key, doc.ValueOf(e.Value), " "); err != nil {
					return "", err
				}
			}
		case doc.Unset:
			action = "REMOVE "
			for _, e := range d.Fields {
				c.MapName(e.Key)
			}
		default:
			return "", &doc.UnknownDirectiveError{Directive: string(d.Kind)}
		}
		if c.Len() == 0 {
			continue
		}
		clauses = append(clauses, action+strings.Join(c.fragments, ", "))
	}
	return strings.Join(clauses, " "), nil
}
