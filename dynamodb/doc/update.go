package doc

import (
	"fmt"
	"slices"
	"strings"
)

// DirectiveKind is an update directive key.
type DirectiveKind string

const (
	Set   DirectiveKind = "$set"
	Inc   DirectiveKind = "$inc"
	Unset DirectiveKind = "$unset"
)

// UnknownDirectiveError is returned when an update document has a key outside $set/$inc/$unset.
type UnknownDirectiveError struct {
	Directive string
}

func (e *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("unknown update directive %q", e.Directive)
}

// Directive is one directive of an update document with its fields.
// For $unset only the field names are used.
type Directive struct {
	Kind   DirectiveKind
	Fields D
}

// Update is a parsed update document, in document order. Each kind appears
// at most once.
type Update []Directive

// NewUpdate parses an update document such as
//
//	doc.D{{"$set", doc.D{{"a", "x"}}}, {"$inc", doc.D{{"b", 3}}}}
//
// A repeated directive is merged into its first occurrence.
func NewUpdate(d D) (Update, error) {
	u := make(Update, 0, len(d))
	seen := make(map[DirectiveKind]int, len(d))
	for _, e := range d {
		kind := DirectiveKind(e.Key)
		switch kind {
		case Set, Inc, Unset:
		default:
			return nil, &UnknownDirectiveError{Directive: e.Key}
		}
		fields, err := asDocument(e.Value)
		if err != nil {
			return nil, fmt.Errorf("directive %s: %w", e.Key, err)
		}
		if i, ok := seen[kind]; ok {
			u[i].Fields = append(u[i].Fields, fields...)
			continue
		}
		seen[kind] = len(u)
		u = append(u, Directive{Kind: kind, Fields: slices.Clone(fields)})
	}
	return u, nil
}

// HasDirectives reports whether d looks like an update document, i.e. any key starts with "$".
// Documents without directives are treated as replacement items.
func HasDirectives(d D) bool {
	for _, e := range d {
		if strings.HasPrefix(e.Key, "$") {
			return true
		}
	}
	return false
}

func asDocument(v any) (D, error) {
	switch t := v.(type) {
	case D:
		return t, nil
	case map[string]any:
		return FromMap(t), nil
	case nil:
		return D{}, nil
	default:
		return nil, fmt.Errorf("expected an object, got %T", v)
	}
}
