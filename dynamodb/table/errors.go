package table

import "fmt"

// SchemaValidationError is returned when a document lacks a key attribute the
// table requires, or uses a key attribute in a way that cannot address an item.
type SchemaValidationError struct {
	Table     string
	Attribute string
	Reason    string
}

func (e *SchemaValidationError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("key %q: %s", e.Attribute, e.Reason)
	}
	return fmt.Sprintf("table %q: key %q: %s", e.Table, e.Attribute, e.Reason)
}

// TypeMismatchError is returned when an encoded key value does not carry the
// scalar type declared by the schema.
type TypeMismatchError struct {
	Attribute string
	Want      KeyKind
	Got       string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("key %q: got type %s want %s", e.Attribute, e.Got, e.Want)
}
