package table

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyDef names a key attribute and its scalar type. The zero KeyDef means "no key".
type KeyDef struct {
	Name string
	Kind KeyKind
}

// Defined reports whether the key is part of the schema.
func (k KeyDef) Defined() bool {
	return k.Name != ""
}

type KeyKind string

const (
	KeyKindS KeyKind = "S"
	KeyKindN KeyKind = "N"
	KeyKindB KeyKind = "B"
)

// Valid reports whether k is one of the scalar key kinds.
func (k KeyKind) Valid() bool {
	switch k {
	case KeyKindS, KeyKindN, KeyKindB:
		return true
	}
	return false
}

// KindOf returns the scalar kind of av, or false if av is not a scalar key type.
func KindOf(av types.AttributeValue) (KeyKind, bool) {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return KeyKindS, true
	case *types.AttributeValueMemberN:
		return KeyKindN, true
	case *types.AttributeValueMemberB:
		return KeyKindB, true
	}
	return "", false
}

// CheckKind verifies that an encoded value matches the declared key type.
func CheckKind(def KeyDef, av types.AttributeValue) error {
	got, ok := KindOf(av)
	if !ok || got != def.Kind {
		return &TypeMismatchError{Attribute: def.Name, Want: def.Kind, Got: tagOf(av)}
	}
	return nil
}

func tagOf(av types.AttributeValue) string {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return "S"
	case *types.AttributeValueMemberN:
		return "N"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberBOOL:
		return "BOOL"
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case *types.AttributeValueMemberM:
		return "M"
	case *types.AttributeValueMemberL:
		return "L"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberBS:
		return "BS"
	case nil:
		return "<nil>"
	}
	return "unknown"
}
