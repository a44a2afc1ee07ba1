// Package codec converts document values to DynamoDB attribute values and back.
//
// Strings encode as S, every numeric kind as N (plain decimal string), maps and
// documents as M. Slices encode as M keyed by index so that callers relying on
// list semantics have to opt in explicitly.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/exp/constraints"
)

// EncodingError is returned when a value has no attribute value representation.
type EncodingError struct {
	Path  string
	Type  string
	Cause error
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("cannot encode %s", e.Type)
	if e.Path != "" {
		msg += fmt.Sprintf(" at %q", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *EncodingError) Unwrap() error {
	return e.Cause
}

// Encode converts v to its attribute value.
func Encode(v any) (types.AttributeValue, error) {
	return encode("", v)
}

// EncodeItem encodes every field of d into an item map.
// A field repeated in d keeps its last value.
func EncodeItem(d doc.D) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(d))
	for _, e := range d {
		av, err := encode(e.Key, e.Value)
		if err != nil {
			return nil, err
		}
		item[e.Key] = av
	}
	return item, nil
}

func encode(path string, v any) (types.AttributeValue, error) {
	switch t := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: t}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: t}, nil
	case []byte:
		return &types.AttributeValueMemberB{Value: t}, nil
	case int:
		return number(formatSigned(t)), nil
	case int8:
		return number(formatSigned(t)), nil
	case int16:
		return number(formatSigned(t)), nil
	case int32:
		return number(formatSigned(t)), nil
	case int64:
		return number(formatSigned(t)), nil
	case uint:
		return number(formatUnsigned(t)), nil
	case uint8:
		return number(formatUnsigned(t)), nil
	case uint16:
		return number(formatUnsigned(t)), nil
	case uint32:
		return number(formatUnsigned(t)), nil
	case uint64:
		return number(formatUnsigned(t)), nil
	case float32:
		return encodeFloat(path, float64(t))
	case float64:
		return encodeFloat(path, t)
	case json.Number:
		s, err := normalizeNumber(string(t))
		if err != nil {
			return nil, &EncodingError{Path: path, Type: "json.Number", Cause: err}
		}
		return number(s), nil
	case doc.Value:
		return encode(path, t.Operand())
	case doc.D:
		m := make(map[string]types.AttributeValue, len(t))
		for _, e := range t {
			av, err := encode(join(path, e.Key), e.Value)
			if err != nil {
				return nil, err
			}
			m[e.Key] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case map[string]any:
		m := make(map[string]types.AttributeValue, len(t))
		for k, val := range t {
			av, err := encode(join(path, k), val)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		return encodeSlice(path, reflect.ValueOf(t))
	}
	return encodeReflect(path, v)
}

func encodeReflect(path string, v any) (types.AttributeValue, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return encodeSlice(path, rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &EncodingError{Path: path, Type: rv.Type().String()}
		}
		m := make(map[string]types.AttributeValue, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			av, err := encode(join(path, k), iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return &types.AttributeValueMemberNULL{Value: true}, nil
		}
		if rv.Elem().Kind() != reflect.Struct {
			return encode(path, rv.Elem().Interface())
		}
		return encodeStruct(path, v)
	case reflect.Struct:
		return encodeStruct(path, v)
	case reflect.String:
		return &types.AttributeValueMemberS{Value: rv.String()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number(formatSigned(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return number(formatUnsigned(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return encodeFloat(path, rv.Float())
	}
	return nil, &EncodingError{Path: path, Type: fmt.Sprintf("%T", v)}
}

func encodeStruct(path string, v any) (types.AttributeValue, error) {
	m, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, &EncodingError{Path: path, Type: fmt.Sprintf("%T", v), Cause: err}
	}
	return &types.AttributeValueMemberM{Value: m}, nil
}

func encodeSlice(path string, rv reflect.Value) (types.AttributeValue, error) {
	m := make(map[string]types.AttributeValue, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		k := strconv.Itoa(i)
		av, err := encode(join(path, k), rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		m[k] = av
	}
	return &types.AttributeValueMemberM{Value: m}, nil
}

func encodeFloat(path string, f float64) (types.AttributeValue, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &EncodingError{Path: path, Type: "float64", Cause: fmt.Errorf("%v is not a number", f)}
	}
	return number(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

func number(s string) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: s}
}

func formatSigned[T constraints.Signed](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

func formatUnsigned[T constraints.Unsigned](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}

var decimalNumber = regexp.MustCompile(`^[-+]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][-+]?[0-9]+)?$`)

// normalizeNumber accepts decimal syntax only and rewrites exponent notation
// as a plain decimal.
func normalizeNumber(s string) (string, error) {
	if !decimalNumber.MatchString(s) {
		return "", fmt.Errorf("%q is not a decimal number", s)
	}
	if !strings.ContainsAny(s, "eE") {
		return s, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
