package ddbstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"strconv"

	"github.com/acksell/docddb/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key encoding for BadgerDB that supports proper lexicographic ordering.
// Key format: [tableName][separator][hashKey][separator][rangeKey]
//
// The separator byte (0x00) never occurs inside an encoded key value, so a
// table or partition prefix always ends at a separator.

const keySeparator byte = 0x00

// tablePrefix returns the prefix shared by every item of the table.
func tablePrefix(ts *table.TableSchema) []byte {
	var buf bytes.Buffer
	buf.WriteString(ts.Name)
	buf.WriteByte(keySeparator)
	return buf.Bytes()
}

// partitionPrefix returns the prefix shared by every item with the given hash key.
func partitionPrefix(ts *table.TableSchema, hash types.AttributeValue) ([]byte, error) {
	enc, err := encodeKeyValue(ts.HashKey, hash)
	if err != nil {
		return nil, fmt.Errorf("encode hash key: %w", err)
	}
	buf := bytes.NewBuffer(tablePrefix(ts))
	buf.Write(enc)
	buf.WriteByte(keySeparator)
	return buf.Bytes(), nil
}

// itemKey encodes the primary key of an item into its BadgerDB key.
func itemKey(ts *table.TableSchema, key map[string]types.AttributeValue) ([]byte, error) {
	prefix, err := partitionPrefix(ts, key[ts.HashKey.Name])
	if err != nil {
		return nil, err
	}
	if !ts.HasRangeKey() {
		return prefix, nil
	}
	enc, err := encodeKeyValue(ts.RangeKey, key[ts.RangeKey.Name])
	if err != nil {
		return nil, fmt.Errorf("encode range key: %w", err)
	}
	return append(prefix, enc...), nil
}

// encodeKeyValue encodes a key value with proper ordering based on key kind.
func encodeKeyValue(def table.KeyDef, av types.AttributeValue) ([]byte, error) {
	if err := table.CheckKind(def, av); err != nil {
		return nil, err
	}
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return escapeBytes([]byte(v.Value)), nil
	case *types.AttributeValueMemberB:
		return escapeBytes(v.Value), nil
	case *types.AttributeValueMemberN:
		enc, err := encodeNumber(v.Value)
		if err != nil {
			return nil, err
		}
		return escapeBytes(enc), nil
	}
	return nil, fmt.Errorf("unsupported key value %T", av)
}

// encodeNumber encodes a number string for lexicographic ordering.
// Format: [sign byte][big-endian float64 bits]
// Positive numbers flip the sign bit, negative numbers invert every bit, so
// byte order equals numeric order.
func encodeNumber(numStr string) ([]byte, error) {
	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", numStr, err)
	}

	bits := math.Float64bits(f)
	buf := make([]byte, 9)
	if f >= 0 {
		buf[0] = 0x80
		bits ^= 1 << 63
	} else {
		buf[0] = 0x7F
		bits = ^bits
	}
	binary.BigEndian.PutUint64(buf[1:], bits)
	return buf, nil
}

// escapeBytes escapes null bytes (0x00) in the input to preserve separator integrity.
// Uses 0x01 0x01 for literal 0x00, and 0x01 0x02 for literal 0x01.
func escapeBytes(b []byte) []byte {
	var buf bytes.Buffer
	for _, c := range b {
		switch c {
		case 0x00:
			buf.WriteByte(0x01)
			buf.WriteByte(0x01)
		case 0x01:
			buf.WriteByte(0x01)
			buf.WriteByte(0x02)
		default:
			buf.WriteByte(c)
		}
	}
	return buf.Bytes()
}

// storedValue is the gob-encodable form of an attribute value.
type storedValue struct {
	Type  string
	Value any
}

func init() {
	gob.Register(map[string]storedValue{})
	gob.Register([]storedValue{})
	gob.Register([]string{})
	gob.Register([][]byte{})
}

// marshalItem serializes a DynamoDB item for storage.
func marshalItem(item map[string]types.AttributeValue) ([]byte, error) {
	stored := make(map[string]storedValue, len(item))
	for k, v := range item {
		sv, err := toStored(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		stored[k] = sv
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stored); err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	return buf.Bytes(), nil
}

// unmarshalItem is the inverse of marshalItem.
func unmarshalItem(data []byte) (map[string]types.AttributeValue, error) {
	var stored map[string]storedValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	item := make(map[string]types.AttributeValue, len(stored))
	for k, v := range stored {
		av, err := fromStored(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func toStored(av types.AttributeValue) (storedValue, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return storedValue{Type: "S", Value: v.Value}, nil
	case *types.AttributeValueMemberN:
		return storedValue{Type: "N", Value: v.Value}, nil
	case *types.AttributeValueMemberB:
		return storedValue{Type: "B", Value: v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return storedValue{Type: "BOOL", Value: v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return storedValue{Type: "NULL", Value: v.Value}, nil
	case *types.AttributeValueMemberSS:
		return storedValue{Type: "SS", Value: v.Value}, nil
	case *types.AttributeValueMemberNS:
		return storedValue{Type: "NS", Value: v.Value}, nil
	case *types.AttributeValueMemberBS:
		return storedValue{Type: "BS", Value: v.Value}, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]storedValue, len(v.Value))
		for k, val := range v.Value {
			sv, err := toStored(val)
			if err != nil {
				return storedValue{}, err
			}
			m[k] = sv
		}
		return storedValue{Type: "M", Value: m}, nil
	case *types.AttributeValueMemberL:
		l := make([]storedValue, len(v.Value))
		for i, val := range v.Value {
			sv, err := toStored(val)
			if err != nil {
				return storedValue{}, err
			}
			l[i] = sv
		}
		return storedValue{Type: "L", Value: l}, nil
	}
	return storedValue{}, fmt.Errorf("unsupported attribute value type %T", av)
}

func fromStored(sv storedValue) (types.AttributeValue, error) {
	switch sv.Type {
	case "S":
		return &types.AttributeValueMemberS{Value: sv.Value.(string)}, nil
	case "N":
		return &types.AttributeValueMemberN{Value: sv.Value.(string)}, nil
	case "B":
		return &types.AttributeValueMemberB{Value: sv.Value.([]byte)}, nil
	case "BOOL":
		return &types.AttributeValueMemberBOOL{Value: sv.Value.(bool)}, nil
	case "NULL":
		return &types.AttributeValueMemberNULL{Value: sv.Value.(bool)}, nil
	case "SS":
		return &types.AttributeValueMemberSS{Value: sv.Value.([]string)}, nil
	case "NS":
		return &types.AttributeValueMemberNS{Value: sv.Value.([]string)}, nil
	case "BS":
		return &types.AttributeValueMemberBS{Value: sv.Value.([][]byte)}, nil
	case "M":
		src := sv.Value.(map[string]storedValue)
		m := make(map[string]types.AttributeValue, len(src))
		for k, v := range src {
			av, err := fromStored(v)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case "L":
		src := sv.Value.([]storedValue)
		l := make([]types.AttributeValue, len(src))
		for i, v := range src {
			av, err := fromStored(v)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	}
	return nil, fmt.Errorf("unsupported stored type %q", sv.Type)
}
