package codec

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Decode converts an attribute value back to a plain Go value.
// N decodes to int64 when integral and float64 otherwise, M to map[string]any.
func Decode(av types.AttributeValue) (any, error) {
	switch t := av.(type) {
	case nil:
		return nil, nil
	case *types.AttributeValueMemberS:
		return t.Value, nil
	case *types.AttributeValueMemberN:
		return decodeNumber(t.Value)
	case *types.AttributeValueMemberBOOL:
		return t.Value, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberB:
		return t.Value, nil
	case *types.AttributeValueMemberM:
		return DecodeItem(t.Value)
	default:
		var out any
		if err := attributevalue.Unmarshal(av, &out); err != nil {
			return nil, fmt.Errorf("decode %T: %w", av, err)
		}
		return out, nil
	}
}

// DecodeItem decodes an item map into a plain map.
func DecodeItem(item map[string]types.AttributeValue) (map[string]any, error) {
	if item == nil {
		return nil, nil
	}
	out := make(map[string]any, len(item))
	for k, av := range item {
		v, err := Decode(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// DecodeInto unmarshals an item into a struct using dynamodbav tags.
func DecodeInto(item map[string]types.AttributeValue, out any) error {
	return attributevalue.UnmarshalMap(item, out)
}

func decodeNumber(s string) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return f, nil
}
