package codec

import (
	"encoding/base64"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Wire returns the DynamoDB JSON shape of an attribute value, e.g. {"S": "x"}.
func Wire(av types.AttributeValue) map[string]any {
	switch t := av.(type) {
	case *types.AttributeValueMemberS:
		return map[string]any{"S": t.Value}
	case *types.AttributeValueMemberN:
		return map[string]any{"N": t.Value}
	case *types.AttributeValueMemberB:
		return map[string]any{"B": base64.StdEncoding.EncodeToString(t.Value)}
	case *types.AttributeValueMemberBOOL:
		return map[string]any{"BOOL": t.Value}
	case *types.AttributeValueMemberNULL:
		return map[string]any{"NULL": t.Value}
	case *types.AttributeValueMemberM:
		return map[string]any{"M": WireItem(t.Value)}
	case *types.AttributeValueMemberL:
		l := make([]any, len(t.Value))
		for i, v := range t.Value {
			l[i] = Wire(v)
		}
		return map[string]any{"L": l}
	case *types.AttributeValueMemberSS:
		return map[string]any{"SS": t.Value}
	case *types.AttributeValueMemberNS:
		return map[string]any{"NS": t.Value}
	case *types.AttributeValueMemberBS:
		bs := make([]string, len(t.Value))
		for i, b := range t.Value {
			bs[i] = base64.StdEncoding.EncodeToString(b)
		}
		return map[string]any{"BS": bs}
	}
	return nil
}

// WireItem applies Wire to every attribute of an item.
func WireItem(item map[string]types.AttributeValue) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = Wire(v)
	}
	return out
}
