package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/acksell/docddb/dynamodb/codec"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mitchellh/mapstructure"
)

// Request is a compiled request keyed by DynamoDB API parameter name.
// It is built fresh for every compile and not touched by the compiler afterwards.
type Request map[string]any

// Expr returns a string parameter such as "KeyConditionExpression", or "".
func (r Request) Expr(key string) string {
	s, _ := r[key].(string)
	return s
}

func (r Request) Names() map[string]string {
	m, _ := r["ExpressionAttributeNames"].(map[string]string)
	return m
}

func (r Request) Values() map[string]types.AttributeValue {
	m, _ := r["ExpressionAttributeValues"].(map[string]types.AttributeValue)
	return m
}

func (r Request) Key() map[string]types.AttributeValue {
	m, _ := r["Key"].(map[string]types.AttributeValue)
	return m
}

func (r Request) Item() map[string]types.AttributeValue {
	m, _ := r["Item"].(map[string]types.AttributeValue)
	return m
}

// MarshalJSON renders attribute values in DynamoDB JSON, e.g. {"S": "x"}.
func (r Request) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r))
	for k, v := range r {
		switch t := v.(type) {
		case map[string]types.AttributeValue:
			out[k] = codec.WireItem(t)
		case types.AttributeValue:
			out[k] = codec.Wire(t)
		default:
			out[k] = v
		}
	}
	return json.Marshal(out)
}

func (r Request) PutItemInput() (*dynamodb.PutItemInput, error) {
	in := &dynamodb.PutItemInput{}
	return in, r.decode(in)
}

func (r Request) QueryInput() (*dynamodb.QueryInput, error) {
	in := &dynamodb.QueryInput{}
	return in, r.decode(in)
}

func (r Request) ScanInput() (*dynamodb.ScanInput, error) {
	in := &dynamodb.ScanInput{}
	return in, r.decode(in)
}

func (r Request) DeleteItemInput() (*dynamodb.DeleteItemInput, error) {
	in := &dynamodb.DeleteItemInput{}
	return in, r.decode(in)
}

func (r Request) UpdateItemInput() (*dynamodb.UpdateItemInput, error) {
	in := &dynamodb.UpdateItemInput{}
	return in, r.decode(in)
}

func (r Request) decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(r)); err != nil {
		return fmt.Errorf("decode request into %T: %w", out, err)
	}
	return nil
}
