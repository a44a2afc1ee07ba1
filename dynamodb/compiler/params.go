package compiler

import (
	"errors"
	"fmt"
	"maps"

	"github.com/acksell/docddb/dynamodb/codec"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Params holds top-level request parameters keyed by their DynamoDB API name.
type Params map[string]any

// Clone copies p. Placeholder and attribute maps are copied too, so compiling
// into a clone never writes through to a shared base.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		switch t := v.(type) {
		case map[string]string:
			out[k] = maps.Clone(t)
		case map[string]types.AttributeValue:
			out[k] = maps.Clone(t)
		default:
			out[k] = v
		}
	}
	return out
}

// normalize converts placeholder maps decoded from YAML or JSON, which arrive
// as map[string]any, into the typed maps compiled requests carry. Values are
// encoded with the codec, so ":min": 18 becomes {N: "18"}.
func (p Params) normalize() (Params, error) {
	out := p.Clone()
	switch names := out["ExpressionAttributeNames"].(type) {
	case nil, map[string]string:
	case map[string]any:
		typed := make(map[string]string, len(names))
		for ph, v := range names {
			name, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("ExpressionAttributeNames %q: expected a string, got %T", ph, v)
			}
			typed[ph] = name
		}
		out["ExpressionAttributeNames"] = typed
	default:
		return nil, fmt.Errorf("ExpressionAttributeNames: unsupported type %T", names)
	}
	switch values := out["ExpressionAttributeValues"].(type) {
	case nil, map[string]types.AttributeValue:
	case map[string]any:
		typed := make(map[string]types.AttributeValue, len(values))
		for ph, v := range values {
			av, ok := v.(types.AttributeValue)
			if !ok {
				var err error
				if av, err = codec.Encode(v); err != nil {
					return nil, fmt.Errorf("ExpressionAttributeValues %q: %w", ph, err)
				}
			}
			typed[ph] = av
		}
		out["ExpressionAttributeValues"] = typed
	default:
		return nil, fmt.Errorf("ExpressionAttributeValues: unsupported type %T", values)
	}
	return out, nil
}

// Merge returns a clone of p with every entry of other applied on top.
// Placeholder maps are unioned, entries of other winning.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for k, v := range other.Clone() {
		switch t := v.(type) {
		case map[string]string:
			if prev, ok := out[k].(map[string]string); ok && k == "ExpressionAttributeNames" {
				maps.Copy(prev, t)
				continue
			}
		case map[string]types.AttributeValue:
			if prev, ok := out[k].(map[string]types.AttributeValue); ok && k == "ExpressionAttributeValues" {
				maps.Copy(prev, t)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// Option sets per-call request parameters.
type Option func(Params) error

// Options applies opts to a fresh Params.
func Options(opts ...Option) (Params, error) {
	p := make(Params)
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// WithParams copies raw parameters into the call options.
func WithParams(params Params) Option {
	return func(p Params) error {
		for k, v := range params.Clone() {
			p[k] = v
		}
		return nil
	}
}

// Projection limits the returned attributes. Nested paths use dots, e.g. "meta.version".
func Projection(attrs ...string) Option {
	return func(p Params) error {
		if len(attrs) == 0 {
			return errors.New("projection needs at least one attribute")
		}
		names := make([]expression.NameBuilder, 0, len(attrs)-1)
		for _, a := range attrs[1:] {
			names = append(names, expression.Name(a))
		}
		expr, err := expression.NewBuilder().
			WithProjection(expression.NamesList(expression.Name(attrs[0]), names...)).
			Build()
		if err != nil {
			return fmt.Errorf("build projection: %w", err)
		}
		p["ProjectionExpression"] = *expr.Projection()
		existing, _ := p["ExpressionAttributeNames"].(map[string]string)
		merged := maps.Clone(existing)
		if merged == nil {
			merged = make(map[string]string)
		}
		maps.Copy(merged, expr.Names())
		p["ExpressionAttributeNames"] = merged
		return nil
	}
}

func Limit(n int32) Option {
	return set("Limit", n)
}

func ConsistentRead(v bool) Option {
	return set("ConsistentRead", v)
}

func ScanIndexForward(v bool) Option {
	return set("ScanIndexForward", v)
}

func ReturnValues(v types.ReturnValue) Option {
	return set("ReturnValues", v)
}

func ReturnConsumedCapacity(v types.ReturnConsumedCapacity) Option {
	return set("ReturnConsumedCapacity", v)
}

// IndexName forces a query or scan onto an index regardless of the selected access path.
func IndexName(name string) Option {
	return set("IndexName", name)
}

func ExclusiveStartKey(key map[string]types.AttributeValue) Option {
	return set("ExclusiveStartKey", maps.Clone(key))
}

func set(key string, value any) Option {
	return func(p Params) error {
		p[key] = value
		return nil
	}
}
