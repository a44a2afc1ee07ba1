package table

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// FromDescription builds a schema from a DescribeTable response. Global indexes
// are registered before local ones, each in the order DynamoDB lists them.
func FromDescription(desc *types.TableDescription) (*TableSchema, error) {
	if desc == nil {
		return nil, errors.New("table description is nil")
	}
	kinds := make(map[string]KeyKind, len(desc.AttributeDefinitions))
	for _, def := range desc.AttributeDefinitions {
		kinds[aws.ToString(def.AttributeName)] = KeyKind(def.AttributeType)
	}
	name := aws.ToString(desc.TableName)

	hash, rng, err := keysFromSchema(desc.KeySchema, kinds)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", name, err)
	}
	if !hash.Defined() {
		return nil, fmt.Errorf("table %q: key schema has no HASH element", name)
	}

	var indexes []IndexDefinition
	for _, gsi := range desc.GlobalSecondaryIndexes {
		idx, err := indexFromSchema(aws.ToString(gsi.IndexName), IndexGlobal, gsi.KeySchema, kinds)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		indexes = append(indexes, idx)
	}
	for _, lsi := range desc.LocalSecondaryIndexes {
		idx, err := indexFromSchema(aws.ToString(lsi.IndexName), IndexLocal, lsi.KeySchema, kinds)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		indexes = append(indexes, idx)
	}
	return NewTableSchema(name, hash, rng, indexes...), nil
}

func indexFromSchema(name string, kind IndexKind, elems []types.KeySchemaElement, kinds map[string]KeyKind) (IndexDefinition, error) {
	hash, rng, err := keysFromSchema(elems, kinds)
	if err != nil {
		return IndexDefinition{}, fmt.Errorf("index %q: %w", name, err)
	}
	if !hash.Defined() {
		return IndexDefinition{}, fmt.Errorf("index %q: key schema has no HASH element", name)
	}
	return IndexDefinition{Name: name, Kind: kind, HashKey: hash, RangeKey: rng}, nil
}

func keysFromSchema(elems []types.KeySchemaElement, kinds map[string]KeyKind) (hash, rng KeyDef, err error) {
	for _, e := range elems {
		attr := aws.ToString(e.AttributeName)
		kind, ok := kinds[attr]
		if !ok {
			return KeyDef{}, KeyDef{}, fmt.Errorf("attribute %q has no definition", attr)
		}
		switch e.KeyType {
		case types.KeyTypeHash:
			hash = KeyDef{Name: attr, Kind: kind}
		case types.KeyTypeRange:
			rng = KeyDef{Name: attr, Kind: kind}
		default:
			return KeyDef{}, KeyDef{}, fmt.Errorf("attribute %q: unknown key type %q", attr, e.KeyType)
		}
	}
	return hash, rng, nil
}

// Description is the inverse of FromDescription. The local store answers
// DescribeTable with it.
func (t *TableSchema) Description() *types.TableDescription {
	var defs []types.AttributeDefinition
	seen := make(map[string]bool)
	addDef := func(k KeyDef) {
		if !k.Defined() || seen[k.Name] {
			return
		}
		seen[k.Name] = true
		defs = append(defs, types.AttributeDefinition{
			AttributeName: aws.String(k.Name),
			AttributeType: types.ScalarAttributeType(k.Kind),
		})
	}
	addDef(t.HashKey)
	addDef(t.RangeKey)

	desc := &types.TableDescription{
		TableName:   aws.String(t.Name),
		TableStatus: types.TableStatusActive,
		KeySchema:   keySchema(t.HashKey, t.RangeKey),
	}
	for _, idx := range t.Indexes {
		addDef(idx.HashKey)
		addDef(idx.RangeKey)
		projection := &types.Projection{ProjectionType: types.ProjectionTypeAll}
		switch idx.Kind {
		case IndexLocal:
			desc.LocalSecondaryIndexes = append(desc.LocalSecondaryIndexes, types.LocalSecondaryIndexDescription{
				IndexName:  aws.String(idx.Name),
				KeySchema:  keySchema(idx.HashKey, idx.RangeKey),
				Projection: projection,
			})
		default:
			desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes, types.GlobalSecondaryIndexDescription{
				IndexName:   aws.String(idx.Name),
				KeySchema:   keySchema(idx.HashKey, idx.RangeKey),
				Projection:  projection,
				IndexStatus: types.IndexStatusActive,
			})
		}
	}
	desc.AttributeDefinitions = defs
	return desc
}

func keySchema(hash, rng KeyDef) []types.KeySchemaElement {
	elems := []types.KeySchemaElement{{AttributeName: aws.String(hash.Name), KeyType: types.KeyTypeHash}}
	if rng.Defined() {
		elems = append(elems, types.KeySchemaElement{AttributeName: aws.String(rng.Name), KeyType: types.KeyTypeRange})
	}
	return elems
}
