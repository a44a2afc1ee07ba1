// Package table describes the key layout of a DynamoDB table: its primary key
// and the secondary indexes that can serve a query.
package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type IndexKind string

const (
	IndexGlobal IndexKind = "GLOBAL"
	IndexLocal  IndexKind = "LOCAL"
)

// IndexDefinition is a secondary index over the table.
type IndexDefinition struct {
	Name     string
	Kind     IndexKind
	HashKey  KeyDef
	RangeKey KeyDef
}

// TableSchema is the key layout of a table. It is built once and then only read,
// so a single value can be shared by any number of concurrent compiles.
type TableSchema struct {
	Name     string
	HashKey  KeyDef
	RangeKey KeyDef
	// Indexes in registration order; index selection picks the first match.
	Indexes []IndexDefinition
}

// NewTableSchema copies indexes so later changes to the caller's slice cannot
// leak into the schema.
func NewTableSchema(name string, hashKey, rangeKey KeyDef, indexes ...IndexDefinition) *TableSchema {
	return &TableSchema{
		Name:     name,
		HashKey:  hashKey,
		RangeKey: rangeKey,
		Indexes:  append([]IndexDefinition(nil), indexes...),
	}
}

func (t *TableSchema) HasRangeKey() bool {
	return t.RangeKey.Defined()
}

// KeyDefs returns the primary key definitions, hash key first.
func (t *TableSchema) KeyDefs() []KeyDef {
	if t.HasRangeKey() {
		return []KeyDef{t.HashKey, t.RangeKey}
	}
	return []KeyDef{t.HashKey}
}

// Index returns the index with the given name.
func (t *TableSchema) Index(name string) (IndexDefinition, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDefinition{}, false
}

// ValidateItem checks that item carries the primary key attributes with their
// declared types.
func (t *TableSchema) ValidateItem(item map[string]types.AttributeValue) error {
	_, err := t.ExtractKey(item)
	return err
}

// ExtractKey returns the primary key attributes of item.
func (t *TableSchema) ExtractKey(item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	return extractKey(t.Name, item, t.KeyDefs()...)
}

// ExtractKey returns the index key attributes of item.
func (i IndexDefinition) ExtractKey(item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	defs := []KeyDef{i.HashKey}
	if i.RangeKey.Defined() {
		defs = append(defs, i.RangeKey)
	}
	key, err := extractKey("", item, defs...)
	if err != nil {
		return nil, fmt.Errorf("index %q: %w", i.Name, err)
	}
	return key, nil
}

func extractKey(tableName string, item map[string]types.AttributeValue, defs ...KeyDef) (map[string]types.AttributeValue, error) {
	key := make(map[string]types.AttributeValue, len(defs))
	for _, def := range defs {
		av, ok := item[def.Name]
		if !ok {
			return nil, &SchemaValidationError{Table: tableName, Attribute: def.Name, Reason: "missing from item"}
		}
		if err := CheckKind(def, av); err != nil {
			return nil, err
		}
		key[def.Name] = av
	}
	return key, nil
}
