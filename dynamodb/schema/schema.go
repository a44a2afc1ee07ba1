// Package schema defines the file format for DynamoDB table schemas.
// A schema file lists tables with their keys, secondary indexes, and the base
// request parameters every compiled request for that table starts from.
package schema

import (
	"github.com/acksell/docddb/dynamodb/table"
)

// Schema is the root type containing all table definitions.
// This maps directly to the structure of schema_dynamodb.yaml files.
type Schema struct {
	Tables []Table `yaml:"tables" json:"tables" validate:"required,min=1,dive"`
}

// Table describes a DynamoDB table structure with its indexes.
type Table struct {
	Name         string  `yaml:"name" json:"name" validate:"required"`
	PartitionKey KeyDef  `yaml:"partitionKey" json:"partitionKey"`
	SortKey      *KeyDef `yaml:"sortKey,omitempty" json:"sortKey,omitempty" validate:"omitempty"`
	GSIs         []Index `yaml:"gsis,omitempty" json:"gsis,omitempty" validate:"dive"`
	LSIs         []Index `yaml:"lsis,omitempty" json:"lsis,omitempty" validate:"dive"`
	// Params are merged into every request compiled for this table, e.g. ReturnConsumedCapacity.
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// KeyDef describes a key attribute definition.
type KeyDef struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Kind string `yaml:"kind" json:"kind" validate:"required,oneof=S N B"`
}

// Index describes a secondary index.
type Index struct {
	Name         string  `yaml:"name" json:"name" validate:"required"`
	PartitionKey KeyDef  `yaml:"partitionKey" json:"partitionKey"`
	SortKey      *KeyDef `yaml:"sortKey,omitempty" json:"sortKey,omitempty" validate:"omitempty"`
}

// Table returns the table with the given name.
func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// TableSchema converts the file representation into the key layout used by the compiler.
// Global indexes are registered before local ones.
func (t *Table) TableSchema() *table.TableSchema {
	var indexes []table.IndexDefinition
	for _, gsi := range t.GSIs {
		indexes = append(indexes, gsi.definition(table.IndexGlobal))
	}
	for _, lsi := range t.LSIs {
		indexes = append(indexes, lsi.definition(table.IndexLocal))
	}
	return table.NewTableSchema(t.Name, t.PartitionKey.keyDef(), t.SortKey.keyDef(), indexes...)
}

// FromTableSchema is the inverse of Table.TableSchema.
func FromTableSchema(ts *table.TableSchema) Table {
	t := Table{
		Name:         ts.Name,
		PartitionKey: fromKeyDef(ts.HashKey),
	}
	if ts.RangeKey.Defined() {
		k := fromKeyDef(ts.RangeKey)
		t.SortKey = &k
	}
	for _, idx := range ts.Indexes {
		i := Index{Name: idx.Name, PartitionKey: fromKeyDef(idx.HashKey)}
		if idx.RangeKey.Defined() {
			k := fromKeyDef(idx.RangeKey)
			i.SortKey = &k
		}
		if idx.Kind == table.IndexLocal {
			t.LSIs = append(t.LSIs, i)
		} else {
			t.GSIs = append(t.GSIs, i)
		}
	}
	return t
}

func (i Index) definition(kind table.IndexKind) table.IndexDefinition {
	return table.IndexDefinition{
		Name:     i.Name,
		Kind:     kind,
		HashKey:  i.PartitionKey.keyDef(),
		RangeKey: i.SortKey.keyDef(),
	}
}

func (k *KeyDef) keyDef() table.KeyDef {
	if k == nil {
		return table.KeyDef{}
	}
	return table.KeyDef{Name: k.Name, Kind: table.KeyKind(k.Kind)}
}

func fromKeyDef(k table.KeyDef) KeyDef {
	return KeyDef{Name: k.Name, Kind: string(k.Kind)}
}
