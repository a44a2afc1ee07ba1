// Package compiler turns MongoDB-style filter and update documents into
// DynamoDB requests using #k<N> name and :v<N> value placeholders.
//
//	c, _ := compiler.New(schema, nil)
//	req, err := c.Query(doc.D{{"id", "u1"}, {"age", map[string]any{"$gte": 18}}})
//	// req["KeyConditionExpression"] == "#k0 = :v0 AND #k1 >= :v1"
//
// Compiling is pure computation. A Compiler holds only read-only state and can
// be used from many goroutines at once.
package compiler

import (
	"errors"
	"fmt"

	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/acksell/docddb/dynamodb/table"
)

var (
	// ErrNoHashKey is returned when configuring a builder for a schema without a hash key.
	ErrNoHashKey = errors.New("hash key is mandatory to build queries")
	// ErrEmptyUpdate is returned when an update document changes no attribute.
	ErrEmptyUpdate = errors.New("update document has no fields to change")
)

// Compiler compiles documents against one table.
type Compiler struct {
	schema *table.TableSchema
	base   Params
}

// New returns a Compiler whose requests start from base. TableName defaults to
// the schema's table name. Placeholder maps in base may be untyped, as decoded
// from a schema file.
func New(schema *table.TableSchema, base Params) (*Compiler, error) {
	if schema == nil || !schema.HashKey.Defined() {
		return nil, ErrNoHashKey
	}
	b, err := base.normalize()
	if err != nil {
		return nil, fmt.Errorf("base params: %w", err)
	}
	if _, ok := b["TableName"]; !ok {
		b["TableName"] = schema.Name
	}
	return &Compiler{schema: schema, base: b}, nil
}

func (c *Compiler) Schema() *table.TableSchema {
	return c.schema
}

// Base returns a copy of the base parameters.
func (c *Compiler) Base() Params {
	return c.base.Clone()
}

// Compile builds the request for op. See Builder.Build for the meaning of extra.
func (c *Compiler) Compile(op Operation, d, extra doc.D, opts ...Option) (Request, error) {
	options, err := Options(opts...)
	if err != nil {
		return nil, err
	}
	b, err := NewBuilder(op, Config{Schema: c.schema, Base: c.base, Options: options})
	if err != nil {
		return nil, err
	}
	return b.Build(d, extra)
}

func (c *Compiler) Insert(item doc.D, opts ...Option) (Request, error) {
	return c.Compile(Insert, item, nil, opts...)
}

func (c *Compiler) Query(filter doc.D, opts ...Option) (Request, error) {
	return c.Compile(Query, filter, nil, opts...)
}

// Scan with an empty filter reads the whole table.
func (c *Compiler) Scan(filter doc.D, opts ...Option) (Request, error) {
	return c.Compile(Scan, filter, nil, opts...)
}

func (c *Compiler) Delete(filter doc.D, opts ...Option) (Request, error) {
	return c.Compile(Delete, filter, nil, opts...)
}

func (c *Compiler) Update(filter, update doc.D, opts ...Option) (Request, error) {
	return c.Compile(Update, filter, update, opts...)
}

// Replace overwrites the whole item, guarded by a condition built from filter.
func (c *Compiler) Replace(filter, item doc.D, opts ...Option) (Request, error) {
	return c.Compile(Replace, filter, item, opts...)
}
