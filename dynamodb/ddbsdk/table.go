package ddbsdk

import (
	"github.com/acksell/docddb/dynamodb/compiler"
	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/acksell/docddb/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Table compiles and runs documents against one table. Configure it with the
// Add and Return methods before sharing it between goroutines.
type Table struct {
	client *Client
	schema *table.TableSchema
	base   compiler.Params
}

func (t *Table) Name() string {
	return t.schema.Name
}

func (t *Table) Schema() *table.TableSchema {
	return t.schema
}

// AddParam sets a parameter on every request of the table. Parameters an
// operation does not accept are dropped when it compiles.
func (t *Table) AddParam(key string, value any) *Table {
	t.base[key] = value
	return t
}

func (t *Table) AddParams(params compiler.Params) *Table {
	for k, v := range params {
		t.base[k] = v
	}
	return t
}

func (t *Table) ReturnConsumedCapacity() *Table {
	return t.AddParam("ReturnConsumedCapacity", types.ReturnConsumedCapacityTotal)
}

func (t *Table) ReturnOldValues() *Table {
	return t.AddParam("ReturnValues", types.ReturnValueAllOld)
}

// Compile builds the request for op without sending it.
func (t *Table) Compile(op compiler.Operation, d, extra doc.D, opts ...compiler.Option) (compiler.Request, error) {
	c, err := compiler.New(t.schema, t.base)
	if err != nil {
		return nil, err
	}
	return c.Compile(op, d, extra, opts...)
}
