package ddbsdk

import (
	"context"
	"fmt"

	"github.com/acksell/docddb/dynamodb/codec"
	"github.com/acksell/docddb/dynamodb/compiler"
	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/acksell/docddb/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Find returns the items matching filter. A filter naming the table hash key
// or an index hash key is served by a query, anything else by a scan. An
// empty filter scans the whole table. Only the first page is read.
func (t *Table) Find(ctx context.Context, filter doc.D, opts ...compiler.Option) ([]map[string]any, error) {
	var items []map[string]types.AttributeValue
	path := t.schema.SelectAccessPath(filter)
	switch path.Mode {
	case table.PrimaryQuery, table.IndexQuery:
		req, err := t.Compile(compiler.Query, filter, nil, opts...)
		if err != nil {
			return nil, err
		}
		in, err := req.QueryInput()
		if err != nil {
			return nil, err
		}
		t.client.log.Debug().
			Str("table", t.schema.Name).
			Stringer("op", compiler.Query).
			Stringer("path", path.Mode).
			Str("index", path.IndexName).
			Str("key_condition", req.Expr("KeyConditionExpression")).
			Msg("dispatch")
		out, err := t.client.ddb.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		items = out.Items
	default:
		req, err := t.Compile(compiler.Scan, filter, nil, opts...)
		if err != nil {
			return nil, err
		}
		in, err := req.ScanInput()
		if err != nil {
			return nil, err
		}
		t.client.log.Debug().
			Str("table", t.schema.Name).
			Stringer("op", compiler.Scan).
			Str("filter", req.Expr("FilterExpression")).
			Msg("dispatch")
		out, err := t.client.ddb.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = out.Items
	}

	res := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, err := codec.DecodeItem(item)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, nil
}

// Get reads one item by its primary key. Key values must be literals. A
// missing item yields nil and no error.
func (t *Table) Get(ctx context.Context, key doc.D) (map[string]any, error) {
	item, err := t.get(ctx, key)
	if err != nil {
		return nil, err
	}
	return codec.DecodeItem(item)
}

// GetInto reads one item into out, a pointer to a struct with dynamodbav
// tags. It reports whether the item exists.
func (t *Table) GetInto(ctx context.Context, key doc.D, out any) (bool, error) {
	item, err := t.get(ctx, key)
	if err != nil || item == nil {
		return false, err
	}
	if err := codec.DecodeInto(item, out); err != nil {
		return false, fmt.Errorf("decode item: %w", err)
	}
	return true, nil
}

func (t *Table) get(ctx context.Context, key doc.D) (map[string]types.AttributeValue, error) {
	encoded, err := codec.EncodeItem(key)
	if err != nil {
		return nil, err
	}
	pk, err := t.schema.ExtractKey(encoded)
	if err != nil {
		return nil, err
	}
	in := &dynamodb.GetItemInput{TableName: &t.schema.Name, Key: pk}
	if v, ok := t.base["ConsistentRead"].(bool); ok {
		in.ConsistentRead = &v
	}
	t.client.log.Debug().Str("table", t.schema.Name).Str("op", "get").Msg("dispatch")
	out, err := t.client.ddb.GetItem(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return out.Item, nil
}
