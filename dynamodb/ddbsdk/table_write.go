package ddbsdk

import (
	"context"
	"fmt"

	"github.com/acksell/docddb/dynamodb/codec"
	"github.com/acksell/docddb/dynamodb/compiler"
	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/acksell/docddb/dynamodb/table"
	"github.com/google/uuid"
)

// Put writes item. When the table has a string hash key and item lacks it, a
// random UUID is generated. The written item is returned.
func (t *Table) Put(ctx context.Context, item doc.D, opts ...compiler.Option) (map[string]any, error) {
	if hk := t.schema.HashKey; !item.Has(hk.Name) && hk.Kind == table.KeyKindS {
		item = item.With(hk.Name, uuid.NewString())
	}
	req, err := t.Compile(compiler.Insert, item, nil, opts...)
	if err != nil {
		return nil, err
	}
	if err := t.schema.ValidateItem(req.Item()); err != nil {
		return nil, err
	}
	in, err := req.PutItemInput()
	if err != nil {
		return nil, err
	}
	t.logDispatch(compiler.Insert, req)
	if _, err := t.client.ddb.PutItem(ctx, in); err != nil {
		return nil, fmt.Errorf("put item: %w", err)
	}
	return codec.DecodeItem(req.Item())
}

// Update changes the item addressed by filter. An update document with
// $set/$inc/$unset directives becomes an UpdateItem request; any other
// non-empty document replaces the whole item and must carry the primary key.
//
// The returned attributes depend on the ReturnValues parameter and are nil by default.
func (t *Table) Update(ctx context.Context, filter, update doc.D, opts ...compiler.Option) (map[string]any, error) {
	if len(update) > 0 && !doc.HasDirectives(update) {
		return t.replace(ctx, filter, update, opts...)
	}
	req, err := t.Compile(compiler.Update, filter, update, opts...)
	if err != nil {
		return nil, err
	}
	in, err := req.UpdateItemInput()
	if err != nil {
		return nil, err
	}
	t.logDispatch(compiler.Update, req)
	out, err := t.client.ddb.UpdateItem(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return codec.DecodeItem(out.Attributes)
}

func (t *Table) replace(ctx context.Context, filter, item doc.D, opts ...compiler.Option) (map[string]any, error) {
	req, err := t.Compile(compiler.Replace, filter, item, opts...)
	if err != nil {
		return nil, err
	}
	if err := t.schema.ValidateItem(req.Item()); err != nil {
		return nil, err
	}
	in, err := req.PutItemInput()
	if err != nil {
		return nil, err
	}
	t.logDispatch(compiler.Replace, req)
	out, err := t.client.ddb.PutItem(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("replace item: %w", err)
	}
	return codec.DecodeItem(out.Attributes)
}

// Delete removes the item addressed by filter. Every field of filter must
// match the stored item.
func (t *Table) Delete(ctx context.Context, filter doc.D, opts ...compiler.Option) (map[string]any, error) {
	req, err := t.Compile(compiler.Delete, filter, nil, opts...)
	if err != nil {
		return nil, err
	}
	in, err := req.DeleteItemInput()
	if err != nil {
		return nil, err
	}
	t.logDispatch(compiler.Delete, req)
	out, err := t.client.ddb.DeleteItem(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	return codec.DecodeItem(out.Attributes)
}

func (t *Table) logDispatch(op compiler.Operation, req compiler.Request) {
	t.client.log.Debug().
		Str("table", t.schema.Name).
		Stringer("op", op).
		Str("condition", req.Expr("ConditionExpression")).
		Str("update", req.Expr("UpdateExpression")).
		Msg("dispatch")
}
