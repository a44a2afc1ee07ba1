package ddbstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/acksell/docddb/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// PutItem creates or replaces an item.
func (s *Store) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if params.Item == nil {
		return nil, fmt.Errorf("item is required")
	}

	ts, err := s.getTable(params.TableName)
	if err != nil {
		return nil, err
	}
	if err := ts.ValidateItem(params.Item); err != nil {
		return nil, fmt.Errorf("validate item: %w", err)
	}
	key, err := itemKey(ts, params.Item)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	data, err := marshalItem(params.Item)
	if err != nil {
		return nil, err
	}

	c := exprContext{names: params.ExpressionAttributeNames, values: params.ExpressionAttributeValues}
	var oldItem map[string]types.AttributeValue
	err = s.db.Update(func(txn *badger.Txn) error {
		oldItem, err = loadItem(txn, key)
		if err != nil {
			return err
		}
		if err := checkCondition(params.ConditionExpression, c, oldItem); err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}

	out := &dynamodb.PutItemOutput{
		ConsumedCapacity: consumed(ts, params.ReturnConsumedCapacity),
	}
	if params.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = oldItem
	}
	return out, nil
}

// loadItem returns the stored item or nil when the key is absent.
func loadItem(txn *badger.Txn, key []byte) (map[string]types.AttributeValue, error) {
	entry, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var item map[string]types.AttributeValue
	err = entry.Value(func(val []byte) error {
		item, err = unmarshalItem(val)
		return err
	})
	return item, err
}

func checkCondition(expr *string, c exprContext, item map[string]types.AttributeValue) error {
	ok, err := evalCondition(expr, c, item)
	if err != nil {
		return fmt.Errorf("evaluate condition: %w", err)
	}
	if !ok {
		return &types.ConditionalCheckFailedException{
			Message: aws.String("The conditional request failed"),
		}
	}
	return nil
}

func consumed(ts *table.TableSchema, mode types.ReturnConsumedCapacity) *types.ConsumedCapacity {
	if mode == "" || mode == types.ReturnConsumedCapacityNone {
		return nil
	}
	return &types.ConsumedCapacity{
		TableName:     aws.String(ts.Name),
		CapacityUnits: aws.Float64(1),
	}
}
