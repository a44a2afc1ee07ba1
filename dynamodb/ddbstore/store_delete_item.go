package ddbstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// DeleteItem deletes a single item by primary key. Deleting a missing item
// succeeds unless a condition expression rejects it.
func (s *Store) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	ts, err := s.getTable(params.TableName)
	if err != nil {
		return nil, err
	}
	if _, err := ts.ExtractKey(params.Key); err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	key, err := itemKey(ts, params.Key)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
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
		if oldItem == nil {
			return nil
		}
		return txn.Delete(key)
	})
	if err != nil {
		return nil, err
	}

	out := &dynamodb.DeleteItemOutput{
		ConsumedCapacity: consumed(ts, params.ReturnConsumedCapacity),
	}
	if params.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = oldItem
	}
	return out, nil
}
