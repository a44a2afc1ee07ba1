package ddbstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// UpdateItem applies an update expression to an item, creating it from the
// key when it does not exist yet.
func (s *Store) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if params.UpdateExpression == nil {
		return nil, fmt.Errorf("update expression is required")
	}
	ts, err := s.getTable(params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := ts.ExtractKey(params.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	key, err := itemKey(ts, pk)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}

	c := exprContext{names: params.ExpressionAttributeNames, values: params.ExpressionAttributeValues}
	actions, err := parseUpdate(*params.UpdateExpression, c)
	if err != nil {
		return nil, fmt.Errorf("parse update: %w", err)
	}
	for _, a := range actions {
		if len(a.path) == 1 {
			if _, isKey := pk[a.path[0]]; isKey {
				return nil, fmt.Errorf("cannot update key attribute %q", a.path[0])
			}
		}
	}

	var oldItem, newItem map[string]types.AttributeValue
	err = s.db.Update(func(txn *badger.Txn) error {
		oldItem, err = loadItem(txn, key)
		if err != nil {
			return err
		}
		if err := checkCondition(params.ConditionExpression, c, oldItem); err != nil {
			return err
		}
		newItem = copyItem(oldItem)
		if newItem == nil {
			newItem = copyItem(pk)
		}
		if err := applyUpdate(newItem, actions); err != nil {
			return err
		}
		data, err := marshalItem(newItem)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}

	out := &dynamodb.UpdateItemOutput{
		ConsumedCapacity: consumed(ts, params.ReturnConsumedCapacity),
	}
	switch params.ReturnValues {
	case types.ReturnValueAllOld:
		out.Attributes = oldItem
	case types.ReturnValueAllNew:
		out.Attributes = newItem
	case types.ReturnValueUpdatedOld:
		out.Attributes = touched(oldItem, actions)
	case types.ReturnValueUpdatedNew:
		out.Attributes = touched(newItem, actions)
	}
	return out, nil
}

// touched returns the top-level attributes of item named by actions.
func touched(item map[string]types.AttributeValue, actions []updateAction) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue)
	for _, a := range actions {
		if v, ok := item[a.path[0]]; ok {
			out[a.path[0]] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
