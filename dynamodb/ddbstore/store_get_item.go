package ddbstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// GetItem retrieves a single item by its primary key.
func (s *Store) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
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

	var item map[string]types.AttributeValue
	err = s.db.View(func(txn *badger.Txn) error {
		item, err = loadItem(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}

	c := exprContext{names: params.ExpressionAttributeNames}
	if item != nil {
		if item, err = project(params.ProjectionExpression, c, item); err != nil {
			return nil, err
		}
	}
	return &dynamodb.GetItemOutput{
		Item:             item,
		ConsumedCapacity: consumed(ts, params.ReturnConsumedCapacity),
	}, nil
}
