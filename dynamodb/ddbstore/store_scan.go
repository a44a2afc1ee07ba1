package ddbstore

import (
	"context"
	"fmt"

	"github.com/acksell/docddb/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Scan reads every item of the table, or every item carrying the key of the
// named index, in storage order.
func (s *Store) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	ts, err := s.getTable(params.TableName)
	if err != nil {
		return nil, err
	}

	var index *table.IndexDefinition
	var keep func(map[string]types.AttributeValue) bool
	if params.IndexName != nil {
		idx, ok := ts.Index(*params.IndexName)
		if !ok {
			return nil, fmt.Errorf("table %q has no index %q", ts.Name, *params.IndexName)
		}
		index = &idx
		keep = func(item map[string]types.AttributeValue) bool {
			_, err := idx.ExtractKey(item)
			return err == nil
		}
	}

	items, err := s.collect(tablePrefix(ts), keep)
	if err != nil {
		return nil, err
	}
	p, err := readPage(ts, index, items, readParams{
		filter:     params.FilterExpression,
		projection: params.ProjectionExpression,
		context:    exprContext{names: params.ExpressionAttributeNames, values: params.ExpressionAttributeValues},
		limit:      params.Limit,
		start:      params.ExclusiveStartKey,
		count:      params.Select == types.SelectCount,
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.ScanOutput{
		Items:            p.items,
		Count:            p.count,
		ScannedCount:     p.scanned,
		LastEvaluatedKey: p.lastKey,
		ConsumedCapacity: consumed(ts, params.ReturnConsumedCapacity),
	}, nil
}
