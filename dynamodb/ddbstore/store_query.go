package ddbstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/acksell/docddb/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// Query retrieves the items of one partition of the table or of an index.
//
// A query on the table reads the partition prefix directly, so items come
// back in range key order. An index query walks the whole table and sorts the
// items that carry the index hash key by the index range key.
func (s *Store) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if params.KeyConditionExpression == nil {
		return nil, fmt.Errorf("key condition expression is required")
	}
	ts, err := s.getTable(params.TableName)
	if err != nil {
		return nil, err
	}

	hashKey, rangeKey := ts.HashKey, ts.RangeKey
	var index *table.IndexDefinition
	if params.IndexName != nil {
		idx, ok := ts.Index(*params.IndexName)
		if !ok {
			return nil, fmt.Errorf("table %q has no index %q", ts.Name, *params.IndexName)
		}
		index = &idx
		hashKey, rangeKey = idx.HashKey, idx.RangeKey
	}

	c := exprContext{names: params.ExpressionAttributeNames, values: params.ExpressionAttributeValues}
	keyTerms, err := parseCondition(*params.KeyConditionExpression, c)
	if err != nil {
		return nil, fmt.Errorf("parse key condition: %w", err)
	}
	hash, err := hashEquality(keyTerms, hashKey)
	if err != nil {
		return nil, err
	}

	var items []map[string]types.AttributeValue
	if index == nil {
		prefix, err := partitionPrefix(ts, hash)
		if err != nil {
			return nil, err
		}
		items, err = s.collect(prefix, nil)
		if err != nil {
			return nil, err
		}
	} else {
		items, err = s.collect(tablePrefix(ts), func(item map[string]types.AttributeValue) bool {
			_, err := index.ExtractKey(item)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		if rangeKey.Defined() {
			slices.SortStableFunc(items, func(a, b map[string]types.AttributeValue) int {
				cmp, _ := compareScalar(a[rangeKey.Name], b[rangeKey.Name])
				return cmp
			})
		}
	}

	items = slices.DeleteFunc(items, func(item map[string]types.AttributeValue) bool {
		return !matches(keyTerms, item)
	})
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		slices.Reverse(items)
	}

	p, err := readPage(ts, index, items, readParams{
		filter:     params.FilterExpression,
		projection: params.ProjectionExpression,
		context:    c,
		limit:      params.Limit,
		start:      params.ExclusiveStartKey,
		count:      params.Select == types.SelectCount,
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.QueryOutput{
		Items:            p.items,
		Count:            p.count,
		ScannedCount:     p.scanned,
		LastEvaluatedKey: p.lastKey,
		ConsumedCapacity: consumed(ts, params.ReturnConsumedCapacity),
	}, nil
}

// hashEquality finds the "hash = :v" term every key condition needs.
func hashEquality(terms []comparison, hashKey table.KeyDef) (types.AttributeValue, error) {
	for _, t := range terms {
		if len(t.path) == 1 && t.path[0] == hashKey.Name && t.op == "=" {
			if err := table.CheckKind(hashKey, t.value); err != nil {
				return nil, err
			}
			return t.value, nil
		}
	}
	return nil, fmt.Errorf("key condition must test hash key %q for equality", hashKey.Name)
}

// collect reads every item under prefix that keep accepts, in key order.
func (s *Store) collect(prefix []byte, keep func(map[string]types.AttributeValue) bool) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				item, err := unmarshalItem(val)
				if err != nil {
					return err
				}
				if keep == nil || keep(item) {
					items = append(items, item)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return items, err
}

type readParams struct {
	filter     *string
	projection *string
	context    exprContext
	limit      *int32
	start      map[string]types.AttributeValue
	count      bool
}

type page struct {
	items   []map[string]types.AttributeValue
	count   int32
	scanned int32
	lastKey map[string]types.AttributeValue
}

// readPage applies the exclusive start key, filter, limit and projection to
// items. Limit counts items after filtering.
func readPage(ts *table.TableSchema, index *table.IndexDefinition, items []map[string]types.AttributeValue, p readParams) (page, error) {
	if len(p.start) > 0 {
		pos := slices.IndexFunc(items, func(item map[string]types.AttributeValue) bool {
			return sameKey(ts, item, p.start)
		})
		if pos < 0 {
			return page{}, fmt.Errorf("exclusive start key does not match any item")
		}
		items = items[pos+1:]
	}

	filter, err := parseCondition(deref(p.filter), p.context)
	if err != nil {
		return page{}, fmt.Errorf("parse filter: %w", err)
	}

	var out page
	for i, item := range items {
		out.scanned++
		if !matches(filter, item) {
			continue
		}
		out.count++
		if !p.count {
			projected, err := project(p.projection, p.context, item)
			if err != nil {
				return page{}, err
			}
			out.items = append(out.items, projected)
		}
		if p.limit != nil && out.count >= *p.limit && i < len(items)-1 {
			out.lastKey = lastKey(ts, index, item)
			break
		}
	}
	return out, nil
}

func sameKey(ts *table.TableSchema, item, key map[string]types.AttributeValue) bool {
	for _, def := range ts.KeyDefs() {
		if !attributeValuesEqual(item[def.Name], key[def.Name]) {
			return false
		}
	}
	return true
}

// lastKey carries the table key and, for index reads, the index key.
func lastKey(ts *table.TableSchema, index *table.IndexDefinition, item map[string]types.AttributeValue) map[string]types.AttributeValue {
	key, _ := ts.ExtractKey(item)
	if index != nil {
		if ik, err := index.ExtractKey(item); err == nil {
			for k, v := range ik {
				key[k] = v
			}
		}
	}
	return key
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
