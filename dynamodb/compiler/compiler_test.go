package compiler

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/acksell/docddb/dynamodb/codec"
	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/acksell/docddb/dynamodb/schema"
	"github.com/acksell/docddb/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hashTable = table.NewTableSchema("Table-HashKey",
	table.KeyDef{Name: "key-0", Kind: table.KeyKindS}, table.KeyDef{},
	table.IndexDefinition{Name: "by-email", Kind: table.IndexGlobal, HashKey: table.KeyDef{Name: "email", Kind: table.KeyKindS}},
)

var rangeTable = table.NewTableSchema("Table-HashKey-RangeKey",
	table.KeyDef{Name: "some-hash-key", Kind: table.KeyKindS},
	table.KeyDef{Name: "some-range-key", Kind: table.KeyKindS},
)

func s(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }
func n(v string) types.AttributeValue { return &types.AttributeValueMemberN{Value: v} }

func newCompiler(t *testing.T, schema *table.TableSchema, base Params) *Compiler {
	t.Helper()
	c, err := New(schema, base)
	require.NoError(t, err)
	return c
}

// allParams holds every top-level parameter any DynamoDB item operation accepts,
// plus some legacy ones no operation should let through.
func allParams() Params {
	return Params{
		"Item":                        map[string]types.AttributeValue{"key": s("value")},
		"TableName":                   "STRING",
		"ConditionExpression":         "STRING",
		"ExpressionAttributeNames":    map[string]string{"key": "value"},
		"ExpressionAttributeValues":   map[string]types.AttributeValue{"key": s("value")},
		"ReturnConsumedCapacity":      "TOTAL",
		"ReturnItemCollectionMetrics": "SIZE",
		"ReturnValues":                "ALL_NEW",
		"ConsistentRead":              true,
		"ExclusiveStartKey":           map[string]types.AttributeValue{"key": s("value")},
		"FilterExpression":            "STRING",
		"IndexName":                   "STRING",
		"KeyConditionExpression":      "STRING",
		"Limit":                       100,
		"ProjectionExpression":        "STRING",
		"ScanIndexForward":            true,
		"Select":                      "ALL_ATTRIBUTES",
		"Segment":                     2,
		"TotalSegments":               4,
		"Key":                         map[string]types.AttributeValue{"key": s("value")},
		"UpdateExpression":            "STRING",
		"Expected":                    map[string]any{},
		"ConditionalOperator":         "AND",
		"AttributesToGet":             []string{},
		"ScanFilter":                  map[string]any{},
		"AttributeUpdates":            map[string]any{},
		"KeyConditions":               map[string]any{},
		"QueryFilter":                 map[string]any{},
	}
}

func assertOnlyAllowed(t *testing.T, op Operation, r Request) {
	t.Helper()
	for k := range r {
		assert.True(t, Allowed(op, k), "%s request must not contain %q", op, k)
	}
}

var filter = doc.D{
	{Key: "key-0", Value: "value-0"},
	{Key: "key-1", Value: map[string]any{"$gte": 12345}},
	{Key: "key-2", Value: map[string]any{"sub-key": "random-value"}},
}

var filterValues = map[string]types.AttributeValue{
	":v0": s("value-0"),
	":v1": n("12345"),
	":v2": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{"sub-key": s("random-value")}},
}

var filterNames = map[string]string{"#k0": "key-0", "#k1": "key-1", "#k2": "key-2"}

func TestInsert(t *testing.T) {
	c := newCompiler(t, hashTable, nil)
	r, err := c.Insert(doc.D{{Key: "key-0", Value: "value-0"}, {Key: "key-1", Value: "value-1"}, {Key: "key-2", Value: 12345}})
	require.NoError(t, err)
	assert.Equal(t, Request{
		"TableName": "Table-HashKey",
		"Item": map[string]types.AttributeValue{
			"key-0": s("value-0"),
			"key-1": s("value-1"),
			"key-2": n("12345"),
		},
	}, r)

	t.Run("strips parameters of other operations", func(t *testing.T) {
		c := newCompiler(t, hashTable, allParams())
		r, err := c.Insert(doc.D{{Key: "key-0", Value: "value-0"}})
		require.NoError(t, err)
		assertOnlyAllowed(t, Insert, r)
		assert.Equal(t, "STRING", r["TableName"])
	})
}

func TestQuery(t *testing.T) {
	c := newCompiler(t, hashTable, nil)
	r, err := c.Query(filter)
	require.NoError(t, err)
	assert.Equal(t, Request{
		"TableName":                 "Table-HashKey",
		"KeyConditionExpression":    "#k0 = :v0 AND #k1 >= :v1 AND #k2 = :v2",
		"ExpressionAttributeNames":  filterNames,
		"ExpressionAttributeValues": filterValues,
	}, r)

	t.Run("strips parameters of other operations", func(t *testing.T) {
		c := newCompiler(t, hashTable, allParams())
		r, err := c.Query(filter)
		require.NoError(t, err)
		assertOnlyAllowed(t, Query, r)
		assert.Equal(t, "#k0 = :v0 AND #k1 >= :v1 AND #k2 = :v2", r["KeyConditionExpression"])
	})

	t.Run("index query", func(t *testing.T) {
		r, err := c.Query(doc.D{{Key: "email", Value: "a@b.c"}})
		require.NoError(t, err)
		assert.Equal(t, "by-email", r["IndexName"])
	})

	t.Run("hash key beats index", func(t *testing.T) {
		r, err := c.Query(doc.D{{Key: "email", Value: "a@b.c"}, {Key: "key-0", Value: "x"}})
		require.NoError(t, err)
		assert.NotContains(t, r, "IndexName")
	})

	t.Run("explicit index wins", func(t *testing.T) {
		r, err := c.Query(doc.D{{Key: "email", Value: "a@b.c"}}, IndexName("other"))
		require.NoError(t, err)
		assert.Equal(t, "other", r["IndexName"])
	})

	t.Run("options override base", func(t *testing.T) {
		c := newCompiler(t, hashTable, Params{"Limit": int32(5), "ConsistentRead": false})
		r, err := c.Query(filter, Limit(10), ConsistentRead(true))
		require.NoError(t, err)
		assert.Equal(t, int32(10), r["Limit"])
		assert.Equal(t, true, r["ConsistentRead"])
	})
}

func TestScan(t *testing.T) {
	c := newCompiler(t, hashTable, nil)
	r, err := c.Scan(filter)
	require.NoError(t, err)
	assert.Equal(t, Request{
		"TableName":                 "Table-HashKey",
		"FilterExpression":          "#k0 = :v0 AND #k1 >= :v1 AND #k2 = :v2",
		"ExpressionAttributeNames":  filterNames,
		"ExpressionAttributeValues": filterValues,
	}, r)

	t.Run("full scan", func(t *testing.T) {
		r, err := c.Scan(doc.D{})
		require.NoError(t, err)
		assert.Equal(t, Request{"TableName": "Table-HashKey"}, r)
	})

	t.Run("strips parameters of other operations", func(t *testing.T) {
		c := newCompiler(t, hashTable, allParams())
		r, err := c.Scan(filter)
		require.NoError(t, err)
		assertOnlyAllowed(t, Scan, r)
		assert.Equal(t, 2, r["Segment"])
	})
}

func TestDelete(t *testing.T) {
	c := newCompiler(t, rangeTable, nil)
	r, err := c.Delete(doc.D{
		{Key: "some-hash-key", Value: "value-0"},
		{Key: "some-range-key", Value: "value-1"},
		{Key: "key-2", Value: map[string]any{"$gte": 12345}},
		{Key: "key-3", Value: map[string]any{"sub-key": "random-value"}},
	})
	require.NoError(t, err)
	assert.Equal(t, Request{
		"TableName": "Table-HashKey-RangeKey",
		"Key": map[string]types.AttributeValue{
			"some-hash-key":  s("value-0"),
			"some-range-key": s("value-1"),
		},
		"ExpressionAttributeNames": map[string]string{
			"#k0": "some-hash-key",
			"#k1": "some-range-key",
			"#k2": "key-2",
			"#k3": "key-3",
		},
		"ExpressionAttributeValues": map[string]types.AttributeValue{
			":v0": s("value-0"),
			":v1": s("value-1"),
			":v2": n("12345"),
			":v3": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{"sub-key": s("random-value")}},
		},
		"ConditionExpression": "#k0 = :v0 AND #k1 = :v1 AND #k2 >= :v2 AND #k3 = :v3",
	}, r)

	t.Run("strips parameters of other operations", func(t *testing.T) {
		c := newCompiler(t, hashTable, allParams())
		r, err := c.Delete(doc.D{{Key: "key-0", Value: "value-0"}})
		require.NoError(t, err)
		assertOnlyAllowed(t, Delete, r)
	})

	t.Run("$eq key", func(t *testing.T) {
		r, err := c.Delete(doc.D{{Key: "some-hash-key", Value: map[string]any{"$eq": "h"}}, {Key: "some-range-key", Value: "r"}})
		require.NoError(t, err)
		assert.Equal(t, s("h"), r.Key()["some-hash-key"])
	})
}

func TestKeyValidation(t *testing.T) {
	tests := []struct {
		name   string
		schema *table.TableSchema
		d      doc.D
		attr   string
	}{
		{"missing hash key", hashTable, doc.D{{Key: "other", Value: "x"}}, "key-0"},
		{"missing range key", rangeTable, doc.D{{Key: "some-hash-key", Value: "x"}}, "some-range-key"},
		{"empty document", rangeTable, doc.D{}, "some-hash-key"},
		{"range operator on key", rangeTable, doc.D{{Key: "some-hash-key", Value: "x"}, {Key: "some-range-key", Value: map[string]any{"$gt": "a"}}}, "some-range-key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompiler(t, tt.schema, nil)

			r, err := c.Delete(tt.d)
			var schemaErr *table.SchemaValidationError
			require.True(t, errors.As(err, &schemaErr), "delete: want SchemaValidationError, got %v", err)
			assert.Equal(t, tt.attr, schemaErr.Attribute)
			assert.Nil(t, r)

			r, err = c.Update(tt.d, doc.D{{Key: "$set", Value: doc.D{{Key: "a", Value: 1}}}})
			require.True(t, errors.As(err, &schemaErr), "update: want SchemaValidationError, got %v", err)
			assert.Nil(t, r)
		})
	}

	t.Run("key type mismatch", func(t *testing.T) {
		c := newCompiler(t, hashTable, nil)
		_, err := c.Delete(doc.D{{Key: "key-0", Value: 12}})
		var mismatch *table.TypeMismatchError
		require.True(t, errors.As(err, &mismatch), "want TypeMismatchError, got %v", err)
		assert.Equal(t, "key-0", mismatch.Attribute)
	})
}

func TestUpdate(t *testing.T) {
	c := newCompiler(t, rangeTable, nil)
	filter := doc.D{
		{Key: "some-hash-key", Value: "value-0"},
		{Key: "some-range-key", Value: "value-1"},
		{Key: "key-0", Value: "value-2"},
		{Key: "key-1", Value: 98765},
		{Key: "key-2", Value: 12345},
	}
	update := doc.D{
		{Key: "$set", Value: doc.D{{Key: "key-0", Value: "value-0-new"}, {Key: "key-1", Value: 11111}}},
		{Key: "$inc", Value: doc.D{{Key: "key-2", Value: 3}}},
		{Key: "$unset", Value: doc.D{{Key: "key-3", Value: 1}}},
	}
	r, err := c.Update(filter, update)
	require.NoError(t, err)
	assert.Equal(t, Request{
		"TableName": "Table-HashKey-RangeKey",
		"Key": map[string]types.AttributeValue{
			"some-hash-key":  s("value-0"),
			"some-range-key": s("value-1"),
		},
		"ExpressionAttributeNames": map[string]string{
			"#k0": "some-hash-key",
			"#k1": "some-range-key",
			"#k2": "key-0",
			"#k3": "key-1",
			"#k4": "key-2",
			"#k5": "key-0",
			"#k6": "key-1",
			"#k7": "key-2",
			"#k8": "key-3",
		},
		"ExpressionAttributeValues": map[string]types.AttributeValue{
			":v0": s("value-0"),
			":v1": s("value-1"),
			":v2": s("value-2"),
			":v3": n("98765"),
			":v4": n("12345"),
			":v5": s("value-0-new"),
			":v6": n("11111"),
			":v7": n("3"),
		},
		"ConditionExpression": "#k0 = :v0 AND #k1 = :v1 AND #k2 = :v2 AND #k3 = :v3 AND #k4 = :v4",
		"UpdateExpression":    "SET #k5 = :v5, #k6 = :v6 ADD #k7 :v7 REMOVE #k8",
	}, r)

	t.Run("directive order is kept", func(t *testing.T) {
		r, err := c.Update(
			doc.D{{Key: "some-hash-key", Value: "h"}, {Key: "some-range-key", Value: "r"}},
			doc.D{{Key: "$unset", Value: doc.D{{Key: "a", Value: 1}}}, {Key: "$set", Value: doc.D{{Key: "b", Value: "x"}}}},
		)
		require.NoError(t, err)
		assert.Equal(t, "REMOVE #k2 SET #k3 = :v3", r["UpdateExpression"])
	})

	t.Run("strips parameters of other operations", func(t *testing.T) {
		c := newCompiler(t, hashTable, allParams())
		r, err := c.Update(doc.D{{Key: "key-0", Value: "value-0"}}, update)
		require.NoError(t, err)
		assertOnlyAllowed(t, Update, r)
	})

	t.Run("unknown directive", func(t *testing.T) {
		_, err := c.Update(filter, doc.D{{Key: "$push", Value: doc.D{{Key: "a", Value: 1}}}})
		var unknown *doc.UnknownDirectiveError
		assert.True(t, errors.As(err, &unknown), "got %v", err)
	})

	t.Run("empty update", func(t *testing.T) {
		_, err := c.Update(filter, doc.D{})
		assert.ErrorIs(t, err, ErrEmptyUpdate)

		_, err = c.Update(filter, doc.D{{Key: "$set", Value: doc.D{}}})
		assert.ErrorIs(t, err, ErrEmptyUpdate)
	})

	t.Run("encoding error", func(t *testing.T) {
		_, err := c.Update(filter, doc.D{{Key: "$set", Value: doc.D{{Key: "ch", Value: make(chan int)}}}})
		var encErr *codec.EncodingError
		assert.True(t, errors.As(err, &encErr), "got %v", err)
	})
}

func TestReplace(t *testing.T) {
	c := newCompiler(t, hashTable, nil)
	r, err := c.Replace(
		doc.D{{Key: "key-0", Value: "value-0"}, {Key: "key-1", Value: 98765}, {Key: "key-2", Value: map[string]any{"$gt": 12345}}},
		doc.D{{Key: "key-0", Value: "value-0-new"}, {Key: "key-1", Value: 55555}, {Key: "key-2", Value: 99999}},
	)
	require.NoError(t, err)
	assert.Equal(t, Request{
		"TableName": "Table-HashKey",
		"Item": map[string]types.AttributeValue{
			"key-0": s("value-0-new"),
			"key-1": n("55555"),
			"key-2": n("99999"),
		},
		"ExpressionAttributeNames": map[string]string{"#k0": "key-0", "#k1": "key-1", "#k2": "key-2"},
		"ExpressionAttributeValues": map[string]types.AttributeValue{
			":v0": s("value-0"),
			":v1": n("98765"),
			":v2": n("12345"),
		},
		"ConditionExpression": "#k0 = :v0 AND #k1 = :v1 AND #k2 > :v2",
	}, r)

	t.Run("strips parameters of other operations", func(t *testing.T) {
		c := newCompiler(t, hashTable, allParams())
		r, err := c.Replace(doc.D{{Key: "key-0", Value: "value-0"}}, doc.D{{Key: "key-0", Value: "value-0"}})
		require.NoError(t, err)
		assertOnlyAllowed(t, Replace, r)
	})
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNoHashKey)

	_, err = New(table.NewTableSchema("t", table.KeyDef{}, table.KeyDef{}), nil)
	assert.ErrorIs(t, err, ErrNoHashKey)

	base := Params{"ReturnConsumedCapacity": "TOTAL"}
	c := newCompiler(t, hashTable, base)
	assert.Equal(t, Params{"ReturnConsumedCapacity": "TOTAL", "TableName": "Table-HashKey"}, c.Base())
	assert.NotContains(t, base, "TableName", "caller's base must not be modified")
}

func TestBaseIsNotShared(t *testing.T) {
	base := Params{"ExpressionAttributeNames": map[string]string{"#p": "x"}}
	c := newCompiler(t, hashTable, base)

	r, err := c.Scan(doc.D{{Key: "a", Value: 1}})
	require.NoError(t, err)
	assert.Len(t, r.Names(), 2)

	r, err = c.Scan(doc.D{{Key: "b", Value: 2}})
	require.NoError(t, err)
	assert.Len(t, r.Names(), 2)
	assert.Equal(t, map[string]string{"#p": "x"}, base["ExpressionAttributeNames"])
}

func TestNewBuilder(t *testing.T) {
	for op := Insert; op <= Replace; op++ {
		b, err := NewBuilder(op, Config{Schema: hashTable})
		require.NoError(t, err)
		assert.Equal(t, op, b.Operation())
	}

	_, err := NewBuilder(Operation(42), Config{Schema: hashTable})
	assert.Error(t, err)

	_, err = NewBuilder(Query, Config{})
	assert.ErrorIs(t, err, ErrNoHashKey)
}

func TestParseOperation(t *testing.T) {
	for op := Insert; op <= Replace; op++ {
		got, err := ParseOperation(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	_, err := ParseOperation("upsert")
	assert.Error(t, err)
}

func TestWhitelistIdempotent(t *testing.T) {
	for op := Insert; op <= Replace; op++ {
		t.Run(op.String(), func(t *testing.T) {
			once := Whitelist(op, Request(allParams()))
			twice := Whitelist(op, Request(Params(once).Clone()))
			assert.Equal(t, once, twice)
			assert.NotEmpty(t, once)
		})
	}
}

func TestBaseParamsFromSchemaFile(t *testing.T) {
	sch, err := schema.Parse([]byte(`
tables:
  - name: events
    partitionKey: {name: id, kind: S}
    params:
      ProjectionExpression: "#p, id"
      ExpressionAttributeNames: {"#p": payload}
      ExpressionAttributeValues: {":min": 18}
`))
	require.NoError(t, err)
	tbl, ok := sch.Table("events")
	require.True(t, ok)

	c := newCompiler(t, tbl.TableSchema(), Params(tbl.Params))
	r, err := c.Query(doc.D{{Key: "id", Value: "a"}})
	require.NoError(t, err)
	assert.Equal(t, "#p, id", r.Expr("ProjectionExpression"))
	assert.Equal(t, map[string]string{"#p": "payload", "#k0": "id"}, r.Names())
	assert.Equal(t, map[string]types.AttributeValue{":min": n("18"), ":v0": s("a")}, r.Values())

	in, err := r.QueryInput()
	require.NoError(t, err)
	assert.Equal(t, "payload", in.ExpressionAttributeNames["#p"])

	t.Run("projection option keeps base names", func(t *testing.T) {
		r, err := c.Query(doc.D{{Key: "id", Value: "a"}}, Projection("name"))
		require.NoError(t, err)
		assert.Equal(t, "payload", r.Names()["#p"])
		assert.Equal(t, "id", r.Names()["#k0"])
		assert.Len(t, r.Names(), 3)
	})
}

func TestConcurrentCompiles(t *testing.T) {
	c := newCompiler(t, hashTable, Params{
		"ExpressionAttributeNames": map[string]string{"#p": "payload"},
		"ReturnConsumedCapacity":   "TOTAL",
	})

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("id-%d", i)

			r, err := c.Query(doc.D{{Key: "key-0", Value: id}}, Projection("name"))
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, "#k0 = :v0", r.Expr("KeyConditionExpression"))
			assert.Equal(t, s(id), r.Values()[":v0"])
			assert.Equal(t, "payload", r.Names()["#p"])
			assert.Len(t, r.Names(), 3)

			r, err = c.Update(doc.D{{Key: "key-0", Value: id}}, doc.D{{Key: "$set", Value: doc.D{{Key: "name", Value: id}}}})
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, "#k0 = :v0", r.Expr("ConditionExpression"))
			assert.Equal(t, "SET #k1 = :v1", r.Expr("UpdateExpression"))
			assert.Equal(t, s(id), r.Values()[":v1"])
			assert.Equal(t, map[string]string{"#p": "payload", "#k0": "key-0", "#k1": "name"}, r.Names())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, Params{
		"ExpressionAttributeNames": map[string]string{"#p": "payload"},
		"ReturnConsumedCapacity":   "TOTAL",
		"TableName":                "Table-HashKey",
	}, c.Base())
}
