package table

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDescription(t *testing.T) {
	desc := &types.TableDescription{
		TableName: aws.String("orders"),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("created"), AttributeType: types.ScalarAttributeTypeN},
			{AttributeName: aws.String("customer"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("status"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("created"), KeyType: types.KeyTypeRange},
		},
		LocalSecondaryIndexes: []types.LocalSecondaryIndexDescription{{
			IndexName: aws.String("by-status"),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("status"), KeyType: types.KeyTypeRange},
			},
		}},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndexDescription{{
			IndexName: aws.String("by-customer"),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("customer"), KeyType: types.KeyTypeHash},
			},
		}},
	}

	s, err := FromDescription(desc)
	require.NoError(t, err)
	assert.Equal(t, "orders", s.Name)
	assert.Equal(t, KeyDef{Name: "id", Kind: KeyKindS}, s.HashKey)
	assert.Equal(t, KeyDef{Name: "created", Kind: KeyKindN}, s.RangeKey)
	require.Len(t, s.Indexes, 2)
	assert.Equal(t, "by-customer", s.Indexes[0].Name, "global indexes come first")
	assert.Equal(t, IndexGlobal, s.Indexes[0].Kind)
	assert.Equal(t, "by-status", s.Indexes[1].Name)
	assert.Equal(t, KeyDef{Name: "status", Kind: KeyKindS}, s.Indexes[1].RangeKey)

	t.Run("round trip", func(t *testing.T) {
		again, err := FromDescription(s.Description())
		require.NoError(t, err)
		assert.Equal(t, s, again)
	})
}

func TestFromDescriptionErrors(t *testing.T) {
	_, err := FromDescription(nil)
	assert.Error(t, err)

	_, err = FromDescription(&types.TableDescription{
		TableName: aws.String("t"),
		KeySchema: []types.KeySchemaElement{{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash}},
	})
	assert.ErrorContains(t, err, `attribute "id" has no definition`)

	_, err = FromDescription(&types.TableDescription{
		TableName:            aws.String("t"),
		AttributeDefinitions: []types.AttributeDefinition{{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS}},
		KeySchema:            []types.KeySchemaElement{{AttributeName: aws.String("id"), KeyType: types.KeyTypeRange}},
	})
	assert.ErrorContains(t, err, "no HASH element")
}

func TestDescriptionDedupesAttributes(t *testing.T) {
	desc := hashAndRange.Description()
	names := make([]string, 0, len(desc.AttributeDefinitions))
	for _, d := range desc.AttributeDefinitions {
		names = append(names, aws.ToString(d.AttributeName))
	}
	assert.Equal(t, []string{"pk", "ts", "user", "type"}, names)
	assert.Len(t, desc.GlobalSecondaryIndexes, 1)
	assert.Len(t, desc.LocalSecondaryIndexes, 1)
}
