package docexpr

import (
	"errors"
	"testing"

	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileUpdate(t *testing.T) {
	t.Run("clauses follow document order", func(t *testing.T) {
		u, err := doc.NewUpdate(doc.D{
			{Key: "$inc", Value: doc.D{{Key: "count", Value: 1}}},
			{Key: "$set", Value: doc.D{{Key: "a", Value: "x"}, {Key: "b", Value: "y"}}},
			{Key: "$unset", Value: doc.D{{Key: "c", Value: 1}}},
		})
		require.NoError(t, err)

		s := NewState()
		require.NoError(t, s.Map("hash", doc.Literal("h")))
		require.NoError(t, s.Map("range", doc.Literal("r")))
		require.NoError(t, s.Map("check", doc.Literal("z")))

		expr, err := CompileUpdate(s, u)
		require.NoError(t, err)
		assert.Equal(t, "ADD #k3 :v3 SET #k4 = :v4, #k5 = :v5 REMOVE #k6", expr)
		assert.Equal(t, "#k0 = :v0 AND #k1 = :v1 AND #k2 = :v2", s.Condition())
		assert.Equal(t, "c", s.Names()["#k6"])
		assert.NotContains(t, s.Values(), ":v6")
		assert.Equal(t, &types.AttributeValueMemberN{Value: "1"}, s.Values()[":v3"])
	})

	t.Run("repeated directive is one clause", func(t *testing.T) {
		u, err := doc.NewUpdate(doc.D{
			{Key: "$set", Value: doc.D{{Key: "a", Value: "x"}}},
			{Key: "$set", Value: doc.D{{Key: "b", Value: "y"}}},
		})
		require.NoError(t, err)

		s := NewState()
		require.NoError(t, s.Map("id", doc.Literal("h")))
		expr, err := CompileUpdate(s, u)
		require.NoError(t, err)
		assert.Equal(t, "SET #k1 = :v1, #k2 = :v2", expr)
	})

	t.Run("set inc unset", func(t *testing.T) {
		u, err := doc.NewUpdate(doc.D{
			{Key: "$set", Value: doc.D{{Key: "a", Value: "x"}}},
			{Key: "$inc", Value: doc.D{{Key: "b", Value: 3}}},
			{Key: "$unset", Value: doc.D{{Key: "c", Value: 1}}},
		})
		require.NoError(t, err)

		expr, err := CompileUpdate(NewState(), u)
		require.NoError(t, err)
		assert.Equal(t, "SET #k0 = :v0 ADD #k1 :v1 REMOVE #k2", expr)
	})

	t.Run("empty directive is skipped", func(t *testing.T) {
		u, err := doc.NewUpdate(doc.D{{Key: "$set", Value: doc.D{}}, {Key: "$unset", Value: doc.D{{Key: "a", Value: nil}}}})
		require.NoError(t, err)

		expr, err := CompileUpdate(NewState(), u)
		require.NoError(t, err)
		assert.Equal(t, "REMOVE #k0", expr)
	})

	t.Run("operator values in set use the operand", func(t *testing.T) {
		u, err := doc.NewUpdate(doc.D{{Key: "$set", Value: doc.D{{Key: "a", Value: map[string]any{"$gt": 5}}}}})
		require.NoError(t, err)

		s := NewState()
		expr, err := CompileUpdate(s, u)
		require.NoError(t, err)
		assert.Equal(t, "SET #k0 = :v0", expr)
		assert.Equal(t, &types.AttributeValueMemberN{Value: "5"}, s.Values()[":v0"])
	})

	t.Run("unknown directive", func(t *testing.T) {
		_, err := CompileUpdate(NewState(), doc.Update{{Kind: "$push"}})
		var unknown *doc.UnknownDirectiveError
		assert.True(t, errors.As(err, &unknown))
	})
}
