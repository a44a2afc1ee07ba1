package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueOf(t *testing.T) {
	tests := []struct {
		name       string
		raw        any
		isOperator bool
		symbol     string
		operand    any
	}{
		{"string literal", "some string", false, "=", "some string"},
		{"number literal", 12345, false, "=", 12345},
		{"object literal", map[string]any{"key": "random object"}, false, "=", map[string]any{"key": "random object"}},
		{"$eq", map[string]any{"$eq": 12345}, true, "=", 12345},
		{"$gt", map[string]any{"$gt": 12345}, true, ">", 12345},
		{"$gte", map[string]any{"$gte": 12345}, true, ">=", 12345},
		{"$lt", map[string]any{"$lt": 12345}, true, "<", 12345},
		{"$lte", D{{"$lte", 12345}}, true, "<=", 12345},
		{"unknown operator", map[string]any{"$ne": 1}, false, "=", map[string]any{"$ne": 1}},
		{"two keys", map[string]any{"$gt": 1, "$lt": 5}, false, "=", map[string]any{"$gt": 1, "$lt": 5}},
		{"prebuilt value", Gte(7), true, ">=", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isOperator, IsOperatorExpression(tt.raw))
			assert.Equal(t, tt.symbol, SymbolFor(tt.raw))
			assert.Equal(t, tt.operand, OperandFor(tt.raw))
		})
	}
}

func TestValue_IsEquality(t *testing.T) {
	assert.True(t, Literal("x").IsEquality())
	assert.True(t, Eq("x").IsEquality())
	assert.False(t, Lt("x").IsEquality())
	assert.Equal(t, OpLt, Lt("x").Operator())
}

func TestTerms_KeepsOrderAndDuplicates(t *testing.T) {
	terms := Terms(D{{"b", 1}, {"a", map[string]any{"$gt": 2}}, {"b", 3}})
	assert.Equal(t, []Term{
		{Field: "b", Value: Literal(1)},
		{Field: "a", Value: Gt(2)},
		{Field: "b", Value: Literal(3)},
	}, terms)
}
