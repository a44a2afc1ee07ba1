package doc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdate(t *testing.T) {
	t.Run("keeps document order", func(t *testing.T) {
		u, err := NewUpdate(D{
			{"$inc", D{{"n", 1}}},
			{"$set", map[string]any{"b": "y", "a": "x"}},
			{"$unset", D{{"gone", 1}}},
		})
		require.NoError(t, err)
		require.Len(t, u, 3)
		assert.Equal(t, Inc, u[0].Kind)
		assert.Equal(t, Set, u[1].Kind)
		assert.Equal(t, D{{"a", "x"}, {"b", "y"}}, u[1].Fields)
		assert.Equal(t, Unset, u[2].Kind)
	})

	t.Run("repeated directive merges into first", func(t *testing.T) {
		first := D{{"a", 1}}
		u, err := NewUpdate(D{
			{"$set", first},
			{"$unset", D{{"c", 1}}},
			{"$set", D{{"b", 2}}},
		})
		require.NoError(t, err)
		require.Len(t, u, 2)
		assert.Equal(t, Set, u[0].Kind)
		assert.Equal(t, D{{"a", 1}, {"b", 2}}, u[0].Fields)
		assert.Equal(t, Unset, u[1].Kind)
		assert.Equal(t, D{{"a", 1}}, first)
	})

	t.Run("unknown directive", func(t *testing.T) {
		_, err := NewUpdate(D{{"$push", D{{"a", 1}}}})
		var unknown *UnknownDirectiveError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "$push", unknown.Directive)
	})

	t.Run("plain field is not a directive", func(t *testing.T) {
		_, err := NewUpdate(D{{"$set", D{{"a", 1}}}, {"name", "x"}})
		var unknown *UnknownDirectiveError
		assert.True(t, errors.As(err, &unknown))
	})

	t.Run("directive value must be an object", func(t *testing.T) {
		_, err := NewUpdate(D{{"$set", "nope"}})
		assert.Error(t, err)
	})
}

func TestHasDirectives(t *testing.T) {
	assert.True(t, HasDirectives(D{{"$set", D{}}}))
	assert.False(t, HasDirectives(D{{"name", "x"}}))
	assert.False(t, HasDirectives(nil))
}
