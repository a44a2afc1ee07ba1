package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fields []string

func (f fields) Has(name string) bool {
	for _, n := range f {
		if n == name {
			return true
		}
	}
	return false
}

func TestSelectAccessPath(t *testing.T) {
	s := NewTableSchema("t",
		KeyDef{Name: "id", Kind: KeyKindS}, KeyDef{},
		IndexDefinition{Name: "first", HashKey: KeyDef{Name: "email", Kind: KeyKindS}},
		IndexDefinition{Name: "second", HashKey: KeyDef{Name: "phone", Kind: KeyKindS}},
		IndexDefinition{Name: "third", HashKey: KeyDef{Name: "email", Kind: KeyKindS}},
	)

	tests := []struct {
		name   string
		fields fields
		want   AccessPath
	}{
		{"hash key", fields{"id"}, AccessPath{Mode: PrimaryQuery}},
		{"hash key beats index", fields{"email", "id"}, AccessPath{Mode: PrimaryQuery}},
		{"index", fields{"phone"}, AccessPath{Mode: IndexQuery, IndexName: "second"}},
		{"first registered index wins", fields{"phone", "email"}, AccessPath{Mode: IndexQuery, IndexName: "first"}},
		{"no key", fields{"name"}, AccessPath{Mode: Scan}},
		{"empty", fields{}, AccessPath{Mode: Scan}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.SelectAccessPath(tt.fields))
			assert.Equal(t, tt.want.Mode == IndexQuery, s.HasIndexHashKey(tt.fields) && !tt.fields.Has("id"))
		})
	}
}

func TestAccessModeString(t *testing.T) {
	assert.Equal(t, "query", PrimaryQuery.String())
	assert.Equal(t, "index-query", IndexQuery.String())
	assert.Equal(t, "scan", Scan.String())
}
