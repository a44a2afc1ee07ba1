package table

// FieldSet is anything that can answer whether a document has a field, such as doc.D.
type FieldSet interface {
	Has(name string) bool
}

type AccessMode int

const (
	Scan AccessMode = iota
	PrimaryQuery
	IndexQuery
)

func (m AccessMode) String() string {
	switch m {
	case PrimaryQuery:
		return "query"
	case IndexQuery:
		return "index-query"
	default:
		return "scan"
	}
}

// AccessPath is how a filter document will be served. IndexName is set only for IndexQuery.
type AccessPath struct {
	Mode      AccessMode
	IndexName string
}

// HasIndexHashKey reports whether any index's hash key is a field of fields.
func (t *TableSchema) HasIndexHashKey(fields FieldSet) bool {
	_, ok := t.FindIndex(fields)
	return ok
}

// FindIndex returns the first registered index whose hash key is in fields.
// Range keys and selectivity are not considered, so with several candidate
// indexes the result depends on registration order.
func (t *TableSchema) FindIndex(fields FieldSet) (IndexDefinition, bool) {
	for _, idx := range t.Indexes {
		if fields.Has(idx.HashKey.Name) {
			return idx, true
		}
	}
	return IndexDefinition{}, false
}

// SelectAccessPath picks a primary key query when the table hash key is
// present, then an index query, then a scan.
func (t *TableSchema) SelectAccessPath(fields FieldSet) AccessPath {
	if fields.Has(t.HashKey.Name) {
		return AccessPath{Mode: PrimaryQuery}
	}
	if idx, ok := t.FindIndex(fields); ok {
		return AccessPath{Mode: IndexQuery, IndexName: idx.Name}
	}
	return AccessPath{Mode: Scan}
}
