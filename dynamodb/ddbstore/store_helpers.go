package ddbstore

import (
	"bytes"
	"fmt"
	"maps"
	"math/big"
	"slices"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func attributeValuesEqual(a, b types.AttributeValue) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		if bv, ok := b.(*types.AttributeValueMemberS); ok {
			return av.Value == bv.Value
		}
	case *types.AttributeValueMemberN:
		if bv, ok := b.(*types.AttributeValueMemberN); ok {
			cmp, ok := compareNumbers(av.Value, bv.Value)
			return ok && cmp == 0
		}
	case *types.AttributeValueMemberB:
		if bv, ok := b.(*types.AttributeValueMemberB); ok {
			return bytes.Equal(av.Value, bv.Value)
		}
	case *types.AttributeValueMemberBOOL:
		if bv, ok := b.(*types.AttributeValueMemberBOOL); ok {
			return av.Value == bv.Value
		}
	case *types.AttributeValueMemberNULL:
		_, ok := b.(*types.AttributeValueMemberNULL)
		return ok
	case *types.AttributeValueMemberM:
		if bv, ok := b.(*types.AttributeValueMemberM); ok {
			return maps.EqualFunc(av.Value, bv.Value, attributeValuesEqual)
		}
	case *types.AttributeValueMemberL:
		if bv, ok := b.(*types.AttributeValueMemberL); ok {
			return slices.EqualFunc(av.Value, bv.Value, attributeValuesEqual)
		}
	case *types.AttributeValueMemberSS:
		if bv, ok := b.(*types.AttributeValueMemberSS); ok {
			return sameSet(av.Value, bv.Value)
		}
	case *types.AttributeValueMemberNS:
		if bv, ok := b.(*types.AttributeValueMemberNS); ok {
			return sameSet(av.Value, bv.Value)
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	return len(a) == len(b) && len(union(a, b)) == len(a)
}

// compareScalar orders two values of the same scalar type.
func compareScalar(a, b types.AttributeValue) (int, bool) {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		if bv, ok := b.(*types.AttributeValueMemberS); ok {
			switch {
			case av.Value < bv.Value:
				return -1, true
			case av.Value > bv.Value:
				return 1, true
			}
			return 0, true
		}
	case *types.AttributeValueMemberN:
		if bv, ok := b.(*types.AttributeValueMemberN); ok {
			return compareNumbers(av.Value, bv.Value)
		}
	case *types.AttributeValueMemberB:
		if bv, ok := b.(*types.AttributeValueMemberB); ok {
			return bytes.Compare(av.Value, bv.Value), true
		}
	}
	return 0, false
}

func compareNumbers(a, b string) (int, bool) {
	x, ok := new(big.Float).SetString(a)
	if !ok {
		return 0, false
	}
	y, ok := new(big.Float).SetString(b)
	if !ok {
		return 0, false
	}
	return x.Cmp(y), true
}

func getPath(item map[string]types.AttributeValue, path []string) (types.AttributeValue, bool) {
	cur := item
	for i, p := range path {
		v, ok := cur[p]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		m, ok := v.(*types.AttributeValueMemberM)
		if !ok {
			return nil, false
		}
		cur = m.Value
	}
	return nil, false
}

// setPath creates intermediate maps as needed.
func setPath(item map[string]types.AttributeValue, path []string, v types.AttributeValue) error {
	cur := item
	for _, p := range path[:len(path)-1] {
		next, ok := cur[p]
		if !ok {
			m := &types.AttributeValueMemberM{Value: make(map[string]types.AttributeValue)}
			cur[p] = m
			cur = m.Value
			continue
		}
		m, ok := next.(*types.AttributeValueMemberM)
		if !ok {
			return fmt.Errorf("attribute %q is not a map", p)
		}
		cur = m.Value
	}
	cur[path[len(path)-1]] = v
	return nil
}

func removePath(item map[string]types.AttributeValue, path []string) {
	cur := item
	for _, p := range path[:len(path)-1] {
		m, ok := cur[p].(*types.AttributeValueMemberM)
		if !ok {
			return
		}
		cur = m.Value
	}
	delete(cur, path[len(path)-1])
}

// addValues implements ADD: numeric addition or set union.
func addValues(cur, delta types.AttributeValue) (types.AttributeValue, error) {
	switch c := cur.(type) {
	case *types.AttributeValueMemberN:
		d, ok := delta.(*types.AttributeValueMemberN)
		if !ok {
			break
		}
		x, ok := new(big.Float).SetString(c.Value)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", c.Value)
		}
		y, ok := new(big.Float).SetString(d.Value)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", d.Value)
		}
		return &types.AttributeValueMemberN{Value: x.Add(x, y).Text('f', -1)}, nil
	case *types.AttributeValueMemberSS:
		if d, ok := delta.(*types.AttributeValueMemberSS); ok {
			return &types.AttributeValueMemberSS{Value: union(c.Value, d.Value)}, nil
		}
	case *types.AttributeValueMemberNS:
		if d, ok := delta.(*types.AttributeValueMemberNS); ok {
			return &types.AttributeValueMemberNS{Value: union(c.Value, d.Value)}, nil
		}
	}
	return nil, fmt.Errorf("cannot add %T to %T", delta, cur)
}

// deleteFromSet implements DELETE. A nil result means the set became empty.
func deleteFromSet(cur, remove types.AttributeValue) (types.AttributeValue, error) {
	switch c := cur.(type) {
	case *types.AttributeValueMemberSS:
		if r, ok := remove.(*types.AttributeValueMemberSS); ok {
			if rest := difference(c.Value, r.Value); len(rest) > 0 {
				return &types.AttributeValueMemberSS{Value: rest}, nil
			}
			return nil, nil
		}
	case *types.AttributeValueMemberNS:
		if r, ok := remove.(*types.AttributeValueMemberNS); ok {
			if rest := difference(c.Value, r.Value); len(rest) > 0 {
				return &types.AttributeValueMemberNS{Value: rest}, nil
			}
			return nil, nil
		}
	}
	return nil, fmt.Errorf("cannot delete %T from %T", remove, cur)
}

func union(a, b []string) []string {
	out := slices.Clone(a)
	for _, v := range b {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func difference(a, b []string) []string {
	var out []string
	for _, v := range a {
		if !slices.Contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}

// copyItem deep-copies the map levels of an item so updates never alias stored values.
func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		if m, ok := v.(*types.AttributeValueMemberM); ok {
			v = &types.AttributeValueMemberM{Value: copyItem(m.Value)}
		}
		out[k] = v
	}
	return out
}

func ptrStr(s string) *string {
	return &s
}
