package ddbstore

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// exprContext resolves the placeholders of one request.
type exprContext struct {
	names  map[string]string
	values map[string]types.AttributeValue
}

// path resolves an attribute path such as "#k0" or "#0.#1" to its segments.
func (c exprContext) path(token string) ([]string, error) {
	parts := strings.Split(token, ".")
	for i, p := range parts {
		if !strings.HasPrefix(p, "#") {
			continue
		}
		name, ok := c.names[p]
		if !ok {
			return nil, fmt.Errorf("unresolved expression attribute name %q", p)
		}
		parts[i] = name
	}
	return parts, nil
}

func (c exprContext) value(token string) (types.AttributeValue, error) {
	v, ok := c.values[token]
	if !ok {
		return nil, fmt.Errorf("unresolved expression attribute value %q", token)
	}
	return v, nil
}

// comparison is one "path op :value" term of a condition.
type comparison struct {
	path  []string
	op    string
	value types.AttributeValue
}

// parseCondition parses terms of the form "#k0 >= :v0" joined by AND.
func parseCondition(expr string, c exprContext) ([]comparison, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	var terms []comparison
	for _, frag := range splitAnd(expr) {
		fields := strings.Fields(frag)
		if len(fields) != 3 {
			return nil, fmt.Errorf("unsupported condition %q", frag)
		}
		switch fields[1] {
		case "=", "<>", "<", "<=", ">", ">=":
		default:
			return nil, fmt.Errorf("unsupported comparator %q in %q", fields[1], frag)
		}
		path, err := c.path(fields[0])
		if err != nil {
			return nil, err
		}
		value, err := c.value(fields[2])
		if err != nil {
			return nil, err
		}
		terms = append(terms, comparison{path: path, op: fields[1], value: value})
	}
	return terms, nil
}

func splitAnd(expr string) []string {
	fields := strings.Fields(expr)
	var frags []string
	var cur []string
	for _, f := range fields {
		if strings.EqualFold(f, "AND") {
			frags = append(frags, strings.Join(cur, " "))
			cur = nil
			continue
		}
		cur = append(cur, f)
	}
	return append(frags, strings.Join(cur, " "))
}

// matches reports whether item satisfies every term. A missing attribute
// fails any comparison, as it does in DynamoDB.
func matches(terms []comparison, item map[string]types.AttributeValue) bool {
	for _, t := range terms {
		got, ok := getPath(item, t.path)
		if !ok || !compareOp(got, t.op, t.value) {
			return false
		}
	}
	return true
}

func compareOp(got types.AttributeValue, op string, want types.AttributeValue) bool {
	switch op {
	case "=":
		return attributeValuesEqual(got, want)
	case "<>":
		return !attributeValuesEqual(got, want)
	}
	cmp, ok := compareScalar(got, want)
	if !ok {
		return false
	}
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

// evalCondition parses and evaluates expr against item. An empty expression always holds.
func evalCondition(expr *string, c exprContext, item map[string]types.AttributeValue) (bool, error) {
	if expr == nil {
		return true, nil
	}
	terms, err := parseCondition(*expr, c)
	if err != nil {
		return false, err
	}
	return matches(terms, item), nil
}

type updateAction struct {
	kind  string // SET, ADD, REMOVE or DELETE
	path  []string
	value types.AttributeValue
}

// parseUpdate parses clauses such as "SET #k0 = :v0, #k1 = :v1 ADD #k2 :v2 REMOVE #k3".
func parseUpdate(expr string, c exprContext) ([]updateAction, error) {
	var actions []updateAction
	var kind string
	var clause []string
	flush := func() error {
		if kind == "" {
			if len(clause) > 0 {
				return fmt.Errorf("update expression must start with SET, ADD, REMOVE or DELETE")
			}
			return nil
		}
		if len(clause) == 0 {
			return fmt.Errorf("empty %s clause", kind)
		}
		for _, item := range strings.Split(strings.Join(clause, " "), ",") {
			a, err := parseUpdateItem(kind, strings.TrimSpace(item), c)
			if err != nil {
				return err
			}
			actions = append(actions, a)
		}
		return nil
	}
	for _, f := range strings.Fields(expr) {
		switch upper := strings.ToUpper(f); upper {
		case "SET", "ADD", "REMOVE", "DELETE":
			if err := flush(); err != nil {
				return nil, err
			}
			kind, clause = upper, nil
		default:
			clause = append(clause, f)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("update expression is empty")
	}
	return actions, nil
}

func parseUpdateItem(kind, item string, c exprContext) (updateAction, error) {
	var pathTok, valueTok string
	switch kind {
	case "SET":
		lhs, rhs, ok := strings.Cut(item, "=")
		if !ok {
			return updateAction{}, fmt.Errorf("invalid SET action %q", item)
		}
		pathTok, valueTok = strings.TrimSpace(lhs), strings.TrimSpace(rhs)
	case "ADD", "DELETE":
		fields := strings.Fields(item)
		if len(fields) != 2 {
			return updateAction{}, fmt.Errorf("invalid %s action %q", kind, item)
		}
		pathTok, valueTok = fields[0], fields[1]
	case "REMOVE":
		pathTok = item
	}
	if pathTok == "" || strings.ContainsAny(pathTok, " \t") {
		return updateAction{}, fmt.Errorf("invalid %s action %q", kind, item)
	}
	path, err := c.path(pathTok)
	if err != nil {
		return updateAction{}, err
	}
	a := updateAction{kind: kind, path: path}
	if valueTok != "" {
		if a.value, err = c.value(valueTok); err != nil {
			return updateAction{}, err
		}
	}
	return a, nil
}

// applyUpdate applies actions to item in place.
func applyUpdate(item map[string]types.AttributeValue, actions []updateAction) error {
	for _, a := range actions {
		switch a.kind {
		case "SET":
			if err := setPath(item, a.path, a.value); err != nil {
				return err
			}
		case "REMOVE":
			removePath(item, a.path)
		case "ADD":
			cur, ok := getPath(item, a.path)
			if !ok {
				if err := setPath(item, a.path, a.value); err != nil {
					return err
				}
				continue
			}
			sum, err := addValues(cur, a.value)
			if err != nil {
				return fmt.Errorf("ADD %s: %w", strings.Join(a.path, "."), err)
			}
			if err := setPath(item, a.path, sum); err != nil {
				return err
			}
		case "DELETE":
			cur, ok := getPath(item, a.path)
			if !ok {
				continue
			}
			rest, err := deleteFromSet(cur, a.value)
			if err != nil {
				return fmt.Errorf("DELETE %s: %w", strings.Join(a.path, "."), err)
			}
			if rest == nil {
				removePath(item, a.path)
				continue
			}
			if err := setPath(item, a.path, rest); err != nil {
				return err
			}
		}
	}
	return nil
}

// project keeps only the attributes named by a projection expression like "#0, #1.#2".
func project(expr *string, c exprContext, item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	if expr == nil || strings.TrimSpace(*expr) == "" {
		return item, nil
	}
	out := make(map[string]types.AttributeValue)
	for _, tok := range strings.Split(*expr, ",") {
		path, err := c.path(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		if v, ok := getPath(item, path); ok {
			if err := setPath(out, path, v); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
