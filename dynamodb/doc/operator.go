package doc

// Operator is a comparison operator token.
type Operator string

const (
	OpEq  Operator = "$eq"
	OpGt  Operator = "$gt"
	OpGte Operator = "$gte"
	OpLt  Operator = "$lt"
	OpLte Operator = "$lte"
)

var symbols = map[Operator]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Symbol returns the expression symbol for the operator, or "" if unknown.
func (o Operator) Symbol() string {
	return symbols[o]
}

// Valid reports whether o belongs to the closed operator set.
func (o Operator) Valid() bool {
	_, ok := symbols[o]
	return ok
}

// Value is either a literal or an operator comparison. The zero Value is a nil literal.
type Value struct {
	op      Operator
	operand any
}

// Literal wraps v as an equality value, even if it looks like an operator object.
func Literal(v any) Value {
	return Value{operand: v}
}

func Eq(v any) Value  { return Value{op: OpEq, operand: v} }
func Gt(v any) Value  { return Value{op: OpGt, operand: v} }
func Gte(v any) Value { return Value{op: OpGte, operand: v} }
func Lt(v any) Value  { return Value{op: OpLt, operand: v} }
func Lte(v any) Value { return Value{op: OpLte, operand: v} }

// ValueOf resolves a raw document value into a Value.
// Only single-key objects whose key is a known operator become comparisons.
func ValueOf(raw any) Value {
	if v, ok := raw.(Value); ok {
		return v
	}
	if op, operand, ok := operatorExpression(raw); ok {
		return Value{op: op, operand: operand}
	}
	return Literal(raw)
}

// IsOperator reports whether the value is an operator comparison.
func (v Value) IsOperator() bool {
	return v.op != ""
}

// Operator returns the comparison operator, or "" for literals.
func (v Value) Operator() Operator {
	return v.op
}

// Symbol returns "=" for literals and $eq, otherwise the operator symbol.
func (v Value) Symbol() string {
	if v.op == "" {
		return "="
	}
	return v.op.Symbol()
}

// Operand returns the raw value compared against.
func (v Value) Operand() any {
	return v.operand
}

// IsEquality reports whether the value matches by equality.
func (v Value) IsEquality() bool {
	return v.op == "" || v.op == OpEq
}

// IsOperatorExpression reports whether raw is a single-key object keyed by a known operator.
func IsOperatorExpression(raw any) bool {
	return ValueOf(raw).IsOperator()
}

// SymbolFor returns the expression symbol for a raw document value.
func SymbolFor(raw any) string {
	return ValueOf(raw).Symbol()
}

// OperandFor returns raw itself for literals, or the inner value of an operator object.
func OperandFor(raw any) any {
	return ValueOf(raw).Operand()
}

func operatorExpression(raw any) (Operator, any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		if len(m) != 1 {
			return "", nil, false
		}
		for k, v := range m {
			if op := Operator(k); op.Valid() {
				return op, v, true
			}
		}
	case D:
		if len(m) != 1 {
			return "", nil, false
		}
		if op := Operator(m[0].Key); op.Valid() {
			return op, m[0].Value, true
		}
	}
	return "", nil, false
}
