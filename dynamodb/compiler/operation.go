package compiler

import "fmt"

// Operation selects which request a document compiles to.
type Operation int

const (
	Insert Operation = iota + 1
	Query
	Scan
	Delete
	Update
	Replace
)

var operationNames = map[Operation]string{
	Insert:  "insert",
	Query:   "query",
	Scan:    "scan",
	Delete:  "delete",
	Update:  "update",
	Replace: "replace",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// ParseOperation is the inverse of Operation.String.
func ParseOperation(s string) (Operation, error) {
	for op, name := range operationNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

var writeParams = []string{
	"TableName",
	"ConditionExpression",
	"ExpressionAttributeNames",
	"ExpressionAttributeValues",
	"ReturnConsumedCapacity",
	"ReturnItemCollectionMetrics",
	"ReturnValues",
}

var readParams = []string{
	"TableName",
	"ConsistentRead",
	"ExclusiveStartKey",
	"ExpressionAttributeNames",
	"ExpressionAttributeValues",
	"FilterExpression",
	"IndexName",
	"Limit",
	"ProjectionExpression",
	"ReturnConsumedCapacity",
	"Select",
}

var allowedParams = map[Operation]map[string]bool{
	Insert:  paramSet(writeParams, "Item"),
	Replace: paramSet(writeParams, "Item"),
	Delete:  paramSet(writeParams, "Key"),
	Update:  paramSet(writeParams, "Key", "UpdateExpression"),
	Query:   paramSet(readParams, "KeyConditionExpression", "ScanIndexForward"),
	Scan:    paramSet(readParams, "Segment", "TotalSegments"),
}

func paramSet(common []string, extra ...string) map[string]bool {
	set := make(map[string]bool, len(common)+len(extra))
	for _, p := range common {
		set[p] = true
	}
	for _, p := range extra {
		set[p] = true
	}
	return set
}

// Allowed reports whether param may appear in a request for op.
func Allowed(op Operation, param string) bool {
	return allowedParams[op][param]
}

// Whitelist removes every top-level parameter op does not accept, in place,
// and returns r. Applying it twice has no further effect.
func Whitelist(op Operation, r Request) Request {
	for k := range r {
		if !Allowed(op, k) {
			delete(r, k)
		}
	}
	return r
}
