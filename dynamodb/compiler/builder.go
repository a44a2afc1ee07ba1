package compiler

import (
	"fmt"
	"maps"

	"github.com/acksell/docddb/dynamodb/codec"
	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/acksell/docddb/dynamodb/docexpr"
	"github.com/acksell/docddb/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Builder compiles documents into requests for a single operation.
type Builder interface {
	Operation() Operation
	// Build compiles d. extra is the update document for Update, the replacement
	// item for Replace, and ignored otherwise.
	Build(d, extra doc.D) (Request, error)
}

// Config is what every builder is configured with. Options win over Base on key collision.
type Config struct {
	Schema  *table.TableSchema
	Base    Params
	Options Params
}

// NewBuilder returns the builder variant for op.
func NewBuilder(op Operation, cfg Config) (Builder, error) {
	if cfg.Schema == nil || !cfg.Schema.HashKey.Defined() {
		return nil, ErrNoHashKey
	}
	basePs, err := cfg.Base.normalize()
	if err != nil {
		return nil, fmt.Errorf("base params: %w", err)
	}
	options, err := cfg.Options.normalize()
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	b := base{schema: cfg.Schema, params: basePs.Merge(options)}
	switch op {
	case Insert:
		return &insertBuilder{b}, nil
	case Query:
		return &queryBuilder{b}, nil
	case Scan:
		return &scanBuilder{b}, nil
	case Delete:
		return &deleteBuilder{b}, nil
	case Update:
		return &updateBuilder{b}, nil
	case Replace:
		return &replaceBuilder{b}, nil
	}
	return nil, fmt.Errorf("unknown operation %v", op)
}

type base struct {
	schema *table.TableSchema
	params Params
}

func (b base) request() Request {
	return Request(b.params.Clone())
}

// condition maps every field of d into a fresh state.
func (b base) condition(d doc.D) (*docexpr.State, error) {
	s := docexpr.NewState()
	if err := s.MapAll(doc.Terms(d)); err != nil {
		return nil, err
	}
	return s, nil
}

// key builds the primary key from the hash and range fields of d. Only
// literal and $eq values can address a single item.
func (b base) key(d doc.D) (map[string]types.AttributeValue, error) {
	key := make(map[string]types.AttributeValue, 2)
	for _, def := range b.schema.KeyDefs() {
		raw, ok := d.Get(def.Name)
		if !ok {
			return nil, &table.SchemaValidationError{Table: b.schema.Name, Attribute: def.Name, Reason: "required to address an item"}
		}
		v := doc.ValueOf(raw)
		if !v.IsEquality() {
			return nil, &table.SchemaValidationError{
				Table:     b.schema.Name,
				Attribute: def.Name,
				Reason:    fmt.Sprintf("operator %s cannot address an item", v.Operator()),
			}
		}
		av, err := codec.Encode(v.Operand())
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", def.Name, err)
		}
		if err := table.CheckKind(def, av); err != nil {
			return nil, err
		}
		key[def.Name] = av
	}
	return key, nil
}

// attach sets expr under param together with the placeholder maps of s.
// Names already present, e.g. from a projection, are kept.
func attach(r Request, param, expr string, s *docexpr.State) {
	if expr == "" {
		return
	}
	r[param] = expr
	if names := s.Names(); names != nil {
		merged := maps.Clone(r.Names())
		if merged == nil {
			merged = make(map[string]string, len(names))
		}
		maps.Copy(merged, names)
		r["ExpressionAttributeNames"] = merged
	}
	if values := s.Values(); values != nil {
		merged := maps.Clone(r.Values())
		if merged == nil {
			merged = make(map[string]types.AttributeValue, len(values))
		}
		maps.Copy(merged, values)
		r["ExpressionAttributeValues"] = merged
	}
}

type insertBuilder struct{ base }

func (insertBuilder) Operation() Operation { return Insert }

func (b *insertBuilder) Build(d, _ doc.D) (Request, error) {
	item, err := codec.EncodeItem(d)
	if err != nil {
		return nil, err
	}
	r := b.request()
	r["Item"] = item
	return Whitelist(Insert, r), nil
}

type queryBuilder struct{ base }

func (queryBuilder) Operation() Operation { return Query }

func (b *queryBuilder) Build(d, _ doc.D) (Request, error) {
	s, err := b.condition(d)
	if err != nil {
		return nil, err
	}
	r := b.request()
	attach(r, "KeyConditionExpression", s.Condition(), s)

	path := b.schema.SelectAccessPath(d)
	if _, forced := r["IndexName"]; path.Mode == table.IndexQuery && !forced {
		r["IndexName"] = path.IndexName
	}
	return Whitelist(Query, r), nil
}

type scanBuilder struct{ base }

func (scanBuilder) Operation() Operation { return Scan }

func (b *scanBuilder) Build(d, _ doc.D) (Request, error) {
	r := b.request()
	if len(d) > 0 {
		s, err := b.condition(d)
		if err != nil {
			return nil, err
		}
		attach(r, "FilterExpression", s.Condition(), s)
	}
	return Whitelist(Scan, r), nil
}

type deleteBuilder struct{ base }

func (deleteBuilder) Operation() Operation { return Delete }

// Build guards the delete with every field of d, key fields included.
func (b *deleteBuilder) Build(d, _ doc.D) (Request, error) {
	key, err := b.key(d)
	if err != nil {
		return nil, err
	}
	s, err := b.condition(d)
	if err != nil {
		return nil, err
	}
	r := b.request()
	r["Key"] = key
	attach(r, "ConditionExpression", s.Condition(), s)
	return Whitelist(Delete, r), nil
}

type updateBuilder struct{ base }

func (updateBuilder) Operation() Operation { return Update }

// Build numbers the update placeholders after the condition placeholders, so
// both expressions share one name and value map.
func (b *updateBuilder) Build(d, update doc.D) (Request, error) {
	key, err := b.key(d)
	if err != nil {
		return nil, err
	}
	u, err := doc.NewUpdate(update)
	if err != nil {
		return nil, err
	}
	s, err := b.condition(d)
	if err != nil {
		return nil, err
	}
	cond := s.Condition()
	expr, err := docexpr.CompileUpdate(s, u)
	if err != nil {
		return nil, err
	}
	if expr == "" {
		return nil, ErrEmptyUpdate
	}

	r := b.request()
	r["Key"] = key
	attach(r, "ConditionExpression", cond, s)
	attach(r, "UpdateExpression", expr, s)
	return Whitelist(Update, r), nil
}

type replaceBuilder struct{ base }

func (replaceBuilder) Operation() Operation { return Replace }

func (b *replaceBuilder) Build(d, item doc.D) (Request, error) {
	s, err := b.condition(d)
	if err != nil {
		return nil, err
	}
	encoded, err := codec.EncodeItem(item)
	if err != nil {
		return nil, err
	}
	r := b.request()
	attach(r, "ConditionExpression", s.Condition(), s)
	r["Item"] = encoded
	return Whitelist(Replace, r), nil
}
