// Package ddbstore is a DynamoDB-compatible store backed by BadgerDB. It
// implements ddbiface.Client for the single-item, query and scan operations and
// understands the expressions produced by the compiler package: comparisons
// joined by AND for conditions, and SET/ADD/REMOVE/DELETE clauses for updates.
package ddbstore

import (
	"context"
	"fmt"

	"github.com/acksell/docddb/dynamodb/ddbiface"
	"github.com/acksell/docddb/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// Store is a DynamoDB-compatible store backed by BadgerDB.
// Every write runs in a single badger transaction.
type Store struct {
	db     *badger.DB
	tables map[string]*table.TableSchema
}

var _ ddbiface.Client = (*Store)(nil)

// StoreOptions configures the BadgerDB store.
type StoreOptions struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger for BadgerDB. If nil, logging is disabled.
	Logger badger.Logger
}

// New creates a new BadgerDB-backed DynamoDB store serving the given tables.
func New(opts StoreOptions, schemas ...*table.TableSchema) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	tables := make(map[string]*table.TableSchema, len(schemas))
	for _, ts := range schemas {
		if ts == nil || !ts.HashKey.Defined() {
			db.Close()
			return nil, fmt.Errorf("table schema without hash key")
		}
		tables[ts.Name] = ts
	}
	return &Store{db: db, tables: tables}, nil
}

// Close closes the BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) getTable(tableName *string) (*table.TableSchema, error) {
	if tableName == nil {
		return nil, fmt.Errorf("table name is required")
	}
	ts, ok := s.tables[*tableName]
	if !ok {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String(fmt.Sprintf("Requested resource not found: Table: %s not found", *tableName)),
		}
	}
	return ts, nil
}

// DescribeTable reports the key schema and indexes the table was registered with.
func (s *Store) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	ts, err := s.getTable(params.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: ts.Description()}, nil
}
