// Package ddbsdk is a document-oriented table client. It compiles filter and
// update documents with the compiler package and dispatches the requests
// through a ddbiface.Client, which is either the AWS SDK client or a local
// ddbstore.Store.
package ddbsdk

import (
	"context"
	"fmt"
	"io"

	"github.com/acksell/docddb/dynamodb/compiler"
	"github.com/acksell/docddb/dynamodb/ddbiface"
	"github.com/acksell/docddb/dynamodb/ddbstore"
	"github.com/acksell/docddb/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
)

type Client struct {
	ddb ddbiface.Client
	log zerolog.Logger
}

type ClientOption func(*Client)

// WithLogger makes the client log every dispatched request at debug level.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

func New(ddb ddbiface.Client, opts ...ClientOption) *Client {
	c := &Client{ddb: ddb, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewMock returns a client backed by an in-memory store serving schemas.
func NewMock(schemas ...*table.TableSchema) *Client {
	store, err := ddbstore.New(ddbstore.StoreOptions{InMemory: true}, schemas...)
	if err != nil {
		panic(err)
	}
	return New(store)
}

// Connector returns the underlying DynamoDB client.
func (c *Client) Connector() ddbiface.Client {
	return c.ddb
}

// Close releases the underlying client if it holds resources, as a local store does.
func (c *Client) Close() error {
	if closer, ok := c.ddb.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Table describes the named table and returns a client for it. Requests start
// from a base holding only the table name.
func (c *Client) Table(ctx context.Context, name string) (*Table, error) {
	out, err := c.ddb.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &name})
	if err != nil {
		return nil, fmt.Errorf("describe table %q: %w", name, err)
	}
	schema, err := table.FromDescription(out.Table)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", name, err)
	}
	if _, err := compiler.New(schema, nil); err != nil {
		return nil, fmt.Errorf("table %q: %w", name, err)
	}
	return &Table{
		client: c,
		schema: schema,
		base:   compiler.Params{"TableName": name},
	}, nil
}
