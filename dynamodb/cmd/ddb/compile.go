package main

import (
	"encoding/json"
	"fmt"

	"github.com/acksell/docddb/dynamodb/compiler"
	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/spf13/cobra"
)

// docFlags are the flags shared by compile and run.
type docFlags struct {
	table  string
	op     string
	doc    string
	update string
}

func (f *docFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.table, "table", "t", "", "table name")
	cmd.Flags().StringVarP(&f.op, "op", "o", "query", "operation: insert, query, scan, delete, update or replace")
	cmd.Flags().StringVarP(&f.doc, "doc", "d", "", "filter document, or the item for insert (JSON or YAML)")
	cmd.Flags().StringVarP(&f.update, "update", "u", "", "update document for update, replacement item for replace")
	_ = cmd.MarkFlagRequired("table")
}

// parse returns the operation and both documents in field order.
func (f *docFlags) parse() (compiler.Operation, doc.D, doc.D, error) {
	op, err := compiler.ParseOperation(f.op)
	if err != nil {
		return 0, nil, nil, err
	}
	d, err := parseDoc("--doc", f.doc)
	if err != nil {
		return 0, nil, nil, err
	}
	upd, err := parseDoc("--update", f.update)
	if err != nil {
		return 0, nil, nil, err
	}
	if (op == compiler.Update || op == compiler.Replace) && f.update == "" {
		return 0, nil, nil, fmt.Errorf("%s needs --update", op)
	}
	return op, d, upd, nil
}

func parseDoc(flag, s string) (doc.D, error) {
	if s == "" {
		return nil, nil
	}
	d, err := doc.Unmarshal([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flag, err)
	}
	return d, nil
}

func newCompileCmd(a *app) *cobra.Command {
	var flags docFlags
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the DynamoDB request for a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			op, d, upd, err := flags.parse()
			if err != nil {
				return err
			}
			c, err := a.compiler(flags.table)
			if err != nil {
				return err
			}
			req, err := c.Compile(op, d, upd)
			if err != nil {
				return err
			}
			return writeJSON(a, req)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) compiler(tableName string) (*compiler.Compiler, error) {
	s, err := a.schemas()
	if err != nil {
		return nil, err
	}
	t, ok := s.Table(tableName)
	if !ok {
		return nil, fmt.Errorf("table %q is not in the schema", tableName)
	}
	return compiler.New(t.TableSchema(), compiler.Params(t.Params))
}

func writeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
