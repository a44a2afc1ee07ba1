// ddb compiles MongoDB-style documents into DynamoDB requests and runs them.
//
// # Commands
//
//	ddb compile   Print the DynamoDB request for a document
//	ddb run       Execute the request against a local store or AWS
//	ddb tables    List the tables of the loaded schemas
//
// # Quick Start
//
//	ddb compile --schema schema_dynamodb.yaml --table users --op query \
//	    --doc '{"id": "u1", "age": {"$gte": 18}}'
//
//	ddb run --memory --table users --op insert --doc '{"id": "u1"}'
//	ddb run --db ./data --table users --op update \
//	    --doc '{"id": "u1"}' --update '{"$inc": {"visits": 1}}'
//
// Without --schema, ddb uses the schema named in ddb.yaml, or every
// schema_dynamodb.yaml below the working directory.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/acksell/docddb/dynamodb/schema"
	"github.com/acksell/docddb/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// app is the state shared by all subcommands.
type app struct {
	out io.Writer
	dir string
	cfg Config
	log zerolog.Logger

	schemaPath string
	logLevel   string
}

func main() {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd(os.Stdout, dir).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ddb:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer, dir string) *cobra.Command {
	a := &app{out: out, dir: dir}

	root := &cobra.Command{
		Use:           "ddb",
		Short:         "Compile and run MongoDB-style documents against DynamoDB",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.schemaPath, "schema", "", "table schema file (default: ddb.yaml schema, else discovered schema_dynamodb.yaml files)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level, overrides ddb.yaml")

	root.AddCommand(newCompileCmd(a), newRunCmd(a), newTablesCmd(a))
	return root
}

func (a *app) init() error {
	cfg, path, err := LoadConfig(a.dir)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.logLevel != "" {
		a.cfg.Log.Enabled = true
		a.cfg.Log.Level = a.logLevel
	}
	a.log = logger.New(a.cfg.Log, nil)
	if path != "" {
		a.log.Info().Str("path", path).Msg("loaded config")
	}
	return nil
}

// schemas resolves the schema from the flag, the config file or discovery, in that order.
func (a *app) schemas() (*schema.Schema, error) {
	switch {
	case a.schemaPath != "":
		return schema.Load(a.schemaPath)
	case a.cfg.Schema != "":
		return schema.Load(a.cfg.Schema)
	}
	paths, err := discoverSchemas(a.dir)
	if err != nil {
		return nil, fmt.Errorf("discover schemas: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no schema: pass --schema or add %s", schemaFilename)
	}
	a.log.Info().Strs("files", paths).Msg("discovered schemas")
	return loadSchemas(paths)
}

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the loaded schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.schemas()
			if err != nil {
				return err
			}
			for _, t := range s.Tables {
				ts := t.TableSchema()
				line := fmt.Sprintf("%s\thash=%s:%s", ts.Name, ts.HashKey.Name, ts.HashKey.Kind)
				if ts.HasRangeKey() {
					line += fmt.Sprintf("\trange=%s:%s", ts.RangeKey.Name, ts.RangeKey.Kind)
				}
				for _, idx := range ts.Indexes {
					line += fmt.Sprintf("\t%s(%s)", idx.Name, idx.HashKey.Name)
				}
				fmt.Fprintln(a.out, line)
			}
			return nil
		},
	}
}
