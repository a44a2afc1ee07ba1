package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/acksell/docddb/dynamodb/compiler"
	"github.com/acksell/docddb/dynamodb/ddbiface"
	"github.com/acksell/docddb/dynamodb/ddbsdk"
	"github.com/acksell/docddb/dynamodb/ddbstore"
	"github.com/acksell/docddb/dynamodb/doc"
	"github.com/acksell/docddb/dynamodb/schema"
	"github.com/acksell/docddb/dynamodb/table"
	"github.com/acksell/docddb/internal/logger"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
)

type runFlags struct {
	docFlags
	db     string
	memory bool
	aws    bool
}

func newRunCmd(a *app) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a document against a local store or AWS",
		Long: `Execute a document against a local BadgerDB store or AWS DynamoDB.

query and scan both pick the access path from the filter: the table hash key
or an index hash key gives a query, anything else a scan.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.db, "db", "", "BadgerDB directory (default: ddb.yaml dataDir)")
	cmd.Flags().BoolVar(&flags.memory, "memory", false, "use an in-memory store")
	cmd.Flags().BoolVar(&flags.aws, "aws", false, "use AWS DynamoDB with the default credential chain")
	cmd.MarkFlagsMutuallyExclusive("aws", "memory")
	cmd.MarkFlagsMutuallyExclusive("aws", "db")
	return cmd
}

func (a *app) run(ctx context.Context, flags runFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	op, d, upd, err := flags.parse()
	if err != nil {
		return err
	}

	s, err := a.schemas()
	if err != nil && !flags.aws {
		return err
	}

	ddb, err := a.connect(ctx, flags, s)
	if err != nil {
		return err
	}
	client := ddbsdk.New(ddb, ddbsdk.WithLogger(a.log))
	defer client.Close()

	tbl, err := client.Table(ctx, flags.table)
	if err != nil {
		return err
	}
	if s != nil {
		if t, ok := s.Table(flags.table); ok {
			tbl.AddParams(compiler.Params(t.Params))
		}
	}

	a.log.Info().Str("table", flags.table).Stringer("op", op).Msg("run")
	res, err := execute(ctx, tbl, op, d, upd)
	if err != nil {
		return err
	}
	return writeJSON(a, res)
}

func execute(ctx context.Context, tbl *ddbsdk.Table, op compiler.Operation, d, upd doc.D) (any, error) {
	switch op {
	case compiler.Insert:
		return tbl.Put(ctx, d)
	case compiler.Query, compiler.Scan:
		return tbl.Find(ctx, d)
	case compiler.Delete:
		return tbl.Delete(ctx, d)
	case compiler.Update:
		if !doc.HasDirectives(upd) {
			return nil, errors.New("update needs $set, $inc or $unset directives; use --op replace for whole items")
		}
		return tbl.Update(ctx, d, upd)
	case compiler.Replace:
		if doc.HasDirectives(upd) {
			return nil, errors.New("replace needs a plain item; use --op update for directives")
		}
		return tbl.Update(ctx, d, upd)
	}
	return nil, fmt.Errorf("unsupported operation %s", op)
}

// connect opens AWS DynamoDB or a BadgerDB store serving every table of s.
func (a *app) connect(ctx context.Context, flags runFlags, s *schema.Schema) (ddbiface.Client, error) {
	if flags.aws {
		var opts []func(*config.LoadOptions) error
		if a.cfg.Region != "" {
			opts = append(opts, config.WithRegion(a.cfg.Region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return dynamodb.NewFromConfig(awsCfg), nil
	}

	var schemas []*table.TableSchema
	for i := range s.Tables {
		schemas = append(schemas, s.Tables[i].TableSchema())
	}
	dir := flags.db
	if dir == "" {
		dir = a.cfg.DataDir
	}
	opts := ddbstore.StoreOptions{
		Path:     dir,
		InMemory: flags.memory || dir == "",
		Logger:   logger.NewBadger(a.log),
	}
	a.log.Info().Str("dir", dir).Bool("memory", opts.InMemory).Msg("open local store")
	return ddbstore.New(opts, schemas...)
}
