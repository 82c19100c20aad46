package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/example/streamfusion/internal/config"
	"github.com/example/streamfusion/internal/pipelinereg"
	"github.com/example/streamfusion/internal/source"
)

// NewRunCommand builds the "run" subcommand, a one-shot pipeline
// materialization useful for local testing without standing up the
// HTTP server.
func NewRunCommand() *cobra.Command {
	var pipelineFile string
	var inputFile string
	var dsn string
	var query string

	cmd := &cobra.Command{
		Use:   "run <pipeline-name>",
		Short: "Materialize a named pipeline over a JSON array (or a SQL source) and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			return runOnce(cmd, runOpts{
				configPath:   configPath,
				pipelineFile: pipelineFile,
				inputFile:    inputFile,
				dsn:          dsn,
				query:        query,
				name:         args[0],
			})
		},
	}

	cmd.Flags().StringVar(&pipelineFile, "pipelines", "", "path to a standalone pipeline YAML file (overrides the config file's pipelines)")
	cmd.Flags().StringVar(&inputFile, "input", "", "path to a JSON array input file (defaults to stdin; ignored when --dsn is set)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string; when set, the pipeline runs over a SQL source instead of JSON input")
	cmd.Flags().StringVar(&query, "query", "", "SQL query to run against --dsn (required when --dsn is set)")

	return cmd
}

type runOpts struct {
	configPath   string
	pipelineFile string
	inputFile    string
	dsn          string
	query        string
	name         string
}

func runOnce(cmd *cobra.Command, opts runOpts) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	if opts.pipelineFile != "" {
		data, err := os.ReadFile(opts.pipelineFile)
		if err != nil {
			return fmt.Errorf("reading pipeline file: %w", err)
		}
		defs, err := config.ParsePipelineYAML(data)
		if err != nil {
			return err
		}
		cfg.Pipelines = defs
	}

	def, ok := cfg.FindPipeline(opts.name)
	if !ok {
		return fmt.Errorf("unknown pipeline %q", opts.name)
	}

	src, closeSrc, err := resolveSource(cmd, cfg, opts)
	if err != nil {
		return err
	}
	defer closeSrc()

	it, err := pipelinereg.Build(def, src)
	if err != nil {
		return err
	}
	defer it.Close()

	result, err := it.ToList()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// resolveSource picks between the SQL-backed source (--dsn/--query) and
// the JSON slice source (--input/stdin), returning a cleanup func that
// releases whatever pool was opened.
func resolveSource(cmd *cobra.Command, cfg *config.Config, opts runOpts) (any, func(), error) {
	dsn := opts.dsn
	if dsn == "" {
		dsn = cfg.Database.DSN
	}
	if dsn != "" {
		if opts.query == "" {
			return nil, nil, fmt.Errorf("--query is required when --dsn is set")
		}
		pool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to %q: %w", dsn, err)
		}
		sqlSource := source.NewSQLIterable(pool, opts.query)
		return sqlSource, pool.Close, nil
	}

	var raw []byte
	var err error
	if opts.inputFile != "" {
		raw, err = os.ReadFile(opts.inputFile)
	} else {
		raw, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading input: %w", err)
	}

	input, err := source.FromJSON(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding input: %w", err)
	}
	return input, func() {}, nil
}
