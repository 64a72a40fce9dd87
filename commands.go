package main

import (
	"context"
	"io"
	"os"

	"graphlens/internal/config"
	"graphlens/internal/database"
	"graphlens/internal/database/relational"
	"graphlens/internal/graph"
	"graphlens/internal/logging"
	"graphlens/internal/output"
	"graphlens/internal/search"
	"graphlens/internal/session"
	"graphlens/ui/console"
	"graphlens/ui/tui"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

var (
	configPath string
	sourceName string
	duckdbPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "graphlens [document names...]",
	Short: "graphlens: browse document knowledge graphs",
	Long: color.New(color.FgCyan, color.Bold).Sprint("graphlens") + ": browse the graph extracted from your documents\n" +
		color.New(color.FgHiBlack).Sprint("Opens a view over the named documents from Neo4j or a DuckDB export"),
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runView,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "TOML config file (default "+config.DefaultFile+" when present)")
	flags.StringVar(&sourceName, "source", "", "Record source: neo4j or duckdb")
	flags.StringVar(&duckdbPath, "duckdb", "", "DuckDB database file")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.Flags().Bool("single", false, "Inspect exactly one document")
	rootCmd.Flags().String("preload", "", "Open a view over an exported JSON payload instead of fetching")

	rootCmd.AddCommand(
		printCmd(),
		importCmd(),
		exportCmd(),
		documentsCmd(),
	)
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("source") {
		cfg = cfg.WithSource(sourceName)
	}
	if cmd.Flags().Changed("duckdb") {
		cfg = cfg.WithDuckDBPath(duckdbPath)
	}
	if debug {
		cfg = cfg.WithDebug(true)
	}
	return cfg, cfg.Validate()
}

func scopeFromArgs(args []string, single bool) (graph.Scope, error) {
	if single {
		if len(args) != 1 {
			return graph.Scope{}, errors.Newf("--single needs exactly one document, got %d", len(args))
		}
		return graph.SingleItem(args[0]), nil
	}
	if len(args) == 0 {
		return graph.Scope{}, errors.New("name at least one document")
	}
	return graph.SelectedItems(args...), nil
}

func searchEngine(cfg config.Config) *search.Engine {
	return search.New(search.WithProperty(cfg.SearchProperty), search.WithNodeSize(cfg.NodeSize))
}

func readPayload(path string) (graph.RawGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return graph.RawGraph{}, errors.Wrapf(err, "read %s", path)
	}
	raw, err := graph.DecodeRaw(data)
	if err != nil {
		return graph.RawGraph{}, errors.Wrapf(err, "decode %s", path)
	}
	return raw, nil
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The alternate screen owns the terminal, so logs go to a file or nowhere.
	logger, closer, err := logging.Open(logging.Params{Debug: cfg.Debug, File: cfg.LogFile}, io.Discard)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer closer.Close()

	tcfg := tui.Config{
		Debounce:     cfg.SearchDebounce,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,
		Session: []session.Option{
			session.WithNormalizer(graph.NewNormalizer(cfg.NormalizerOptions()...)),
			session.WithSearch(searchEngine(cfg)),
		},
	}

	if path, _ := cmd.Flags().GetString("preload"); path != "" {
		raw, err := readPayload(path)
		if err != nil {
			return err
		}
		tcfg.Preloaded = &raw
		return tui.Start(tcfg)
	}

	single, _ := cmd.Flags().GetBool("single")
	scope, err := scopeFromArgs(args, single)
	if err != nil {
		return err
	}
	src, closeSrc, err := database.OpenSource(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	logger.Info("opening view", "source", cfg.Source, "viewpoint", scope.Viewpoint, "names", scope.Names)
	tcfg.Source = src
	tcfg.Scope = scope
	return tui.Start(tcfg)
}

func printCmd() *cobra.Command {
	var (
		single bool
		table  string
		width  int
	)
	cmd := &cobra.Command{
		Use:   "print [document names...]",
		Short: "Print the graph overview of documents without the TUI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			scope, err := scopeFromArgs(args, single)
			if err != nil {
				return err
			}
			logger, closer, err := logging.Open(logging.Params{Debug: cfg.Debug, File: cfg.LogFile}, os.Stderr)
			if err != nil {
				return errors.Wrap(err, "open log file")
			}
			defer closer.Close()

			src, closeSrc, err := database.OpenSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSrc()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.FetchTimeout)
			defer cancel()
			payload, err := runPipeline(ctx, logger, src, cfg, scope)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if table == "" {
				console.Print(out, payload)
				return nil
			}
			t := output.BuildTables(payload.Graph.Nodes, payload.Graph.Relationships).ByID(table)
			if t == nil {
				return errors.Newf("unknown table %q", table)
			}
			console.PrintTable(out, *t, width)
			return nil
		},
	}
	cmd.Flags().BoolVar(&single, "single", false, "Inspect exactly one document")
	cmd.Flags().StringVar(&table, "table", "", "Print one table (documents, chunks, entities or relationships) instead of the overview")
	cmd.Flags().IntVar(&width, "width", 120, "Maximum table width")
	return cmd
}

func runPipeline(ctx context.Context, logger *log.Logger, src output.GraphSource, cfg config.Config, scope graph.Scope) (*output.PipelinePayload, error) {
	payload, err := output.RunPipeline(ctx, src, graph.NewNormalizer(cfg.NormalizerOptions()...), scope)
	if err != nil {
		return nil, errors.Mark(err, session.ErrFetchFailure)
	}
	if n := payload.Report.DanglingRelationships; n > 0 {
		logger.Debug("dropped dangling relationships", "count", n)
	}
	logger.Debug("pipeline done", "nodes", len(payload.Graph.Nodes), "relationships", len(payload.Graph.Relationships))
	return payload, nil
}

func importCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <payload.json>",
		Short: "Store an exported graph payload in the DuckDB database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			raw, err := readPayload(args[0])
			if err != nil {
				return err
			}
			repo, err := database.OpenRepo(cmd.Context(), cfg.DuckDBPath, database.DuckDBOptions(cfg)...)
			if err != nil {
				return err
			}
			defer repo.Close()

			document := name
			if document == "" {
				document = relational.DocumentName(raw, args[0])
			}
			if err := repo.Import(cmd.Context(), document, raw); err != nil {
				return err
			}
			cmd.Printf("%s %s: %d nodes, %d relationships\n",
				color.GreenString("imported"), document, len(raw.Nodes), len(raw.Relationships))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Document name to store the payload under")
	return cmd
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export [document names...]",
		Short: "Write the raw records of documents as a JSON payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			scope, err := scopeFromArgs(args, false)
			if err != nil {
				return err
			}
			src, closeSrc, err := database.OpenSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSrc()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.FetchTimeout)
			defer cancel()
			raw, err := src.FetchGraph(ctx, scope)
			if err != nil {
				return errors.Mark(errors.Wrapf(err, "fetch %s", scope.Name()), session.ErrFetchFailure)
			}
			data, err := graph.EncodeRaw(raw)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return errors.Wrapf(os.WriteFile(out, data, 0o644), "write %s", out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "File to write; stdout when empty")
	return cmd
}

func documentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "documents",
		Aliases: []string{"ls"},
		Short:   "List the documents the configured source can show",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			src, closeSrc, err := database.OpenSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSrc()

			lister, ok := src.(database.DocumentLister)
			if !ok {
				return errors.Newf("source %s cannot list documents", cfg.Source)
			}
			docs, err := lister.Documents(cmd.Context())
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				cmd.Println("No documents found.")
				return nil
			}
			for _, d := range docs {
				cmd.Println(d)
			}
			return nil
		},
	}
}
