// Package cli implements the edgarlens command line tool. It runs the
// analysis engines directly over a fact fixture loaded into the in-memory
// store, so no server or database is needed for ad-hoc investigation.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgarlens/edgarlens/internal/application/connection"
	"github.com/edgarlens/edgarlens/internal/application/insider"
	"github.com/edgarlens/edgarlens/internal/application/risk"
	"github.com/edgarlens/edgarlens/internal/config"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/memory"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	FixturePath string
	LogLevel    string
	Output      string
	Verbose     bool
	Timeout     time.Duration
	MaxHops     int
	WindowDays  int
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Logger   logging.Logger
	Store    *memory.Store
	Finder   *connection.Finder
	Assessor *risk.Assessor
	Detector *insider.Detector
	Output   string
	Timeout  time.Duration
}

// NewRootCommand creates the root cobra command with all global flags and
// subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "edgarlens",
		Short: "EdgarLens — evidence-first analysis over the SEC filing graph",
		Long: "EdgarLens finds connections between entities, aggregates risk factors,\n" +
			"classifies corporate-event filings, and detects insider buying clusters.\n" +
			"Every answer carries a citation chain back to the filings it came from.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.FixturePath, "fixture", "f", "", "fact fixture JSON file (default: built-in demo graph)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.Output, "output", "o", "text", "output format (text, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "operation timeout")

	cmd.AddCommand(
		newConnectCmd(opts),
		newRiskCmd(opts),
		newClassifyCmd(opts),
		newClustersCmd(opts),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	var store *memory.Store
	if opts.FixturePath != "" {
		store, err = LoadFixtureFile(opts.FixturePath)
		if err != nil {
			return err
		}
	} else {
		store = DemoStore()
		logger.Debug("no fixture given, using built-in demo graph")
	}

	engineCfg := config.EngineConfig{}
	cliCtx := &CLIContext{
		Logger:   logger,
		Store:    store,
		Finder:   connection.NewFinder(store, logger),
		Assessor: risk.NewAssessor(store, logger, engineCfg),
		Detector: insider.NewDetector(store, logger, engineCfg),
		Output:   opts.Output,
		Timeout:  opts.Timeout,
	}

	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, fmt.Errorf("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("command not initialized, run through the root command")
	}
	return cliCtx, nil
}

// opContext derives the bounded context every command runs its operation
// under.
func opContext(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cliCtx.Timeout)
}

// Execute is the entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// printResult writes data in the selected output format. Text rendering is
// per-command; this fallback prints JSON for anything without one.
func printResult(cmd *cobra.Command, cliCtx *CLIContext, data interface{}, text func() string) error {
	if strings.EqualFold(cliCtx.Output, "json") || text == nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), text())
	return err
}
