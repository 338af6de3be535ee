package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sievehq/sieve/internal/engine"
	"github.com/sievehq/sieve/internal/space"
	"github.com/sievehq/sieve/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database    string
	SpaceFile   string
	Objective   string
	Mode        string
	MaxResource int
	Factor      int
	Parallelism int
	Patience    int
	MinDelta    float64
	Overwrite   bool
	Seed        int64

	// TokenGenerator allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.TokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run --db <database> --space <file> [flags] -- <command> [args...]",
		Short: "Run a bracketed search",
		Long: `Run a bracketed successive-halving search over a YAML search space.

Each trial invokes the given command with the sampled configuration exported
as SIEVE_PARAM_<NAME> environment variables and the resource budget as
SIEVE_BUDGET. The command's last stdout line is read as the objective value.

Results persist to a SQLite store. Re-running against the same store resumes:
configurations already scored at a budget are reused instead of re-trained,
unless --overwrite is set.

Example:
  sieve run --db ./search.db --space space.yaml -- python train.py
  sieve run --db ./search.db --space space.yaml --mode max --parallelism 4 -- ./eval.sh`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite result store (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SpaceFile, "space", "", "path to YAML search file (required)")
	_ = cmd.MarkFlagRequired("space")
	cmd.Flags().StringVar(&opts.Objective, "objective", "", "objective name (overrides search file)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "objective direction, min or max (overrides search file)")
	cmd.Flags().IntVar(&opts.MaxResource, "max-resource", 0, "maximum per-trial budget (overrides search file)")
	cmd.Flags().IntVar(&opts.Factor, "factor", 0, "reduction factor (overrides search file)")
	cmd.Flags().IntVar(&opts.Parallelism, "parallelism", 1, "concurrent trials per round")
	cmd.Flags().IntVar(&opts.Patience, "patience", 0, "early stopping patience in resource units (0 disables)")
	cmd.Flags().Float64Var(&opts.MinDelta, "min-delta", 0, "minimum objective improvement for early stopping")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "re-run configurations that already have stored results")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "sampling seed")

	return cmd
}

func runSearch(opts *RunOptions, argv []string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if opts.Mode != "" && !store.Mode(opts.Mode).Valid() {
		return outputError(formatter, ExitCommandError, ErrCodeBadFlag,
			fmt.Sprintf("invalid --mode %q: must be min or max", opts.Mode), nil)
	}

	slog.Info("loading search file", "path", opts.SpaceFile)
	search, err := LoadSearchFile(opts.SpaceFile)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeBadSpace, "failed to load search file", err)
	}
	applyOverrides(search, opts)
	formatter.VerboseLog("Loaded search space with %d parameter(s) from %s", search.Space.Len(), opts.SpaceFile)

	slog.Info("opening result store", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeStore, "failed to open result store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing result store", "error", closeErr)
		}
	}()

	summary := store.Summary{
		Space:       search.Space,
		Objective:   search.Objective,
		Mode:        search.Mode,
		MaxResource: search.MaxResource,
		Factor:      search.Factor,
	}

	engineOpts := []engine.Option{
		engine.WithParallelism(opts.Parallelism),
		engine.WithOverwrite(opts.Overwrite),
		engine.WithSeed(opts.Seed),
	}
	if opts.Patience > 0 {
		engineOpts = append(engineOpts, engine.WithEarlyStopping(opts.Patience, opts.MinDelta))
	}
	if opts.TokenGenerator != nil {
		engineOpts = append(engineOpts, engine.WithTokenGenerator(opts.TokenGenerator))
	}

	eng, err := engine.New(st, summary, CommandBuilder(argv), engineOpts...)
	if err != nil {
		if space.IsConfigurationError(err) {
			return outputError(formatter, ExitCommandError, ErrCodeBadSpace, "invalid search configuration", err)
		}
		return outputError(formatter, ExitCommandError, ErrCodeGeneric, "failed to create engine", err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping search", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	best, err := eng.Search(ctx)
	if err != nil {
		if store.IsStateError(err) {
			return outputError(formatter, ExitCommandError, ErrCodeStore, "result store state error", err)
		}
		return outputError(formatter, ExitFailure, ErrCodeGeneric, "search failed", err)
	}

	result := trialResult(best)
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Best trial: %d\n", result.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "Objective:  %g\n", best.Objective)
	fmt.Fprintf(cmd.OutOrStdout(), "Config:     %s\n", best.Config.String())
	return nil
}

// applyOverrides folds command-line schedule overrides into the loaded
// search file. Defaults apply when neither the file nor a flag sets a value.
func applyOverrides(search *SearchFile, opts *RunOptions) {
	if opts.Objective != "" {
		search.Objective = opts.Objective
	}
	if opts.Mode != "" {
		search.Mode = store.Mode(opts.Mode)
	}
	if opts.MaxResource > 0 {
		search.MaxResource = opts.MaxResource
	}
	if opts.Factor > 0 {
		search.Factor = opts.Factor
	}
	if search.Objective == "" {
		search.Objective = "objective"
	}
	if search.Mode == "" {
		search.Mode = store.ModeMin
	}
}
