package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sievehq/sieve/internal/store"
)

// BestOptions holds flags for the best command.
type BestOptions struct {
	*RootOptions
	Database string
}

// NewBestCommand creates the best command.
func NewBestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Show the best stored trial",
		Long: `Show the best scored trial in a result store.

The direction comes from the store's persisted summary: min mode returns the
lowest objective, max mode the highest. Ties resolve to the lower trial ID.

Examples:
  sieve best --db ./search.db
  sieve best --db ./search.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBest(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite result store (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runBest(opts *BestOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeStore, "failed to open result store", err)
	}
	defer st.Close()

	summary, ok, err := st.ReadSummary(ctx)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeStore, "failed to read summary", err)
	}
	if !ok {
		return outputError(formatter, ExitCommandError, ErrCodeNotFound, "store has no search summary; run a search first", nil)
	}

	best, ok, err := st.BestTrial(ctx, summary.Mode)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeStore, "failed to query best trial", err)
	}
	if !ok {
		return outputError(formatter, ExitFailure, ErrCodeNoTrials, "store has no scored trials", nil)
	}

	formatter.VerboseLog("config hash: %s", best.ConfigHash)

	result := trialResult(best)
	if opts.Format == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(CLIResponse{Status: "ok", Data: result})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Best trial: %d (%s %s)\n", result.ID, summary.Objective, summary.Mode)
	fmt.Fprintf(cmd.OutOrStdout(), "Objective:  %g\n", best.Objective)
	fmt.Fprintf(cmd.OutOrStdout(), "Budget:     %d (used %d)\n", best.Budget, best.ResourceUsed)
	fmt.Fprintf(cmd.OutOrStdout(), "Config:     %s\n", best.Config.String())
	return nil
}
