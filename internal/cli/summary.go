package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sievehq/sieve/internal/engine"
	"github.com/sievehq/sieve/internal/space"
	"github.com/sievehq/sieve/internal/store"
)

// SummaryOptions holds flags for the summary command.
type SummaryOptions struct {
	*RootOptions
	Database string
}

// SummaryResult holds the summary output: the persisted search declaration
// plus the bracket schedule it implies and trial counts.
type SummaryResult struct {
	SpaceHash   string           `json:"space_hash"`
	Params      []string         `json:"params"`
	Objective   string           `json:"objective"`
	Mode        string           `json:"mode"`
	MaxResource int              `json:"max_resource"`
	Factor      int              `json:"factor"`
	Brackets    []engine.Bracket `json:"brackets"`
	TrialCount  int              `json:"trial_count"`
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummaryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the stored search summary and bracket schedule",
		Long: `Show a result store's persisted search declaration: the parameter
space fingerprint, objective, resource schedule, and the bracket table the
schedule implies.

Examples:
  sieve summary --db ./search.db
  sieve summary --db ./search.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite result store (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSummary(opts *SummaryOptions, cmd *cobra.Command) error {
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

	brackets, err := engine.Plan(summary.MaxResource, summary.Factor)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeStore, "stored schedule is invalid", err)
	}

	count, err := st.CountTrials(ctx)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeStore, "failed to count trials", err)
	}

	result := SummaryResult{
		SpaceHash:   summary.SpaceHash,
		Params:      paramNames(summary.Space),
		Objective:   summary.Objective,
		Mode:        string(summary.Mode),
		MaxResource: summary.MaxResource,
		Factor:      summary.Factor,
		Brackets:    brackets,
		TrialCount:  count,
	}

	if opts.Format == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(CLIResponse{Status: "ok", Data: result})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Objective:    %s (%s)\n", result.Objective, result.Mode)
	fmt.Fprintf(cmd.OutOrStdout(), "Schedule:     max_resource=%d factor=%d\n", result.MaxResource, result.Factor)
	fmt.Fprintf(cmd.OutOrStdout(), "Space:        %s\n", result.SpaceHash)
	fmt.Fprintf(cmd.OutOrStdout(), "Params:       %v\n", result.Params)
	fmt.Fprintf(cmd.OutOrStdout(), "Trials:       %d\n", result.TrialCount)
	fmt.Fprintln(cmd.OutOrStdout(), "Brackets:")
	for _, b := range result.Brackets {
		fmt.Fprintf(cmd.OutOrStdout(), "  s=%d:", b.S)
		for _, r := range b.Rounds {
			fmt.Fprintf(cmd.OutOrStdout(), " %d@%d", r.Configs, r.Resource)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func paramNames(sp *space.Space) []string {
	params := sp.Params()
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}
