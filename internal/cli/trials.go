package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sievehq/sieve/internal/space"
	"github.com/sievehq/sieve/internal/store"
)

// TrialsOptions holds flags for the trials command.
type TrialsOptions struct {
	*RootOptions
	Database string
	Status   string // optional - filter by trial status
}

// TrialView is the wire form of one trial record.
type TrialView struct {
	ID           int64          `json:"id"`
	RunToken     string         `json:"run_token"`
	Bracket      int            `json:"bracket"`
	Round        int            `json:"round"`
	Config       map[string]any `json:"config"`
	ConfigHash   string         `json:"config_hash"`
	Budget       int            `json:"budget"`
	ResourceUsed int            `json:"resource_used"`
	Objective    *float64       `json:"objective,omitempty"`
	Status       string         `json:"status"`
}

// TrialsResult holds the trials listing output.
type TrialsResult struct {
	Trials []TrialView `json:"trials"`
	Total  int         `json:"total"`
}

// NewTrialsCommand creates the trials command.
func NewTrialsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TrialsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trials",
		Short: "List stored trials",
		Long: `List every trial in a result store in trial-ID order.

Examples:
  sieve trials --db ./search.db
  sieve trials --db ./search.db --status failed
  sieve trials --db ./search.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrials(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite result store (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status (pending|running|completed|failed|stopped_early)")

	return cmd
}

func runTrials(opts *TrialsOptions, cmd *cobra.Command) error {
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

	trials, err := st.ListTrials(ctx, store.Status(opts.Status))
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeStore, "failed to list trials", err)
	}

	result := TrialsResult{Trials: make([]TrialView, 0, len(trials)), Total: len(trials)}
	for _, t := range trials {
		result.Trials = append(result.Trials, trialResult(t))
	}

	if opts.Format == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(CLIResponse{Status: "ok", Data: result})
	}

	if len(result.Trials) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No trials found.")
		return nil
	}
	for _, t := range result.Trials {
		objective := "-"
		if t.Objective != nil {
			objective = fmt.Sprintf("%g", *t.Objective)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "#%d bracket=%d round=%d budget=%d used=%d status=%s objective=%s\n",
			t.ID, t.Bracket, t.Round, t.Budget, t.ResourceUsed, t.Status, objective)
		if opts.Verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "    config: %v hash: %s\n", t.Config, t.ConfigHash)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d trials\n", result.Total)
	return nil
}

// trialResult converts a store trial to its wire form.
func trialResult(t store.Trial) TrialView {
	view := TrialView{
		ID:           t.ID,
		RunToken:     t.RunToken,
		Bracket:      t.Bracket,
		Round:        t.Round,
		Config:       configMap(t.Config),
		ConfigHash:   t.ConfigHash,
		Budget:       t.Budget,
		ResourceUsed: t.ResourceUsed,
		Status:       string(t.Status),
	}
	if t.Status.Scored() {
		objective := t.Objective
		view.Objective = &objective
	}
	return view
}

// configMap flattens a configuration to plain scalars for JSON output.
func configMap(cfg space.Configuration) map[string]any {
	out := make(map[string]any, cfg.Len())
	for _, name := range cfg.Names() {
		v, _ := cfg.Get(name)
		switch x := v.(type) {
		case space.Int:
			out[name] = int64(x)
		case space.Float:
			out[name] = float64(x)
		case space.Str:
			out[name] = string(x)
		case space.Bool:
			out[name] = bool(x)
		}
	}
	return out
}
