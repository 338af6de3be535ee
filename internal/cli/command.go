package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sievehq/sieve/internal/engine"
	"github.com/sievehq/sieve/internal/space"
)

// envPrefix is prepended to parameter names exported to trial commands.
const envPrefix = "SIEVE_PARAM_"

// CommandBuilder adapts an external command into a model builder.
//
// Each trial invokes the command with the configuration exported as
// environment variables (SIEVE_PARAM_<NAME>, upper-cased) plus
// SIEVE_BUDGET for the resource units of the call. The command's last
// non-empty stdout line must be the objective value as a float.
//
// The command is re-invoked per Train call, so with early stopping active
// it runs once per resource unit with SIEVE_BUDGET=1.
func CommandBuilder(argv []string) engine.ModelBuilder {
	return func(cfg space.Configuration) (engine.Trainable, error) {
		if len(argv) == 0 {
			return nil, fmt.Errorf("trial command is empty")
		}
		return &commandTrainable{argv: argv, env: configEnv(cfg)}, nil
	}
}

// commandTrainable runs one external command per Train call.
type commandTrainable struct {
	argv []string
	env  []string

	lastObjective float64
	trained       bool
}

func (c *commandTrainable) Train(ctx context.Context, budget int) (float64, error) {
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Env = append(os.Environ(), c.env...)
	cmd.Env = append(cmd.Env, fmt.Sprintf("SIEVE_BUDGET=%d", budget))

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("trial command %s: %w", c.argv[0], err)
	}

	objective, err := parseObjective(stdout.String())
	if err != nil {
		return 0, fmt.Errorf("trial command %s: %w", c.argv[0], err)
	}

	c.lastObjective = objective
	c.trained = true
	return objective, nil
}

func (c *commandTrainable) Evaluate(ctx context.Context) (map[string]float64, error) {
	if !c.trained {
		return nil, fmt.Errorf("command has not trained")
	}
	return map[string]float64{"objective": c.lastObjective}, nil
}

// parseObjective extracts the objective from command output: the last
// non-empty line, parsed as a float.
func parseObjective(output string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		objective, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("last output line %q is not a number", line)
		}
		return objective, nil
	}
	return 0, fmt.Errorf("command produced no output")
}

// configEnv renders a configuration as environment variable assignments.
func configEnv(cfg space.Configuration) []string {
	env := make([]string, 0, cfg.Len())
	for _, name := range cfg.Names() {
		v, _ := cfg.Get(name)
		env = append(env, fmt.Sprintf("%s%s=%s", envPrefix, envName(name), envValue(v)))
	}
	return env
}

// envName upper-cases a parameter name and replaces characters that are not
// valid in environment variable names.
func envName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// envValue renders a value for the environment: strings pass through
// unquoted, everything else uses its canonical form.
func envValue(v space.Value) string {
	if s, ok := v.(space.Str); ok {
		return string(s)
	}
	return v.Canonical()
}
