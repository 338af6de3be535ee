package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sievehq/sieve/internal/space"
)

func TestParseObjective(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr bool
	}{
		{name: "single line", output: "0.42\n", want: 0.42},
		{name: "last line wins", output: "epoch 1 done\nloss improving\n0.13\n", want: 0.13},
		{name: "trailing blank lines", output: "0.5\n\n\n", want: 0.5},
		{name: "scientific notation", output: "1e-3\n", want: 0.001},
		{name: "negative", output: "-2.5\n", want: -2.5},
		{name: "non-numeric last line", output: "0.5\ndone\n", wantErr: true},
		{name: "empty output", output: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseObjective(tt.output)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "UNITS", envName("units"))
	assert.Equal(t, "LEARNING_RATE", envName("learning-rate"))
	assert.Equal(t, "LAYER_2_SIZE", envName("layer.2.size"))
}

func TestConfigEnv(t *testing.T) {
	cfg := space.NewConfiguration(map[string]space.Value{
		"units":   space.Int(64),
		"opt":     space.Str("adam"),
		"dropout": space.Float(0.5),
		"amsgrad": space.Bool(true),
	})

	env := configEnv(cfg)
	assert.ElementsMatch(t, []string{
		"SIEVE_PARAM_UNITS=64",
		"SIEVE_PARAM_OPT=adam",
		"SIEVE_PARAM_DROPOUT=0.5",
		"SIEVE_PARAM_AMSGRAD=true",
	}, env)
}

func TestCommandBuilderTrain(t *testing.T) {
	builder := CommandBuilder([]string{"sh", "-c", `echo "units=$SIEVE_PARAM_UNITS budget=$SIEVE_BUDGET"; echo "0.$SIEVE_PARAM_UNITS"`})
	cfg := space.NewConfiguration(map[string]space.Value{"units": space.Int(25)})

	trainable, err := builder(cfg)
	require.NoError(t, err)

	objective, err := trainable.Train(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 0.25, objective)

	metrics, err := trainable.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"objective": 0.25}, metrics)
}

func TestCommandBuilderFailure(t *testing.T) {
	builder := CommandBuilder([]string{"sh", "-c", "exit 3"})
	trainable, err := builder(space.NewConfiguration(nil))
	require.NoError(t, err)

	_, err = trainable.Train(context.Background(), 1)
	require.Error(t, err)
}

func TestCommandBuilderEmptyCommand(t *testing.T) {
	builder := CommandBuilder(nil)
	_, err := builder(space.NewConfiguration(nil))
	require.Error(t, err)
}

func TestCommandEvaluateBeforeTrain(t *testing.T) {
	builder := CommandBuilder([]string{"true"})
	trainable, err := builder(space.NewConfiguration(nil))
	require.NoError(t, err)

	_, err = trainable.Evaluate(context.Background())
	require.Error(t, err)
}
