package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PreservesDeclarationOrder(t *testing.T) {
	sp, err := New(
		IntRange("units", 32, 512, 32),
		Choice("learning_rate", Float(0.01), Float(0.001), Float(0.0001)),
	)
	require.NoError(t, err)

	params := sp.Params()
	require.Len(t, params, 2)
	assert.Equal(t, "units", params[0].Name)
	assert.Equal(t, "learning_rate", params[1].Name)
}

func TestNew_EmptySpace(t *testing.T) {
	_, err := New()
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestNew_DuplicateName(t *testing.T) {
	_, err := New(
		IntRange("units", 1, 10, 1),
		IntRange("units", 1, 5, 1),
	)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "duplicate")
}

func TestParam_Validate(t *testing.T) {
	tests := []struct {
		name    string
		param   Param
		wantErr string // empty means valid
	}{
		{
			name:  "valid int range",
			param: IntRange("units", 32, 512, 32),
		},
		{
			name:  "valid choice",
			param: Choice("optimizer", Str("adam"), Str("sgd")),
		},
		{
			name:    "min greater than max",
			param:   IntRange("units", 512, 32, 32),
			wantErr: "greater than max",
		},
		{
			name:    "negative step",
			param:   IntRange("units", 1, 10, -2),
			wantErr: "negative step",
		},
		{
			name:    "empty choice set",
			param:   Choice("optimizer"),
			wantErr: "must not be empty",
		},
		{
			name:    "empty name",
			param:   IntRange("", 1, 10, 1),
			wantErr: "name must not be empty",
		},
		{
			name:    "default outside range",
			param:   IntRange("units", 32, 512, 32).WithDefault(Int(1024)),
			wantErr: "outside range",
		},
		{
			name:    "default not in choice set",
			param:   Choice("optimizer", Str("adam")).WithDefault(Str("sgd")),
			wantErr: "not in choice set",
		},
		{
			name:  "default in choice set",
			param: Choice("optimizer", Str("adam"), Str("sgd")).WithDefault(Str("sgd")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.param)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err), "expected ConfigurationError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSpace_Default(t *testing.T) {
	sp, err := New(
		IntRange("units", 32, 512, 32).WithDefault(Int(128)),
		Choice("learning_rate", Float(0.01), Float(0.001)),
	)
	require.NoError(t, err)

	cfg := sp.Default()

	units, err := cfg.Int("units")
	require.NoError(t, err)
	assert.Equal(t, int64(128), units)

	// No explicit default: first choice value wins.
	lr, err := cfg.Float("learning_rate")
	require.NoError(t, err)
	assert.Equal(t, 0.01, lr)
}

func TestSpace_Check(t *testing.T) {
	sp, err := New(
		IntRange("units", 32, 512, 32),
		Choice("optimizer", Str("adam"), Str("sgd")),
	)
	require.NoError(t, err)

	valid := NewConfiguration(map[string]Value{
		"units":     Int(64),
		"optimizer": Str("adam"),
	})
	assert.NoError(t, sp.Check(valid))

	offGrid := NewConfiguration(map[string]Value{
		"units":     Int(33), // not on the 32-step grid
		"optimizer": Str("adam"),
	})
	err = sp.Check(offGrid)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	missing := NewConfiguration(map[string]Value{
		"units": Int(64),
	})
	assert.Error(t, sp.Check(missing))

	unknownChoice := NewConfiguration(map[string]Value{
		"units":     Int(64),
		"optimizer": Str("rmsprop"),
	})
	assert.Error(t, sp.Check(unknownChoice))
}

func TestConfiguration_Immutable(t *testing.T) {
	src := map[string]Value{"units": Int(64)}
	cfg := NewConfiguration(src)

	// Mutating the source map must not affect the configuration.
	src["units"] = Int(128)

	units, err := cfg.Int("units")
	require.NoError(t, err)
	assert.Equal(t, int64(64), units)
}

func TestConfiguration_TypedGetters(t *testing.T) {
	cfg := NewConfiguration(map[string]Value{
		"units":    Int(64),
		"lr":       Float(0.001),
		"opt":      Str("adam"),
		"augment":  Bool(true),
	})

	units, err := cfg.Int("units")
	require.NoError(t, err)
	assert.Equal(t, int64(64), units)

	lr, err := cfg.Float("lr")
	require.NoError(t, err)
	assert.Equal(t, 0.001, lr)

	// Int values convert through Float.
	f, err := cfg.Float("units")
	require.NoError(t, err)
	assert.Equal(t, 64.0, f)

	opt, err := cfg.Str("opt")
	require.NoError(t, err)
	assert.Equal(t, "adam", opt)

	aug, err := cfg.Bool("augment")
	require.NoError(t, err)
	assert.True(t, aug)

	_, err = cfg.Int("missing")
	assert.Error(t, err)
	_, err = cfg.Int("opt")
	assert.Error(t, err)
}

func TestConfiguration_String(t *testing.T) {
	cfg := NewConfiguration(map[string]Value{
		"units": Int(64),
		"lr":    Float(0.001),
	})
	assert.Equal(t, `lr=0.001 units=64`, cfg.String())
}
