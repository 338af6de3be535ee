package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sievehq/sieve/internal/space"
	"github.com/sievehq/sieve/internal/store"
)

func writeSearchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "space.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSearchFile(t *testing.T) {
	path := writeSearchFile(t, `
objective: val_loss
mode: min
max_resource: 10
factor: 3
params:
  - name: units
    type: int
    min: 16
    max: 64
    step: 16
  - name: opt
    type: choice
    values: [adam, sgd]
    default: adam
  - name: dropout
    type: choice
    values: [0.1, 0.25, 0.5]
`)

	search, err := LoadSearchFile(path)
	require.NoError(t, err)
	assert.Equal(t, "val_loss", search.Objective)
	assert.Equal(t, store.ModeMin, search.Mode)
	assert.Equal(t, 10, search.MaxResource)
	assert.Equal(t, 3, search.Factor)
	require.NotNil(t, search.Space)
	assert.Equal(t, 3, search.Space.Len())

	units, ok := search.Space.Param("units")
	require.True(t, ok)
	assert.Equal(t, space.KindInt, units.Kind)
	assert.Equal(t, int64(16), units.Min)
	assert.Equal(t, int64(16), units.Step)

	opt, ok := search.Space.Param("opt")
	require.True(t, ok)
	assert.Equal(t, space.KindChoice, opt.Kind)
	assert.Equal(t, space.Str("adam"), opt.Default)

	dropout, ok := search.Space.Param("dropout")
	require.True(t, ok)
	assert.Equal(t, []space.Value{space.Float(0.1), space.Float(0.25), space.Float(0.5)}, dropout.Values)
}

func TestLoadSearchFileUnknownType(t *testing.T) {
	path := writeSearchFile(t, `
params:
  - name: lr
    type: log_uniform
`)

	_, err := LoadSearchFile(path)
	require.Error(t, err)
	assert.True(t, space.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "log_uniform")
}

func TestLoadSearchFileInvalidRange(t *testing.T) {
	path := writeSearchFile(t, `
params:
  - name: units
    type: int
    min: 64
    max: 16
`)

	_, err := LoadSearchFile(path)
	require.Error(t, err)
	assert.True(t, space.IsConfigurationError(err))
}

func TestLoadSearchFileMissing(t *testing.T) {
	_, err := LoadSearchFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.False(t, space.IsConfigurationError(err))
}

func TestLoadSearchFileBadYAML(t *testing.T) {
	path := writeSearchFile(t, "params: [unterminated")
	_, err := LoadSearchFile(path)
	require.Error(t, err)
}
