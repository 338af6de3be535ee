package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sievehq/sieve/internal/space"
	"github.com/sievehq/sieve/internal/store"
)

// SearchFile is a fully loaded search declaration: the parameter space plus
// the objective and resource schedule it was written for. Flags may
// override the schedule fields; the space itself comes only from the file.
type SearchFile struct {
	Space       *space.Space
	Objective   string
	Mode        store.Mode
	MaxResource int
	Factor      int
}

// searchYAML is the on-disk YAML shape of a search file.
type searchYAML struct {
	Objective   string      `yaml:"objective"`
	Mode        string      `yaml:"mode"`
	MaxResource int         `yaml:"max_resource"`
	Factor      int         `yaml:"factor"`
	Params      []paramYAML `yaml:"params"`
}

type paramYAML struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // "int" | "choice"
	Min     int64  `yaml:"min"`
	Max     int64  `yaml:"max"`
	Step    int64  `yaml:"step"`
	Values  []any  `yaml:"values"`
	Default any    `yaml:"default"`
}

// LoadSearchFile reads and validates a YAML search file.
//
// Parameter declarations go through the same validation as programmatic
// construction, so a bad range or duplicate name fails here with a
// ConfigurationError, before any trial runs.
func LoadSearchFile(path string) (*SearchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read search file: %w", err)
	}

	var raw searchYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse search file %s: %w", path, err)
	}

	params := make([]space.Param, 0, len(raw.Params))
	for _, rp := range raw.Params {
		p, err := buildParam(rp)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	sp, err := space.New(params...)
	if err != nil {
		return nil, err
	}

	return &SearchFile{
		Space:       sp,
		Objective:   raw.Objective,
		Mode:        store.Mode(raw.Mode),
		MaxResource: raw.MaxResource,
		Factor:      raw.Factor,
	}, nil
}

func buildParam(rp paramYAML) (space.Param, error) {
	var p space.Param
	switch rp.Type {
	case "int":
		p = space.IntRange(rp.Name, rp.Min, rp.Max, rp.Step)
	case "choice":
		values := make([]space.Value, 0, len(rp.Values))
		for _, raw := range rp.Values {
			v, err := space.FromAny(raw)
			if err != nil {
				return space.Param{}, &space.ConfigurationError{
					Param:  rp.Name,
					Reason: err.Error(),
				}
			}
			values = append(values, v)
		}
		p = space.Choice(rp.Name, values...)
	default:
		return space.Param{}, &space.ConfigurationError{
			Param:  rp.Name,
			Reason: fmt.Sprintf("unknown parameter type %q (want int or choice)", rp.Type),
		}
	}

	if rp.Default != nil {
		d, err := space.FromAny(rp.Default)
		if err != nil {
			return space.Param{}, &space.ConfigurationError{
				Param:  rp.Name,
				Reason: err.Error(),
			}
		}
		p = p.WithDefault(d)
	}
	return p, nil
}
