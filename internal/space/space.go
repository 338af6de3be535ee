package space

import (
	"fmt"
	"sort"
)

// Space is an immutable, ordered collection of parameter declarations.
//
// Declaration order is preserved: it determines sampling order and the order
// of the persisted search-space summary. Parameter names are unique.
type Space struct {
	params []Param
	index  map[string]int
}

// New validates the declarations and builds a Space.
// Returns a ConfigurationError on the first invalid declaration.
func New(params ...Param) (*Space, error) {
	if len(params) == 0 {
		return nil, &ConfigurationError{Reason: "search space must declare at least one parameter"}
	}

	index := make(map[string]int, len(params))
	for i, p := range params {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := index[p.Name]; dup {
			return nil, &ConfigurationError{Param: p.Name, Reason: "duplicate parameter name"}
		}
		index[p.Name] = i
	}

	// Copy to prevent external mutation of declaration order.
	owned := make([]Param, len(params))
	copy(owned, params)

	return &Space{params: owned, index: index}, nil
}

// Params returns the declarations in declaration order.
// The returned slice is a copy.
func (s *Space) Params() []Param {
	out := make([]Param, len(s.params))
	copy(out, s.params)
	return out
}

// Len returns the number of declared parameters.
func (s *Space) Len() int {
	return len(s.params)
}

// Param returns the declaration for name.
func (s *Space) Param(name string) (Param, bool) {
	i, ok := s.index[name]
	if !ok {
		return Param{}, false
	}
	return s.params[i], true
}

// Default returns the configuration built from every parameter's default.
func (s *Space) Default() Configuration {
	vals := make(map[string]Value, len(s.params))
	for _, p := range s.params {
		vals[p.Name] = p.defaultValue()
	}
	return NewConfiguration(vals)
}

// Check verifies that cfg assigns a valid value to every declared parameter
// and nothing else. Used before reusing persisted configurations.
func (s *Space) Check(cfg Configuration) error {
	if cfg.Len() != len(s.params) {
		return &ConfigurationError{
			Reason: fmt.Sprintf("configuration has %d values, space declares %d parameters", cfg.Len(), len(s.params)),
		}
	}
	for _, p := range s.params {
		v, ok := cfg.Get(p.Name)
		if !ok {
			return &ConfigurationError{Param: p.Name, Reason: "missing from configuration"}
		}
		if !p.contains(v) {
			return &ConfigurationError{
				Param:  p.Name,
				Reason: fmt.Sprintf("value %s outside declared range", v.Canonical()),
			}
		}
	}
	return nil
}

// Configuration is an immutable assignment of values to parameter names.
// Created by sampling a Space or via NewConfiguration; never mutated after.
type Configuration struct {
	vals map[string]Value
	keys []string // sorted, for deterministic iteration
}

// NewConfiguration copies vals into an immutable Configuration.
func NewConfiguration(vals map[string]Value) Configuration {
	owned := make(map[string]Value, len(vals))
	keys := make([]string, 0, len(vals))
	for k, v := range vals {
		owned[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Configuration{vals: owned, keys: keys}
}

// Len returns the number of assigned parameters.
func (c Configuration) Len() int {
	return len(c.vals)
}

// Names returns the parameter names in sorted order.
func (c Configuration) Names() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the value assigned to name.
func (c Configuration) Get(name string) (Value, bool) {
	v, ok := c.vals[name]
	return v, ok
}

// Int returns the integer value assigned to name.
func (c Configuration) Int(name string) (int64, error) {
	v, ok := c.vals[name]
	if !ok {
		return 0, fmt.Errorf("parameter %q not in configuration", name)
	}
	i, ok := v.(Int)
	if !ok {
		return 0, fmt.Errorf("parameter %q is not an integer", name)
	}
	return int64(i), nil
}

// Float returns the float value assigned to name. Integer values convert.
func (c Configuration) Float(name string) (float64, error) {
	v, ok := c.vals[name]
	if !ok {
		return 0, fmt.Errorf("parameter %q not in configuration", name)
	}
	switch x := v.(type) {
	case Float:
		return float64(x), nil
	case Int:
		return float64(x), nil
	}
	return 0, fmt.Errorf("parameter %q is not numeric", name)
}

// Str returns the string value assigned to name.
func (c Configuration) Str(name string) (string, error) {
	v, ok := c.vals[name]
	if !ok {
		return "", fmt.Errorf("parameter %q not in configuration", name)
	}
	s, ok := v.(Str)
	if !ok {
		return "", fmt.Errorf("parameter %q is not a string", name)
	}
	return string(s), nil
}

// Bool returns the boolean value assigned to name.
func (c Configuration) Bool(name string) (bool, error) {
	v, ok := c.vals[name]
	if !ok {
		return false, fmt.Errorf("parameter %q not in configuration", name)
	}
	b, ok := v.(Bool)
	if !ok {
		return false, fmt.Errorf("parameter %q is not a boolean", name)
	}
	return bool(b), nil
}

// String renders the configuration as "name=value" pairs in sorted order.
func (c Configuration) String() string {
	out := ""
	for i, k := range c.keys {
		if i > 0 {
			out += " "
		}
		out += k + "=" + c.vals[k].Canonical()
	}
	return out
}
