package space

import "fmt"

// Kind distinguishes parameter declaration kinds.
type Kind string

const (
	// KindInt is an inclusive integer range with a step.
	KindInt Kind = "int"
	// KindChoice is a discrete set of scalar values.
	KindChoice Kind = "choice"
)

// Param declares a single tunable hyperparameter.
//
// For KindInt, Min/Max/Step define the range: valid values are
// Min, Min+Step, ..., up to Max (Max itself need not be on the grid).
// For KindChoice, Values enumerates the candidates in declaration order.
//
// Default is optional; when nil it resolves to Min (int) or the first
// choice value.
type Param struct {
	Name    string
	Kind    Kind
	Min     int64   // int range only
	Max     int64   // int range only
	Step    int64   // int range only; 0 means 1
	Values  []Value // choice only
	Default Value
}

// IntRange declares an integer range parameter. A step of 0 means 1.
func IntRange(name string, min, max, step int64) Param {
	return Param{Name: name, Kind: KindInt, Min: min, Max: max, Step: step}
}

// Choice declares a discrete choice parameter.
func Choice(name string, values ...Value) Param {
	return Param{Name: name, Kind: KindChoice, Values: values}
}

// WithDefault returns a copy of the parameter with an explicit default.
func (p Param) WithDefault(v Value) Param {
	p.Default = v
	return p
}

// step returns the effective step, treating 0 as 1.
func (p Param) step() int64 {
	if p.Step == 0 {
		return 1
	}
	return p.Step
}

// gridSize returns the number of valid values for an int range parameter.
func (p Param) gridSize() int64 {
	return (p.Max-p.Min)/p.step() + 1
}

// defaultValue resolves the parameter's default.
func (p Param) defaultValue() Value {
	if p.Default != nil {
		return p.Default
	}
	if p.Kind == KindChoice {
		return p.Values[0]
	}
	return Int(p.Min)
}

// validate checks the declaration and returns a ConfigurationError on the
// first violation found.
func (p Param) validate() error {
	if p.Name == "" {
		return &ConfigurationError{Reason: "parameter name must not be empty"}
	}

	switch p.Kind {
	case KindInt:
		if p.Min > p.Max {
			return &ConfigurationError{
				Param:  p.Name,
				Reason: fmt.Sprintf("min %d greater than max %d", p.Min, p.Max),
			}
		}
		if p.Step < 0 {
			return &ConfigurationError{
				Param:  p.Name,
				Reason: fmt.Sprintf("negative step %d", p.Step),
			}
		}
		if len(p.Values) > 0 {
			return &ConfigurationError{Param: p.Name, Reason: "int range must not declare choice values"}
		}
		if p.Default != nil {
			d, ok := p.Default.(Int)
			if !ok {
				return &ConfigurationError{Param: p.Name, Reason: "default for int range must be an integer"}
			}
			if int64(d) < p.Min || int64(d) > p.Max {
				return &ConfigurationError{
					Param:  p.Name,
					Reason: fmt.Sprintf("default %d outside range [%d, %d]", int64(d), p.Min, p.Max),
				}
			}
		}

	case KindChoice:
		if len(p.Values) == 0 {
			return &ConfigurationError{Param: p.Name, Reason: "choice set must not be empty"}
		}
		for i, v := range p.Values {
			if v == nil {
				return &ConfigurationError{Param: p.Name, Reason: fmt.Sprintf("choice value %d is nil", i)}
			}
			if err := validateValue(v); err != nil {
				return &ConfigurationError{Param: p.Name, Reason: err.Error()}
			}
		}
		if p.Default != nil && !containsValue(p.Values, p.Default) {
			return &ConfigurationError{
				Param:  p.Name,
				Reason: fmt.Sprintf("default %s not in choice set", p.Default.Canonical()),
			}
		}

	default:
		return &ConfigurationError{Param: p.Name, Reason: fmt.Sprintf("unknown kind %q", p.Kind)}
	}

	return nil
}

// contains reports whether v is a valid value for the parameter.
func (p Param) contains(v Value) bool {
	switch p.Kind {
	case KindInt:
		i, ok := v.(Int)
		if !ok {
			return false
		}
		n := int64(i)
		return n >= p.Min && n <= p.Max && (n-p.Min)%p.step() == 0
	case KindChoice:
		return containsValue(p.Values, v)
	}
	return false
}

func containsValue(values []Value, v Value) bool {
	for _, candidate := range values {
		if candidate.Canonical() == v.Canonical() {
			return true
		}
	}
	return false
}
