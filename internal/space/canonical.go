package space

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonical JSON serialization for configurations and spaces.
//
// The canonical form is the fingerprint input, so it must be byte-stable:
// object keys in sorted order, integers in base-10, floats in shortest
// round-trip form, no insignificant whitespace. encoding/json is used only
// for string escaping; structure is emitted by hand to keep key order and
// numeric formatting under our control.

// MarshalConfig returns the canonical JSON encoding of a configuration.
func MarshalConfig(cfg Configuration) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range cfg.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, name); err != nil {
			return nil, fmt.Errorf("marshal config key %q: %w", name, err)
		}
		buf.WriteByte(':')
		writeValue(&buf, cfg.vals[name])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalConfig decodes a canonical (or plain) JSON object into a
// Configuration. Integral numbers decode as Int values.
func UnmarshalConfig(data []byte) (Configuration, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Configuration{}, fmt.Errorf("unmarshal config: %w", err)
	}

	vals := make(map[string]Value, len(raw))
	for name, rv := range raw {
		v, err := fromJSON(rv)
		if err != nil {
			return Configuration{}, fmt.Errorf("unmarshal config %q: %w", name, err)
		}
		vals[name] = v
	}
	return NewConfiguration(vals), nil
}

// MarshalSpace returns the canonical JSON encoding of a space's parameter
// declarations, preserving declaration order.
func MarshalSpace(s *Space) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, p := range s.params {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeParam(&buf, p); err != nil {
			return nil, fmt.Errorf("marshal space parameter %q: %w", p.Name, err)
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalSpace decodes the output of MarshalSpace back into a Space.
func UnmarshalSpace(data []byte) (*Space, error) {
	var raw []paramJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal space: %w", err)
	}

	params := make([]Param, 0, len(raw))
	for _, rp := range raw {
		p := Param{
			Name: rp.Name,
			Kind: Kind(rp.Kind),
			Min:  rp.Min,
			Max:  rp.Max,
			Step: rp.Step,
		}
		for _, rv := range rp.Values {
			v, err := FromAny(rv)
			if err != nil {
				return nil, fmt.Errorf("unmarshal space parameter %q: %w", rp.Name, err)
			}
			p.Values = append(p.Values, v)
		}
		if rp.Default != nil {
			v, err := FromAny(rp.Default)
			if err != nil {
				return nil, fmt.Errorf("unmarshal space parameter %q default: %w", rp.Name, err)
			}
			p.Default = v
		}
		params = append(params, p)
	}
	return New(params...)
}

// paramJSON is the wire form of a Param declaration.
type paramJSON struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Min     int64  `json:"min,omitempty"`
	Max     int64  `json:"max,omitempty"`
	Step    int64  `json:"step,omitempty"`
	Values  []any  `json:"values,omitempty"`
	Default any    `json:"default,omitempty"`
}

// writeParam emits one parameter declaration with fixed key order.
func writeParam(buf *bytes.Buffer, p Param) error {
	buf.WriteByte('{')
	buf.WriteString(`"name":`)
	if err := writeJSONString(buf, p.Name); err != nil {
		return err
	}
	buf.WriteString(`,"kind":`)
	if err := writeJSONString(buf, string(p.Kind)); err != nil {
		return err
	}

	switch p.Kind {
	case KindInt:
		fmt.Fprintf(buf, `,"min":%d,"max":%d,"step":%d`, p.Min, p.Max, p.step())
	case KindChoice:
		buf.WriteString(`,"values":[`)
		for i, v := range p.Values {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeValue(buf, v)
		}
		buf.WriteByte(']')
	}

	if p.Default != nil {
		buf.WriteString(`,"default":`)
		writeValue(buf, p.Default)
	}
	buf.WriteByte('}')
	return nil
}

// writeValue emits a Value in canonical form. Canonical() already produces
// valid JSON for every sealed variant (Str quotes via json.Marshal).
func writeValue(buf *bytes.Buffer, v Value) {
	buf.WriteString(v.Canonical())
}

// writeJSONString emits s as a JSON string using encoding/json escaping.
func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// fromJSON converts a decoded JSON scalar (with UseNumber) into a Value.
func fromJSON(raw any) (Value, error) {
	if n, ok := raw.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", n.String())
		}
		return Float(f), nil
	}
	return FromAny(raw)
}
