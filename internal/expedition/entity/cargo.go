package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CargoNumbers is the list of load reference numbers on an expedition.
//
// The backend column is a text array but the value reaches the client in
// three shapes: a JSON array, a delimited string ("123, 456"), or the
// Postgres array literal rendered as a string ("{123,456}"). All shapes
// funnel through normalizeCargo so call sites only ever see []string.
type CargoNumbers []string

type cargoShape int

const (
	cargoAbsent cargoShape = iota
	cargoList
	cargoDelimited
	cargoBracketed
)

func (c *CargoNumbers) UnmarshalJSON(data []byte) error {
	shape, values, err := classifyCargo(data)
	if err != nil {
		return err
	}
	if shape == cargoAbsent {
		*c = nil
		return nil
	}
	*c = normalizeCargo(values)
	return nil
}

func (c CargoNumbers) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]string(c))
}

func classifyCargo(data []byte) (cargoShape, []string, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return cargoAbsent, nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		// Elements may be numbers; decode loosely and stringify.
		var raw []interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return cargoAbsent, nil, fmt.Errorf("invalid cargo number list: %w", err)
		}
		values := make([]string, 0, len(raw))
		for _, v := range raw {
			values = append(values, fmt.Sprintf("%v", v))
		}
		return cargoList, values, nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return cargoAbsent, nil, fmt.Errorf("invalid cargo number value: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return cargoAbsent, nil, nil
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		clean := strings.NewReplacer("{", "", "}", "", `"`, "").Replace(s)
		return cargoBracketed, strings.Split(clean, ","), nil
	}
	return cargoDelimited, strings.Split(s, ","), nil
}

func normalizeCargo(values []string) CargoNumbers {
	out := make(CargoNumbers, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseCargoInput splits the free-text cargo field of the dispatch form
// into normalized numbers. Returns nil when the field is empty.
func ParseCargoInput(input string) CargoNumbers {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	out := normalizeCargo(strings.Split(input, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
