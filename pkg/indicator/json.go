package indicator

import (
	"encoding/json"
	"math"
	"time"
)

// MarshalJSON encodes an undefined cell as null
func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON decodes null as an undefined cell
func (c *Cell) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*c = Undefined
		return nil
	}
	*c = Defined(*v)
	return nil
}

type pointJSON struct {
	Time  time.Time `json:"time"`
	Value *float64  `json:"value"`
}

// MarshalJSON encodes a missing observation with a null value
func (p Point) MarshalJSON() ([]byte, error) {
	out := pointJSON{Time: p.Time}
	if !p.Missing() {
		v := p.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null value as a missing observation
func (p *Point) UnmarshalJSON(data []byte) error {
	var in pointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.Time = in.Time
	p.Value = math.NaN()
	if in.Value != nil {
		p.Value = *in.Value
	}
	return nil
}
