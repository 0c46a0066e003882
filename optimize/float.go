package optimize

import (
	"encoding/json"
	"math"
	"strconv"
)

// Float is a float64 which is encoded in JSON as a string ("-Inf",
// "+Inf" or "NaN") when it is not finite. encoding/json refuses to
// encode such values otherwise, while -Inf is a valid log-likelihood.
type Float float64

// MarshalJSON encodes the value.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes a number or a string.
func (f *Float) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = Float(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Floats converts a slice of float64.
func Floats(v []float64) []Float {
	res := make([]Float, len(v))
	for i, x := range v {
		res[i] = Float(x)
	}
	return res
}
