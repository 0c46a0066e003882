package optimize

import (
	"encoding/json"
	"math"
	"testing"
)

const (
	json1 = "{\"a\":7.2,\"b\":1.17e-22,\"c\":0,\"d \\\"!\":0.999999}"
)

func TestMarshalParameters(tst *testing.T) {
	var pars FloatParameters
	a := 7.2
	b := 1.17e-22
	c := 0.0
	d := 0.999999
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	pars.Append(NewBasicFloatParameter(&c, "c"))
	pars.Append(NewBasicFloatParameter(&d, "d \"!"))
	j, err := json.Marshal(pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
}

func TestUnmarshalParameters(tst *testing.T) {
	var pars FloatParameters
	a := 1.0
	b := 1.0
	c := 1.0
	d := 1.0
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	pars.Append(NewBasicFloatParameter(&c, "c"))
	pars.Append(NewBasicFloatParameter(&d, "d \"!"))
	err := json.Unmarshal([]byte(json1), &pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	j, err := json.Marshal(pars)
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
}

func TestSetValues(tst *testing.T) {
	var pars FloatParameters
	a, b := 0.0, 0.0
	changes := 0
	pa := NewBasicFloatParameter(&a, "a")
	pa.SetOnChange(func() { changes++ })
	pa.SetMin(0)
	pa.SetMax(1)
	pars.Append(pa)
	pars.Append(NewBasicFloatParameter(&b, "b"))

	if err := pars.SetValues([]float64{0.5}); err == nil {
		tst.Error("Expected an error for a wrong number of values")
	}
	if err := pars.SetValues([]float64{0.5, 3}); err != nil {
		tst.Error("Error setting values:", err)
	}
	pars.SetValues([]float64{0.5, 4})
	if changes != 1 {
		tst.Error("onChange should be called once, got", changes)
	}
	if pars.ValuesInRange([]float64{2, 0}) {
		tst.Error("Value 2 is out of range [0, 1]")
	}
	if err := pars.SetFromMap(map[string]float64{"a": 0.1}); err == nil {
		tst.Error("Expected an error for a missing parameter")
	}
	m := pars.Map(pars.Values(nil))
	if m["a"] != 0.5 || m["b"] != 4 {
		tst.Error("Wrong map:", m)
	}
}

func TestFloatJSON(tst *testing.T) {
	for _, v := range []float64{math.Inf(-1), math.Inf(1), -12.5} {
		j, err := json.Marshal(Float(v))
		if err != nil {
			tst.Fatal("Error:", err)
		}
		var f Float
		if err := json.Unmarshal(j, &f); err != nil {
			tst.Fatal("Error:", err)
		}
		if float64(f) != v {
			tst.Errorf("Round trip of %v gave %v (%s)", v, f, j)
		}
	}
	j, err := json.Marshal(Float(math.NaN()))
	if err != nil || string(j) != `"NaN"` {
		tst.Error("Wrong NaN encoding:", string(j), err)
	}

	s := Summary{Optimizer: "None", MaxLnL: math.Inf(-1)}
	j, err = json.Marshal(s)
	if err != nil {
		tst.Fatal("Error:", err)
	}
	var dec map[string]interface{}
	if err := json.Unmarshal(j, &dec); err != nil {
		tst.Fatal("Error:", err)
	}
	if dec["maxLnL"] != "-Inf" || dec["optimizer"] != "None" {
		tst.Error("Wrong summary encoding:", string(j))
	}
}
