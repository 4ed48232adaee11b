package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Activator is applied element-wise after every weighted sum. The signature
// matches mat.Dense.Apply.
type Activator interface {
	Activate(i, j int, sum float64) float64
	fmt.Stringer
}

// leakSlope is the slope of LeakyLinear below zero.
const leakSlope = 0.5

// LeakyLinear passes positive values through and halves the rest.
type LeakyLinear struct{}

func (LeakyLinear) Activate(i, j int, sum float64) float64 {
	if sum > 0 {
		return sum
	}
	return sum * leakSlope
}

func (LeakyLinear) String() string {
	return "leaky-linear"
}

// activate applies act to v in place.
func activate(act Activator, v []float64) {
	if len(v) == 0 {
		return
	}
	m := mat.NewDense(1, len(v), v)
	m.Apply(act.Activate, m)
}
