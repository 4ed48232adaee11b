package nn

import (
	"gonum.org/v1/gonum/floats"

	"rectnet/tensor"
)

// Evaluate runs input through the network and returns numOutputs values.
// The input slice is not modified.
func (n *Network) Evaluate(input []float64) ([]float64, error) {
	pre, err := n.FirstStage(input)
	if err != nil {
		return nil, err
	}
	return n.EvaluateTail(pre)
}

// FirstStage adds the input biases to input and multiplies the result through
// the first weight block. The returned values are not yet activated.
func (n *Network) FirstStage(input []float64) ([]float64, error) {
	if len(input) != n.numInputs {
		return nil, &InputSizeError{Expected: n.numInputs, Actual: len(input)}
	}
	x, err := tensor.Add(tensor.NewWithData(input), n.layout.InputBias)
	if err != nil {
		return nil, err
	}
	return tensor.VecMat(x.Data, n.layout.Weights[0])
}

// EvaluateTail finishes a forward pass from the output of FirstStage.
//
// Every bias block that is followed by a weight block is added and multiplied
// through into the next stage. The output biases have no weight block after
// them: they are added to the last stage. The activation runs after every
// stage, the output stage included.
func (n *Network) EvaluateTail(pre []float64) ([]float64, error) {
	l := n.layout
	if want := l.Weights[0].Shape[1]; len(pre) != want {
		return nil, &InputSizeError{Expected: want, Actual: len(pre)}
	}
	values := append([]float64(nil), pre...)
	activate(n.act, values)

	for k, bias := range l.Biases {
		floats.Add(values, bias.Data)
		if k+1 < len(l.Weights) {
			next, err := tensor.VecMat(values, l.Weights[k+1])
			if err != nil {
				return nil, err
			}
			values = next
		}
		activate(n.act, values)
	}
	return values, nil
}
