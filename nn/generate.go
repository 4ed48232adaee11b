package nn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"rectnet/tensor"
)

// noise returns a uniform distribution over [-magnitude/2, magnitude/2).
func noise(magnitude float64, src rand.Source) distuv.Uniform {
	return distuv.Uniform{
		Min: -magnitude / 2,
		Max: magnitude / 2,
		Src: src,
	}
}

func randomTensor(dist distuv.Uniform, shape ...int) *tensor.Tensor {
	t := tensor.New(shape...)
	for i := range t.Data {
		t.Data[i] = dist.Rand()
	}
	return t
}

// Generate builds a layout with numLayers hidden layers of layerHeight nodes.
// Every scalar is drawn independently from [-variation/2, variation/2). Without
// hidden layers layerHeight is ignored and the inputs connect to the outputs.
//
// Values are drawn in block order: input biases, then weights and biases of
// each hidden layer, then output weights and output biases.
func Generate(numLayers, layerHeight, numInputs, numOutputs int, variation float64, src rand.Source) (*Layout, error) {
	if numInputs <= 0 || numOutputs <= 0 {
		return nil, ErrInvalidDimensions
	}
	if numLayers < 0 {
		return nil, fmt.Errorf("number of hidden layers must not be negative, got %d", numLayers)
	}
	if numLayers > 0 && layerHeight <= 0 {
		return nil, fmt.Errorf("layer height must be positive, got %d", layerHeight)
	}
	if numLayers == 0 {
		layerHeight = numOutputs
	}

	dist := noise(variation, src)
	l := &Layout{
		InputBias: randomTensor(dist, numInputs),
		Weights:   make([]*tensor.Tensor, 0, numLayers+1),
		Biases:    make([]*tensor.Tensor, 0, numLayers+1),
	}
	numWeights := numLayers + 1
	for k := 0; k < numWeights; k++ {
		rows, cols := weightShape(k, numWeights, numInputs, numOutputs, layerHeight)
		l.Weights = append(l.Weights, randomTensor(dist, rows, cols))
		l.Biases = append(l.Biases, randomTensor(dist, cols))
	}
	return l, nil
}

// perturb adds independent noise from [-magnitude/2, magnitude/2) to every
// scalar of l, in block order.
func perturb(l *Layout, magnitude float64, src rand.Source) {
	dist := noise(magnitude, src)
	for _, block := range l.Blocks() {
		for i := range block {
			block[i] += dist.Rand()
		}
	}
}
