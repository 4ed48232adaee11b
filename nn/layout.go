package nn

import (
	"rectnet/tensor"
)

// Layout holds every bias and weight of a rectangular network.
//
// Flattened with Blocks, a layout reads
//
//	p[0]    input biases                      numInputs
//	p[1]    inputs -> first layer weights     numInputs × layerHeight
//	p[2k]   hidden layer biases               layerHeight
//	p[2k+1] hidden -> hidden weights          layerHeight × layerHeight
//	p[n-1]  last layer -> outputs weights     layerHeight × numOutputs
//	p[n]    output biases                     numOutputs
//
// Weight blocks are row-major with one row per source node, so the weight from
// source i to target j sits at i*cols + j. A layout without hidden layers has
// three blocks and connects inputs straight to outputs.
type Layout struct {
	InputBias *tensor.Tensor
	// Weights[k] connects stage k to stage k+1; the last one feeds the outputs.
	Weights []*tensor.Tensor
	// Biases[k] belongs to the stage Weights[k] feeds; the last one holds the
	// output biases.
	Biases []*tensor.Tensor
}

// NumBlocks returns the length of the flat block sequence.
func (l *Layout) NumBlocks() int {
	return 1 + len(l.Weights) + len(l.Biases)
}

// HiddenLayers returns the number of hidden layers.
func (l *Layout) HiddenLayers() int {
	return len(l.Weights) - 1
}

// LayerHeight returns the hidden layer width, or the output width when the
// layout has no hidden layers.
func (l *Layout) LayerHeight() int {
	return l.Biases[0].Len()
}

// NumParams returns the total number of scalars in the layout.
func (l *Layout) NumParams() int {
	total := 0
	for _, b := range l.Blocks() {
		total += len(b)
	}
	return total
}

// Blocks returns the flat block sequence p[0..n]. The slices alias the layout's
// tensors; writes through them change the layout.
func (l *Layout) Blocks() [][]float64 {
	blocks := make([][]float64, 0, l.NumBlocks())
	blocks = append(blocks, l.InputBias.Data)
	for k := range l.Weights {
		blocks = append(blocks, l.Weights[k].Data, l.Biases[k].Data)
	}
	return blocks
}

// Clone returns a deep copy of l.
func (l *Layout) Clone() *Layout {
	c := &Layout{
		InputBias: l.InputBias.Clone(),
		Weights:   make([]*tensor.Tensor, len(l.Weights)),
		Biases:    make([]*tensor.Tensor, len(l.Biases)),
	}
	for k := range l.Weights {
		c.Weights[k] = l.Weights[k].Clone()
		c.Biases[k] = l.Biases[k].Clone()
	}
	return c
}

// Equal reports whether l and o hold the same shapes and values.
func (l *Layout) Equal(o *Layout) bool {
	if len(l.Weights) != len(o.Weights) || len(l.Biases) != len(o.Biases) {
		return false
	}
	if !tensor.Equal(l.InputBias, o.InputBias) {
		return false
	}
	for k := range l.Weights {
		if !tensor.Equal(l.Weights[k], o.Weights[k]) || !tensor.Equal(l.Biases[k], o.Biases[k]) {
			return false
		}
	}
	return true
}

// Validate checks l against the declared input and output widths.
func (l *Layout) Validate(numInputs, numOutputs int) error {
	if l.InputBias == nil || len(l.Weights) == 0 || len(l.Weights) != len(l.Biases) {
		actual := len(l.Weights) + len(l.Biases)
		if l.InputBias != nil {
			actual++
		}
		return &InvalidLayoutError{Kind: WrongBlockCount, Block: -1, Actual: actual}
	}
	for k := range l.Weights {
		if l.Weights[k] == nil {
			return &InvalidLayoutError{Kind: WrongBlockLength, Block: 2*k + 1, Expected: -1}
		}
		if l.Biases[k] == nil {
			return &InvalidLayoutError{Kind: WrongBlockLength, Block: 2*k + 2, Expected: -1}
		}
	}
	if err := ValidateBlocks(numInputs, numOutputs, l.Blocks()); err != nil {
		return err
	}
	height := l.LayerHeight()
	for k, w := range l.Weights {
		rows, cols := weightShape(k, len(l.Weights), numInputs, numOutputs, height)
		if len(w.Shape) != 2 || w.Shape[0] != rows || w.Shape[1] != cols {
			return &InvalidLayoutError{Kind: WrongBlockShape, Block: 2*k + 1, Expected: rows * cols, Actual: w.Len()}
		}
	}
	return nil
}

// ValidateBlocks checks a flat block sequence against the declared input and
// output widths. The layer height is taken from p[2] when the layout has hidden
// layers.
func ValidateBlocks(numInputs, numOutputs int, blocks [][]float64) error {
	n := len(blocks)
	if n < 3 || n%2 != 1 {
		return &InvalidLayoutError{Kind: WrongBlockCount, Block: -1, Actual: n}
	}
	height := numOutputs
	if n > 3 {
		height = len(blocks[2])
		if height == 0 {
			return &InvalidLayoutError{Kind: WrongBlockLength, Block: 2, Expected: 1, Actual: 0}
		}
	}
	for i, b := range blocks {
		want := blockLength(i, n, numInputs, numOutputs, height)
		if len(b) != want {
			return &InvalidLayoutError{Kind: WrongBlockLength, Block: i, Expected: want, Actual: len(b)}
		}
	}
	return nil
}

// LayoutFromBlocks validates blocks and copies them into a structured Layout.
func LayoutFromBlocks(numInputs, numOutputs int, blocks [][]float64) (*Layout, error) {
	if numInputs <= 0 || numOutputs <= 0 {
		return nil, ErrInvalidDimensions
	}
	if err := ValidateBlocks(numInputs, numOutputs, blocks); err != nil {
		return nil, err
	}
	numWeights := (len(blocks) - 1) / 2
	height := numOutputs
	if len(blocks) > 3 {
		height = len(blocks[2])
	}
	l := &Layout{
		InputBias: tensor.NewWithData(blocks[0]),
		Weights:   make([]*tensor.Tensor, numWeights),
		Biases:    make([]*tensor.Tensor, numWeights),
	}
	for k := 0; k < numWeights; k++ {
		rows, cols := weightShape(k, numWeights, numInputs, numOutputs, height)
		w, err := tensor.NewMatrix(rows, cols, blocks[2*k+1])
		if err != nil {
			return nil, err
		}
		l.Weights[k] = w
		l.Biases[k] = tensor.NewWithData(blocks[2*k+2])
	}
	return l, nil
}

func blockLength(i, n, numInputs, numOutputs, height int) int {
	switch {
	case i == 0:
		return numInputs
	case i == 1:
		return numInputs * height
	case i == n-2:
		return height * numOutputs
	case i == n-1:
		return numOutputs
	case i%2 == 0:
		return height
	default:
		return height * height
	}
}

func weightShape(k, numWeights, numInputs, numOutputs, height int) (rows, cols int) {
	rows, cols = height, height
	if k == 0 {
		rows = numInputs
	}
	if k == numWeights-1 {
		cols = numOutputs
	}
	return rows, cols
}
