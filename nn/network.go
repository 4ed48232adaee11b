package nn

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"rectnet/utils"
)

// Fitness scores a network; higher is better. Score may evaluate the network
// as often as it likes but must not replace or resize its parameters.
type Fitness interface {
	Score(n *Network) float64
}

// FitnessFunc adapts an ordinary function to Fitness.
type FitnessFunc func(n *Network) float64

// Score calls f(n).
func (f FitnessFunc) Score(n *Network) float64 {
	return f(n)
}

// Network is a rectangular feedforward network: numInputs inputs, zero or more
// hidden layers of equal width, numOutputs outputs.
type Network struct {
	numInputs  int
	numOutputs int
	layout     *Layout
	act        Activator

	src rand.Source
	rnd *rand.Rand

	stats utils.TrainingStats
}

// NewNetwork validates blocks against numInputs and numOutputs and builds a
// network around a copy of them. The noise source is seeded from the clock;
// call Seed for reproducible training.
func NewNetwork(numInputs, numOutputs int, blocks [][]float64) (*Network, error) {
	l, err := LayoutFromBlocks(numInputs, numOutputs, blocks)
	if err != nil {
		return nil, err
	}
	return newNetwork(numInputs, numOutputs, l, uint64(time.Now().UnixNano())), nil
}

// NewRandomNetwork builds a network from config with parameters drawn by
// Generate from a source seeded with config.Seed.
func NewRandomNetwork(config *utils.Config) (*Network, error) {
	if err := utils.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	numInputs, numOutputs, numLayers, layerHeight := config.Shape()
	n := newNetwork(numInputs, numOutputs, nil, config.Seed)
	l, err := Generate(numLayers, layerHeight, numInputs, numOutputs, config.Variation, n.src)
	if err != nil {
		return nil, err
	}
	n.layout = l
	return n, nil
}

func newNetwork(numInputs, numOutputs int, l *Layout, seed uint64) *Network {
	src := rand.NewSource(seed)
	return &Network{
		numInputs:  numInputs,
		numOutputs: numOutputs,
		layout:     l,
		act:        LeakyLinear{},
		src:        src,
		rnd:        rand.New(src),
	}
}

// Seed resets the noise source used by the trainers.
func (n *Network) Seed(seed uint64) {
	n.src.Seed(seed)
}

func (n *Network) NumInputs() int  { return n.numInputs }
func (n *Network) NumOutputs() int { return n.numOutputs }

// LayerHeight returns the hidden layer width (numOutputs without hidden layers).
func (n *Network) LayerHeight() int { return n.layout.LayerHeight() }

// NumParams returns the number of trainable scalars.
func (n *Network) NumParams() int { return n.layout.NumParams() }

// Layout returns the active layout. Callers may change values in place but
// must not resize blocks.
func (n *Network) Layout() *Layout {
	return n.layout
}

// Blocks returns a copy of the active parameters as a flat block sequence.
func (n *Network) Blocks() [][]float64 {
	return n.layout.Clone().Blocks()
}

// SetBlocks replaces all parameters after validating blocks. The block count
// and every block length must match the active layout.
func (n *Network) SetBlocks(blocks [][]float64) error {
	if err := n.checkShape(blocks); err != nil {
		return err
	}
	l, err := LayoutFromBlocks(n.numInputs, n.numOutputs, blocks)
	if err != nil {
		return err
	}
	n.layout = l
	return nil
}

// SetLayout replaces all parameters with a copy of l after validating it. The
// shape of l must match the active layout.
func (n *Network) SetLayout(l *Layout) error {
	if err := l.Validate(n.numInputs, n.numOutputs); err != nil {
		return err
	}
	if err := n.checkShape(l.Blocks()); err != nil {
		return err
	}
	n.layout = l.Clone()
	return nil
}

// checkShape compares blocks with the active layout; a network keeps its shape
// for its whole lifetime.
func (n *Network) checkShape(blocks [][]float64) error {
	current := n.layout.Blocks()
	if len(blocks) != len(current) {
		return &InvalidLayoutError{Kind: WrongBlockCount, Block: -1, Expected: len(current), Actual: len(blocks)}
	}
	for i := range current {
		if len(blocks[i]) != len(current[i]) {
			return &InvalidLayoutError{Kind: WrongBlockLength, Block: i, Expected: len(current[i]), Actual: len(blocks[i])}
		}
	}
	return nil
}

// Stats returns the statistics of the last training run.
func (n *Network) Stats() utils.TrainingStats {
	s := n.stats
	s.Scores = append([]float64(nil), n.stats.Scores...)
	return s
}

// score runs f once and counts the call. Time is booked per sweep by the
// caller through endSweep.
func (n *Network) score(f Fitness) float64 {
	n.stats.CountCall()
	return f.Score(n)
}

func (n *Network) endSweep(start time.Time) {
	n.stats.AddFitnessTime(time.Since(start))
}

func (n *Network) beginTraining(name string) time.Time {
	n.stats = utils.TrainingStats{Trainer: name}
	return time.Now()
}

func (n *Network) endTraining(start time.Time) {
	n.stats.TotalTime = time.Since(start)
	utils.PrintTrainingStats(&n.stats)
}
