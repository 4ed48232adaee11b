package nn

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"rectnet/utils"
)

const (
	// logEvery is the iteration interval between progress lines.
	logEvery = 100

	baseStep     = 0.05
	coarseScale  = 1.0
	fineScale    = 0.1
	coarseLength = 10 // leading iterations of each logEvery block using coarseScale

	// Momentum weights; they intentionally do not sum to one.
	currentWeight  = 0.8
	previousWeight = 0.4
)

// stepSize is the probe and update step for iteration t.
func stepSize(t int) float64 {
	if t%logEvery < coarseLength {
		return baseStep * coarseScale
	}
	return baseStep * fineScale
}

// TrainFiniteDifference climbs f by estimating the derivative of every scalar
// with a central difference and stepping along it.
//
// Each iteration costs 2×NumParams fitness calls, plus one every 100 iterations
// for the progress line. The gradient is normalised by its mean magnitude,
// blended with the previous normalised gradient and squashed with atan before
// being applied. An iteration whose gradient is all zero changes nothing.
func (n *Network) TrainFiniteDifference(f Fitness, iterations int) error {
	if f == nil {
		return ErrNilFitness
	}
	start := n.beginTraining("FINITE DIFFERENCE")
	defer n.endTraining(start)

	blocks := n.layout.Blocks()
	grad := make([]float64, n.layout.NumParams())
	prev := make([]float64, len(grad))

	for t := 0; t < iterations; t++ {
		if t%logEvery == 0 {
			n.logProgress(t, f)
		}
		step := stepSize(t)
		n.stats.Steps++

		sweep := time.Now()
		j := 0
		for _, block := range blocks {
			for i, x := range block {
				block[i] = x + step
				up := n.score(f)
				block[i] = x - step
				down := n.score(f)
				block[i] = x
				grad[j] = (up - down) / (2 * step)
				j++
			}
		}
		n.endSweep(sweep)

		meanAbs := floats.Norm(grad, 1) / float64(len(grad))
		if meanAbs == 0 {
			n.stats.Skipped++
			continue
		}
		floats.Scale(1/meanAbs, grad)

		j = 0
		for _, block := range blocks {
			for i := range block {
				m := currentWeight*grad[j] + previousWeight*prev[j]
				block[i] += math.Atan(step * m)
				j++
			}
		}
		prev, grad = grad, prev
	}
	return nil
}

// TrainSignDescent is the coarse variant of TrainFiniteDifference: every scalar
// moves by one random increment towards whichever probe scored higher.
// Increments are drawn from [0, 0.5) for the first 200 iterations and from
// [0, 0.05) afterwards.
func (n *Network) TrainSignDescent(f Fitness, iterations int) error {
	if f == nil {
		return ErrNilFitness
	}
	start := n.beginTraining("SIGN DESCENT")
	defer n.endTraining(start)

	blocks := n.layout.Blocks()
	sign := make([]float64, n.layout.NumParams())

	for t := 0; t < iterations; t++ {
		if t%logEvery == 0 {
			n.logProgress(t, f)
		}
		scale := 0.5
		if t >= 200 {
			scale = 0.05
		}
		increment := n.rnd.Float64() * scale
		n.stats.Steps++

		sweep := time.Now()
		j := 0
		for _, block := range blocks {
			for i, x := range block {
				block[i] = x + increment
				up := n.score(f)
				block[i] = x - increment
				down := n.score(f)
				block[i] = x
				if up > down {
					sign[j] = 1
				} else {
					sign[j] = -1
				}
				j++
			}
		}
		n.endSweep(sweep)

		j = 0
		for _, block := range blocks {
			for i := range block {
				block[i] += increment * sign[j]
				j++
			}
		}
	}
	return nil
}

func (n *Network) logProgress(t int, f Fitness) {
	fitness := n.score(f)
	n.stats.Scores = append(n.stats.Scores, fitness)
	utils.Logf("%d %f", t, fitness)
}
