package nn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// targetFitness scores how close the network maps 1 to target.
func targetFitness(target float64) FitnessFunc {
	return func(n *Network) float64 {
		out, err := n.Evaluate([]float64{1})
		if err != nil {
			panic(err)
		}
		d := out[0] - target
		return -d * d
	}
}

func newTestNetwork(t *testing.T, seed uint64) *Network {
	t.Helper()
	n, err := NewNetwork(1, 1, [][]float64{{0.1}, {0.5, -0.2}, {0.1, 0.3}, {0.4, 0.6}, {0}})
	require.NoError(t, err)
	n.Seed(seed)
	return n
}

func TestStepSize(t *testing.T) {
	require.Equal(t, 0.05, stepSize(0))
	require.Equal(t, 0.05, stepSize(9))
	require.InDelta(t, 0.005, stepSize(10), 1e-15)
	require.InDelta(t, 0.005, stepSize(99), 1e-15)
	require.Equal(t, 0.05, stepSize(105))
}

func TestFiniteDifferenceZeroIterations(t *testing.T) {
	n := newTestNetwork(t, 1)
	before := n.Blocks()
	require.NoError(t, n.TrainFiniteDifference(targetFitness(3), 0))
	require.Equal(t, before, n.Blocks())
	require.Equal(t, 0, n.Stats().FitnessCalls)
}

func TestFiniteDifferenceImproves(t *testing.T) {
	n := newTestNetwork(t, 1)
	f := targetFitness(3)
	before := f(n)
	require.NoError(t, n.TrainFiniteDifference(f, 50))
	require.Greater(t, f(n), before)
}

func TestFiniteDifferenceCallCount(t *testing.T) {
	n := newTestNetwork(t, 1)
	require.NoError(t, n.TrainFiniteDifference(targetFitness(3), 3))
	stats := n.Stats()
	require.Equal(t, 3, stats.Steps)
	require.Equal(t, 2*n.NumParams()*3+1, stats.FitnessCalls)
	require.Len(t, stats.Scores, 1)
}

func TestFitnessTimeBookedPerSweep(t *testing.T) {
	n, err := NewNetwork(1, 1, [][]float64{{0}, {1}, {0}})
	require.NoError(t, err)
	slow := FitnessFunc(func(n *Network) float64 {
		time.Sleep(200 * time.Microsecond)
		return targetFitness(2)(n)
	})
	require.NoError(t, n.TrainFiniteDifference(slow, 1))

	stats := n.Stats()
	require.Equal(t, 2*3+1, stats.FitnessCalls)
	// the progress line's call is counted but not part of a sweep
	require.GreaterOrEqual(t, stats.FitnessTime, 6*200*time.Microsecond)
	require.LessOrEqual(t, stats.FitnessTime, stats.TotalTime)
}

func TestFiniteDifferenceFlatFitnessSkips(t *testing.T) {
	n := newTestNetwork(t, 1)
	before := n.Blocks()
	flat := FitnessFunc(func(*Network) float64 { return 7 })
	require.NoError(t, n.TrainFiniteDifference(flat, 5))
	require.Equal(t, before, n.Blocks())
	require.Equal(t, 5, n.Stats().Skipped)
}

func TestFiniteDifferenceNilFitness(t *testing.T) {
	n := newTestNetwork(t, 1)
	require.ErrorIs(t, n.TrainFiniteDifference(nil, 1), ErrNilFitness)
	require.ErrorIs(t, n.TrainSignDescent(nil, 1), ErrNilFitness)
	require.ErrorIs(t, n.TrainEvolution(nil, 1, 1), ErrNilFitness)
}

func TestFiniteDifferenceDeterministic(t *testing.T) {
	a := newTestNetwork(t, 1)
	b := newTestNetwork(t, 2)
	require.NoError(t, a.TrainFiniteDifference(targetFitness(-1), 30))
	require.NoError(t, b.TrainFiniteDifference(targetFitness(-1), 30))
	require.Equal(t, a.Blocks(), b.Blocks())
}

func TestSignDescent(t *testing.T) {
	n, err := NewNetwork(1, 1, [][]float64{{0}, {1}, {0}})
	require.NoError(t, err)
	n.Seed(3)
	f := targetFitness(2)
	before := f(n)
	// past iteration 200 the increments shrink to at most 0.05
	require.NoError(t, n.TrainSignDescent(f, 260))
	require.Greater(t, f(n), before)

	a := newTestNetwork(t, 4)
	b := newTestNetwork(t, 4)
	require.NoError(t, a.TrainSignDescent(f, 20))
	require.NoError(t, b.TrainSignDescent(f, 20))
	require.Equal(t, a.Blocks(), b.Blocks())
}

func TestEvolutionSingleMember(t *testing.T) {
	n := newTestNetwork(t, 5)
	expected := newTestNetwork(t, 5)
	perturb(expected.Layout(), 2, expected.src)

	require.NoError(t, n.TrainEvolution(targetFitness(1), 1, 6))
	require.True(t, n.Layout().Equal(expected.Layout()))
	// one score per generation plus the final scan
	require.Equal(t, 7, n.Stats().FitnessCalls)
	require.Equal(t, 6, n.Stats().Steps)
}

func TestEvolutionKeepsBest(t *testing.T) {
	n := newTestNetwork(t, 6)
	f := targetFitness(2)
	cfg := DefaultEvolutionConfig()
	cfg.LogEvery = 1
	require.NoError(t, n.TrainEvolutionWithConfig(f, 20, 15, cfg))

	scores := n.Stats().Scores
	require.Len(t, scores, 16)
	for i := 1; i < len(scores); i++ {
		require.GreaterOrEqual(t, scores[i], scores[i-1], "survivors are never lost")
	}
	require.Equal(t, scores[len(scores)-1], f(n))
	require.NoError(t, n.Layout().Validate(1, 1))
}

func TestEvolutionDeterministic(t *testing.T) {
	f := targetFitness(-2)
	a := newTestNetwork(t, 7)
	b := newTestNetwork(t, 7)
	require.NoError(t, a.TrainEvolution(f, 12, 5))
	require.NoError(t, b.TrainEvolution(f, 12, 5))
	require.True(t, a.Layout().Equal(b.Layout()))
}

func TestEvolutionSeedModes(t *testing.T) {
	f := targetFitness(0)

	n := newTestNetwork(t, 8)
	seed := n.Layout()
	snapshot := seed.Clone()
	cfg := DefaultEvolutionConfig()
	cfg.SeedMode = IndependentSeed
	require.NoError(t, n.TrainEvolutionWithConfig(f, 3, 0, cfg))
	require.True(t, seed.Equal(snapshot), "independent seeding must not touch the seed")

	n = newTestNetwork(t, 8)
	seed = n.Layout()
	require.NoError(t, n.TrainEvolution(f, 3, 0))
	require.False(t, seed.Equal(snapshot), "compounding seeding mutates the seed")
}

func TestEvolutionMembersAreIndependent(t *testing.T) {
	n := newTestNetwork(t, 9)
	seen := map[*Layout]bool{}
	calls := 0
	f := FitnessFunc(func(n *Network) float64 {
		if calls < 4 {
			seen[n.Layout()] = true
		}
		calls++
		return 0
	})
	require.NoError(t, n.TrainEvolution(f, 4, 1))
	require.Len(t, seen, 4)
}

func TestEvolutionRejectsEmptyPopulation(t *testing.T) {
	n := newTestNetwork(t, 10)
	require.Error(t, n.TrainEvolution(targetFitness(0), 0, 1))
}

func TestSelectionTies(t *testing.T) {
	pop := []member{{fitness: 1}, {fitness: 3}, {fitness: 3}, {fitness: 1}}
	require.Equal(t, 1, fittest(pop))

	pop = removeWorst(pop)
	require.Len(t, pop, 3)
	require.Equal(t, []float64{3, 3, 1}, []float64{pop[0].fitness, pop[1].fitness, pop[2].fitness})
}

func TestCullKeepsTenth(t *testing.T) {
	pop := make([]member, 25)
	for i := range pop {
		pop[i].fitness = float64(i % 7)
	}
	keep := 25 / DefaultEvolutionConfig().SurvivorDivisor
	for len(pop) > keep {
		pop = removeWorst(pop)
	}
	require.Len(t, pop, 2)
	require.Equal(t, 6.0, pop[0].fitness)
	require.Equal(t, 6.0, pop[1].fitness)
}
