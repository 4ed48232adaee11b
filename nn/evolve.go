package nn

import (
	"fmt"
	"time"

	"rectnet/utils"
)

// SeedMode selects how the initial population is derived from the network.
type SeedMode int

const (
	// CompoundingSeed mutates the network's own parameters once per member and
	// snapshots them after each mutation, so member k carries k+1 rounds of
	// noise.
	CompoundingSeed SeedMode = iota
	// IndependentSeed mutates a fresh copy of the untouched parameters for
	// every member.
	IndependentSeed
)

// Phase is a stage of TrainEvolution.
type Phase int

const (
	PhaseSeed Phase = iota
	PhaseGenerations
	PhaseFinalize
)

func (p Phase) String() string {
	switch p {
	case PhaseSeed:
		return "seed"
	case PhaseGenerations:
		return "generations"
	case PhaseFinalize:
		return "finalize"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// EvolutionConfig tunes TrainEvolutionWithConfig.
type EvolutionConfig struct {
	SeedMode SeedMode
	// SeedMagnitude is the noise width applied while seeding.
	SeedMagnitude float64
	// MutationMagnitude is the noise width applied to cloned survivors.
	MutationMagnitude float64
	// SurvivorDivisor: each generation keeps popSize/SurvivorDivisor members
	// (at least one).
	SurvivorDivisor int
	// LogEvery is the generation interval between progress lines.
	LogEvery int
}

// DefaultEvolutionConfig returns the settings used by TrainEvolution.
func DefaultEvolutionConfig() EvolutionConfig {
	return EvolutionConfig{
		SeedMode:          CompoundingSeed,
		SeedMagnitude:     2,
		MutationMagnitude: 0.02,
		SurvivorDivisor:   10,
		LogEvery:          10,
	}
}

type member struct {
	layout  *Layout
	fitness float64
}

// TrainEvolution runs a truncation-selection search seeded from the network's
// current parameters and leaves the fittest member active.
func (n *Network) TrainEvolution(f Fitness, popSize, generations int) error {
	return n.TrainEvolutionWithConfig(f, popSize, generations, DefaultEvolutionConfig())
}

// TrainEvolutionWithConfig is TrainEvolution with explicit settings.
//
// Each generation scores every member, drops the worst one at a time (the
// first on ties) until only the survivors remain, and refills the population
// with mutated clones of randomly chosen survivors. The network's active
// parameters are switched to each member while it is scored.
func (n *Network) TrainEvolutionWithConfig(f Fitness, popSize, generations int, cfg EvolutionConfig) error {
	if f == nil {
		return ErrNilFitness
	}
	if popSize < 1 {
		return fmt.Errorf("population size must be at least 1, got %d", popSize)
	}
	if cfg.SurvivorDivisor < 1 {
		return fmt.Errorf("survivor divisor must be at least 1, got %d", cfg.SurvivorDivisor)
	}
	start := n.beginTraining("EVOLUTION")
	defer n.endTraining(start)

	utils.Logf("evolution: %s (%d members)", PhaseSeed, popSize)
	pop := n.seedPopulation(popSize, cfg)

	keep := popSize / cfg.SurvivorDivisor
	if keep < 1 {
		keep = 1
	}

	utils.Logf("evolution: %s (%d, keeping %d)", PhaseGenerations, generations, keep)
	for g := 0; g < generations; g++ {
		n.scorePopulation(f, pop)
		if cfg.LogEvery > 0 && g%cfg.LogEvery == 0 {
			best := pop[fittest(pop)].fitness
			n.stats.Scores = append(n.stats.Scores, best)
			utils.Logf("generation %d best %f", g, best)
		}

		for len(pop) > keep {
			pop = removeWorst(pop)
		}
		survivors := len(pop)
		for len(pop) < popSize {
			parent := pop[n.rnd.Intn(survivors)]
			child := parent.layout.Clone()
			perturb(child, cfg.MutationMagnitude, n.src)
			pop = append(pop, member{layout: child})
		}
		n.stats.Steps++
	}

	utils.Logf("evolution: %s", PhaseFinalize)
	n.scorePopulation(f, pop)
	best := fittest(pop)
	n.layout = pop[best].layout
	n.stats.Scores = append(n.stats.Scores, pop[best].fitness)
	return nil
}

func (n *Network) seedPopulation(popSize int, cfg EvolutionConfig) []member {
	pop := make([]member, popSize)
	seed := n.layout
	for k := range pop {
		switch cfg.SeedMode {
		case IndependentSeed:
			c := seed.Clone()
			perturb(c, cfg.SeedMagnitude, n.src)
			pop[k].layout = c
		default:
			perturb(seed, cfg.SeedMagnitude, n.src)
			pop[k].layout = seed.Clone()
		}
	}
	return pop
}

func (n *Network) scorePopulation(f Fitness, pop []member) {
	defer n.endSweep(time.Now())
	for i := range pop {
		n.layout = pop[i].layout
		pop[i].fitness = n.score(f)
	}
}

// fittest returns the index of the highest fitness; the first one wins ties.
func fittest(pop []member) int {
	best := 0
	for i := 1; i < len(pop); i++ {
		if pop[i].fitness > pop[best].fitness {
			best = i
		}
	}
	return best
}

// removeWorst drops the lowest fitness; the first one goes on ties.
func removeWorst(pop []member) []member {
	worst := 0
	for i := 1; i < len(pop); i++ {
		if pop[i].fitness < pop[worst].fitness {
			worst = i
		}
	}
	return append(pop[:worst], pop[worst+1:]...)
}
