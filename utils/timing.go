package utils

import (
	"fmt"
	"io"
	"os"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Verbose controls whether progress and statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where progress and statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// Logf prints a progress line when Verbose is set.
func Logf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	fmt.Fprintf(Output, format+"\n", args...)
}

// TrainingStats holds counters and timings collected by the trainers.
type TrainingStats struct {
	Trainer      string
	Steps        int // iterations or generations
	FitnessCalls int
	Skipped      int // iterations without an update
	TotalTime    time.Duration
	FitnessTime  time.Duration
	// Scores holds the fitness values logged during training, in order.
	Scores []float64
}

// CountCall books one fitness evaluation.
func (s *TrainingStats) CountCall() {
	s.FitnessCalls++
}

// AddFitnessTime books d as time spent inside fitness evaluations.
func (s *TrainingStats) AddFitnessTime(d time.Duration) {
	s.FitnessTime += d
}

// MeanScore is the mean of the logged scores, or 0 when none were logged.
func (s *TrainingStats) MeanScore() float64 {
	if len(s.Scores) == 0 {
		return 0
	}
	return stat.Mean(s.Scores, nil)
}

// PrintTrainingStats prints detailed training statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTrainingStats(stats *TrainingStats) {
	if !Verbose {
		return
	}
	fmt.Fprintf(Output, "\n=== %s STATISTICS ===\n", stats.Trainer)
	fmt.Fprintf(Output, "Total training time: %v\n", stats.TotalTime)
	fmt.Fprintf(Output, "Steps completed: %d (%d skipped)\n", stats.Steps, stats.Skipped)
	fmt.Fprintf(Output, "Fitness evaluations: %d\n", stats.FitnessCalls)
	if stats.TotalTime > 0 {
		fmt.Fprintf(Output, "  Fitness time: %v (%.1f%%)\n", stats.FitnessTime, float64(stats.FitnessTime)/float64(stats.TotalTime)*100)
	}
	if stats.FitnessCalls > 0 {
		fmt.Fprintf(Output, "  Average fitness call: %.3fµs\n", DurationUS(stats.FitnessTime)/float64(stats.FitnessCalls))
	}
	if len(stats.Scores) > 0 {
		fmt.Fprintf(Output, "Logged fitness: first %.6f, last %.6f, mean %.6f\n",
			stats.Scores[0], stats.Scores[len(stats.Scores)-1], stats.MeanScore())
	}
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
