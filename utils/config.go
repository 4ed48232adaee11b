package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Config holds the shape and initialisation settings of a network.
type Config struct {
	// Architecture lists layer widths: inputs, hidden layers..., outputs.
	Architecture []int
	// Variation is the width of the uniform range initial parameters are drawn from.
	Variation    float64
	Seed         uint64
}

// ParseArchitecture parses architecture string into slice of integers
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.Fields(archStr)
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("parsing layer %d: %w", i, err)
		}
		arch[i] = n
	}
	return arch, nil
}

// ValidateConfig validates network configuration
func ValidateConfig(config *Config) error {
	if len(config.Architecture) < 2 {
		return fmt.Errorf("architecture must have at least 2 layers (input and output)")
	}

	for i, n := range config.Architecture {
		if n <= 0 {
			return fmt.Errorf("layer %d must have a positive width, got %d", i, n)
		}
	}

	hidden := config.Architecture[1 : len(config.Architecture)-1]
	for i, n := range hidden {
		if n != hidden[0] {
			return fmt.Errorf("hidden layers must share one width: layer %d has %d, want %d", i+1, n, hidden[0])
		}
	}

	if config.Variation <= 0 {
		return fmt.Errorf("variation must be positive")
	}

	return nil
}

// Shape splits the architecture into its input width, output width, number of
// hidden layers and hidden layer height. Without hidden layers the height is the
// output width.
func (c *Config) Shape() (numInputs, numOutputs, numLayers, layerHeight int) {
	arch := c.Architecture
	numInputs = arch[0]
	numOutputs = arch[len(arch)-1]
	numLayers = len(arch) - 2
	layerHeight = numOutputs
	if numLayers > 0 {
		layerHeight = arch[1]
	}
	return
}
