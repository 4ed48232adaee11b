package nn

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"rectnet/utils"
)

func TestMain(m *testing.M) {
	utils.Verbose = false
	os.Exit(m.Run())
}

func requireLayoutError(t *testing.T, err error, kind LayoutErrorKind, block int) *InvalidLayoutError {
	t.Helper()
	var le *InvalidLayoutError
	require.True(t, errors.As(err, &le), "want *InvalidLayoutError, got %v", err)
	require.Equal(t, kind, le.Kind, "kind")
	require.Equal(t, block, le.Block, "block")
	return le
}

func TestGeneratedLayoutsValidate(t *testing.T) {
	src := rand.NewSource(1)
	for numInputs := 1; numInputs <= 3; numInputs++ {
		for numOutputs := 1; numOutputs <= 3; numOutputs++ {
			for layers := 0; layers <= 3; layers++ {
				for height := 1; height <= 3; height++ {
					l, err := Generate(layers, height, numInputs, numOutputs, 1, src)
					require.NoError(t, err)
					require.NoError(t, l.Validate(numInputs, numOutputs))
					require.NoError(t, ValidateBlocks(numInputs, numOutputs, l.Blocks()))
					require.Equal(t, 2*layers+3, len(l.Blocks()))
					if layers > 0 {
						require.Equal(t, height, l.LayerHeight())
					} else {
						require.Equal(t, numOutputs, l.LayerHeight())
					}
				}
			}
		}
	}
}

func TestValidateBlocksWrongCount(t *testing.T) {
	for _, count := range []int{0, 1, 2, 4, 6} {
		blocks := make([][]float64, count)
		err := ValidateBlocks(1, 1, blocks)
		le := requireLayoutError(t, err, WrongBlockCount, -1)
		require.Equal(t, count, le.Actual)
	}
}

func TestValidateBlocksWrongLength(t *testing.T) {
	l, err := Generate(2, 4, 2, 3, 1, rand.NewSource(2))
	require.NoError(t, err)
	valid := l.Blocks()

	for i := range valid {
		blocks := l.Clone().Blocks()
		blocks[i] = append(blocks[i], 0)
		err := ValidateBlocks(2, 3, blocks)

		// p[2] sets the layer height, so growing it breaks p[1] first.
		want := i
		if i == 2 {
			want = 1
		}
		le := requireLayoutError(t, err, WrongBlockLength, want)
		if i != 2 {
			require.Equal(t, len(valid[i]), le.Expected)
			require.Equal(t, len(valid[i])+1, le.Actual)
		}
	}
}

func TestValidateBlocksMinimal(t *testing.T) {
	blocks := [][]float64{{0, 0}, {1, 2, 3, 4, 5, 6}, {0, 0, 0}}
	require.NoError(t, ValidateBlocks(2, 3, blocks))

	// three blocks always connect inputs to outputs directly
	blocks[1] = []float64{1, 2, 3, 4}
	requireLayoutError(t, ValidateBlocks(2, 3, blocks), WrongBlockLength, 1)
}

func TestValidateBlocksEmptyHiddenLayer(t *testing.T) {
	blocks := [][]float64{{0}, {}, {}, {}, {0}}
	le := requireLayoutError(t, ValidateBlocks(1, 1, blocks), WrongBlockLength, 2)
	require.Equal(t, 1, le.Expected)
}

func TestLayoutFromBlocksCopies(t *testing.T) {
	blocks := [][]float64{{1}, {2, 3}, {4, 5}, {6, 7}, {8}}
	l, err := LayoutFromBlocks(1, 1, blocks)
	require.NoError(t, err)
	require.Equal(t, 1, l.HiddenLayers())
	require.Equal(t, 2, l.LayerHeight())
	require.Equal(t, 8, l.NumParams())
	require.Equal(t, []int{1, 2}, l.Weights[0].Shape)
	require.Equal(t, []int{2, 1}, l.Weights[1].Shape)

	blocks[1][0] = 99
	require.Equal(t, 2.0, l.Weights[0].Data[0])
	require.Equal(t, [][]float64{{1}, {2, 3}, {4, 5}, {6, 7}, {8}}, l.Blocks())
}

func TestLayoutFromBlocksDimensions(t *testing.T) {
	_, err := LayoutFromBlocks(0, 1, [][]float64{{}, {}, {0}})
	require.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestLayoutBlocksAlias(t *testing.T) {
	l, err := Generate(1, 2, 2, 1, 1, rand.NewSource(3))
	require.NoError(t, err)
	l.Blocks()[3][1] = 42
	require.Equal(t, 42.0, l.Weights[1].At(1, 0))
}

func TestLayoutValidateShape(t *testing.T) {
	l, err := Generate(1, 3, 2, 1, 1, rand.NewSource(4))
	require.NoError(t, err)
	l.Weights[0].Shape = []int{3, 2}
	requireLayoutError(t, l.Validate(2, 1), WrongBlockShape, 1)
}

func TestLayoutValidateStructure(t *testing.T) {
	l, err := Generate(1, 3, 2, 1, 1, rand.NewSource(5))
	require.NoError(t, err)

	broken := l.Clone()
	broken.Biases = broken.Biases[:1]
	requireLayoutError(t, broken.Validate(2, 1), WrongBlockCount, -1)

	broken = l.Clone()
	broken.Weights[1] = nil
	requireLayoutError(t, broken.Validate(2, 1), WrongBlockLength, 3)
}

func TestLayoutCloneEqual(t *testing.T) {
	l, err := Generate(2, 2, 1, 1, 1, rand.NewSource(6))
	require.NoError(t, err)
	c := l.Clone()
	require.True(t, l.Equal(c))
	c.Biases[1].Data[0] += 1
	require.False(t, l.Equal(c))
}

func TestGenerateRange(t *testing.T) {
	l, err := Generate(3, 5, 4, 2, 0.6, rand.NewSource(7))
	require.NoError(t, err)
	for _, block := range l.Blocks() {
		for _, v := range block {
			if v < -0.3 || v >= 0.3 {
				t.Fatalf("value %f outside [-0.3, 0.3)", v)
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(2, 3, 2, 2, 1, rand.NewSource(8))
	require.NoError(t, err)
	b, err := Generate(2, 3, 2, 2, 1, rand.NewSource(8))
	require.NoError(t, err)
	require.True(t, a.Equal(b))
}

func TestGenerateRejects(t *testing.T) {
	src := rand.NewSource(9)
	_, err := Generate(1, 2, 0, 1, 1, src)
	require.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = Generate(-1, 2, 1, 1, 1, src)
	require.Error(t, err)
	_, err = Generate(2, 0, 1, 1, 1, src)
	require.Error(t, err)
}
