package nn

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions is returned when a network is declared with a
	// non-positive number of inputs or outputs.
	ErrInvalidDimensions = errors.New("network dimensions must be positive")
	// ErrNilFitness is returned by the trainers when no fitness is supplied.
	ErrNilFitness = errors.New("fitness must not be nil")
)

// LayoutErrorKind tells which layout rule a parameter set broke.
type LayoutErrorKind int

const (
	// WrongBlockCount: the number of blocks is even or smaller than 3.
	WrongBlockCount LayoutErrorKind = iota
	// WrongBlockLength: one block holds the wrong number of scalars.
	WrongBlockLength
	// WrongBlockShape: a weight block has the right length but not the
	// rows×cols shape its position requires.
	WrongBlockShape
)

func (k LayoutErrorKind) String() string {
	switch k {
	case WrongBlockCount:
		return "wrong block count"
	case WrongBlockLength:
		return "wrong block length"
	case WrongBlockShape:
		return "wrong block shape"
	}
	return fmt.Sprintf("LayoutErrorKind(%d)", int(k))
}

// InvalidLayoutError reports a parameter layout that does not fit the declared
// inputs and outputs. Block is -1 for block count errors.
type InvalidLayoutError struct {
	Kind     LayoutErrorKind
	Block    int
	Expected int
	Actual   int
}

func (e *InvalidLayoutError) Error() string {
	if e.Kind == WrongBlockCount && e.Expected > 0 {
		return fmt.Sprintf("invalid layout: %s: got %d blocks, expected %d", e.Kind, e.Actual, e.Expected)
	}
	if e.Kind == WrongBlockCount {
		return fmt.Sprintf("invalid layout: %s: got %d blocks, need an odd count of at least 3", e.Kind, e.Actual)
	}
	return fmt.Sprintf("invalid layout: %s at block %d: expected %d, got %d", e.Kind, e.Block, e.Expected, e.Actual)
}

// InputSizeError reports an evaluation input of the wrong length.
type InputSizeError struct {
	Expected int
	Actual   int
}

func (e *InputSizeError) Error() string {
	return fmt.Sprintf("cannot evaluate input of length %d, network expects %d", e.Actual, e.Expected)
}
