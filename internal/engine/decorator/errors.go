package decorator

import "errors"

// Errors for Lua strategies.
var (
	// ErrStrategyUndefined is returned when a script does not define the
	// strategy function.
	ErrStrategyUndefined = errors.New("script does not define function strategy")

	// ErrClosed is returned when using a closed Lua strategy.
	ErrClosed = errors.New("lua strategy is closed")

	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("lua strategy timed out")
)
