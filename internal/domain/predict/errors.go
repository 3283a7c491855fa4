package predict

import "errors"

var (
	// ErrUnknownOutcome is returned when a predictor answers with a code
	// outside {1, 2}.
	ErrUnknownOutcome = errors.New("unknown outcome code")

	// ErrPredictor wraps transport or protocol failures of a predictor.
	ErrPredictor = errors.New("predictor failure")
)
