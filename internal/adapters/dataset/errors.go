package dataset

import "errors"

var (
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrReadDataset wraps I/O and CSV syntax failures.
	ErrReadDataset = errors.New("failed to read dataset")
)
