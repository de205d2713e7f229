package dataset

import "errors"

// Error definitions for the dataset package.
var (
	ErrNotFound = errors.New("dataset not found, enable download to fetch it")
	ErrCorrupt  = errors.New("dataset files are corrupt")
)
