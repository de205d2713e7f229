package model

import "errors"

// Error definitions for the model package.
var (
	ErrUnknownArchitecture = errors.New("unknown model architecture")
	ErrCorruptCheckpoint   = errors.New("unrecognized checkpoint format")
)
