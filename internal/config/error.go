package config

import "errors"

// Error definitions for the config package.
var (
	ErrNotConfigured = errors.New("not configured in manifest")
	ErrInvalid       = errors.New("invalid manifest")
)
