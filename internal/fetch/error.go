package fetch

import "errors"

// Error definitions for the fetch package.
var (
	ErrNoURLs           = errors.New("no download URLs")
	ErrBadStatus        = errors.New("unexpected HTTP status")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrAllMirrorsFailed = errors.New("all mirrors failed")
)
