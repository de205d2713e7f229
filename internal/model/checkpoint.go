package model

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
)

// CheckpointFormat is the serialization format of a weight file.
type CheckpointFormat string

const (
	// FormatZip is the zip-based format written by torch >= 1.6.
	FormatZip CheckpointFormat = "zip"

	// FormatLegacy is the older raw pickle stream format.
	FormatLegacy CheckpointFormat = "legacy"
)

var zipMagic = []byte("PK\x03\x04")

const (
	pickleProto    = 0x80
	maxPickleProto = 5
)

// Checkpoint describes a weight file on disk.
type Checkpoint struct {
	Path    string
	Size    int64
	Format  CheckpointFormat
	Records int // zip entries; zero for legacy checkpoints
}

// InspectCheckpoint opens the weight file at path and identifies its format.
func InspectCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	header := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrCorruptCheckpoint)
	}

	ck := &Checkpoint{Path: path, Size: info.Size()}

	switch {
	case bytes.Equal(header, zipMagic):
		zr, err := zip.NewReader(f, info.Size())
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", path, ErrCorruptCheckpoint, err)
		}
		ck.Format = FormatZip
		ck.Records = len(zr.File)
	case header[0] == pickleProto && header[1] >= 2 && header[1] <= maxPickleProto:
		ck.Format = FormatLegacy
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrCorruptCheckpoint)
	}

	return ck, nil
}
