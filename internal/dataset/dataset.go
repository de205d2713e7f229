// Package dataset downloads and opens the image datasets used by the
// experiments. Files are laid out the way torchvision lays them out, so a
// data directory populated here is usable from PyTorch as-is.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ekisa-team/etics/internal/config"
	"github.com/ekisa-team/etics/internal/fetch"
	"github.com/ekisa-team/etics/internal/xfs"
)

// Downloader fetches a single file.
type Downloader interface {
	Download(ctx context.Context, req fetch.Request) error
}

// Options selects the dataset root and split.
type Options struct {
	// Root is the directory datasets are stored under. Created if missing.
	Root string

	// Train selects the training split, otherwise the test split.
	Train bool

	// Download fetches the dataset when it is not already present.
	Download bool
}

// Handle is an opened dataset split.
type Handle struct {
	Name    string
	Root    string
	Folder  string
	Train   bool
	Samples int

	// Shape is the per-sample image shape.
	Shape []int

	// Files are the data files backing the split.
	Files []string
}

// Loader opens datasets, downloading them on demand.
type Loader struct {
	downloader Downloader
}

// NewLoader creates a dataset loader.
func NewLoader(downloader Downloader) *Loader {
	return &Loader{downloader: downloader}
}

func (l *Loader) prepareRoot(root string) error {
	if err := xfs.EnsureDir(root); err != nil {
		return fmt.Errorf("failed to prepare dataset root %s: %w", root, err)
	}
	return nil
}

// fetchArchive downloads archive into dir unless a copy with the right
// checksum is already there, and returns its path.
func (l *Loader) fetchArchive(ctx context.Context, spec config.DatasetConfig, archive config.Resource, dir string) (string, error) {
	dest := filepath.Join(dir, archive.File)

	if xfs.IsFile(dest) {
		if archive.MD5 == "" || fetch.CheckMD5(dest, archive.MD5) == nil {
			slog.Info("Using already downloaded file", "path", dest)
			return dest, nil
		}
		slog.Warn("Downloaded file failed verification, fetching again", "path", dest)
	}

	err := l.downloader.Download(ctx, fetch.Request{
		URLs: spec.URLs(archive.File),
		Dest: dest,
		MD5:  archive.MD5,
	})
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", archive.File, err)
	}

	return dest, nil
}
