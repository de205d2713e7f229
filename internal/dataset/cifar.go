package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ekisa-team/etics/internal/archive"
	"github.com/ekisa-team/etics/internal/config"
	"github.com/ekisa-team/etics/internal/fetch"
	"github.com/ekisa-team/etics/internal/xfs"
)

const (
	// CIFAR10 is the manifest name of the CIFAR-10 dataset.
	CIFAR10 = "cifar10"

	cifarBatchSize   = 10000
	cifarTrainPrefix = "data_batch"
	cifarTestPrefix  = "test_batch"
)

var cifarShape = []int{32, 32, 3}

// CIFAR10 opens the CIFAR-10 python batches under opts.Root.
func (l *Loader) CIFAR10(ctx context.Context, spec config.DatasetConfig, opts Options) (*Handle, error) {
	if err := l.prepareRoot(opts.Root); err != nil {
		return nil, err
	}

	folder := filepath.Join(opts.Root, spec.BaseFolder)

	if opts.Download {
		if err := l.downloadCIFAR(ctx, spec, opts.Root, folder); err != nil {
			return nil, err
		}
	}

	if err := checkIntegrity(folder, spec.Files); err != nil {
		return nil, err
	}

	prefix := cifarTestPrefix
	if opts.Train {
		prefix = cifarTrainPrefix
	}

	handle := &Handle{
		Name:   CIFAR10,
		Root:   opts.Root,
		Folder: folder,
		Train:  opts.Train,
		Shape:  slices.Clone(cifarShape),
	}
	for _, f := range spec.Files {
		if strings.HasPrefix(f.File, prefix) {
			handle.Files = append(handle.Files, filepath.Join(folder, f.File))
		}
	}
	if len(handle.Files) == 0 {
		return nil, fmt.Errorf("%s: no %s files in manifest: %w", CIFAR10, prefix, ErrCorrupt)
	}
	handle.Samples = len(handle.Files) * cifarBatchSize

	slog.Info("Dataset ready", "dataset", CIFAR10, "folder", folder, "train", opts.Train, "samples", handle.Samples)
	return handle, nil
}

func (l *Loader) downloadCIFAR(ctx context.Context, spec config.DatasetConfig, root, folder string) error {
	if checkIntegrity(folder, spec.Files) == nil {
		slog.Info("Files already downloaded and verified", "dataset", CIFAR10, "folder", folder)
		return nil
	}

	for _, a := range spec.Archives {
		path, err := l.fetchArchive(ctx, spec, a, root)
		if err != nil {
			return err
		}

		if err := archive.ExtractTarGz(path, root); err != nil {
			return fmt.Errorf("failed to extract %s: %w", a.File, err)
		}
	}

	return nil
}

// checkIntegrity verifies every file exists under folder and matches its MD5.
func checkIntegrity(folder string, files []config.Resource) error {
	for _, f := range files {
		path := filepath.Join(folder, f.File)
		if !xfs.IsFile(path) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		if f.MD5 == "" {
			continue
		}
		if err := fetch.CheckMD5(path, f.MD5); err != nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}
	return nil
}
