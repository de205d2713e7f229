package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ekisa-team/etics/internal/archive"
	"github.com/ekisa-team/etics/internal/config"
	"github.com/ekisa-team/etics/internal/xfs"
)

const (
	// MNIST is the manifest name of the MNIST dataset.
	MNIST = "mnist"

	mnistTrainPrefix = "train"
	mnistTestPrefix  = "t10k"
)

// MNIST opens the MNIST IDX files under opts.Root.
func (l *Loader) MNIST(ctx context.Context, spec config.DatasetConfig, opts Options) (*Handle, error) {
	if err := l.prepareRoot(opts.Root); err != nil {
		return nil, err
	}

	folder := filepath.Join(opts.Root, spec.BaseFolder)

	if opts.Download {
		if err := l.downloadMNIST(ctx, spec, folder); err != nil {
			return nil, err
		}
	}

	if !mnistExists(folder, spec) {
		return nil, fmt.Errorf("%s in %s: %w", MNIST, folder, ErrNotFound)
	}

	prefix := mnistTestPrefix
	if opts.Train {
		prefix = mnistTrainPrefix
	}

	var images, labels string
	for _, a := range spec.Archives {
		name := extractedName(a.File)
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		switch {
		case strings.Contains(name, "images"):
			images = filepath.Join(folder, name)
		case strings.Contains(name, "labels"):
			labels = filepath.Join(folder, name)
		}
	}
	if images == "" || labels == "" {
		return nil, fmt.Errorf("%s: no %s images/labels in manifest: %w", MNIST, prefix, ErrCorrupt)
	}

	imgHdr, err := readIDXHeader(images)
	if err != nil {
		return nil, err
	}
	lblHdr, err := readIDXHeader(labels)
	if err != nil {
		return nil, err
	}
	if len(imgHdr.Dims) != 3 || len(lblHdr.Dims) != 1 {
		return nil, fmt.Errorf("%s: unexpected dimensions %v and %v: %w", MNIST, imgHdr.Dims, lblHdr.Dims, ErrCorrupt)
	}
	if imgHdr.Dims[0] != lblHdr.Dims[0] {
		return nil, fmt.Errorf("%s: %d images but %d labels: %w", MNIST, imgHdr.Dims[0], lblHdr.Dims[0], ErrCorrupt)
	}

	handle := &Handle{
		Name:    MNIST,
		Root:    opts.Root,
		Folder:  folder,
		Train:   opts.Train,
		Samples: imgHdr.Dims[0],
		Shape:   []int{imgHdr.Dims[1], imgHdr.Dims[2]},
		Files:   []string{images, labels},
	}

	slog.Info("Dataset ready", "dataset", MNIST, "folder", folder, "train", opts.Train, "samples", handle.Samples)
	return handle, nil
}

func (l *Loader) downloadMNIST(ctx context.Context, spec config.DatasetConfig, folder string) error {
	if mnistExists(folder, spec) {
		slog.Info("Files already downloaded", "dataset", MNIST, "folder", folder)
		return nil
	}

	if err := xfs.EnsureDir(folder); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	for _, a := range spec.Archives {
		path, err := l.fetchArchive(ctx, spec, a, folder)
		if err != nil {
			return err
		}

		if err := archive.Gunzip(path, filepath.Join(folder, extractedName(a.File))); err != nil {
			return fmt.Errorf("failed to extract %s: %w", a.File, err)
		}
	}

	return nil
}

// mnistExists reports whether every archive has been extracted into folder.
func mnistExists(folder string, spec config.DatasetConfig) bool {
	for _, a := range spec.Archives {
		if !xfs.IsFile(filepath.Join(folder, extractedName(a.File))) {
			return false
		}
	}
	return true
}

func extractedName(file string) string {
	return strings.TrimSuffix(file, ".gz")
}
