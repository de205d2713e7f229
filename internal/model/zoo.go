package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/docker/go-units"

	"github.com/ekisa-team/etics/internal/config"
	"github.com/ekisa-team/etics/internal/fetch"
	"github.com/ekisa-team/etics/internal/xfs"
)

// hashPrefixRe extracts the SHA-256 prefix torch hub embeds in weight file
// names, e.g. "397923af" from "vgg16-397923af.pth".
var hashPrefixRe = regexp.MustCompile(`-([a-f0-9]+)\.`)

// Downloader fetches a single file.
type Downloader interface {
	Download(ctx context.Context, req fetch.Request) error
}

// Handle is a loaded model.
type Handle struct {
	Arch       string
	Pretrained bool

	// Checkpoint is nil when Pretrained is false.
	Checkpoint *Checkpoint
}

// Zoo resolves architectures to pretrained weights in a local cache.
type Zoo struct {
	models     map[string]config.ModelConfig
	cacheDir   string
	downloader Downloader
	registry   *Registry
}

// ZooOption configures a Zoo.
type ZooOption func(*Zoo)

// WithRegistry makes the zoo record handles in r instead of a registry of
// its own. Zoos sharing a registry skip weights another one already loaded.
func WithRegistry(r *Registry) ZooOption {
	return func(z *Zoo) {
		if r != nil {
			z.registry = r
		}
	}
}

// NewZoo creates a model zoo caching weights in cacheDir.
func NewZoo(models map[string]config.ModelConfig, cacheDir string, downloader Downloader, opts ...ZooOption) *Zoo {
	z := &Zoo{
		models:     models,
		cacheDir:   cacheDir,
		downloader: downloader,
		registry:   NewRegistry(),
	}
	for _, opt := range opts {
		opt(z)
	}
	return z
}

// Registry returns the registry of models loaded by this zoo.
func (z *Zoo) Registry() *Registry {
	return z.registry
}

// WeightsPath returns where the weights of arch are cached.
func (z *Zoo) WeightsPath(arch string) (string, error) {
	spec, ok := z.models[arch]
	if !ok {
		return "", fmt.Errorf("%q: %w", arch, ErrUnknownArchitecture)
	}
	return filepath.Join(z.cacheDir, spec.FileName()), nil
}

// Load returns a handle for arch. With pretrained set, the weights are
// downloaded into the cache unless already present, then inspected.
func (z *Zoo) Load(ctx context.Context, arch string, pretrained bool) (*Handle, error) {
	path, err := z.WeightsPath(arch)
	if err != nil {
		return nil, err
	}

	handle := &Handle{Arch: arch, Pretrained: pretrained}
	if !pretrained {
		z.registry.Set(handle)
		return handle, nil
	}

	if h, ok := z.loaded(arch, path); ok {
		slog.Debug("Weights already loaded", "arch", arch, "path", path)
		return h, nil
	}

	if xfs.IsFile(path) {
		slog.Info("Using cached weights", "arch", arch, "path", path)
	} else {
		if err := xfs.EnsureDir(z.cacheDir); err != nil {
			return nil, fmt.Errorf("failed to prepare cache directory %s: %w", z.cacheDir, err)
		}

		err := z.downloader.Download(ctx, fetch.Request{
			URLs:         []string{z.models[arch].URL},
			Dest:         path,
			SHA256Prefix: HashPrefix(filepath.Base(path)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to download weights for %s: %w", arch, err)
		}
	}

	ck, err := InspectCheckpoint(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load weights for %s: %w", arch, err)
	}
	handle.Checkpoint = ck
	z.registry.Set(handle)

	slog.Info("Model loaded", "arch", arch, "format", ck.Format, "size", units.HumanSize(float64(ck.Size)))
	return handle, nil
}

// loaded returns the registered pretrained handle for arch when its
// checkpoint is still the file at path, unchanged in size.
func (z *Zoo) loaded(arch, path string) (*Handle, bool) {
	h, ok := z.registry.Get(arch)
	if !ok || !h.Pretrained || h.Checkpoint == nil || h.Checkpoint.Path != path {
		return nil, false
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() || fi.Size() != h.Checkpoint.Size {
		return nil, false
	}
	return h, true
}

// HashPrefix returns the hash prefix embedded in a torch hub file name,
// or "" when the name carries none.
func HashPrefix(fileName string) string {
	m := hashPrefixRe.FindStringSubmatch(fileName)
	if m == nil {
		return ""
	}
	return m[1]
}
