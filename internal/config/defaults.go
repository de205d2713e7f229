package config

import (
	"os"
	"path/filepath"

	"github.com/ekisa-team/etics/internal/envvar"
)

// DefaultDataDir is the dataset root used when nothing else is configured.
const DefaultDataDir = "./data"

// DefaultCachePath returns the torch hub checkpoint directory, so weights
// are shared with PyTorch tooling on the same machine.
func DefaultCachePath() string {
	return filepath.Join(torchHome(), "hub", "checkpoints")
}

func torchHome() string {
	if p := os.Getenv(envvar.TorchHome); p != "" {
		return p
	}
	if xdg := os.Getenv(envvar.XDGCacheHome); xdg != "" {
		return filepath.Join(xdg, "torch")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".cache", "torch")
	}
	return filepath.Join(home, ".cache", "torch")
}
