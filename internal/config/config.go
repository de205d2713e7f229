package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/ekisa-team/etics/internal/envvar"
	"github.com/ekisa-team/etics/internal/xfs"
)

// Config is the setup manifest: where artifacts live and where they come from.
type Config struct {
	Version  string                   `json:"version"           yaml:"version"`
	Storage  StorageConfig            `json:"storage,omitempty" yaml:"storage,omitempty"`
	Models   map[string]ModelConfig   `json:"models"            yaml:"models"`
	Datasets map[string]DatasetConfig `json:"datasets"          yaml:"datasets"`
}

// StorageConfig holds the local artifact locations.
type StorageConfig struct {
	DataDir  string `json:"data_dir,omitempty"  yaml:"data_dir,omitempty"`
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
}

// ModelConfig describes where the pretrained weights of an architecture live.
type ModelConfig struct {
	URL string `json:"url" yaml:"url"`
}

// FileName returns the checkpoint file name, the basename of the URL.
func (m ModelConfig) FileName() string {
	u := m.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return path.Base(u)
}

// DatasetConfig describes a downloadable dataset.
type DatasetConfig struct {
	// BaseFolder is the directory under the dataset root holding the data.
	BaseFolder string `json:"base_folder" yaml:"base_folder"`

	// Mirrors are base URLs tried in order for every archive.
	Mirrors []string `json:"mirrors" yaml:"mirrors"`

	// Archives are the files fetched from the mirrors.
	Archives []Resource `json:"archives" yaml:"archives"`

	// Files are the extracted files checked for integrity, relative to BaseFolder.
	Files []Resource `json:"files,omitempty" yaml:"files,omitempty"`
}

// Resource is a file with an optional MD5 checksum.
type Resource struct {
	File string `json:"file"          yaml:"file"`
	MD5  string `json:"md5,omitempty" yaml:"md5,omitempty"`
}

// URLs returns the candidate download URLs for file, one per mirror.
func (d DatasetConfig) URLs(file string) []string {
	urls := make([]string, 0, len(d.Mirrors))
	for _, mirror := range d.Mirrors {
		urls = append(urls, strings.TrimRight(mirror, "/")+"/"+file)
	}
	return urls
}

// Dataset returns the configuration of the named dataset.
func (c *Config) Dataset(name string) (DatasetConfig, error) {
	d, ok := c.Datasets[name]
	if !ok {
		return DatasetConfig{}, fmt.Errorf("dataset %q: %w", name, ErrNotConfigured)
	}
	return d, nil
}

// ResolveDataDir returns the dataset root.
// Precedence:
// 1. ETICS_DATA_DIR environment variable.
// 2. DataDir field in the config.
// 3. Default data dir.
func (c *Config) ResolveDataDir() string {
	if p := os.Getenv(envvar.EticsDataDir); p != "" {
		return xfs.ExpandTilde(p)
	}
	if c.Storage.DataDir != "" {
		return xfs.ExpandTilde(c.Storage.DataDir)
	}
	return DefaultDataDir
}

// ResolveCacheDir returns the weight cache directory.
// Precedence:
// 1. ETICS_CACHE_DIR environment variable.
// 2. CacheDir field in the config.
// 3. Torch hub checkpoint directory.
func (c *Config) ResolveCacheDir() string {
	if p := os.Getenv(envvar.EticsCacheDir); p != "" {
		return xfs.ExpandTilde(p)
	}
	if c.Storage.CacheDir != "" {
		return xfs.ExpandTilde(c.Storage.CacheDir)
	}
	return DefaultCachePath()
}
