package setup

import (
	"context"

	"github.com/ekisa-team/etics/internal/config"
	"github.com/ekisa-team/etics/internal/dataset"
	"github.com/ekisa-team/etics/internal/model"
)

// ModelLoader loads pretrained models.
type ModelLoader interface {
	Load(ctx context.Context, arch string, pretrained bool) (*model.Handle, error)
}

// DatasetLoader opens datasets.
type DatasetLoader interface {
	CIFAR10(ctx context.Context, spec config.DatasetConfig, opts dataset.Options) (*dataset.Handle, error)
	MNIST(ctx context.Context, spec config.DatasetConfig, opts dataset.Options) (*dataset.Handle, error)
}

// DefaultPlan returns the experiment setup: VGG16 and ResNet18 pretrained
// weights, then the CIFAR-10 and MNIST training sets under dataDir.
func DefaultPlan(cfg *config.Config, models ModelLoader, datasets DatasetLoader, dataDir string) []Step {
	opts := dataset.Options{Root: dataDir, Train: true, Download: true}

	return []Step{
		modelStep("VGG16 model", models, "vgg16"),
		modelStep("ResNet18 model", models, "resnet18"),
		{
			Label: "CIFAR10 dataset",
			Run: func(ctx context.Context) (any, error) {
				spec, err := cfg.Dataset(dataset.CIFAR10)
				if err != nil {
					return nil, err
				}
				return datasets.CIFAR10(ctx, spec, opts)
			},
		},
		{
			Label: "MNIST dataset",
			Run: func(ctx context.Context) (any, error) {
				spec, err := cfg.Dataset(dataset.MNIST)
				if err != nil {
					return nil, err
				}
				return datasets.MNIST(ctx, spec, opts)
			},
		},
	}
}

func modelStep(label string, models ModelLoader, arch string) Step {
	return Step{
		Label: label,
		Run: func(ctx context.Context) (any, error) {
			return models.Load(ctx, arch, true)
		},
	}
}
