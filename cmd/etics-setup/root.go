package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/etics/internal/config"
	"github.com/ekisa-team/etics/internal/dataset"
	"github.com/ekisa-team/etics/internal/env"
	"github.com/ekisa-team/etics/internal/envvar"
	"github.com/ekisa-team/etics/internal/fetch"
	"github.com/ekisa-team/etics/internal/logger"
	"github.com/ekisa-team/etics/internal/model"
	"github.com/ekisa-team/etics/internal/setup"
)

type options struct {
	configPath string
	dataDir    string
	cacheDir   string
	logFile    string
	watch      bool
	verbose    bool
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "etics-setup",
		Short: "Download the pretrained models and datasets used by the experiments",
		Long: "Downloads VGG16 and ResNet18 pretrained weights into the torch hub cache and\n" +
			"the CIFAR-10 and MNIST datasets into ./data. Artifacts already present are reused.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogging(cmd.ErrOrStderr(), opts)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.watch {
				return watch(cmd.Context(), stdout, opts)
			}

			cfg, err := config.LoadAndValidate(opts.configPath)
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), stdout, cfg, opts, model.NewRegistry())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a manifest file (defaults to the built-in manifest)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Dataset root directory (default ./data)")
	flags.StringVar(&opts.cacheDir, "cache-dir", "", "Pretrained weight cache directory (default torch hub checkpoints)")
	flags.StringVar(&opts.logFile, "log-file", os.Getenv(envvar.EticsLogFile), "Also write logs to this file, rotated")
	flags.BoolVar(&opts.watch, "watch", false, "Keep running and set up again whenever the manifest changes")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func configureLogging(stderr io.Writer, opts options) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(
		logger.New(env.FromEnv(),
			logger.WithLevel(level),
			logger.WithWriter(stderr),
			logger.WithNoColor(os.Getenv(envvar.NoColor) != ""),
			logger.WithLogToFile(opts.logFile != ""),
			logger.WithLogFile(opts.logFile),
		),
	)
}

// runOnce runs the setup plan for cfg. Models are recorded in reg, so a
// registry kept across runs lets later runs skip weights already loaded.
func runOnce(ctx context.Context, stdout io.Writer, cfg *config.Config, opts options, reg *model.Registry) error {
	dataDir := cfg.ResolveDataDir()
	if opts.dataDir != "" {
		dataDir = opts.dataDir
	}
	cacheDir := cfg.ResolveCacheDir()
	if opts.cacheDir != "" {
		cacheDir = opts.cacheDir
	}

	slog.Debug("Resolved storage", "data_dir", dataDir, "cache_dir", cacheDir)

	client := fetch.NewClient()
	zoo := model.NewZoo(cfg.Models, cacheDir, client, model.WithRegistry(reg))
	loader := dataset.NewLoader(client)

	if err := setup.NewRunner(stdout, setup.DefaultPlan(cfg, zoo, loader, dataDir)...).Run(ctx); err != nil {
		return err
	}

	for _, h := range zoo.Registry().List() {
		attrs := []any{"arch", h.Arch, "pretrained", h.Pretrained}
		if h.Checkpoint != nil {
			attrs = append(attrs, "path", h.Checkpoint.Path, "format", h.Checkpoint.Format)
		}
		slog.Debug("Model ready", attrs...)
	}
	return nil
}

// watch runs the setup once, then again after every manifest change until
// ctx is canceled. Runs never overlap.
func watch(ctx context.Context, stdout io.Writer, opts options) error {
	if opts.configPath == "" {
		return fmt.Errorf("--watch requires --config")
	}

	var mu sync.Mutex
	reg := model.NewRegistry()
	rerun := func(cfg *config.Config) {
		mu.Lock()
		defer mu.Unlock()

		if err := runOnce(ctx, stdout, cfg, opts, reg); err != nil {
			slog.Error("Setup failed", "error", err)
		}
	}

	watcher, err := config.NewWatcher(opts.configPath, func(cfg *config.Config, err error) {
		if err != nil {
			slog.Error("Failed to reload manifest", "error", err)
			return
		}
		rerun(cfg)
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	mu.Lock()
	err = runOnce(ctx, stdout, watcher.Snapshot(), opts, reg)
	mu.Unlock()
	if err != nil {
		slog.Error("Setup failed", "error", err)
	}

	slog.Info("Watching manifest for changes", "path", opts.configPath)
	<-ctx.Done()
	return nil
}
