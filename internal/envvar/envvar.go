package envvar

const (
	// EticsEnv is the environment variable used to determine the environment
	EticsEnv = "ETICS_ENV"

	// EticsDataDir is the environment variable used to override the dataset root
	EticsDataDir = "ETICS_DATA_DIR"

	// EticsCacheDir is the environment variable used to override the weight cache directory
	EticsCacheDir = "ETICS_CACHE_DIR"

	// EticsLogFile is the environment variable used to enable logging to a file
	EticsLogFile = "ETICS_LOG_FILE"

	// NoColor disables colored console logs when set to any value (no-color.org)
	NoColor = "NO_COLOR"

	// TorchHome is the torch hub home directory, shared with PyTorch tooling
	TorchHome = "TORCH_HOME"

	// XDGCacheHome is the XDG base directory for user caches
	XDGCacheHome = "XDG_CACHE_HOME"
)
