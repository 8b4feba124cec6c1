package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"nexusfetch/internal"
	"nexusfetch/nexus"
)

var (
	quiet    bool
	debug    bool
	logLevel string
	logFile  string
	proxyURL string
	cacheDir string
	config   *internal.Config
)

var rootCmd = &cobra.Command{
	Use:     "nexusfetch",
	Short:   "Query the Nexus Mods API and download mod files",
	Version: "v1.0.0",
	Long: `NexusFetch is a CLI client for the Nexus Mods API with credential
management, rate-limit tracking, edge-cached metadata reads and disk-cached
download link resolution.

Examples:
  nexusfetch status
  nexusfetch files skyrimspecialedition 12604
  nexusfetch link skyrimspecialedition 12604 35407
  nexusfetch download -o SkyUI.7z skyrimspecialedition 12604 35407

Environment Variables:
  NEXUSAPIKEY            API key (overrides the stored one)
  NEXUSCACHEDIR          Directory for the download-link cache
  NEXUSFETCH_TIMEOUT     HTTP timeout in seconds
  NEXUSFETCH_PROXY       Proxy URL (http, https or socks5)
  NEXUSFETCH_LOG_LEVEL   Log level (debug, info, warn, error)`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfiguration(); err != nil {
			return fmt.Errorf("configuration error: %v", err)
		}
		if err := internal.InitLogger(config); err != nil {
			return fmt.Errorf("failed to initialize logger: %v", err)
		}
		internal.LogDebug("Configuration loaded: timeout=%d, cache=%s, debug=%v, quiet=%v",
			config.TimeoutSeconds, config.CacheDir, config.EnableDebug, config.QuietMode)
		return nil
	},
	SilenceUsage: true,
}

// loadConfiguration merges defaults, environment variables and CLI flags
func loadConfiguration() error {
	config = internal.DefaultConfig()
	config.LoadFromEnv()

	if proxyURL != "" {
		config.ProxyURL = proxyURL
	}
	if cacheDir != "" {
		config.CacheDir = cacheDir
	}
	if debug {
		config.EnableDebug = true
		config.LogLevel = "debug"
	}
	if quiet {
		config.QuietMode = true
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
	if logFile != "" {
		config.LogFile = logFile
	}

	return config.ValidateConfig()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		internal.LogInfo("Received signal %v, shutting down", sig)
		cancel()
	}()

	return ctx, cancel
}

// buildClient assembles the API client. The CLI has no browser surface, so
// credential resolution stops at the environment variable or the stored key.
func buildClient(ctx context.Context) (*nexus.Client, error) {
	secrets := nexus.NewFileSecretStore(config.SecretDir)
	keys := nexus.NewKeyStore(config, secrets, nil)

	client, err := nexus.NewClient(ctx, config, keys)
	if err != nil {
		if internal.IsType(err, internal.ErrAuthFailed) {
			return nil, fmt.Errorf("%v\n\nGenerate a personal API key at https://www.nexusmods.com/users/myaccount?tab=api+access and export it as NEXUSAPIKEY", err)
		}
		return nil, err
	}
	return client, nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", what, arg)
	}
	return id, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging (env: NEXUSFETCH_DEBUG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug, info, warn, error) (env: NEXUSFETCH_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr (env: NEXUSFETCH_LOG_FILE)")
	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy", "", "HTTP/SOCKS proxy URL (env: NEXUSFETCH_PROXY)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Directory for the download-link cache (env: NEXUSCACHEDIR)")
}

func Execute() error {
	return rootCmd.Execute()
}
