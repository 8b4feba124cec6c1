package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nexusfetch/downloader"
	"nexusfetch/internal"
	"nexusfetch/utils"
)

var (
	freshLink  bool
	outputPath string
	rateLimit  string
)

var linkCmd = &cobra.Command{
	Use:   "link <GAME> <MOD_ID> <FILE_ID>",
	Short: "Resolve the download URL for a mod file",
	Long: `Resolve the download URL for a mod file.

Resolved links are cached on disk for 24 hours; pass --fresh to bypass the
cache and force a new resolution. Nexus links are signed and expire, so a
cached link may be rejected by the CDN before the cache entry does.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseModFileID(args)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		client, err := buildClient(ctx)
		if err != nil {
			return err
		}

		link, err := client.DownloadLink(ctx, id, !freshLink)
		if err != nil {
			return err
		}

		fmt.Println(link)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <GAME> <MOD_ID> <FILE_ID>",
	Short: "Resolve and download a mod file",
	Long: `Resolve the download URL for a mod file and stream it to disk.

Examples:
  nexusfetch download skyrimspecialedition 12604 35407
  nexusfetch download -o SkyUI.7z -r 5M skyrimspecialedition 12604 35407`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseModFileID(args)
		if err != nil {
			return err
		}

		if rateLimit == "" {
			rateLimit = os.Getenv("NEXUSFETCH_RATE_LIMIT")
		}

		var rateLimitBytes int64
		if rateLimit != "" {
			rateLimitBytes, err = utils.ParseRateLimit(rateLimit)
			if err != nil {
				return fmt.Errorf("invalid rate limit format: %v (use formats like 5M, 500K or 1024)", err)
			}
		}

		ctx, cancel := signalContext()
		defer cancel()

		client, err := buildClient(ctx)
		if err != nil {
			return err
		}

		// The file metadata supplies a default output name.
		if outputPath == "" {
			file, err := client.FileInfo(ctx, id)
			if err != nil || file.FileName == "" {
				internal.LogWarn("Could not determine original file name, using identifier")
				outputPath = id.String()
			} else {
				outputPath = file.FileName
			}
		}

		link, err := client.DownloadLink(ctx, id, !freshLink)
		if err != nil {
			return err
		}

		httpClient, err := utils.NewHTTPClient(&utils.HTTPClientConfig{
			Timeout:  time.Duration(config.TimeoutSeconds) * time.Second,
			ProxyURL: config.ProxyURL,
		})
		if err != nil {
			return err
		}

		engine := downloader.NewEngine(httpClient, utils.NewTokenBucketLimiter(rateLimitBytes), config.QuietMode)
		summary, err := engine.Fetch(ctx, link, outputPath)
		if err != nil {
			if internal.IsType(err, internal.ErrHTTPStatus) && !freshLink {
				return fmt.Errorf("%w\n\nThe cached link may have expired; retry with --fresh", err)
			}
			return err
		}

		if !config.QuietMode {
			fmt.Printf("Saved %s (%d bytes, %.1f KB/s)\n",
				summary.Filename, summary.TotalBytes, summary.AverageSpeed/1024)
		}
		return nil
	},
}

func init() {
	linkCmd.Flags().BoolVar(&freshLink, "fresh", false, "Bypass the link cache and resolve a new URL")

	downloadCmd.Flags().BoolVar(&freshLink, "fresh", false, "Bypass the link cache and resolve a new URL")
	downloadCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: original file name)")
	downloadCmd.Flags().StringVarP(&rateLimit, "limit-rate", "r", "", "Bandwidth limit (e.g., 5M for 5MB/s)")

	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(downloadCmd)
}
