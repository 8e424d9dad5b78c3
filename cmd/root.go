package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/grablist/internal/claim"
	"github.com/tanq16/grablist/internal/fetch"
	"github.com/tanq16/grablist/internal/report"
	"github.com/tanq16/grablist/internal/scheduler"
	"github.com/tanq16/grablist/internal/source"
	"github.com/tanq16/grablist/internal/utils"
)

var (
	downloadDir   string
	parallelism   int
	timeout       time.Duration
	insecure      bool
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	debug         bool
	quiet         bool
	cleanTemp     bool
)

var GrablistVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "grablist [URL_LIST_FILE]",
	Short:   "Grablist bulk-downloads a list of URLs to a directory",
	Version: GrablistVersion,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug, quiet)
		if cleanTemp {
			if err := utils.Clean(downloadDir); err != nil {
				report.PrintError("Error cleaning up temporary files")
				os.Exit(1)
			}
			report.PrintSuccess("Temporary files cleaned up")
			return
		}
		if len(args) == 0 {
			report.PrintError("No URL list file provided")
			os.Exit(1)
		}
		if parallelism < 1 {
			report.PrintError("Parallelism must be a positive integer")
			os.Exit(1)
		}
		if timeout < time.Second {
			report.PrintError("Timeout must be at least 1s")
			os.Exit(1)
		}
		info, err := os.Stat(downloadDir)
		if err != nil || !info.IsDir() {
			report.PrintError(fmt.Sprintf("Download directory does not exist: %s", downloadDir))
			os.Exit(1)
		}
		if userAgent == "randomize" {
			userAgent = utils.GetRandomUserAgent()
		}
		// Check if proxy URL contains auth
		parsedProxy, err := u.Parse(proxyURL)
		if err == nil && parsedProxy.User != nil && proxyUsername == "" {
			proxyUsername = parsedProxy.User.Username()
			if password, set := parsedProxy.User.Password(); set {
				proxyPassword = password
			}
			// Remove auth from URL to send in clientConfig
			parsedProxy.User = nil
			proxyURL = parsedProxy.String()
		}
		client := utils.NewGrablistHTTPClient(utils.HTTPClientConfig{
			Timeout:       timeout,
			UserAgent:     userAgent,
			ProxyURL:      proxyURL,
			ProxyUsername: proxyUsername,
			ProxyPassword: proxyPassword,
			Headers:       utils.ParseHeaderArgs(headers),
			InsecureTLS:   insecure,
		})
		store, err := claim.NewFileStore(filepath.Join(downloadDir, utils.ClaimDirName))
		if err != nil {
			report.PrintError(fmt.Sprintf("Failed to prepare claim directory: %v", err))
			os.Exit(1)
		}
		executor, err := fetch.NewExecutor(client, filepath.Join(downloadDir, utils.TempDirName))
		if err != nil {
			report.PrintError(fmt.Sprintf("Failed to prepare temp directory: %v", err))
			os.Exit(1)
		}
		entries, err := source.NewList(args[0]).Stream()
		if err != nil {
			report.PrintError(fmt.Sprintf("Failed to read URL list: %v", err))
			os.Exit(1)
		}
		sched := scheduler.New(downloadDir, parallelism, claim.NewManager(store), executor)
		summary := sched.Run(entries)
		report.Render(os.Stdout, summary)
		if !summary.OK() {
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&downloadDir, "dir", "d", ".", "Download directory (must exist)")
	rootCmd.Flags().IntVarP(&parallelism, "parallelism", "p", 5, "Number of concurrent downloads")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Per-request timeout until the server starts to send data (eg. 5s, 1m)")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a browser one)")
	rootCmd.Flags().StringVar(&proxyURL, "proxy", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")

	// flags without shorthand
	rootCmd.Flags().BoolVar(&insecure, "insecure", false, "Skip server SSL certificate validation")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress per-task log lines; the summary is still printed")
	rootCmd.Flags().BoolVar(&cleanTemp, "clean", false, "Clean up temporary files under the download directory")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
