package cmd

import (
	"bufio"
	"fmt"
	u "net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tanq16/grabbit/internal/config"
	"github.com/tanq16/grabbit/internal/output"
	"github.com/tanq16/grabbit/internal/scheduler"
	"github.com/tanq16/grabbit/internal/utils"
)

var (
	cfgFile       string
	outputDir     string
	maxBytes      int64
	delay         time.Duration
	timeout       time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	urlListFile   string
	noIndex       bool
	debug         bool
)

var GrabbitVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "grabbit [URL]...",
	Short:   "Grabbit fetches images over HTTP(S) with content-hash dedup",
	Version: GrabbitVersion,
	Args:    cobra.ArbitraryArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
	},
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := buildOptions(cmd)
		if err != nil {
			output.PrintError(err.Error())
			os.Exit(1)
		}
		urls, err := gatherURLs(args)
		if err != nil {
			output.PrintError(err.Error())
			os.Exit(1)
		}
		if len(urls) == 0 {
			output.PrintError("No URLs provided")
			os.Exit(1)
		}
		jobs := make([]scheduler.Job, 0, len(urls))
		for _, url := range urls {
			jobs = append(jobs, scheduler.NewJob(url, ""))
		}
		runJobs(cmd, jobs, opts)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runJobs(cmd *cobra.Command, jobs []scheduler.Job, opts scheduler.Options) {
	summary, err := scheduler.Run(cmd.Context(), jobs, opts)
	if err != nil {
		output.PrintError(err.Error())
		os.Exit(1)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// buildOptions loads the config file (or defaults) and lets explicitly set
// flags override it.
func buildOptions(cmd *cobra.Command) (scheduler.Options, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return scheduler.Options{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("max-bytes") {
		cfg.MaxBytes = maxBytes
	}
	if flags.Changed("delay") {
		cfg.Delay = delay
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = userAgent
	}
	if flags.Changed("proxy") {
		cfg.ProxyURL = proxyURL
	}
	if flags.Changed("no-index") {
		cfg.NoIndex = noIndex
	}
	switch cfg.UserAgent {
	case "":
		cfg.UserAgent = fmt.Sprintf("grabbit/%s", GrabbitVersion)
	case "randomize":
		cfg.UserAgent = utils.GetRandomUserAgent()
	}
	proxyUser, proxyPass := proxyUsername, proxyPassword
	if cfg.ProxyURL != "" {
		// Auth embedded in the proxy URL moves into the client config
		if parsedProxy, err := u.Parse(cfg.ProxyURL); err == nil && parsedProxy.User != nil && proxyUser == "" {
			proxyUser = parsedProxy.User.Username()
			if password, set := parsedProxy.User.Password(); set {
				proxyPass = password
			}
			parsedProxy.User = nil
			cfg.ProxyURL = parsedProxy.String()
		}
	}
	return scheduler.Options{
		OutputDir:     cfg.OutputDir,
		MaxBytes:      cfg.MaxBytes,
		Delay:         cfg.Delay,
		Timeout:       cfg.Timeout,
		UserAgent:     cfg.UserAgent,
		ProxyURL:      cfg.ProxyURL,
		ProxyUsername: proxyUser,
		ProxyPassword: proxyPass,
		Headers:       utils.ParseHeaderArgs(headers),
		NoIndex:       cfg.NoIndex,
	}, nil
}

// resolveOutputDir applies the same flag-over-config precedence as
// buildOptions for commands that only need the directory.
func resolveOutputDir(cmd *cobra.Command) (string, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return "", err
	}
	if cmd.Flags().Changed("out") {
		return outputDir, nil
	}
	return cfg.OutputDir, nil
}

// gatherURLs merges positional args with the --list file, prompting (or
// reading piped stdin) when neither supplied anything.
func gatherURLs(args []string) ([]string, error) {
	urls := append([]string{}, args...)
	if urlListFile != "" {
		fromFile, err := utils.ReadURLFile(urlListFile)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		fromInput, err := promptForURLs()
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromInput...)
	}
	return utils.DedupeURLs(urls), nil
}

func promptForURLs() ([]string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		output.PrintHeader("grabbit " + GrabbitVersion)
		output.PrintInfo("Enter image URLs (separated by spaces or commas):")
		fmt.Print(output.StyleSymbols["arrow"] + " ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("error reading input: %v", err)
		}
		return utils.SplitURLInput(line), nil
	}
	// Piped stdin, same format as a URL list file
	var urls []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading stdin: %v", err)
	}
	return urls, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "out", "o", config.DefaultOutputDir, "Output directory for fetched images")
	rootCmd.PersistentFlags().Int64Var(&maxBytes, "max-bytes", config.DefaultMaxBytes, "Per-image size ceiling in bytes")
	rootCmd.PersistentFlags().DurationVar(&delay, "delay", config.DefaultDelay, "Politeness delay between requests (eg. 500ms, 2s)")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", config.DefaultTimeout, "Request timeout (eg. 5s, 1m)")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", "", "User agent (use 'randomize' to rotate per run)")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL")
	rootCmd.PersistentFlags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Bearer token'); can be specified multiple times")
	rootCmd.PersistentFlags().BoolVar(&noIndex, "no-index", false, "Skip loading and saving the dedup index")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&urlListFile, "list", "l", "", "Path to a newline-separated URL list (# comments allowed)")

	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newCleanCmd())
}
