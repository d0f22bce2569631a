package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"xnftctl/pkg/config"
	"xnftctl/pkg/logging"
	"xnftctl/pkg/ui"
)

var (
	configFile string
	logLevel   string
	noBanner   bool
)

var rootCmd = &cobra.Command{
	Use:   "xnftctl",
	Short: "xnftctl mints and transfers CW721 NFTs on Xion",
	Long: `A small client for a CW721 NFT collection deployed on Xion. It reads the
collection supply and the tokens owned by an account, mints the next token id and
transfers tokens, either from the command line, an interactive dashboard or a local HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configFile)
		if err != nil {
			ui.Error.Println("Failed to load config: " + err.Error())
			os.Exit(1)
		}
		config.Loaded = cfg

		level := cfg.GetLogLevel()
		if logLevel != "" {
			level = logLevel
		}
		if err := logging.SetLevel(level); err != nil {
			ui.Error.Println(err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", config.DefaultConfigFile, "Path to the xnftctl.yaml (or .toml) configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noBanner, "no-banner", false, "Do not print the banner")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if !bannerDisabled(os.Args[1:]) {
		ui.PrintBanner()
	}
	if err := rootCmd.Execute(); err != nil {
		ui.Error.Println(err.Error())
		os.Exit(1)
	}
}

// bannerDisabled looks for --no-banner before cobra has parsed the flags,
// since the banner is printed first.
func bannerDisabled(args []string) bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	for _, a := range args {
		if a == "--no-banner" || a == "--no-banner=true" {
			return true
		}
		if a == "completion" || a == "dash" || a == "__complete" {
			return true
		}
	}
	return false
}

// GetRootCmd returns the root cobra command
func GetRootCmd() *cobra.Command {
	return rootCmd
}
