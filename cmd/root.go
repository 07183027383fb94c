package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel     string // Log verbosity level; empty picks the command's default
	defaultsPath string // Path to defaults.yaml
)

// version is overridden at build time with -ldflags "-X github.com/inference-sim/llm-matchmaker/cmd.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "llm-matchmaker",
	Short: "Recommend an LLM for a task from nine categorical requirements",
	Long: `llm-matchmaker synthesizes a labeled scenario dataset from a hand-written
scoring heuristic, trains a classifier on it, and serves the classifier over
HTTP and as an MCP tool.`,
	Version: version,
}

// setLogLevel applies --log, falling back to fallback when the flag is unset.
func setLogLevel(fallback string) {
	name := logLevel
	if name == "" {
		name = fallback
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", name)
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&defaultsPath, "defaults", "defaults.yaml", "Path to the defaults file with synthesis and training settings")
}
