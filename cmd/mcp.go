package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/llm-matchmaker/internal/bridge"
)

var (
	mcpConfigFile string // matchmaker.yaml override
	mcpMode       string // http or local
	mcpAPIURL     string // Service base URL in http mode
	mcpModel      string // Artifact path in local mode
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose get_best_llm as an MCP tool over stdio",
	Long: `Runs an MCP server on stdin/stdout with a single tool, get_best_llm. In http
mode the tool calls a running matchmaker service; in local mode it loads the
artifact in-process. Logs go to stderr because stdout carries the protocol.`,
	Run: func(cmd *cobra.Command, args []string) {
		logrus.SetOutput(os.Stderr)
		setLogLevel("info")

		cfg, err := loadAppConfig(mcpConfigFile)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		mc := cfg.MCP
		if cmd.Flags().Changed("mode") {
			mc.Mode = mcpMode
		}
		if cmd.Flags().Changed("api-url") {
			mc.APIURL = mcpAPIURL
		}
		if cmd.Flags().Changed("model") {
			mc.ModelPath = mcpModel
		}
		if err := validateConfig(&mc); err != nil {
			logrus.Fatalf("%v", err)
		}

		p, err := newPredictor(mc, logrus.StandardLogger())
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logrus.WithField("mode", mc.Mode).Info("Starting MCP server on stdio")
		if err := bridge.Serve(ctx, bridge.NewServer(p, version, logrus.StandardLogger())); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// newPredictor builds the predictor selected by cfg.Mode.
func newPredictor(cfg MCPConfig, log logrus.FieldLogger) (bridge.Predictor, error) {
	switch cfg.Mode {
	case "http":
		return bridge.NewHTTPPredictor(cfg.APIURL, cfg.Timeout), nil
	case "local":
		facade, _, err := loadFacade(cfg.ModelPath, log)
		if err != nil {
			return nil, fmt.Errorf("local mode: %w", err)
		}
		return bridge.LocalPredictor{Facade: facade}, nil
	}
	return nil, fmt.Errorf("unknown mcp mode %q", cfg.Mode)
}

func init() {
	mcpCmd.Flags().StringVar(&mcpConfigFile, "config", "", "Config file (default: ./matchmaker.yaml when present)")
	mcpCmd.Flags().StringVar(&mcpMode, "mode", "http", "Predictor: http (call the service) or local (load the artifact)")
	mcpCmd.Flags().StringVar(&mcpAPIURL, "api-url", "http://localhost:8000", "Matchmaker service base URL (http mode)")
	mcpCmd.Flags().StringVar(&mcpModel, "model", "", "Trained artifact path (local mode)")
	rootCmd.AddCommand(mcpCmd)
}
