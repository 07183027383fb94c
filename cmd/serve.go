package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/llm-matchmaker/internal/server"
)

var (
	serveConfigFile string // matchmaker.yaml override
	serveAddr       string // Listen address override
	serveModel      string // Artifact path override
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions over HTTP",
	Long: `Loads the trained artifact and serves POST /predict-match, GET /healthz and
GET /schema. Settings come from matchmaker.yaml, MATCHMAKER_SERVE_* environment
variables and the flags below, flags taking precedence.`,
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel("info")

		cfg, err := loadAppConfig(serveConfigFile)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		sc := cfg.Serve
		if cmd.Flags().Changed("addr") {
			sc.Addr = serveAddr
		}
		if cmd.Flags().Changed("model") {
			sc.ModelPath = serveModel
		}
		if err := validateConfig(&sc); err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runServe(ctx, sc, logrus.StandardLogger()); err != nil {
			logrus.Fatalf("server failed: %v", err)
		}
	},
}

// runServe loads the model, then serves until ctx ends and shuts down within
// ShutdownTimeout. A model that fails to load is fatal.
func runServe(ctx context.Context, cfg ServeConfig, log logrus.FieldLogger) error {
	facade, meta, err := loadFacade(cfg.ModelPath, log)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	log.WithFields(logrus.Fields{"path": cfg.ModelPath, "run_id": meta.RunID}).Info("model loaded")

	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		AllowedOrigins: cfg.AllowedOrigins,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
	}, facade, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigFile, "config", "", "Config file (default: ./matchmaker.yaml when present)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "Listen address")
	serveCmd.Flags().StringVar(&serveModel, "model", "best_llm_matchmaker_model.zst", "Trained artifact path")
	rootCmd.AddCommand(serveCmd)
}
