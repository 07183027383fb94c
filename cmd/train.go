package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/llm-matchmaker/internal/ledger"
	"github.com/inference-sim/llm-matchmaker/match/dataset"
	"github.com/inference-sim/llm-matchmaker/match/learn"
)

var (
	trainData        string // Dataset CSV
	trainConfigPath  string // Train config YAML; empty uses the defaults file
	trainOut         string // Artifact output path
	trainLedgerPath  string // SQLite run ledger; empty disables recording
	trainSeed        int64  // Seed override
	trainNIter       int    // Search iterations override
	trainParallelism int    // Worker count override
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the matcher and write the artifact",
	Long: `Splits the dataset 70/30, cross-validates a logistic regression baseline,
runs a randomized search over random forest parameters, and keeps whichever
model has the higher mean CV accuracy. The forest must strictly beat the
baseline to be kept.`,
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel("warn")

		cfg, err := trainConfig(trainConfigPath)
		if err != nil {
			logrus.Fatalf("unable to read train config; %v", err)
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = trainSeed
		}
		if cmd.Flags().Changed("n-iter") {
			cfg.NIter = trainNIter
		}
		if cmd.Flags().Changed("parallelism") {
			cfg.Parallelism = trainParallelism
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		run, result, err := trainModel(ctx, cfg, trainData, trainOut, trainLedgerPath, logrus.StandardLogger())
		if err != nil {
			logrus.Fatalf("training failed: %v", err)
		}
		printTrainResult(os.Stdout, result)
		fmt.Printf("\nRun %s: kept %s (CV %.4f), artifact %s\n", run.ID, run.Winner, result.WinnerCV(), run.ArtifactPath)
	},
}

// trainModel trains on dataPath, saves the winner to artifactPath and, when
// ledgerPath is set, records the run.
func trainModel(ctx context.Context, cfg learn.TrainConfig, dataPath, artifactPath, ledgerPath string, log logrus.FieldLogger) (ledger.Run, *learn.TrainResult, error) {
	ds, err := loadDataset(dataPath)
	if err != nil {
		return ledger.Run{}, nil, err
	}
	result, err := learn.Train(ctx, cfg, dataset.FeatureRows(ds.Rows), dataset.Labels(ds.Rows), log)
	if err != nil {
		return ledger.Run{}, nil, err
	}

	best := result.Search.BestCandidate()
	run := ledger.Run{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		DatasetPath:  dataPath,
		Rows:         len(ds.Rows),
		Seed:         cfg.Seed,
		Winner:       string(result.WinnerKind),
		BaselineCV:   result.Baseline.Mean,
		ForestCV:     best.CV.Mean,
		TestAccuracy: result.BaselineTest.Accuracy,
		ArtifactPath: artifactPath,
	}
	params, err := json.Marshal(best.Params)
	if err != nil {
		return ledger.Run{}, nil, fmt.Errorf("encoding best params: %w", err)
	}
	run.BestParams = string(params)

	meta := learn.ArtifactMeta{
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
		RunID:     run.ID,
		TrainRows: result.TrainRows,
		CVMean:    result.WinnerCV(),
	}
	if result.WinnerKind == learn.KindRandomForest {
		meta.Params = &best.Params
		run.TestAccuracy = result.ForestTest.Accuracy
	}
	if err := learn.SaveArtifact(artifactPath, result.Winner, meta); err != nil {
		return ledger.Run{}, nil, err
	}
	log.WithFields(logrus.Fields{"run_id": run.ID, "path": artifactPath}).Info("artifact saved")

	if ledgerPath == "" {
		return run, result, nil
	}
	l, err := ledger.Open(ledgerPath)
	if err != nil {
		return ledger.Run{}, nil, err
	}
	defer func() { _ = l.Close() }()
	if run, err = l.Record(ctx, run); err != nil {
		return ledger.Run{}, nil, err
	}
	return run, result, nil
}

func printTrainResult(w io.Writer, r *learn.TrainResult) {
	best := r.Search.BestCandidate()
	fmt.Fprintf(w, "Split: %d train / %d test rows\n", r.TrainRows, r.TestRows)
	fmt.Fprintf(w, "Baseline logistic regression CV accuracy: %.4f (+/- %.4f)\n", r.Baseline.Mean, r.Baseline.Std)
	fmt.Fprintf(w, "Best random forest CV accuracy: %.4f (+/- %.4f)\n", best.CV.Mean, best.CV.Std)
	fmt.Fprintf(w, "Best random forest params: %s\n", best.Params)

	fmt.Fprintf(w, "\n=== Baseline test accuracy: %.4f ===\n%s\n%s", r.BaselineTest.Accuracy, r.BaselineTest.Report, r.BaselineTest.Confusion)
	fmt.Fprintf(w, "\n=== Random forest test accuracy: %.4f ===\n%s\n%s", r.ForestTest.Accuracy, r.ForestTest.Report, r.ForestTest.Confusion)
}

func init() {
	trainCmd.Flags().StringVar(&trainData, "data", "data/llm_matchmaker_dataset.csv", "Dataset CSV path")
	trainCmd.Flags().StringVar(&trainConfigPath, "config", "", "Train config YAML (default: the training section of the defaults file)")
	trainCmd.Flags().StringVar(&trainOut, "out", "best_llm_matchmaker_model.zst", "Artifact output path")
	trainCmd.Flags().StringVar(&trainLedgerPath, "ledger", "matchmaker.db", "SQLite run ledger path (empty disables recording)")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "Seed for the split, folds and forests")
	trainCmd.Flags().IntVar(&trainNIter, "n-iter", 200, "Number of sampled forest configurations")
	trainCmd.Flags().IntVar(&trainParallelism, "parallelism", 0, "Concurrent workers (0 = one per CPU)")
	rootCmd.AddCommand(trainCmd)
}
