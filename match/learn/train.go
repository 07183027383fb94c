package learn

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/llm-matchmaker/match"
)

// LogisticConfig configures the baseline model.
type LogisticConfig struct {
	C       float64 `yaml:"c"`
	MaxIter int     `yaml:"max_iter"`
}

// TrainConfig configures a training run. Loaded from YAML via LoadTrainConfig.
type TrainConfig struct {
	Seed         int64          `yaml:"seed"`
	TestFraction float64        `yaml:"test_fraction"`
	Folds        int            `yaml:"folds"`
	NIter        int            `yaml:"n_iter"`
	Parallelism  int            `yaml:"parallelism"` // 0 = one worker per CPU
	Logistic     LogisticConfig `yaml:"logistic"`
	Grid         ParamGrid      `yaml:"param_grid"`
}

// DefaultTrainConfig matches the reference training run: seed 42, a 70/30
// split, 5 folds and 200 sampled forest configurations.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Seed:         42,
		TestFraction: 0.3,
		Folds:        5,
		NIter:        200,
		Logistic:     LogisticConfig{C: 1.0, MaxIter: 100},
		Grid:         DefaultParamGrid(),
	}
}

// LoadTrainConfig overlays a YAML file on DefaultTrainConfig.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadTrainConfig(path string) (TrainConfig, error) {
	cfg := DefaultTrainConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading train config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing train config: %w", err)
	}
	return cfg, nil
}

// Validate checks that all fields are in range.
func (c TrainConfig) Validate() error {
	if !(c.TestFraction > 0 && c.TestFraction < 1) {
		return fmt.Errorf("test_fraction must be in (0, 1), got %f", c.TestFraction)
	}
	if c.Folds < 2 {
		return fmt.Errorf("folds must be >= 2, got %d", c.Folds)
	}
	if c.NIter < 1 {
		return fmt.Errorf("n_iter must be >= 1, got %d", c.NIter)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must be >= 0, got %d", c.Parallelism)
	}
	if c.Logistic.C <= 0 {
		return fmt.Errorf("logistic.c must be positive, got %f", c.Logistic.C)
	}
	if c.Logistic.MaxIter < 1 {
		return fmt.Errorf("logistic.max_iter must be >= 1, got %d", c.Logistic.MaxIter)
	}
	return c.Grid.Validate()
}

func (c TrainConfig) workers() int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return runtime.NumCPU()
}

// Evaluation scores a fitted pipeline on the test split.
type Evaluation struct {
	Accuracy  float64
	Confusion *ConfusionMatrix
	Report    *ClassificationReport
}

// TrainResult is the outcome of Train.
type TrainResult struct {
	Winner     *Pipeline
	WinnerKind ModelKind
	TrainRows  int
	TestRows   int

	Baseline     *CVResult
	BaselineTest *Evaluation
	Search       *SearchResult
	ForestTest   *Evaluation
}

// WinnerCV returns the CV mean of the kept model.
func (r *TrainResult) WinnerCV() float64 {
	if r.WinnerKind == KindRandomForest {
		return r.Search.BestCandidate().CV.Mean
	}
	return r.Baseline.Mean
}

// Train runs the full selection: stratified split, cross-validated logistic
// baseline, randomized forest search, refit of the best forest, test-set
// evaluation of both. The forest is kept only if its CV mean is strictly
// higher than the baseline's.
func Train(ctx context.Context, cfg TrainConfig, rows []match.FeatureRow, labels []match.Candidate, log logrus.FieldLogger) (*TrainResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid train config: %w", err)
	}
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("train: %d rows but %d labels", len(rows), len(labels))
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	rng := match.NewPartitionedRNG(cfg.Seed)
	splitRNG := rng.ForSubsystem(match.SubsystemSplit)

	trainIdx, testIdx, err := StratifiedSplit(labels, cfg.TestFraction, splitRNG)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	xTrain, yTrain := subset(rows, trainIdx), subset(labels, trainIdx)
	xTest, yTest := subset(rows, testIdx), subset(labels, testIdx)
	log.WithFields(logrus.Fields{"train": len(trainIdx), "test": len(testIdx)}).Info("split dataset")

	folds, err := StratifiedKFold(yTrain, cfg.Folds, splitRNG)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	newBaseline := func() *Pipeline { return NewLogisticPipeline(cfg.Logistic.C, cfg.Logistic.MaxIter) }
	baselineCV, err := CrossValidate(ctx, newBaseline, xTrain, yTrain, folds)
	if err != nil {
		return nil, fmt.Errorf("baseline cross-validation: %w", err)
	}
	log.WithFields(logrus.Fields{"mean": baselineCV.Mean, "std": baselineCV.Std}).Info("baseline logistic regression CV accuracy")

	baseline := newBaseline()
	if err := baseline.Fit(xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("baseline refit: %w", err)
	}
	baselineTest, err := evaluate(baseline, xTest, yTest)
	if err != nil {
		return nil, err
	}

	search := &RandomizedSearch{
		Grid:        cfg.Grid,
		NIter:       cfg.NIter,
		Seed:        cfg.Seed,
		Parallelism: cfg.workers(),
		Log:         log,
	}
	result, err := search.Run(ctx, rng.ForSubsystem(match.SubsystemSearch), xTrain, yTrain, folds)
	if err != nil {
		return nil, err
	}
	best := result.BestCandidate()
	log.WithFields(logrus.Fields{"mean": best.CV.Mean, "std": best.CV.Std}).Infof("best forest: %s", best.Params)

	forest := NewForestPipeline(best.Params, cfg.Seed, cfg.workers())
	if err := forest.Fit(xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("forest refit: %w", err)
	}
	if rf, ok := forest.Model.(*RandomForest); ok {
		log.WithField("max_tree_depth", rf.MaxTreeDepth()).Debug("refit forest")
	}
	forestTest, err := evaluate(forest, xTest, yTest)
	if err != nil {
		return nil, err
	}

	out := &TrainResult{
		TrainRows:    len(trainIdx),
		TestRows:     len(testIdx),
		Baseline:     baselineCV,
		BaselineTest: baselineTest,
		Search:       result,
		ForestTest:   forestTest,
		Winner:       baseline,
		WinnerKind:   KindLogistic,
	}
	if best.CV.Mean > baselineCV.Mean {
		out.Winner, out.WinnerKind = forest, KindRandomForest
	}
	log.WithField("model", out.WinnerKind).Info("selected model")
	return out, nil
}

func evaluate(p *Pipeline, rows []match.FeatureRow, labels []match.Candidate) (*Evaluation, error) {
	pred, err := p.PredictAll(rows)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", p.Kind, err)
	}
	cm := NewConfusionMatrix(p.Classes, labels, pred)
	return &Evaluation{
		Accuracy:  Accuracy(labels, pred),
		Confusion: cm,
		Report:    NewClassificationReport(cm),
	}, nil
}
