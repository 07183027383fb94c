package learn

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/inference-sim/llm-matchmaker/match"
)

// ArtifactVersion is the current artifact format.
const ArtifactVersion = 1

// ArtifactMeta records how an artifact was produced.
type ArtifactMeta struct {
	CreatedAt string        `json:"created_at,omitempty"`
	RunID     string        `json:"run_id,omitempty"`
	TrainRows int           `json:"train_rows"`
	CVMean    float64       `json:"cv_mean"`
	Params    *ForestParams `json:"params,omitempty"`
}

// artifact is the on-disk form: zstd-compressed JSON.
type artifact struct {
	FormatVersion  int                 `json:"format_version"`
	Kind           ModelKind           `json:"kind"`
	FeatureColumns []string            `json:"feature_columns"`
	Classes        []match.Candidate   `json:"classes"`
	Encoder        match.EncoderState  `json:"encoder"`
	Forest         *RandomForest       `json:"forest,omitempty"`
	Logistic       *LogisticRegression `json:"logistic,omitempty"`
	Meta           ArtifactMeta        `json:"meta"`
}

// SaveArtifact writes a fitted pipeline to path.
func SaveArtifact(path string, p *Pipeline, meta ArtifactMeta) error {
	if p.Encoder == nil {
		return fmt.Errorf("save artifact: pipeline is not fitted")
	}
	a := artifact{
		FormatVersion:  ArtifactVersion,
		Kind:           p.Kind,
		FeatureColumns: p.Columns(),
		Classes:        p.Classes,
		Encoder:        p.Encoder.State(),
		Meta:           meta,
	}
	switch m := p.Model.(type) {
	case *RandomForest:
		a.Forest = m
	case *LogisticRegression:
		a.Logistic = m
	default:
		return fmt.Errorf("save artifact: unsupported model %T", p.Model)
	}
	return writeArtifact(path, &a)
}

func writeArtifact(path string, a *artifact) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	zw, err := zstd.NewWriter(file)
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("creating artifact encoder: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		_ = zw.Close()
		_ = file.Close()
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("flushing artifact: %w", err)
	}
	return file.Close()
}

// LoadArtifact reads a pipeline written by SaveArtifact. Feature columns that
// disagree with the contract fail with match.ErrEncodingMismatch.
func LoadArtifact(path string) (*Pipeline, *ArtifactMeta, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening artifact: %w", err)
	}
	defer func() { _ = file.Close() }()

	zr, err := zstd.NewReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("reading artifact: %w", err)
	}
	defer zr.Close()

	var a artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, nil, fmt.Errorf("decoding artifact: %w", err)
	}
	if a.FormatVersion != ArtifactVersion {
		return nil, nil, fmt.Errorf("unsupported artifact version %d; expected %d", a.FormatVersion, ArtifactVersion)
	}
	if err := match.CheckColumns(a.FeatureColumns); err != nil {
		return nil, nil, fmt.Errorf("artifact: %w", err)
	}
	if err := match.CheckColumns(a.Encoder.Columns); err != nil {
		return nil, nil, fmt.Errorf("artifact encoder: %w", err)
	}
	if len(a.Classes) == 0 {
		return nil, nil, fmt.Errorf("artifact has no classes")
	}
	for _, c := range a.Classes {
		if !c.IsValid() {
			return nil, nil, fmt.Errorf("artifact class %q is not a candidate", c)
		}
	}
	enc, err := match.NewOneHotEncoder(a.Encoder)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact encoder: %w", err)
	}

	p := &Pipeline{Kind: a.Kind, Encoder: enc, Classes: a.Classes}
	switch a.Kind {
	case KindRandomForest:
		if a.Forest == nil {
			return nil, nil, fmt.Errorf("artifact kind %s has no forest", a.Kind)
		}
		if err := a.Forest.validate(enc.Width(), len(a.Classes)); err != nil {
			return nil, nil, fmt.Errorf("artifact: %w", err)
		}
		p.Model = a.Forest
	case KindLogistic:
		if a.Logistic == nil {
			return nil, nil, fmt.Errorf("artifact kind %s has no logistic model", a.Kind)
		}
		if err := a.Logistic.validate(enc.Width(), len(a.Classes)); err != nil {
			return nil, nil, fmt.Errorf("artifact: %w", err)
		}
		p.Model = a.Logistic
	default:
		return nil, nil, fmt.Errorf("unknown artifact kind %q", a.Kind)
	}
	return p, &a.Meta, nil
}
