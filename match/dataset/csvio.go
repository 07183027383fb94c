package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/llm-matchmaker/match"
)

// LabelColumn is the dataset column holding the winning candidate.
const LabelColumn = "best_model"

// HeaderVersion is the dataset header format.
const HeaderVersion = 1

// DatasetHeader captures metadata for a dataset file. It is written as a YAML
// sidecar next to the CSV data.
type DatasetHeader struct {
	Version   int            `yaml:"dataset_version"`
	CreatedAt string         `yaml:"created_at,omitempty"`
	Rows      int            `yaml:"rows"`
	Spec      *SynthesisSpec `yaml:"synthesis_spec,omitempty"`
}

// NewDatasetHeader stamps a header for rows synthesized from spec.
func NewDatasetHeader(spec *SynthesisSpec, rows int) *DatasetHeader {
	return &DatasetHeader{
		Version:   HeaderVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Rows:      rows,
		Spec:      spec,
	}
}

// Dataset combines a header and its rows.
type Dataset struct {
	Header *DatasetHeader
	Rows   []Row
}

// ScoreColumn names the score column of a candidate.
func ScoreColumn(c match.Candidate) string {
	return "score_" + string(c)
}

// Columns returns the CSV header: the nine attributes, the label, then one
// score column per candidate in fixed order.
func Columns() []string {
	cols := make([]string, 0, 9+1+len(match.Candidates()))
	for _, a := range match.Attributes() {
		cols = append(cols, string(a))
	}
	cols = append(cols, LabelColumn)
	for _, c := range match.Candidates() {
		cols = append(cols, ScoreColumn(c))
	}
	return cols
}

// WriteCSV writes rows with a header line. Scores are rounded to 3 decimals.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns()); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	cands := match.Candidates()
	for i, r := range rows {
		rec := make([]string, 0, len(Columns()))
		rec = append(rec, r.Scenario.Values()...)
		rec = append(rec, string(r.Label))
		for _, c := range cands {
			rec = append(rec, strconv.FormatFloat(r.Scores[c], 'f', 3, 64))
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a dataset written by WriteCSV. The header must match
// Columns() exactly and every row must pass the schema gate.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	want := Columns()
	reader.FieldsPerRecord = len(want)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i := range want {
		if strings.TrimSpace(header[i]) != want[i] {
			return nil, fmt.Errorf("CSV header column %d is %q, expected %q", i, header[i], want[i])
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (Row, error) {
	nAttr := len(match.Attributes())
	scenario, err := match.ScenarioFromValues(rec[:nAttr])
	if err != nil {
		return Row{}, err
	}
	label, err := match.ParseCandidate(rec[nAttr])
	if err != nil {
		return Row{}, err
	}
	scores := make(map[match.Candidate]float64, len(match.Candidates()))
	for i, c := range match.Candidates() {
		v, err := strconv.ParseFloat(rec[nAttr+1+i], 64)
		if err != nil {
			return Row{}, fmt.Errorf("%s: %w", ScoreColumn(c), err)
		}
		scores[c] = v
	}
	return Row{Scenario: scenario, Label: label, Scores: scores}, nil
}

// ExportDataset writes the header (YAML) and data (CSV) to separate files.
// An empty headerPath skips the header.
func ExportDataset(header *DatasetHeader, rows []Row, headerPath, dataPath string) error {
	if headerPath != "" && header != nil {
		headerData, err := yaml.Marshal(header)
		if err != nil {
			return fmt.Errorf("marshaling dataset header: %w", err)
		}
		if err := os.WriteFile(headerPath, headerData, 0644); err != nil {
			return fmt.Errorf("writing dataset header: %w", err)
		}
	}

	file, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("creating dataset file: %w", err)
	}
	if err := WriteCSV(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// LoadDataset reads a dataset CSV and, when headerPath is non-empty, its YAML
// header. A header whose row count disagrees with the data is an error.
func LoadDataset(headerPath, dataPath string) (*Dataset, error) {
	var header *DatasetHeader
	if headerPath != "" {
		headerData, err := os.ReadFile(headerPath)
		if err != nil {
			return nil, fmt.Errorf("reading dataset header: %w", err)
		}
		header = &DatasetHeader{}
		if err := yaml.Unmarshal(headerData, header); err != nil {
			return nil, fmt.Errorf("parsing dataset header: %w", err)
		}
	}

	file, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer func() { _ = file.Close() }()

	rows, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dataPath, err)
	}
	if header != nil && header.Rows != len(rows) {
		return nil, fmt.Errorf("dataset header declares %d rows, data has %d", header.Rows, len(rows))
	}
	return &Dataset{Header: header, Rows: rows}, nil
}

// HeaderPath returns the conventional sidecar path for a dataset file:
// "llm_dataset.csv" becomes "llm_dataset.header.yaml".
func HeaderPath(dataPath string) string {
	base := strings.TrimSuffix(dataPath, ".csv")
	return base + ".header.yaml"
}
