package match

import (
	"fmt"
	"sort"
	"strings"
)

// FeatureColumns returns the ordered feature columns consumed by a matcher.
// The label, the per-candidate score columns and determinism_needed are not
// features.
func FeatureColumns() []string {
	return []string{
		string(AttrTaskType),
		string(AttrDomain),
		string(AttrInputLanguage),
		string(AttrPrivacyRequirement),
		string(AttrHardwareAvailable),
		string(AttrHallucinationTolerance),
		string(AttrTemperaturePref),
		string(AttrOutputStyle),
	}
}

// FeatureRow is one row of categorical tokens in FeatureColumns() order.
type FeatureRow []string

// ContractRow projects a scenario onto the feature columns.
func ContractRow(s Scenario) FeatureRow {
	return FeatureRow{
		string(s.TaskType),
		string(s.Domain),
		string(s.InputLanguage),
		string(s.PrivacyRequirement),
		string(s.HardwareAvailable),
		string(s.HallucinationTolerance),
		string(s.TemperaturePref),
		string(s.OutputStyle),
	}
}

// CheckColumns returns ErrEncodingMismatch unless got equals FeatureColumns()
// in both order and spelling.
func CheckColumns(got []string) error {
	want := FeatureColumns()
	if len(got) != len(want) {
		return fmt.Errorf("%w: expected %d feature columns, got %d", ErrEncodingMismatch, len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrEncodingMismatch, i, got[i], want[i])
		}
	}
	return nil
}

// OneHotEncoder maps categorical rows to indicator vectors. Categories are
// learned per column and kept sorted. A category not seen during fitting
// encodes to an all-zero block for its column.
type OneHotEncoder struct {
	columns    []string
	categories [][]string
	index      []map[string]int
	offsets    []int
	width      int
}

// EncoderState is the serializable form of a fitted encoder.
type EncoderState struct {
	Columns    []string   `json:"columns"`
	Categories [][]string `json:"categories"`
}

// FitEncoder learns the category set of every column from rows.
func FitEncoder(columns []string, rows []FeatureRow) (*OneHotEncoder, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("fit encoder: no columns")
	}
	seen := make([]map[string]bool, len(columns))
	for i := range seen {
		seen[i] = make(map[string]bool)
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("fit encoder: row %d: %w: width %d, expected %d", r, ErrEncodingMismatch, len(row), len(columns))
		}
		for i, v := range row {
			seen[i][v] = true
		}
	}
	cats := make([][]string, len(columns))
	for i, set := range seen {
		cats[i] = make([]string, 0, len(set))
		for v := range set {
			cats[i] = append(cats[i], v)
		}
		sort.Strings(cats[i])
	}
	return NewOneHotEncoder(EncoderState{Columns: columns, Categories: cats})
}

// NewOneHotEncoder rebuilds an encoder from its state. Categories must be
// sorted and unique within each column.
func NewOneHotEncoder(st EncoderState) (*OneHotEncoder, error) {
	if len(st.Columns) != len(st.Categories) {
		return nil, fmt.Errorf("%w: %d columns but %d category lists", ErrEncodingMismatch, len(st.Columns), len(st.Categories))
	}
	e := &OneHotEncoder{
		columns:    append([]string(nil), st.Columns...),
		categories: make([][]string, len(st.Categories)),
		index:      make([]map[string]int, len(st.Categories)),
		offsets:    make([]int, len(st.Categories)),
	}
	for i, cats := range st.Categories {
		if !sort.StringsAreSorted(cats) {
			return nil, fmt.Errorf("encoder column %q: categories are not sorted", st.Columns[i])
		}
		e.categories[i] = append([]string(nil), cats...)
		e.index[i] = make(map[string]int, len(cats))
		for j, c := range cats {
			if _, dup := e.index[i][c]; dup {
				return nil, fmt.Errorf("encoder column %q: duplicate category %q", st.Columns[i], c)
			}
			e.index[i][c] = j
		}
		e.offsets[i] = e.width
		e.width += len(cats)
	}
	return e, nil
}

// State returns a copy of the encoder's serializable state.
func (e *OneHotEncoder) State() EncoderState {
	cats := make([][]string, len(e.categories))
	for i, c := range e.categories {
		cats[i] = append([]string(nil), c...)
	}
	return EncoderState{Columns: e.InputColumns(), Categories: cats}
}

// InputColumns returns the categorical columns the encoder was fitted on.
func (e *OneHotEncoder) InputColumns() []string {
	return append([]string(nil), e.columns...)
}

// Width is the length of an encoded vector.
func (e *OneHotEncoder) Width() int { return e.width }

// Columns returns the encoded indicator names, "<column>_<category>".
func (e *OneHotEncoder) Columns() []string {
	out := make([]string, 0, e.width)
	for i, col := range e.columns {
		for _, c := range e.categories[i] {
			out = append(out, col+"_"+c)
		}
	}
	return out
}

// Transform encodes one row. Unseen categories leave their block at zero.
func (e *OneHotEncoder) Transform(row FeatureRow) ([]float64, error) {
	if len(row) != len(e.columns) {
		return nil, fmt.Errorf("%w: row width %d, expected %d", ErrEncodingMismatch, len(row), len(e.columns))
	}
	vec := make([]float64, e.width)
	for i, v := range row {
		if j, ok := e.index[i][v]; ok {
			vec[e.offsets[i]+j] = 1
		}
	}
	return vec, nil
}

// TransformAll encodes rows into a dense matrix, one slice per row.
func (e *OneHotEncoder) TransformAll(rows []FeatureRow) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for r, row := range rows {
		vec, err := e.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		out[r] = vec
	}
	return out, nil
}

// Decode inverts Transform. A column whose block has no indicator set decodes
// to the empty string.
func (e *OneHotEncoder) Decode(vec []float64) (FeatureRow, error) {
	if len(vec) != e.width {
		return nil, fmt.Errorf("%w: vector width %d, expected %d", ErrEncodingMismatch, len(vec), e.width)
	}
	row := make(FeatureRow, len(e.columns))
	for i, cats := range e.categories {
		for j, c := range cats {
			if vec[e.offsets[i]+j] != 0 {
				row[i] = c
				break
			}
		}
	}
	return row, nil
}

func (e *OneHotEncoder) String() string {
	parts := make([]string, len(e.columns))
	for i, col := range e.columns {
		parts[i] = fmt.Sprintf("%s(%d)", col, len(e.categories[i]))
	}
	return "OneHotEncoder[" + strings.Join(parts, " ") + "]"
}
