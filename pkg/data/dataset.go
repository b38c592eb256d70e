package data

import (
	"fmt"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
)

// Risk is the binary outcome class of a sample.
type Risk int

const (
	Low Risk = iota
	High
)

func (r Risk) String() string {
	switch r {
	case Low:
		return "Low"
	case High:
		return "High"
	}
	return fmt.Sprintf("Risk(%d)", int(r))
}

// EventMissing marks a sample whose event label is unknown.
const EventMissing = -1

// SampleMeta holds the survival annotation of one sample.
type SampleMeta struct {
	ID string
	// Event is 1 when distant metastasis was observed, 0 when censored and
	// EventMissing when unknown.
	Event int
	// Time is the time to event or censoring; NaN when unknown.
	Time float64
}

// HasEvent reports whether the event label is known.
func (s SampleMeta) HasEvent() bool { return s.Event != EventMissing }

// Risk maps the event label onto a risk class.
func (s SampleMeta) Risk() Risk {
	if s.Event == 1 {
		return High
	}
	return Low
}

// Dataset joins a gene x sample expression matrix with per-sample metadata.
// A Dataset is never modified after construction: subsetting returns a new
// Dataset with its own copy of the data.
type Dataset struct {
	Expr    *core.Matrix
	Genes   []string
	Samples []SampleMeta
	// Symbols maps probe ids to gene symbols; may be empty.
	Symbols map[string]string
}

// New validates the shapes and id uniqueness of the parts and joins them.
func New(expr *core.Matrix, genes []string, samples []SampleMeta, symbols map[string]string) (*Dataset, error) {
	if expr == nil {
		return nil, core.Errorf(core.StageLoad, "", core.ErrDataIntegrity, "nil expression matrix")
	}
	if expr.R != len(genes) || expr.C != len(samples) {
		return nil, core.Errorf(core.StageLoad, "", core.ErrDataIntegrity,
			"matrix is %dx%d but got %d genes and %d samples", expr.R, expr.C, len(genes), len(samples))
	}
	seen := make(map[string]struct{}, len(genes))
	for _, g := range genes {
		if _, ok := seen[g]; ok {
			return nil, core.Errorf(core.StageLoad, g, core.ErrDataIntegrity, "duplicate probe id")
		}
		seen[g] = struct{}{}
	}
	seen = make(map[string]struct{}, len(samples))
	for _, s := range samples {
		if _, ok := seen[s.ID]; ok {
			return nil, core.Errorf(core.StageLoad, s.ID, core.ErrDataIntegrity, "duplicate sample id")
		}
		seen[s.ID] = struct{}{}
	}
	if symbols == nil {
		symbols = map[string]string{}
	}
	return &Dataset{Expr: expr, Genes: genes, Samples: samples, Symbols: symbols}, nil
}

func (d *Dataset) NumGenes() int   { return len(d.Genes) }
func (d *Dataset) NumSamples() int { return len(d.Samples) }

// SampleIDs returns the sample ids in column order.
func (d *Dataset) SampleIDs() []string {
	ids := make([]string, len(d.Samples))
	for i, s := range d.Samples {
		ids[i] = s.ID
	}
	return ids
}

// Labels returns the risk class of every sample. It fails when a sample has
// no event label, which cannot happen after cleaning.
func (d *Dataset) Labels() ([]Risk, error) {
	out := make([]Risk, len(d.Samples))
	for i, s := range d.Samples {
		if !s.HasEvent() {
			return nil, core.Errorf(core.StageClean, s.ID, core.ErrDataIntegrity, "missing event label")
		}
		out[i] = s.Risk()
	}
	return out, nil
}

// Times returns the time-to-event of every sample.
func (d *Dataset) Times() []float64 {
	out := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Time
	}
	return out
}

// Events returns whether the event was observed for every sample.
func (d *Dataset) Events() []bool {
	out := make([]bool, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Event == 1
	}
	return out
}

// Symbol returns the gene symbol of a probe, or the probe id when unknown.
func (d *Dataset) Symbol(gene string) string {
	if s, ok := d.Symbols[gene]; ok && s != "" {
		return s
	}
	return gene
}

// SubsetSamples returns a new Dataset restricted to the given columns.
func (d *Dataset) SubsetSamples(idx []int) *Dataset {
	samples := make([]SampleMeta, len(idx))
	for k, j := range idx {
		samples[k] = d.Samples[j]
	}
	return &Dataset{
		Expr:    d.Expr.SelectCols(idx),
		Genes:   append([]string(nil), d.Genes...),
		Samples: samples,
		Symbols: d.Symbols,
	}
}

// SubsetGenes returns a new Dataset restricted to the given rows.
func (d *Dataset) SubsetGenes(idx []int) *Dataset {
	genes := make([]string, len(idx))
	for k, i := range idx {
		genes[k] = d.Genes[i]
	}
	return &Dataset{
		Expr:    d.Expr.SelectRows(idx),
		Genes:   genes,
		Samples: append([]SampleMeta(nil), d.Samples...),
		Symbols: d.Symbols,
	}
}

// GeneIndex resolves gene ids to row indices.
func (d *Dataset) GeneIndex(ids []string) ([]int, error) {
	pos := make(map[string]int, len(d.Genes))
	for i, g := range d.Genes {
		pos[g] = i
	}
	idx := make([]int, len(ids))
	for k, id := range ids {
		i, ok := pos[id]
		if !ok {
			return nil, core.Errorf(core.StageClassify, id, core.ErrDataIntegrity, "gene not present in dataset")
		}
		idx[k] = i
	}
	return idx, nil
}

// WithExpr returns a copy of the Dataset carrying a replacement matrix of the
// same shape, used by imputation.
func (d *Dataset) WithExpr(m *core.Matrix) (*Dataset, error) {
	if m.R != d.Expr.R || m.C != d.Expr.C {
		return nil, fmt.Errorf("matrix shape %dx%d does not match dataset %dx%d", m.R, m.C, d.Expr.R, d.Expr.C)
	}
	return &Dataset{
		Expr:    m,
		Genes:   append([]string(nil), d.Genes...),
		Samples: append([]SampleMeta(nil), d.Samples...),
		Symbols: d.Symbols,
	}, nil
}

// MissingFraction returns the fraction of NaN expression values.
func (d *Dataset) MissingFraction() float64 {
	total := d.Expr.R * d.Expr.C
	if total == 0 {
		return 0
	}
	return float64(d.Expr.CountNaN()) / float64(total)
}
