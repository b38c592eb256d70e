package dataprep

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/stats"
)

// Imputer fills the missing (NaN) entries of a gene x sample matrix. The
// input is never modified.
type Imputer interface {
	Impute(m *core.Matrix) (*core.Matrix, ImputeReport, error)
}

// ImputeReport describes what an Imputer did.
type ImputeReport struct {
	Method   string
	Missing  int
	Total    int
	Fraction float64
	// FallbackRows counts genes imputed with sample means because too many
	// of their values were missing.
	FallbackRows int
}

// ColumnError reports a sample column with too many missing values to impute.
type ColumnError struct {
	Col      int
	Fraction float64
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %d has %.1f%% missing values", e.Col, e.Fraction*100)
}

// ImputeDataset runs imp over the expression matrix of ds and returns a new
// Dataset. It fails when the missing fraction exceeds maxFraction.
func ImputeDataset(ds *data.Dataset, imp Imputer, maxFraction float64) (*data.Dataset, ImputeReport, error) {
	if frac := ds.MissingFraction(); frac > maxFraction {
		return nil, ImputeReport{Missing: ds.Expr.CountNaN(), Total: len(ds.Expr.Data), Fraction: frac},
			core.Errorf(core.StageImpute, "", core.ErrDataIntegrity, "%.1f%% of values missing, limit %.1f%%", frac*100, maxFraction*100)
	}
	m, rep, err := imp.Impute(ds.Expr)
	if err != nil {
		var ce *ColumnError
		if errors.As(err, &ce) {
			return nil, rep, core.Errorf(core.StageImpute, ds.Samples[ce.Col].ID, core.ErrDataIntegrity, "%s", ce.Error())
		}
		return nil, rep, err
	}
	out, err := ds.WithExpr(m)
	if err != nil {
		return nil, rep, err
	}
	return out, rep, Validate(out)
}

// NewImputer returns the imputer registered under name: knn, mean or median.
func NewImputer(name string, k int, rowMax, colMax float64) (Imputer, error) {
	switch name {
	case "knn", "":
		return &KNNImputer{K: k, RowMax: rowMax, ColMax: colMax}, nil
	case "mean":
		return RowImputer{Name: "mean", Center: stats.Mean}, nil
	case "median":
		return RowImputer{Name: "median", Center: stats.Median}, nil
	}
	return nil, fmt.Errorf("unknown imputer %q", name)
}

// ---------- Simple Imputation Methods ----------

// RowImputer replaces the missing values of each gene with a summary of its
// observed values (mean or median). Rows with nothing observed fall back to
// the column means.
type RowImputer struct {
	Name   string
	Center func([]float64) float64
}

func (r RowImputer) Impute(m *core.Matrix) (*core.Matrix, ImputeReport, error) {
	out := m.Clone()
	rep := newReport(r.Name, m)
	colMeans := columnMeans(m)
	for i := 0; i < m.R; i++ {
		obs := observed(m.Row(i))
		if len(obs) == m.C {
			continue
		}
		fill := math.NaN()
		if len(obs) > 0 {
			fill = r.Center(obs)
		} else {
			rep.FallbackRows++
		}
		for j, v := range m.Row(i) {
			if !math.IsNaN(v) {
				continue
			}
			if math.IsNaN(fill) {
				out.Set(i, j, colMeans[j])
			} else {
				out.Set(i, j, fill)
			}
		}
	}
	return out, rep, nil
}

// ---------- Nearest Neighbour Imputation ----------

// KNNImputer imputes each missing value as the average of the same sample in
// the K genes nearest to the target gene. Distance is the mean squared
// difference over the samples both genes observe. Genes missing more than
// RowMax of their values are filled with sample means instead; a sample
// missing more than ColMax of its values is an error.
type KNNImputer struct {
	K      int
	RowMax float64
	ColMax float64
}

func (imp *KNNImputer) Impute(m *core.Matrix) (*core.Matrix, ImputeReport, error) {
	rep := newReport("knn", m)
	if imp.K <= 0 {
		return nil, rep, errors.New("knn imputation needs k > 0")
	}
	out := m.Clone()
	if rep.Missing == 0 {
		return out, rep, nil
	}

	for j := 0; j < m.C; j++ {
		missing := 0
		for i := 0; i < m.R; i++ {
			if math.IsNaN(m.At(i, j)) {
				missing++
			}
		}
		if frac := float64(missing) / float64(m.R); frac > imp.ColMax {
			return nil, rep, &ColumnError{Col: j, Fraction: frac}
		}
	}

	rowMissing := make([]int, m.R)
	for i := 0; i < m.R; i++ {
		rowMissing[i] = m.C - len(observed(m.Row(i)))
	}
	limit := imp.RowMax * float64(m.C)
	colMeans := columnMeans(m)

	var targets []int
	for i, n := range rowMissing {
		if n == 0 {
			continue
		}
		if float64(n) > limit {
			rep.FallbackRows++
			for j, v := range m.Row(i) {
				if math.IsNaN(v) {
					out.Set(i, j, colMeans[j])
				}
			}
			continue
		}
		targets = append(targets, i)
	}

	// Rows are independent: each worker reads m and writes only its own rows of out.
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	perWorker := (len(targets) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := min(start+perWorker, len(targets))
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for _, i := range targets[s:e] {
				imp.imputeRow(m, out, i, rowMissing, limit, colMeans)
			}
		}(start, end)
	}
	wg.Wait()
	return out, rep, nil
}

// imputeRow fills the missing values of gene i in out.
func (imp *KNNImputer) imputeRow(m, out *core.Matrix, i int, rowMissing []int, limit float64, colMeans []float64) {
	type neighbour struct {
		d float64
		g int
	}
	target := m.Row(i)
	nbrs := make([]neighbour, 0, m.R)
	for g := 0; g < m.R; g++ {
		if g == i || float64(rowMissing[g]) > limit {
			continue
		}
		if d, ok := meanSquared(target, m.Row(g)); ok {
			nbrs = append(nbrs, neighbour{d: d, g: g})
		}
	}
	sort.SliceStable(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })

	for j, v := range target {
		if !math.IsNaN(v) {
			continue
		}
		sum, n := 0.0, 0
		for _, nb := range nbrs {
			x := m.At(nb.g, j)
			if math.IsNaN(x) {
				continue
			}
			sum += x
			n++
			if n == imp.K {
				break
			}
		}
		if n == 0 {
			out.Set(i, j, colMeans[j])
			continue
		}
		out.Set(i, j, sum/float64(n))
	}
}

// meanSquared computes the mean squared difference over positions observed
// in both vectors.
func meanSquared(a, b []float64) (float64, bool) {
	var sum float64
	n := 0
	for k := range a {
		if math.IsNaN(a[k]) || math.IsNaN(b[k]) {
			continue
		}
		d := a[k] - b[k]
		sum += d * d
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func observed(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func columnMeans(m *core.Matrix) []float64 {
	means := make([]float64, m.C)
	for j := range means {
		means[j] = stats.Mean(observed(m.Col(j)))
	}
	return means
}

func newReport(method string, m *core.Matrix) ImputeReport {
	rep := ImputeReport{Method: method, Missing: m.CountNaN(), Total: len(m.Data)}
	if rep.Total > 0 {
		rep.Fraction = float64(rep.Missing) / float64(rep.Total)
	}
	return rep
}
