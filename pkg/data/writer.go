package data

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// create opens path for writing, compressing when it ends in .gz.
func create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz := gzip.NewWriter(f)
	return struct {
		io.Writer
		io.Closer
	}{gz, closers{gz, f}}, nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeTable writes rows under header to path, using the delimiter implied
// by the extension.
func writeTable(path string, header []string, rows [][]string) (err error) {
	wc, err := create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
	}()
	w := csv.NewWriter(wc)
	w.Comma = delimiter(path)
	if err := w.Write(header); err != nil {
		return err
	}
	return w.WriteAll(rows)
}

// WriteExpression stores the expression matrix of ds in the layout read by
// ReadExpression. Missing values are written as NA.
func WriteExpression(path string, ds *Dataset) error {
	header := append([]string{"probe"}, ds.SampleIDs()...)
	rows := make([][]string, ds.NumGenes())
	for i, g := range ds.Genes {
		row := make([]string, 0, ds.NumSamples()+1)
		row = append(row, g)
		for _, v := range ds.Expr.Row(i) {
			row = append(row, formatValue(v))
		}
		rows[i] = row
	}
	return writeTable(path, header, rows)
}

// WriteMetadata stores the sample annotation of ds using the column names of
// schema.
func WriteMetadata(path string, ds *Dataset, schema Schema) error {
	rows := make([][]string, ds.NumSamples())
	for j, s := range ds.Samples {
		event := "NA"
		if s.HasEvent() {
			event = strconv.Itoa(s.Event)
		}
		rows[j] = []string{s.ID, event, formatValue(s.Time)}
	}
	return writeTable(path, []string{schema.Sample, schema.Event, schema.Time}, rows)
}

// WriteAnnotation stores the probe to symbol mapping of ds sorted by probe.
func WriteAnnotation(path string, ds *Dataset, schema Schema) error {
	probes := make([]string, 0, len(ds.Symbols))
	for p := range ds.Symbols {
		probes = append(probes, p)
	}
	sort.Strings(probes)
	rows := make([][]string, len(probes))
	for i, p := range probes {
		rows[i] = []string{p, ds.Symbols[p]}
	}
	return writeTable(path, []string{schema.Probe, schema.Symbol}, rows)
}
