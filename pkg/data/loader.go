package data

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/core"
)

// Expression is a parsed expression table before it is joined with metadata.
type Expression struct {
	Genes   []string
	Samples []string
	Matrix  *core.Matrix
	// Symbols is filled from the Description column of GCT input.
	Symbols map[string]string
}

// isMissing reports whether a cell holds one of the missing-value tokens.
func isMissing(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "NaN", "nan", "null", "NULL":
		return true
	}
	return false
}

func parseValue(s string) (float64, error) {
	if isMissing(s) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// open opens path, transparently decompressing .gz files.
func open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	return struct {
		io.Reader
		io.Closer
	}{gz, closers{gz, f}}, nil
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}

// format returns the base extension of path with any .gz suffix removed.
func format(path string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz")))
}

// delimiter picks the field separator from the file extension.
func delimiter(path string) rune {
	switch format(path) {
	case ".tsv", ".txt", ".gct":
		return '\t'
	}
	return ','
}

func newReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// ReadExpression loads a probe x sample expression table from a delimited
// text or GCT file.
func ReadExpression(path string) (*Expression, error) {
	rc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if format(path) == ".gct" {
		return ParseGCT(rc)
	}
	return ParseExpression(rc, delimiter(path))
}

// ParseExpression reads a table whose header is an id column followed by
// sample ids and whose rows are a probe id followed by values.
func ParseExpression(r io.Reader, comma rune) (*Expression, error) {
	return parseExpression(newReader(r, comma), 1, false)
}

// ParseGCT reads a GCT 1.2 file: a version line, a dimensions line, then a
// header of Name, Description and sample ids.
func ParseGCT(r io.Reader) (*Expression, error) {
	cr := newReader(r, '\t')
	cr.LazyQuotes = true
	version, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("gct version line: %w", err)
	}
	if len(version) == 0 || !strings.HasPrefix(version[0], "#1.") {
		return nil, fmt.Errorf("gct: unexpected version line %q", strings.Join(version, "\t"))
	}
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("gct dimensions line: %w", err)
	}
	return parseExpression(cr, 2, true)
}

func parseExpression(cr *csv.Reader, skip int, describe bool) (*Expression, error) {
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("expression header: %w", err)
	}
	if len(header) <= skip {
		return nil, errors.New("expression header has no sample columns")
	}
	samples := append([]string(nil), header[skip:]...)
	nc := len(samples)

	var (
		genes   []string
		values  []float64
		symbols = map[string]string{}
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("expression line %d: %w", line, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("expression line %d: %d fields, header has %d", line, len(rec), len(header))
		}
		id := strings.TrimSpace(rec[0])
		genes = append(genes, id)
		if describe && !isMissing(rec[1]) {
			symbols[id] = strings.TrimSpace(rec[1])
		}
		for j, s := range rec[skip:] {
			v, err := parseValue(s)
			if err != nil {
				return nil, fmt.Errorf("expression line %d, sample %s: %w", line, samples[j], err)
			}
			values = append(values, v)
		}
	}
	return &Expression{
		Genes:   genes,
		Samples: samples,
		Matrix:  &core.Matrix{R: len(genes), C: nc, Data: values},
		Symbols: symbols,
	}, nil
}

// columns locates named columns in a header row.
func columns(header []string, names ...string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}
	idx := make([]int, len(names))
	for k, n := range names {
		i, ok := pos[n]
		if !ok {
			return nil, fmt.Errorf("column %q not found", n)
		}
		idx[k] = i
	}
	return idx, nil
}

// ReadMetadata loads per-sample event labels and times keyed by sample id.
func ReadMetadata(path string, schema Schema) (map[string]SampleMeta, error) {
	rc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseMetadata(rc, delimiter(path), schema)
}

// ParseMetadata reads a delimited phenotype table.
func ParseMetadata(r io.Reader, comma rune, schema Schema) (map[string]SampleMeta, error) {
	cr := newReader(r, comma)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("metadata header: %w", err)
	}
	idx, err := columns(header, schema.Sample, schema.Event, schema.Time)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	out := make(map[string]SampleMeta)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("metadata line %d: %w", line, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("metadata line %d: %d fields, header has %d", line, len(rec), len(header))
		}
		id := strings.TrimSpace(rec[idx[0]])
		if _, ok := out[id]; ok {
			return nil, core.Errorf(core.StageLoad, id, core.ErrDataIntegrity, "duplicate metadata row")
		}
		meta := SampleMeta{ID: id, Event: EventMissing, Time: math.NaN()}
		if ev := strings.TrimSpace(rec[idx[1]]); !isMissing(ev) {
			switch ev {
			case "0", "0.0", "FALSE", "false":
				meta.Event = 0
			case "1", "1.0", "TRUE", "true":
				meta.Event = 1
			default:
				return nil, fmt.Errorf("metadata line %d: event %q is not 0/1", line, ev)
			}
		}
		if meta.Time, err = parseValue(rec[idx[2]]); err != nil {
			return nil, fmt.Errorf("metadata line %d: time: %w", line, err)
		}
		out[id] = meta
	}
	return out, nil
}

// ReadAnnotation loads a probe id to gene symbol mapping.
func ReadAnnotation(path string, schema Schema) (map[string]string, error) {
	rc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	cr := newReader(rc, delimiter(path))
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("annotation header: %w", err)
	}
	idx, err := columns(header, schema.Probe, schema.Symbol)
	if err != nil {
		return nil, fmt.Errorf("annotation: %w", err)
	}
	out := make(map[string]string)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("annotation: %w", err)
		}
		if max(idx[0], idx[1]) >= len(rec) || isMissing(rec[idx[1]]) {
			continue
		}
		out[strings.TrimSpace(rec[idx[0]])] = strings.TrimSpace(rec[idx[1]])
	}
	return out, nil
}

// Join combines an expression table with metadata. Expression columns define
// the sample order; a column without metadata becomes an unlabelled sample.
func Join(expr *Expression, meta map[string]SampleMeta, symbols map[string]string) (*Dataset, error) {
	samples := make([]SampleMeta, len(expr.Samples))
	for j, id := range expr.Samples {
		m, ok := meta[id]
		if !ok {
			m = SampleMeta{ID: id, Event: EventMissing, Time: math.NaN()}
		}
		samples[j] = m
	}
	merged := make(map[string]string, len(expr.Symbols)+len(symbols))
	for k, v := range expr.Symbols {
		merged[k] = v
	}
	for k, v := range symbols {
		merged[k] = v
	}
	return New(expr.Matrix, expr.Genes, samples, merged)
}

// Load reads and joins the expression, metadata and (optional) annotation
// files.
func Load(exprPath, metaPath, annotPath string, schema Schema) (*Dataset, error) {
	expr, err := ReadExpression(exprPath)
	if err != nil {
		return nil, fmt.Errorf("read expression: %w", err)
	}
	meta, err := ReadMetadata(metaPath, schema)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var symbols map[string]string
	if annotPath != "" {
		if symbols, err = ReadAnnotation(annotPath, schema); err != nil {
			return nil, fmt.Errorf("read annotation: %w", err)
		}
	}
	return Join(expr, meta, symbols)
}
