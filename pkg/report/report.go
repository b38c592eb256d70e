// Package report writes the results of a pipeline run to a directory: CSV
// tables, a YAML summary and PNG plots.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/pipeline"
)

// File names written by Write.
const (
	SignatureFile = "signature.csv"
	TopTableFile  = "toptable.csv"
	SummaryFile   = "summary.yaml"
)

// ClassificationFile is the per-sample table of a partition.
func ClassificationFile(partition string) string {
	return "classification_" + partition + ".csv"
}

// SurvivalFile is the Kaplan-Meier table of a partition.
func SurvivalFile(partition string) string { return "km_" + partition + ".csv" }

// SurvivalPlot is the Kaplan-Meier plot of a partition.
func SurvivalPlot(partition string) string { return "km_" + partition + ".png" }

// CorrelationPlot is the template correlation scatter of a partition.
func CorrelationPlot(partition string) string { return "correlation_" + partition + ".png" }

// Write stores rep under dir, creating it if needed, and returns the paths
// written.
func Write(dir string, rep *pipeline.Report, plots bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	var written []string
	save := func(name string, fn func(path string) error) error {
		path := filepath.Join(dir, name)
		if err := fn(path); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	if err := save(SignatureFile, func(p string) error { return writeSignature(p, rep.Signature) }); err != nil {
		return written, err
	}
	if rep.Table != nil {
		if err := save(TopTableFile, func(p string) error { return writeTopTable(p, rep.Table) }); err != nil {
			return written, err
		}
	}
	for _, part := range rep.Partitions() {
		if err := save(ClassificationFile(part.Name), func(p string) error { return writeClassification(p, part.Results) }); err != nil {
			return written, err
		}
		if err := save(SurvivalFile(part.Name), func(p string) error { return writeCurves(p, part.Curves) }); err != nil {
			return written, err
		}
		if !plots {
			continue
		}
		if err := save(SurvivalPlot(part.Name), func(p string) error { return plotSurvival(p, part) }); err != nil {
			return written, err
		}
		if err := save(CorrelationPlot(part.Name), func(p string) error { return plotCorrelation(p, part) }); err != nil {
			return written, err
		}
	}
	if err := save(SummaryFile, func(p string) error { return writeSummary(p, rep) }); err != nil {
		return written, err
	}
	return written, nil
}
