package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/diffexpr"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/model"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/signature"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/survival"
)

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// writeCSV writes a header and rows to path.
func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var rowHeader = []string{"probe", "symbol", "logFC", "AveExpr", "t", "P.Value", "adj.P.Val", "B"}

func rowFields(r diffexpr.Row) []string {
	return []string{r.Gene, r.Symbol, ftoa(r.LogFC), ftoa(r.AveExpr), ftoa(r.T), ftoa(r.P), ftoa(r.AdjP), ftoa(r.B)}
}

func writeSignature(path string, sig signature.List) error {
	rows := make([][]string, len(sig))
	for i, g := range sig {
		rows[i] = append([]string{strconv.Itoa(g.Rank)}, rowFields(g.Row)...)
	}
	return writeCSV(path, append([]string{"rank"}, rowHeader...), rows)
}

func writeTopTable(path string, tab *diffexpr.Table) error {
	rows := make([][]string, len(tab.Rows))
	for i, r := range tab.Rows {
		rows[i] = rowFields(r)
	}
	return writeCSV(path, rowHeader, rows)
}

func writeClassification(path string, results []model.Result) error {
	rows := make([][]string, len(results))
	for i, r := range results {
		event := "0"
		if r.Event {
			event = "1"
		}
		rows[i] = []string{r.ID, ftoa(r.CorLow), ftoa(r.CorHigh), r.True.String(), r.Predicted.String(), ftoa(r.Time), event}
	}
	return writeCSV(path, []string{"sample", "cor_low", "cor_high", "true", "predicted", "time", "event"}, rows)
}

func writeCurves(path string, curves [2]*survival.Curve) error {
	var rows [][]string
	for _, c := range curves {
		if c == nil {
			continue
		}
		for _, p := range c.Points {
			rows = append(rows, []string{
				c.Label, ftoa(p.Time),
				strconv.Itoa(p.AtRisk), strconv.Itoa(p.Events), strconv.Itoa(p.Censored),
				ftoa(p.Survival), ftoa(p.StdErr), ftoa(p.Lower), ftoa(p.Upper),
			})
		}
	}
	return writeCSV(path, []string{"group", "time", "n_risk", "n_event", "n_censor", "survival", "std_err", "lower", "upper"}, rows)
}
