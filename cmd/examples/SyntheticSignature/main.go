package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/config"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/pipeline"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/report"
)

//
// Runs the whole signature pipeline on generated data and writes the report
// (tables, summary.yaml, Kaplan-Meier and correlation plots) per demo.
//
// --out    : Output directory. Default = ./synthetic_signature
// --seed   : Seed for data generation and the split. Default = 2020
// --stress : Also run a larger cohort
//
// Example:
//   go run ./cmd/examples/SyntheticSignature --out /tmp/sig --stress
//

// printPartitions prints the headline numbers of every partition.
func printPartitions(rep *pipeline.Report) {
	fmt.Printf("%-12s%-8s%-10s%-12s%-12s%-12s\n", "partition", "n", "accuracy", "false-high", "false-low", "log-rank p")
	for _, part := range rep.Partitions() {
		ev := part.Evaluation
		fmt.Printf("%-12s%-8d%-10.3f%-12.3f%-12.3f%-12.3g\n",
			part.Name, ev.N, ev.Accuracy, ev.FalseHighRate, ev.FalseLowRate, part.LogRank.P)
	}
}

// run executes the pipeline on ds and writes the report under dir.
func run(ds *data.Dataset, cfg *config.Config, logger *zap.Logger, dir string) *pipeline.Report {
	start := time.Now()
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	rep, err := p.Run(ds)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Pipeline completed in %v\n", time.Since(start))

	written, err := report.Write(dir, rep, true)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %d files to %s\n", len(written), dir)
	return rep
}

func main() {
	outDir := flag.String("out", "synthetic_signature", "Output directory")
	seed := flag.Int64("seed", 2020, "Random seed")
	stress := flag.Bool("stress", false, "Also run a larger cohort")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	rng := rand.New(rand.NewSource(*seed))

	// --- Two clusters: every gene separates the classes ---
	fmt.Println("=== Two clusters: 10 genes x 20 samples ===")
	a := make([]float64, 10)
	b := make([]float64, 10)
	for i := range a {
		a[i] = float64(i + 1)
		b[i] = float64(10 - i)
	}
	ds, err := data.TwoClusters(a, b, 10, 0.3, rng)
	if err != nil {
		log.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Filter.Enabled = false
	cfg.Signature.Size = 10
	cfg.Split.Seed = *seed
	cfg.Split.Stratified = true
	rep := run(ds, cfg, logger, filepath.Join(*outDir, "two_clusters"))
	fmt.Printf("Signature: %v\n", rep.Signature.IDs())
	printPartitions(rep)
	fmt.Println()

	// --- Cohort: informative genes hidden among noise, with missing values ---
	fmt.Println("=== Synthetic cohort ===")
	scfg := data.DefaultSyntheticConfig()
	ds, err = data.Synthesize(scfg, rng)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Generated %d genes x %d samples, %.2f%% missing.\n", ds.NumGenes(), ds.NumSamples(), 100*ds.MissingFraction())
	cfg = config.DefaultConfig()
	cfg.Split.Seed = *seed
	cfg.Split.Stratified = true
	rep = run(ds, cfg, logger, filepath.Join(*outDir, "cohort"))
	informative := 0
	for _, g := range rep.Signature {
		var idx int
		if _, err := fmt.Sscanf(g.Gene, "P%05d_at", &idx); err == nil && idx <= scfg.Informative {
			informative++
		}
	}
	fmt.Printf("Signature holds %d of %d informative genes (size %d).\n", informative, scfg.Informative, len(rep.Signature))
	printPartitions(rep)
	fmt.Println()

	if !*stress {
		return
	}

	// --- Stress: larger cohort ---
	fmt.Println("=== Stress: 20000 genes x 400 samples ===")
	scfg.Genes, scfg.Samples, scfg.Informative = 20000, 400, 200
	start := time.Now()
	ds, err = data.Synthesize(scfg, rng)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Generated in %v\n", time.Since(start))
	cfg = config.DefaultConfig()
	cfg.Split.Seed = *seed
	cfg.Split.Stratified = true
	rep = run(ds, cfg, logger, filepath.Join(*outDir, "stress"))
	printPartitions(rep)
}
