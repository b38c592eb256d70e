package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/config"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/loader"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/pipeline"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/report"
)

var version = "dev"

var (
	// Global flags
	verbose bool

	// Run flags
	configPath string
	exprPath   string
	metaPath   string
	annotPath  string
	seed       int64
	size       int
	outDir     string
	stratified bool
	noPlots    bool

	// Simulate flags
	simGenes       int
	simSamples     int
	simInformative int
	simMissing     float64

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "signature",
	Short: "Derive and validate a prognostic gene-expression signature",
	Long: `signature derives a prognostic signature from a labelled expression
cohort: it cleans and imputes the data, splits it into training and
validation sets, ranks genes with an empirical Bayes moderated t-test,
classifies samples by correlation with the mean expression of each risk
class and compares the survival of the predicted groups.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis and write the report",
	Long: `Loads the expression, metadata and optional annotation tables named in the
config file (or given as flags), runs every stage and writes tables, a YAML
summary and plots to the output directory.

Example:
  signature run --config nki.yaml --seed 42 --out results`,
	RunE: runAnalysis,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Write a synthetic cohort usable by run",
	RunE:  simulate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	runCmd.Flags().StringVar(&exprPath, "expr", "", "Expression table (overrides config)")
	runCmd.Flags().StringVar(&metaPath, "meta", "", "Sample metadata table (overrides config)")
	runCmd.Flags().StringVar(&annotPath, "annot", "", "Probe annotation table (overrides config)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Split seed (0 derives one from the clock)")
	runCmd.Flags().IntVar(&size, "size", 0, "Signature size (overrides config)")
	runCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (overrides config)")
	runCmd.Flags().BoolVar(&stratified, "stratified", false, "Stratify the split by risk class")
	runCmd.Flags().BoolVar(&noPlots, "no-plots", false, "Skip PNG plots")

	simulateCmd.Flags().IntVar(&simGenes, "genes", 500, "Number of probes")
	simulateCmd.Flags().IntVar(&simSamples, "samples", 120, "Number of samples")
	simulateCmd.Flags().IntVar(&simInformative, "informative", 40, "Probes that differ between risk classes")
	simulateCmd.Flags().Float64Var(&simMissing, "missing", 0.01, "Fraction of missing expression values")
	simulateCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 derives one from the clock)")
	simulateCmd.Flags().StringVarP(&outDir, "out", "o", "synthetic", "Output directory")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(configPath); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("expr") {
		cfg.Input.Expression = exprPath
	}
	if flags.Changed("meta") {
		cfg.Input.Metadata = metaPath
	}
	if flags.Changed("annot") {
		cfg.Input.Annotation = annotPath
	}
	if flags.Changed("seed") {
		cfg.Split.Seed = seed
	}
	if flags.Changed("size") {
		cfg.Signature.Size = size
	}
	if flags.Changed("out") {
		cfg.Output.Dir = outDir
	}
	if flags.Changed("stratified") {
		cfg.Split.Stratified = stratified
	}
	if noPlots {
		cfg.Output.Plots = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, cfg.ValidateInput()
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ds, err := data.Load(cfg.Input.Expression, cfg.Input.Metadata, cfg.Input.Annotation, cfg.Input.Schema)
	if err != nil {
		return err
	}
	logger.Info("Loaded dataset",
		zap.String("expression", cfg.Input.Expression),
		zap.Int("genes", ds.NumGenes()),
		zap.Int("samples", ds.NumSamples()),
		zap.Float64("missing_fraction", ds.MissingFraction()))

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	rep, err := p.Run(ds)
	if err != nil {
		return err
	}

	written, err := report.Write(cfg.Output.Dir, rep, cfg.Output.Plots)
	if err != nil {
		return err
	}
	if err := cfg.SaveToFile(filepath.Join(cfg.Output.Dir, "config.yaml")); err != nil {
		return err
	}
	logger.Info("Wrote report", zap.String("dir", cfg.Output.Dir), zap.Int("files", len(written)+1))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seed %d, signature of %d genes\n", rep.Seed, len(rep.Signature))
	for _, part := range rep.Partitions() {
		ev := part.Evaluation
		fmt.Fprintf(out, "%-10s n=%-4d accuracy=%.3f false-high=%.3f false-low=%.3f log-rank p=%.3g\n",
			part.Name, ev.N, ev.Accuracy, ev.FalseHighRate, ev.FalseLowRate, part.LogRank.P)
	}
	return nil
}

func simulate(cmd *cobra.Command, args []string) error {
	cfg := data.DefaultSyntheticConfig()
	cfg.Genes, cfg.Samples, cfg.Informative, cfg.MissingRate = simGenes, simSamples, simInformative, simMissing

	rng, usedSeed := loader.NewSource(seed)
	ds, err := data.Synthesize(cfg, rng)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	schema := data.DefaultSchema()
	run := config.DefaultConfig()
	run.Input.Expression = "expression.tsv.gz"
	run.Input.Metadata = "metadata.csv"
	run.Input.Annotation = "annotation.csv"
	run.Output.Dir = "results"
	if err := data.WriteExpression(filepath.Join(outDir, run.Input.Expression), ds); err != nil {
		return err
	}
	if err := data.WriteMetadata(filepath.Join(outDir, run.Input.Metadata), ds, schema); err != nil {
		return err
	}
	if err := data.WriteAnnotation(filepath.Join(outDir, run.Input.Annotation), ds, schema); err != nil {
		return err
	}
	if err := run.SaveToFile(filepath.Join(outDir, "config.yaml")); err != nil {
		return err
	}
	logger.Info("Wrote synthetic cohort",
		zap.String("dir", outDir),
		zap.Int64("seed", usedSeed),
		zap.Int("genes", ds.NumGenes()),
		zap.Int("samples", ds.NumSamples()))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (seed %d); run with: signature run --config %s\n",
		outDir, usedSeed, filepath.Join(outDir, "config.yaml"))
	return nil
}
