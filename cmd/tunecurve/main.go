// Package main provides the CLI entrypoint for tunecurve.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/tunecurve/internal/browseui"
	"github.com/verte-zerg/tunecurve/internal/config"
	"github.com/verte-zerg/tunecurve/internal/dataset"
	"github.com/verte-zerg/tunecurve/internal/generator"
	"github.com/verte-zerg/tunecurve/internal/logging"
	"github.com/verte-zerg/tunecurve/internal/model"
	"github.com/verte-zerg/tunecurve/internal/report"
	"github.com/verte-zerg/tunecurve/internal/store"
)

const (
	defaultWorkers       = 1
	defaultFormat        = "text"
	defaultGenerateCount = 10000
	defaultMarkdownWidth = 100
)

var (
	runDB        string
	runBatch     string
	runFormat    string
	runWorkers   int
	runAutoRange bool
	runDebug     bool
	runCurveFile string

	centroidsAll bool

	generateCount   int
	generateSeed    int64
	generateOut     string
	generateOnCurve float64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tunecurve [dataset]",
		Short:         "Saw-tooth difficulty tuner",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runRunCmd,
	}
	addRunFlags(rootCmd)
	rootCmd.Flags().StringVar(&runFormat, "format", defaultFormat, "output format: text, json or markdown")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCentroidsCmd())
	rootCmd.AddCommand(newCurveCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newBatchesCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runDB, "db", "", "read records from this SQLite database instead of a dataset file")
	cmd.Flags().StringVar(&runBatch, "batch", "", "batch id to read from --db (default: latest)")
	cmd.Flags().IntVar(&runWorkers, "workers", defaultWorkers, "aggregation workers")
	cmd.Flags().BoolVar(&runAutoRange, "auto-range", false, "derive table bounds from the curve and records")
	cmd.Flags().BoolVar(&runDebug, "debug", false, "log running totals and centroids")
	cmd.Flags().StringVar(&runCurveFile, "curve", "", "curve file (.yaml, .yml or .toml)")
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dataset]",
		Short: "Aggregate and classify attempt records",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRunCmd,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&runFormat, "format", defaultFormat, "output format: text, json or markdown")
	return cmd
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger := logging.New(os.Stderr, cfg.Debug)
	defer syncLogger(logger)

	rep, err := buildReport(ctx, logger, args, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch cfg.Format {
	case "json":
		err = report.RenderJSON(out, rep.Outcomes, rep.Malformed, rep.Rejected)
	case "markdown":
		err = report.RenderMarkdown(out, rep.Outcomes, rep.Malformed, rep.Rejected, terminalWidth(out), report.ShouldUseColor(out))
	default:
		err = report.RenderText(out, rep, report.ShouldUseColor(out))
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newCentroidsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "centroids [dataset]",
		Short: "Show per-cell centroids",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCentroidsCmd,
	}
	addRunFlags(cmd)
	cmd.Flags().BoolVar(&centroidsAll, "all", false, "include empty cells")
	return cmd
}

func runCentroidsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Debug)
	defer syncLogger(logger)

	rep, err := buildReport(cmd.Context(), logger, args, cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.RenderCentroids(out, rep.Table, centroidsAll); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return report.RenderRejections(out, rep.Malformed, rep.Rejected)
}

func newCurveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Show the saw-tooth curve",
		Args:  cobra.NoArgs,
		RunE:  runCurveCmd,
	}
	cmd.Flags().StringVar(&runCurveFile, "curve", "", "curve file (.yaml, .yml or .toml)")
	return cmd
}

func runCurveCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	curve, err := resolveCurve(cmd, fileCfg)
	if err != nil {
		return err
	}
	return report.RenderCurve(cmd.OutOrStdout(), curve)
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic dataset",
		Args:  cobra.NoArgs,
		RunE:  runGenerateCmd,
	}
	cmd.Flags().IntVar(&generateCount, "count", defaultGenerateCount, "number of records")
	cmd.Flags().Int64Var(&generateSeed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().StringVar(&generateOut, "out", "", "output file (default: stdout)")
	cmd.Flags().Float64Var(&generateOnCurve, "on-curve", 0, "share of records placed on the curve (0-1)")
	cmd.Flags().StringVar(&runCurveFile, "curve", "", "curve file (.yaml, .yml or .toml)")
	return cmd
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	if generateCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	if generateOnCurve < 0 || generateOnCurve > 1 {
		return fmt.Errorf("--on-curve must be between 0 and 1")
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ranges := fileCfg.Ranges.ApplyRanges(model.DefaultRanges())
	if err := ranges.Validate(); err != nil {
		return err
	}

	gen := generator.New()
	if cmd.Flags().Changed("seed") {
		gen = generator.NewSeeded(generateSeed)
	}
	var records []model.AttemptRecord
	if generateOnCurve > 0 {
		curve, err := resolveCurve(cmd, fileCfg)
		if err != nil {
			return err
		}
		records = gen.GenerateOnCurve(generateCount, ranges, curve, generateOnCurve)
	} else {
		records = gen.Generate(generateCount, ranges)
	}

	if generateOut == "" {
		return dataset.Write(cmd.OutOrStdout(), records)
	}
	if err := writeDatasetFile(generateOut, records); err != nil {
		return err
	}
	logErrf("Wrote %d records to %s\n", len(records), generateOut)
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <dataset>",
		Short: "Import a dataset file into the database",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&runDB, "db", "", "database path (default: XDG data dir)")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &runDB, fileCfg.Run.DB)

	records, malformed, err := dataset.Load(args[0])
	if err != nil {
		return err
	}
	for _, m := range malformed {
		logErrf("skipping %v\n", m)
	}

	st, err := openStore(runDB)
	if err != nil {
		return err
	}
	defer closeStore(st)

	batchID, err := st.ImportRecords(cmd.Context(), args[0], records)
	if err != nil {
		return fmt.Errorf("failed to import records: %w", err)
	}
	logErrf("Imported %d records (%d malformed lines skipped)\n", len(records), len(malformed))
	_, err = fmt.Fprintln(cmd.OutOrStdout(), batchID)
	return err
}

func newBatchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List imported batches",
		Args:  cobra.NoArgs,
		RunE:  runBatchesCmd,
	}
	cmd.Flags().StringVar(&runDB, "db", "", "database path (default: XDG data dir)")
	return cmd
}

func runBatchesCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &runDB, fileCfg.Run.DB)

	st, err := openStore(runDB)
	if err != nil {
		return err
	}
	defer closeStore(st)

	batches, err := st.ListBatches(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(batches) == 0 {
		_, err := fmt.Fprintln(out, "No imported batches.")
		return err
	}
	for _, b := range batches {
		if _, err := fmt.Fprintf(out, "%s  %s  %7d  %s\n",
			b.ID, b.ImportedAt.Local().Format("2006-01-02 15:04"), b.Records, b.Source); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [dataset]",
		Short: "Explore a run interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBrowseCmd,
	}
	addRunFlags(cmd)
	return cmd
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	// Debug output would tear the alternate screen.
	logger := logging.New(io.Discard, false)
	rep, err := buildReport(cmd.Context(), logger, args, cfg)
	if err != nil {
		return err
	}
	program := tea.NewProgram(browseui.NewModel(rep), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run browse TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeDefaultConfig(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

// loadRunConfig merges the config file under the command's flags.
func loadRunConfig(cmd *cobra.Command) (model.RunConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.RunConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &runDB, fileCfg.Run.DB)
	applyStringConfig(cmd, "format", &runFormat, fileCfg.Run.Format)
	applyIntConfig(cmd, "workers", &runWorkers, fileCfg.Run.Workers)
	applyBoolConfig(cmd, "auto-range", &runAutoRange, fileCfg.Run.AutoRange)
	applyBoolConfig(cmd, "debug", &runDebug, fileCfg.Run.Debug)

	curve, err := resolveCurve(cmd, fileCfg)
	if err != nil {
		return model.RunConfig{}, err
	}
	cfg := model.RunConfig{
		Curve:      curve,
		Ranges:     fileCfg.Ranges.ApplyRanges(model.DefaultRanges()),
		AutoRange:  runAutoRange,
		AutoLimits: fileCfg.Ranges.ApplyLimits(model.DefaultRangeLimits()),
		Workers:    runWorkers,
		Format:     runFormat,
		Debug:      runDebug,
	}
	if err := validateRunConfig(cfg); err != nil {
		return model.RunConfig{}, err
	}
	return cfg, nil
}

// resolveCurve picks --curve, then curve-file, then the [curve] table, then
// the built-in curve.
func resolveCurve(cmd *cobra.Command, fileCfg config.FileConfig) (model.Curve, error) {
	applyStringConfig(cmd, "curve", &runCurveFile, fileCfg.Run.CurveFile)
	if runCurveFile != "" {
		return config.LoadCurveFile(runCurveFile)
	}
	return fileCfg.CurveOrDefault()
}

func validateRunConfig(cfg model.RunConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("--workers must be > 0")
	}
	if cfg.AutoRange {
		if cfg.AutoLimits.MaxLevel <= 0 || cfg.AutoLimits.MaxAttempts < 0 {
			return fmt.Errorf("invalid [ranges] auto limits: level %d, attempts %d", cfg.AutoLimits.MaxLevel, cfg.AutoLimits.MaxAttempts)
		}
	} else if err := cfg.Ranges.Validate(); err != nil {
		return fmt.Errorf("invalid [ranges]: %w", err)
	}
	return validateFormat(cfg.Format)
}

func validateFormat(format string) error {
	switch format {
	case "text", "json", "markdown":
		return nil
	default:
		return fmt.Errorf("--format must be one of text, json, markdown (got %q)", format)
	}
}

func buildReport(ctx context.Context, logger *zap.Logger, args []string, cfg model.RunConfig) (report.Report, error) {
	records, malformed, err := loadRecords(ctx, args)
	if err != nil {
		return report.Report{}, err
	}
	logger.Info("records loaded", zap.Int("records", len(records)), zap.Int("malformed", len(malformed)))
	return report.BuildReport(ctx, logger, records, malformed, cfg)
}

// loadRecords reads the dataset argument, "-" for stdin, or the --db batch.
func loadRecords(ctx context.Context, args []string) ([]model.AttemptRecord, []*dataset.MalformedRecordError, error) {
	if len(args) == 1 {
		if args[0] == "-" {
			return dataset.Read(os.Stdin)
		}
		return dataset.Load(args[0])
	}
	if runDB == "" {
		return nil, nil, fmt.Errorf("a dataset path or --db is required")
	}
	st, err := openStore(runDB)
	if err != nil {
		return nil, nil, err
	}
	defer closeStore(st)
	records, err := st.ListRecords(ctx, runBatch)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read records from db: %w", err)
	}
	return records, nil, nil
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func writeDatasetFile(path string, records []model.AttemptRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "dataset-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := dataset.Write(tmpFile, records); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close dataset: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

func terminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok {
		return defaultMarkdownWidth
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return defaultMarkdownWidth
	}
	return width
}

func syncLogger(logger *zap.Logger) {
	if err := logger.Sync(); err != nil {
		// Best-effort flush; stderr sync fails on some terminals.
		_ = err
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := model.DefaultRanges()
	limits := model.DefaultRangeLimits()
	return fmt.Sprintf(`# tunecurve configuration
# Uncomment a value to enable it. CLI flags override config values.

[run]
# workers = %d            # Aggregation workers
# format = %q         # Output format: text, json or markdown
# auto-range = false     # Derive table bounds from the data
# debug = false          # Log running totals and centroids
# curve-file = ""        # YAML or TOML curve file
# db = ""                # SQLite record source

[ranges]
# min-level = %d
# max-level = %d
# min-attempts = %d
# max-attempts = %d
# auto-max-level = %d      # --auto-range never grows past these
# auto-max-attempts = %d

# Target attempts per level. Replaces the built-in curve when present.
# [curve]
# 1 = 1
# 2 = 2
# 3 = 3
# 4 = 1
`,
		defaultWorkers,
		defaultFormat,
		defaults.MinLevel,
		defaults.MaxLevel,
		defaults.MinAttempts,
		defaults.MaxAttempts,
		limits.MaxLevel,
		limits.MaxAttempts,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
