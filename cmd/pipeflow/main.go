package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/pipeflow/internal/config"
	"github.com/san-kum/pipeflow/internal/director"
	"github.com/san-kum/pipeflow/internal/metrics"
	"github.com/san-kum/pipeflow/internal/render"
	"github.com/san-kum/pipeflow/internal/storage"
	"github.com/san-kum/pipeflow/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	frameRate  int
	outDir     string
	flat       bool
	workers    int
	verbose    bool
	theme      string
	color      bool
	exportPath string
	follow     bool

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pipeflow",
		Short: "animated five-stage pipeline optimization",
		Long: `pipeflow plays a scripted optimization of a five-stage business pipeline:
the bottleneck stage is highlighted, widened with an overshoot and settle,
and marked improved, three times over.

Run without arguments to play it in the terminal.`,
		PersistentPreRunE: setupLogger,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: runPlay,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".pipeflow", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	pf.StringVar(&preset, "preset", "", "motion preset ("+fmt.Sprint(config.ListPresets())+")")
	pf.IntVar(&frameRate, "fps", config.DefaultFPS, "frame rate")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "play the choreography in an interactive terminal player",
		RunE:  runPlay,
	}
	playCmd.Flags().StringVar(&theme, "theme", "minimal", "player theme")
	rootCmd.Flags().StringVar(&theme, "theme", "minimal", "player theme")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render SVG frames and store the run",
		RunE:  runRender,
	}
	renderCmd.Flags().StringVarP(&outDir, "out", "o", "frames", "output directory")
	renderCmd.Flags().BoolVar(&flat, "flat", false, "flat fills only")
	renderCmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "concurrent frame encoders")
	renderCmd.Flags().StringVar(&exportPath, "export", "", "also write the full run as JSON")

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "print the decision of every step without rendering",
		RunE:  runPlan,
	}

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "print the final frame",
		RunE:  runPreview,
	}
	previewCmd.Flags().BoolVar(&color, "color", true, "colored output")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "stream frames to the terminal in real time",
		RunE:  runWatch,
	}
	watchCmd.Flags().BoolVar(&color, "color", true, "colored output")
	watchCmd.Flags().BoolVarP(&follow, "follow", "f", false, "replay whenever --config changes")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stage capacities of a stored run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print a stored run with its per-frame history as JSON (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list motion presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tOVERSHOOT\tBOOST\tMAX THICKNESS\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%s\n",
					name, p.OvershootFactor, p.FinalThicknessBoost, p.MaxThickness, p.Description)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config (with --preset applied)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configCmd.AddCommand(configInitCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every variant of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().StringVarP(&scenarioOut, "out", "o", "", "render SVG frames per variant under this directory")
	scenarioCmd.Flags().BoolVar(&flat, "flat", false, "flat fills only")
	scenarioCmd.Flags().IntVar(&scenarioWorkers, "workers", 2, "variants run at once")

	sweepCmd := &cobra.Command{
		Use:   "sweep [param]",
		Short: "plan a range of one motion parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1.0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "plan randomized starting capacities",
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().IntVar(&perturb, "perturb", 10, "max capacity jitter per stage")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	rootCmd.AddCommand(playCmd, renderCmd, planCmd, previewCmd, watchCmd, listCmd, plotCmd,
		exportCmd, presetsCmd, configCmd, scenarioCmd, sweepCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(cmd *cobra.Command, args []string) error {
	// The player owns the screen; only log there when asked to.
	interactive := cmd.Name() == "pipeflow" || cmd.Name() == "play" || cmd.Name() == "watch"
	if interactive && !verbose {
		return nil
	}
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// loadConfig layers defaults, --config, --preset and --fps, then validates.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return config.Config{}, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p.Apply(cfg)
	}
	if cmd.Flags().Changed("fps") || configFile == "" {
		cfg.FPS = frameRate
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func play(ctx context.Context, cfg config.Config, sinks ...render.Sink) (*director.Result, error) {
	d, err := director.New(cfg,
		director.WithSinks(sinks...),
		director.WithMetrics(metrics.Defaults()...),
		director.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	rec := render.NewRecorder()
	if _, err := play(ctx, cfg, rec); err != nil {
		return err
	}
	return tui.Run(rec.Frames, cfg.FPS, tui.WithTheme(tui.GetTheme(theme)))
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	opts := render.DefaultSVGOptions()
	opts.Flat = flat
	opts.Workers = workers
	svg, err := render.NewSVGSink(outDir, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := play(ctx, cfg, svg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := saveRun(cfg, result)
	if err != nil {
		return err
	}
	if exportPath != "" {
		if err := writeExport(exportPath, cfg, result); err != nil {
			return err
		}
	}

	fmt.Printf("rendered %d frames (%.2fs) to %s in %v\n", svg.Written(), result.Duration, outDir, elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("capacities: %v -> %v\n", result.Baseline, result.Final)
	fmt.Println("\nmetrics:")
	for _, m := range metrics.Defaults() {
		fmt.Printf("  %s: %.3f\n", m.Name(), result.Metrics[m.Name()])
	}
	return nil
}

func saveRun(cfg config.Config, result *director.Result) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(runMeta(cfg), result)
}

func runMeta(cfg config.Config) storage.RunMetadata {
	stages := make([]string, len(cfg.Stages))
	for i, s := range cfg.Stages {
		stages[i] = s.Label
	}
	return storage.RunMetadata{Config: cfg.Name, Preset: preset, FPS: cfg.FPS, Stages: stages}
}

func writeExport(path string, cfg config.Config, result *director.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return storage.ExportJSON(f, runMeta(cfg), result)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTAGE\tCURRENT\tTARGET\tDELTA\tMID\tFINAL T\tOVERSHOOT T")
	for _, d := range director.Plan(cfg) {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%.1f\t%.3f\t%.3f\n",
			d.Step, cfg.Stages[d.Bottleneck].Label, d.Current, d.Target, d.Delta,
			d.Mid, d.FinalThickness, d.OvershootThickness)
	}
	return w.Flush()
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rec := render.NewRecorder()
	if _, err := play(context.Background(), cfg, rec); err != nil {
		return err
	}

	canvas := render.NewCanvas(96, 24)
	if err := canvas.Draw(rec.Last()); err != nil {
		return err
	}
	if color {
		fmt.Print(canvas.Styled())
	} else {
		fmt.Print(canvas.String())
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	watch := func(cfg config.Config) error {
		term := render.NewTerminalSink(os.Stdout, 96, 24)
		term.Realtime = true
		term.Color = color
		_, err := play(ctx, cfg, term)
		return err
	}
	if err := watch(cfg); err != nil {
		return err
	}
	if !follow {
		return nil
	}
	if configFile == "" {
		return fmt.Errorf("--follow needs --config")
	}
	return config.Watch(ctx, configFile, config.DefaultDebounce, logger, func(next config.Config) {
		if preset != "" {
			next = config.GetPreset(preset).Apply(next)
		}
		if err := watch(next); err != nil {
			logger.Warn("replay failed", zap.Error(err))
		}
	})
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "pipeflow.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
