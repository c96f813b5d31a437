package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pipeflow/internal/automation"
	"github.com/san-kum/pipeflow/internal/config"
	"github.com/san-kum/pipeflow/internal/render"
	"github.com/san-kum/pipeflow/internal/storage"
)

var (
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int
	perturb    int
	seed       int64

	scenarioOut     string
	scenarioWorkers int
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONFIG\tPRESET\tTIME\tFRAMES\tDURATION\tFINAL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2fs\t%v\n",
			run.ID,
			run.Config,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Duration,
			run.Final,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRunID(st, args)
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	caps, _, err := st.LoadCapacities(runID)
	if err != nil {
		return err
	}
	if len(caps) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("frames: %d\n\n", len(caps))

	series := make([][]float64, len(caps[0]))
	throughput := make([]float64, len(caps))
	for i, row := range caps {
		throughput[i] = row[0]
		for j, v := range row {
			if j < len(series) {
				series[j] = append(series[j], v)
			}
			throughput[i] = min(throughput[i], v)
		}
	}

	for j, data := range series {
		caption := fmt.Sprintf("cap%d", j)
		if j < len(meta.Stages) {
			caption = meta.Stages[j]
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(6),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		))
		fmt.Println()
	}
	fmt.Println(asciigraph.Plot(throughput,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("system throughput"),
	))
	return nil
}

// resolveRunID returns the id given on the command line, or the latest run.
func resolveRunID(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	latest, err := st.Latest()
	if err != nil {
		return "", err
	}
	if latest == "" {
		return "", fmt.Errorf("no runs found in %s", dataDir)
	}
	return latest, nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRunID(st, args)
	if err != nil {
		return err
	}
	return st.Export(os.Stdout, runID)
}

func runScenario(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	runner := &automation.Runner{
		Base:    base,
		Logger:  logger,
		Workers: scenarioWorkers,
	}
	if scenarioOut != "" {
		runner.Sinks = func(name string, _ config.Config) ([]render.Sink, error) {
			opts := render.DefaultSVGOptions()
			opts.Flat = flat
			svg, err := render.NewSVGSink(filepath.Join(scenarioOut, name), opts)
			if err != nil {
				return nil, err
			}
			return []render.Sink{svg}, nil
		}
	}

	logger.Info("running scenario",
		zap.String("scenario", scenario.Name),
		zap.Int("variants", len(scenario.Variants)),
	)
	results, err := runner.Run(ctx, scenario)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tRUN ID\tFRAMES\tFINAL\tTHROUGHPUT\tPEAK T")
	for _, r := range results {
		runID, err := saveRun(r.Config, r.Result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%.0f\t%.3f\n",
			r.Name, runID, r.Result.Frames, r.Result.Final,
			r.Result.Metrics["throughput"], r.Result.Metrics["peak_thickness"])
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	results, err := automation.RunSweep(base, automation.Sweep{
		Param:    args[0],
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTHROUGHPUT\tPEAK OVERSHOOT\tTARGETS\n", args[0])
	for _, r := range results {
		targets := make([]int, len(r.Decisions))
		for i, d := range r.Decisions {
			targets[i] = d.Target
		}
		fmt.Fprintf(w, "%.3f\t%d\t%.3f\t%v\n", r.Value, r.FinalThroughput, r.PeakOvershoot, targets)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	results, err := automation.RunMonteCarlo(base, automation.MonteCarloConfig{
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	gains := make([]float64, len(results))
	for i, r := range results {
		gains[i] = float64(r.Gain)
	}
	improved, flatCount := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d  improved: %d  unchanged: %d\n\n", len(results), improved, flatCount)
	if len(gains) > 1 {
		fmt.Println(asciigraph.Plot(gains,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption("throughput gain per trial"),
		))
	}
	return nil
}
