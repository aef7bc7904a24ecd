package main

import (
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/biodyn/internal/analysis"
	"github.com/san-kum/biodyn/internal/config"
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/experiment"
	"github.com/san-kum/biodyn/internal/storage"
)

func runCommand() *cobra.Command {
	var flags simFlags
	var noSave bool
	cmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := flags.experiment(optionalArg(args))
			if err != nil {
				return err
			}
			meta := exp.Metadata()
			exp.GetSimulator().AddObserver(experiment.NewProgress(log, meta.Duration))

			fmt.Printf("running %s simulation...\n", meta.Model)
			start := time.Now()
			result, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Printf("completed in %v\n", elapsed)
			if !noSave {
				st, err := store()
				if err != nil {
					return err
				}
				runID, err := st.Save(meta, result)
				if err != nil {
					return err
				}
				fmt.Printf("run id: %s\n", runID)
			}
			fmt.Printf("steps: %d\n", result.StepsTaken)
			fmt.Printf("samples: %d\n", len(result.States))
			printFinal(meta.Labels, result.Final())
			printMetrics(result.Metrics)
			for _, e := range result.Errors {
				fmt.Printf("warning: %v\n", e)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}

func printFinal(labels []string, x dynamo.State) {
	if len(x) > 8 {
		return
	}
	fmt.Println("\nfinal state:")
	for i, v := range x {
		fmt.Printf("  %s: %.6g\n", labels[i], v)
	}
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir, log).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODEL\tPRESET\tTIME\tDURATION\tDT\tINTEG\tSTIM")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.4g\t%s\t%s\n",
					run.ID,
					run.Model,
					run.Preset,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Duration,
					run.Dt,
					run.Integrator,
					run.Stimulus,
				)
			}
			return w.Flush()
		},
	}
}

// loadRun reads a stored run, the latest one when no id is given.
func loadRun(args []string) (*storage.RunMetadata, *dynamo.Result, error) {
	st := storage.New(dataDir, log)
	var meta *storage.RunMetadata
	var err error
	if len(args) == 0 {
		meta, err = st.Latest()
	} else {
		meta, err = st.Load(args[0])
	}
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadStates(meta.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(result.States) == 0 {
		return nil, nil, fmt.Errorf("run %s: no data", meta.ID)
	}
	return meta, result, nil
}

func component(result *dynamo.Result, k int) []float64 {
	data := make([]float64, len(result.States))
	for i, s := range result.States {
		data[i] = s[k]
	}
	return data
}

func plotCommand() *cobra.Command {
	var components []int
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := loadRun(args)
			if err != nil {
				return err
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("model: %s\n", meta.Model)
			fmt.Printf("samples: %d\n\n", len(result.States))

			dim := len(result.States[0])
			if len(components) == 0 {
				for i := range min(dim, 6) {
					components = append(components, i)
				}
			}
			for _, k := range components {
				if k < 0 || k >= dim {
					return fmt.Errorf("component %d out of range [0, %d): %w", k, dim, dynamo.ErrDimensionMismatch)
				}
				graph := asciigraph.Plot(component(result, k),
					asciigraph.Height(10),
					asciigraph.Width(80),
					asciigraph.Caption(fmt.Sprintf("%s vs time", meta.Labels[k])),
				)
				fmt.Println(graph)
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().IntSliceVarP(&components, "component", "c", nil, "state components to plot")
	return cmd
}

func analyzeCommand() *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := loadRun(args)
			if err != nil {
				return err
			}
			if k < 0 || k >= len(result.States[0]) {
				return fmt.Errorf("component %d: %w", k, dynamo.ErrDimensionMismatch)
			}
			if len(result.Times) < 4 {
				return fmt.Errorf("run %s: too few samples", meta.ID)
			}

			fmt.Printf("frequency analysis: %s\n", meta.ID)
			fmt.Printf("model: %s\n\n", meta.Model)

			// skip the first half as transient
			data := component(result, k)
			data = data[len(data)/2:]
			ps := analysis.PowerSpectrum(data)
			graph := asciigraph.Plot(ps[1:max(len(ps)/4, 2)],
				asciigraph.Height(15),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", meta.Labels[k])),
			)
			fmt.Println(graph)
			fmt.Println()

			period, err := analysis.DominantPeriod(data, result.Times[1]-result.Times[0])
			if err != nil {
				fmt.Println("no oscillation detected")
				return nil
			}
			fmt.Printf("dominant period: %.3f\n", period)
			fmt.Printf("frequency: %.4f\n", 1/period)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "component", "c", 0, "state component")
	return cmd
}

func exportCSVCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := loadRun(args)
			if err != nil {
				return err
			}
			return storage.WriteCSV(os.Stdout, meta.Labels, result)
		},
	}
}

func exportJSONCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := loadRun(args)
			if err != nil {
				return err
			}
			return storage.ExportJSON(os.Stdout, *meta, result)
		},
	}
}

// analytic is implemented by models with a closed-form solution.
type analytic interface {
	Analytic(t float64) float64
}

func compareCommand() *cobra.Command {
	var flags simFlags
	cmd := &cobra.Command{
		Use:   "compare [model] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, names := args[0], args[1:]
			if len(names) == 0 {
				names = registry.ListIntegrators()
			}
			base, err := flags.resolve(model)
			if err != nil {
				return err
			}

			fmt.Printf("comparing integrators for %s\n\n", model)
			fmt.Printf("%-12s  %8s  %14s  %12s  %12s  %10s\n", "integrator", "steps", "final_x0", "error", "drift", "time_ms")
			fmt.Println(strings.Repeat("-", 78))

			for _, name := range names {
				cfg := base.Clone()
				cfg.Integrator = name
				cfg.Adaptive = name == "rk45"
				if err := cfg.Validate(registry); err != nil {
					fmt.Printf("%-12s  error: %v\n", name, err)
					continue
				}
				exp := experiment.New(registry, cfg.Experiment(), experiment.WithLogger(log))
				if err := exp.Setup(); err != nil {
					return err
				}

				start := time.Now()
				result, err := exp.Run(cmd.Context())
				elapsed := time.Since(start)
				if err != nil {
					fmt.Printf("%-12s  error: %v\n", name, err)
					continue
				}

				final := result.Final()[0]
				errStr, drift := "-", "-"
				if a, ok := exp.System().(analytic); ok {
					errStr = fmt.Sprintf("%.3e", math.Abs(final-a.Analytic(result.Times[len(result.Times)-1])))
				}
				if d, ok := result.Metrics["invariant_drift"]; ok {
					drift = fmt.Sprintf("%.3e", d)
				}
				fmt.Printf("%-12s  %8d  %14.6f  %12s  %12s  %10.2f\n",
					name, result.StepsTaken, final, errStr, drift, float64(elapsed.Microseconds())/1000)
				log.Debug("integrator compared", zap.String("integrator", name), zap.Duration("elapsed", elapsed))
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models := config.ListModels()
			if len(args) > 0 {
				models = args
			}
			for _, model := range models {
				presets := config.ListPresets(model)
				if len(presets) == 0 {
					fmt.Printf("no presets for model: %s\n", model)
					continue
				}
				fmt.Printf("presets for %s:\n", model)
				for _, p := range presets {
					cfg := config.GetPreset(model, p)
					fmt.Printf("  %-18s %s\n", p, describePreset(cfg))
				}
			}
			return nil
		},
	}
}

func describePreset(cfg *config.Config) string {
	var parts []string
	keys := make([]string, 0, len(cfg.Params))
	for k := range cfg.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", k, cfg.Params[k]))
	}
	if cfg.Stimulus != "" {
		parts = append(parts, "stimulus="+cfg.Stimulus)
	}
	if cfg.Dt != 0 {
		parts = append(parts, fmt.Sprintf("dt=%g", cfg.Dt))
	}
	return strings.Join(parts, " ")
}

func modelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "list models with their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tDIM\tDT\tDURATION\tSTIMULUS\tPARAMS")
			for _, name := range registry.ListModels() {
				info, err := registry.ModelInfo(name)
				if err != nil {
					return err
				}
				sys := info.New()
				var params []string
				if c, ok := sys.(dynamo.Configurable); ok {
					for k := range c.GetParams() {
						params = append(params, k)
					}
				}
				slices.Sort(params)
				fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%s\t%s\n",
					name, sys.StateDim(), info.Dt, info.Duration, info.Stimulus, strings.Join(params, ","))
			}
			return w.Flush()
		},
	}
}
