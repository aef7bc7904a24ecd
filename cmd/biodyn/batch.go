package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/biodyn/internal/automation"
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/experiment"
	"github.com/san-kum/biodyn/internal/optim"
	"github.com/san-kum/biodyn/internal/storage"
)

func sweepCommand() *cobra.Command {
	var flags simFlags
	var sweep automation.ParameterSweep
	cmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "run one simulation per parameter value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := flags.resolve(optionalArg(args))
			if err != nil {
				return err
			}
			sweep.Base = base

			runner := automation.NewRunner(registry, nil, log)
			results, err := runner.RunSweep(cmd.Context(), &sweep)
			if err != nil {
				return err
			}

			var names []string
			for _, r := range results {
				for name := range r.Metrics {
					if !slices.Contains(names, name) {
						names = append(names, name)
					}
				}
			}
			slices.Sort(names)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tFINAL_X0\t%s\n", strings.ToUpper(sweep.ParamName), strings.ToUpper(strings.Join(names, "\t")))
			for _, r := range results {
				row := []string{fmt.Sprintf("%.4g", r.ParamValue), "-"}
				if len(r.FinalState) > 0 {
					row[1] = fmt.Sprintf("%.6g", r.FinalState[0])
				}
				for _, name := range names {
					if v, ok := r.Metrics[name]; ok {
						row = append(row, fmt.Sprintf("%.6g", v))
					} else {
						row = append(row, "-")
					}
				}
				fmt.Fprintln(w, strings.Join(row, "\t"))
				for _, e := range r.Errors {
					fmt.Fprintf(w, "\twarning: %v\n", e)
				}
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&sweep.ParamName, "sweep-param", "", "parameter to sweep")
	cmd.Flags().Float64Var(&sweep.ParamMin, "min", 0, "parameter minimum")
	cmd.Flags().Float64Var(&sweep.ParamMax, "max", 1, "parameter maximum")
	cmd.Flags().IntVar(&sweep.NumSteps, "steps", 11, "number of values")
	cmd.Flags().IntVar(&sweep.Parallel, "parallel", 0, "concurrent runs (0 = all CPUs)")
	_ = cmd.MarkFlagRequired("sweep-param")
	return cmd
}

func basinCommand() *cobra.Command {
	var flags simFlags
	var bc automation.BasinConfig
	cmd := &cobra.Command{
		Use:   "basin [model]",
		Short: "sample initial states and count which fixed point each reaches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := flags.resolve(optionalArg(args))
			if err != nil {
				return err
			}
			bc.Base = base

			runner := automation.NewRunner(registry, nil, log)
			res, err := runner.RunBasin(cmd.Context(), &bc)
			if err != nil {
				return err
			}

			sys, err := registry.GetModel(base.Model)
			if err != nil {
				return err
			}
			labels := dynamo.LabelsOf(sys)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tPOINT\tCLASS\tTRIALS\tFRACTION")
			counts := res.Counts()
			for i, p := range res.FixedPoints {
				coords := make([]string, len(p.X))
				for k, v := range p.X {
					coords[k] = fmt.Sprintf("%s=%.4g", labels[k], v)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.3f\n", i, strings.Join(coords, " "), p.Report.Class, counts[i], res.Fraction(i))
			}
			if n := counts[automation.Unresolved]; n > 0 {
				fmt.Fprintf(w, "-\tunresolved\t\t%d\t%.3f\n", n, res.Fraction(automation.Unresolved))
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64SliceVar(&bc.Center, "center", nil, "centre of the sampled region (default: initial state)")
	cmd.Flags().Float64Var(&bc.Perturbation, "perturbation", 1, "half width of the sampled region")
	cmd.Flags().IntVar(&bc.NumTrials, "trials", 100, "number of trials")
	cmd.Flags().Uint64Var(&bc.Seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&bc.Parallel, "parallel", 0, "concurrent runs (0 = all CPUs)")
	cmd.Flags().Float64Var(&bc.Tol, "tol-fixed", 1e-2, "relative distance counted as converged")
	return cmd
}

func scenarioCommand() *cobra.Command {
	var noSave bool
	cmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			var st *storage.Store
			if !noSave {
				if st, err = store(); err != nil {
					return err
				}
			}

			fmt.Printf("scenario: %s\n", sc.Name)
			if sc.Description != "" {
				fmt.Println(sc.Description)
			}
			results, err := automation.NewRunner(registry, st, log).RunScenario(cmd.Context(), sc)
			for _, r := range results {
				fmt.Printf("\n[%s] %s", r.Name, r.Config.Model)
				if r.Config.Preset != "" {
					fmt.Printf(" (%s)", r.Config.Preset)
				}
				if r.RunID != "" {
					fmt.Printf(" -> %s", r.RunID)
				}
				fmt.Println()
				printMetrics(r.Result.Metrics)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "ignore the save flag of every step")
	return cmd
}

// parseGrid reads name=lo:hi:n into n evenly spaced values.
func parseGrid(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	parts := strings.Split(rng, ":")
	if !ok || name == "" || len(parts) != 3 {
		return "", nil, fmt.Errorf("grid %q: want name=lo:hi:n", spec)
	}
	lo, err := parseFloat(parts[0])
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", spec, err)
	}
	hi, err := parseFloat(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", spec, err)
	}
	n, err := parseFloat(parts[2])
	if err != nil || n < 1 || n != float64(int(n)) {
		return "", nil, fmt.Errorf("grid %q: n must be a positive integer", spec)
	}
	vals := make([]float64, int(n))
	for i := range vals {
		if len(vals) == 1 {
			vals[i] = lo
			continue
		}
		vals[i] = lo + (hi-lo)*float64(i)/float64(len(vals)-1)
	}
	return name, vals, nil
}

func optimizeCommand() *cobra.Command {
	var flags simFlags
	var (
		grids  []string
		metric string
	)
	cmd := &cobra.Command{
		Use:   "optimize [model]",
		Short: "grid search for the parameters minimising a metric",
		Long: "Runs every combination of the --grid values and reports the one with the\n" +
			"smallest --metric. Names prefixed with stim. set stimulus parameters.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := flags.resolve(optionalArg(args))
			if err != nil {
				return err
			}
			var names []string
			var ranges [][]float64
			for _, g := range grids {
				name, vals, err := parseGrid(g)
				if err != nil {
					return err
				}
				names = append(names, name)
				ranges = append(ranges, vals)
			}
			search, err := optim.NewGridSearch(names, ranges)
			if err != nil {
				return err
			}

			build := func(params map[string]float64) (*experiment.Experiment, error) {
				cfg := base.Clone()
				for name, v := range params {
					if stim, ok := strings.CutPrefix(name, "stim."); ok {
						if cfg.StimulusParams == nil {
							cfg.StimulusParams = make(map[string]float64)
						}
						cfg.StimulusParams[stim] = v
						continue
					}
					if cfg.Params == nil {
						cfg.Params = make(map[string]float64)
					}
					cfg.Params[name] = v
				}
				return experiment.New(registry, cfg.Experiment(), experiment.WithLogger(log)), nil
			}

			best, value, err := search.Search(cmd.Context(), build, metric)
			if err != nil {
				return err
			}
			log.Debug("grid search finished", zap.Int("evaluations", search.Evaluations))

			fmt.Printf("evaluated %d combinations\n", search.Evaluations)
			fmt.Printf("best %s: %.6g\n", metric, value)
			for _, name := range slices.Sorted(maps.Keys(best)) {
				fmt.Printf("  %s = %.6g\n", name, best[name])
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVar(&grids, "grid", nil, "parameter grid name=lo:hi:n (repeatable)")
	cmd.Flags().StringVar(&metric, "metric", "", "metric to minimise")
	_ = cmd.MarkFlagRequired("grid")
	_ = cmd.MarkFlagRequired("metric")
	return cmd
}
