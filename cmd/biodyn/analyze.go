package main

import (
	"fmt"
	"maps"
	"math"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/biodyn/internal/analysis"
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/experiment"
	"github.com/san-kum/biodyn/internal/render"
	"github.com/san-kum/biodyn/internal/roots"
	"github.com/san-kum/biodyn/internal/stability"
)

// window reads a --window flag of four values, or fits one around pts with
// a 10% margin.
func window(flag []float64, pts ...analysis.Point) (analysis.Window, error) {
	if len(flag) == 4 {
		return analysis.Window{XMin: flag[0], XMax: flag[1], YMin: flag[2], YMax: flag[3]}, nil
	}
	if len(flag) != 0 {
		return analysis.Window{}, fmt.Errorf("--window needs xmin,xmax,ymin,ymax, got %v", flag)
	}
	w := analysis.Window{XMin: math.Inf(1), XMax: math.Inf(-1), YMin: math.Inf(1), YMax: math.Inf(-1)}
	for _, p := range pts {
		w.XMin, w.XMax = math.Min(w.XMin, p.X), math.Max(w.XMax, p.X)
		w.YMin, w.YMax = math.Min(w.YMin, p.Y), math.Max(w.YMax, p.Y)
	}
	pad := func(lo, hi float64) (float64, float64) {
		m := 0.1 * (hi - lo)
		if m == 0 {
			m = 1
		}
		return lo - m, hi + m
	}
	w.XMin, w.XMax = pad(w.XMin, w.XMax)
	w.YMin, w.YMax = pad(w.YMin, w.YMax)
	return w, nil
}

// planarModel rejects lattices, whose Jacobians are too large to survey.
func planarModel(exp *experiment.Experiment) error {
	info, err := registry.ModelInfo(exp.Metadata().Model)
	if err != nil {
		return err
	}
	if info.Lattice {
		return fmt.Errorf("%s is a lattice model: %w", info.Name, dynamo.ErrDimensionMismatch)
	}
	return nil
}

func phaseCommand() *cobra.Command {
	var flags simFlags
	var (
		xAxis, yAxis int
		out          string
		win          []float64
		arrows       int
	)
	cmd := &cobra.Command{
		Use:   "phase [model]",
		Short: "phase plane with nullclines and fixed points",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := flags.experiment(optionalArg(args))
			if err != nil {
				return err
			}
			result, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}
			portrait, err := analysis.PortraitOf(result, xAxis, yAxis)
			if err != nil {
				return err
			}
			meta := exp.Metadata()

			if out == "" {
				fmt.Printf("phase space plot: %s\n", meta.Model)
				fmt.Printf("x-axis: %s, y-axis: %s\n\n", meta.Labels[xAxis], meta.Labels[yAxis])
				fmt.Println(analysis.PhasePortraitToASCII(portrait, 70, 20))
				return nil
			}

			layers := render.PhaseLayers{Trajectories: []*analysis.PhasePortrait2D{portrait}}
			w, err := window(win, portrait.Points...)
			if err != nil {
				return err
			}
			sys := exp.System()
			if sys.StateDim() == 2 {
				if layers.Arrows, err = analysis.VectorField(sys, w, arrows); err != nil {
					return err
				}
				if layers.Nullclines, err = analysis.NullclineGrid(sys, w, 200); err != nil {
					return err
				}
				points, err := stability.Survey(sys, stability.GridSeeds(2, w.XMin, w.XMax, w.YMin, w.YMax, 8), stability.DefaultOptions())
				if err != nil {
					log.Warn("fixed point survey failed", zap.Error(err))
				}
				for _, p := range points {
					layers.Fixed = append(layers.Fixed, p.X)
					layers.Classes = append(layers.Classes, p.Report.Class)
				}
			}

			p, err := render.Phase(layers, meta.Labels[xAxis], meta.Labels[yAxis], meta.Model)
			if err != nil {
				return err
			}
			if err := render.SavePNG(p, 6, 6, 96, out); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	cmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write a PNG instead of printing")
	cmd.Flags().Float64SliceVar(&win, "window", nil, "plot window xmin,xmax,ymin,ymax")
	cmd.Flags().IntVar(&arrows, "arrows", 20, "vector field arrows per axis")
	return cmd
}

func fixedPointsCommand() *cobra.Command {
	var flags simFlags
	var (
		win  []float64
		seed int
	)
	cmd := &cobra.Command{
		Use:   "fixedpoints [model]",
		Short: "locate and classify fixed points",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := flags.experiment(optionalArg(args))
			if err != nil {
				return err
			}
			if err := planarModel(exp); err != nil {
				return err
			}
			w, err := window(win)
			if err != nil {
				return err
			}
			if len(win) == 0 {
				w = analysis.Window{XMin: 0, XMax: 5, YMin: 0, YMax: 5}
			}

			sys := exp.System()
			seeds := stability.GridSeeds(sys.StateDim(), w.XMin, w.XMax, w.YMin, w.YMax, seed)
			if x0, err := exp.InitialState(); err == nil {
				seeds = append(seeds, x0)
			}
			points, err := stability.Survey(sys, seeds, stability.DefaultOptions())
			if err != nil {
				return err
			}
			if len(points) == 0 {
				fmt.Println("no fixed points found")
				return nil
			}

			labels := dynamo.LabelsOf(sys)
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "POINT\tTRACE\tDET\tDISC\tEIGENVALUES\tCLASS")
			for _, p := range points {
				coords := make([]string, len(p.X))
				for i, v := range p.X {
					coords[i] = fmt.Sprintf("%s=%.5g", labels[i], v)
				}
				eig := make([]string, len(p.Report.Eigenvalues))
				for i, e := range p.Report.Eigenvalues {
					eig[i] = fmt.Sprintf("%.4g", e)
				}
				fmt.Fprintf(tw, "%s\t%.4g\t%.4g\t%.4g\t%s\t%s\n",
					strings.Join(coords, " "),
					p.Report.Trace, p.Report.Det, p.Report.Discriminant,
					strings.Join(eig, " "),
					p.Report.Class.Phrase(),
				)
			}
			return tw.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64SliceVar(&win, "window", nil, "Newton seed window xmin,xmax,ymin,ymax")
	cmd.Flags().IntVar(&seed, "seeds", 8, "Newton seeds per axis")
	return cmd
}

func stabilityMapCommand() *cobra.Command {
	var flags simFlags
	var (
		xParam, yParam string
		xRange, yRange []float64
		n              int
		value, out     string
		guess          []float64
	)
	cmd := &cobra.Command{
		Use:   "stability-map [model]",
		Short: "classify the fixed point across two parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(optionalArg(args))
			if err != nil {
				return err
			}
			if len(xRange) != 2 || len(yRange) != 2 {
				return fmt.Errorf("--x-range and --y-range need two values")
			}
			// fail fast on bad parameters before fanning out
			base, err := registry.GetConfiguredModel(cfg.Model, cfg.Params)
			if err != nil {
				return err
			}
			seed := dynamo.State(guess)
			if len(seed) == 0 {
				if d, ok := base.(dynamo.Defaulted); ok {
					seed = d.DefaultState()
				} else {
					seed = make(dynamo.State, base.StateDim())
				}
			}
			factory := func() dynamo.System {
				sys, _ := registry.GetConfiguredModel(cfg.Model, cfg.Params)
				return sys
			}

			m, err := analysis.StabilityMap(cmd.Context(), factory, xParam, yParam,
				analysis.Axis(xRange[0], xRange[1], n), analysis.Axis(yRange[0], yRange[1], n),
				seed, stability.DefaultOptions())
			if err != nil {
				return err
			}

			fmt.Printf("stability map of %s over %s x %s (%dx%d)\n", cfg.Model, xParam, yParam, n, n)
			counts := m.Count()
			classes := slices.Sorted(maps.Keys(counts))
			for _, class := range classes {
				fmt.Printf("  %-16s %d\n", class, counts[class])
			}

			if out == "" {
				return nil
			}
			p, err := render.StabilityHeatMap(m, value)
			if err != nil {
				return err
			}
			if err := render.SavePNG(p, 6, 5, 96, out); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&xParam, "x-param", "a", "parameter on the x-axis")
	cmd.Flags().StringVar(&yParam, "y-param", "b", "parameter on the y-axis")
	cmd.Flags().Float64SliceVar(&xRange, "x-range", []float64{0, 0.2}, "x parameter range")
	cmd.Flags().Float64SliceVar(&yRange, "y-range", []float64{0, 1}, "y parameter range")
	cmd.Flags().IntVar(&n, "n", 40, "cells per axis")
	cmd.Flags().StringVar(&value, "value", "trace", "heat map value (trace, det, disc)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write a PNG heat map")
	cmd.Flags().Float64SliceVar(&guess, "guess", nil, "Newton starting point")
	return cmd
}

func bifurcationCommand() *cobra.Command {
	var flags simFlags
	var (
		param             string
		lo, hi            float64
		steps, k          int
		transient, record float64
	)
	cmd := &cobra.Command{
		Use:   "bifurcation [model]",
		Short: "bifurcation diagram over one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := flags.experiment(optionalArg(args))
			if err != nil {
				return err
			}
			cfg, err := exp.Resolved()
			if err != nil {
				return err
			}
			x0, err := exp.InitialState()
			if err != nil {
				return err
			}
			_, integ, _, err := exp.Build()
			if err != nil {
				return err
			}

			data, err := analysis.BifurcationDiagram(exp.System(), integ, param, lo, hi, steps, k, x0,
				cfg.Dt, transient, record, 1e-3)
			if err != nil {
				return err
			}

			fmt.Printf("bifurcation diagram of %s, %s in [%g, %g]\n\n", cfg.Model, param, lo, hi)
			fmt.Println(analysis.BifurcationToASCII(data, 80, 24))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&param, "param", "b", "parameter to vary")
	cmd.Flags().Float64Var(&lo, "min", 0.1, "parameter minimum")
	cmd.Flags().Float64Var(&hi, "max", 1, "parameter maximum")
	cmd.Flags().IntVar(&steps, "steps", 60, "parameter values")
	cmd.Flags().IntVarP(&k, "component", "c", 0, "state component to record")
	cmd.Flags().Float64Var(&transient, "transient", 100, "time discarded before recording")
	cmd.Flags().Float64Var(&record, "record", 100, "time recorded per value")
	return cmd
}

func cubicCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cubic a b c",
		Short: "roots of x^3 + a x^2 + b x + c",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			coef := make([]float64, 3)
			for i, s := range args {
				v, err := parseFloat(s)
				if err != nil {
					return err
				}
				coef[i] = v
			}
			for i, r := range roots.Cubic(coef[0], coef[1], coef[2]) {
				fmt.Printf("x%d = %.10g %+.10gi\n", i+1, real(r), imag(r))
			}
			fmt.Printf("real: %v\n", roots.RealCubic(coef[0], coef[1], coef[2]))
			return nil
		},
	}
}

func newtonCommand() *cobra.Command {
	var x0, tol float64
	var maxIter int
	cmd := &cobra.Command{
		Use:   "newton a",
		Short: "solve x^3 + x - a = 0 by Newton's method and by Cardano's formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseFloat(args[0])
			if err != nil {
				return err
			}
			f := func(x float64) float64 { return x*x*x + x - a }
			df := func(x float64) float64 { return 3*x*x + 1 }

			x, iter, err := roots.Newton(f, df, x0, tol, maxIter)
			if err != nil {
				return err
			}
			// x^3 + x - a is increasing, so it has exactly one real root
			exact := roots.RealCubic(0, 1, -a)[0]
			fmt.Printf("newton:   %.10g (%d iterations)\n", x, iter)
			fmt.Printf("cardano:  %.10g\n", exact)
			fmt.Printf("residual: %.3e\n", math.Abs(x-exact))
			return nil
		},
	}
	cmd.Flags().Float64Var(&x0, "x0", 5, "starting point")
	cmd.Flags().Float64Var(&tol, "tol", 1e-4, "relative change tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", 100, "iteration limit")
	return cmd
}

func lyapunovCommand() *cobra.Command {
	var flags simFlags
	var (
		d0       float64
		spectrum bool
	)
	cmd := &cobra.Command{
		Use:   "lyapunov [model]",
		Short: "estimate the largest Lyapunov exponent of the unforced system",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := flags.experiment(optionalArg(args))
			if err != nil {
				return err
			}
			_, integ, _, err := exp.Build()
			if err != nil {
				return err
			}
			x0, err := exp.InitialState()
			if err != nil {
				return err
			}
			sc, err := exp.SimConfig()
			if err != nil {
				return err
			}
			sys := exp.System()
			labels := dynamo.LabelsOf(sys)

			lambda := analysis.LyapunovExponent(sys, integ, x0, sc.Dt, sc.Duration, d0)
			fmt.Printf("largest exponent: %.6g\n", lambda)
			switch {
			case math.IsInf(lambda, -1):
				fmt.Println("trajectories merged")
			case lambda > 1e-3:
				fmt.Println("nearby trajectories separate")
			case lambda < -1e-3:
				fmt.Println("nearby trajectories converge")
			default:
				fmt.Println("neutral (limit cycle or center)")
			}
			if spectrum {
				for i, l := range analysis.LyapunovSpectrum(sys, integ, x0, sc.Dt, sc.Duration, d0) {
					fmt.Printf("  %s: %.6g\n", labels[i], l)
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64Var(&d0, "d0", 1e-8, "initial separation")
	cmd.Flags().BoolVar(&spectrum, "spectrum", false, "also print the per-direction rates")
	return cmd
}
