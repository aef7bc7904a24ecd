package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/experiment"
	"github.com/san-kum/biodyn/internal/grid"
	"github.com/san-kum/biodyn/internal/pattern"
	"github.com/san-kum/biodyn/internal/render"
	"github.com/san-kum/biodyn/internal/tui"
)

// lattice returns the lattice layout of a stored run, if it has one.
func lattice(model string, params map[string]float64) (pattern.Lattice, bool) {
	sys, err := registry.GetConfiguredModel(model, params)
	if err != nil {
		return nil, false
	}
	l, ok := sys.(pattern.Lattice)
	return l, ok
}

func renderCommand() *cobra.Command {
	var (
		out        string
		components []int
		field      string
		dpi        int
	)
	cmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render a run to PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := loadRun(args)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(dataDir, meta.ID, "plot.png")
			}

			if l, ok := lattice(meta.Model, meta.Params); ok {
				if field == "" {
					field = l.Fields()[0]
				}
				k, err := pattern.FieldIndex(l, field)
				if err != nil {
					return err
				}
				f := pattern.Frame(l, result.Final(), k)
				title := fmt.Sprintf("%s %s t=%.4g", meta.Model, field, result.Times[len(result.Times)-1])
				if err := render.SavePNG(render.FieldFrame(f, f.Min(), f.Max(), title), 6, 6, dpi, out); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", out)
				return nil
			}

			if len(components) == 0 {
				for i := range min(len(meta.Labels), 6) {
					components = append(components, i)
				}
			}
			p, err := render.TimeSeries(result, meta.Labels, components, meta.Model)
			if err != nil {
				return err
			}
			if err := render.SavePNG(p, 8, 4, dpi, out); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: <data>/<run>/plot.png)")
	cmd.Flags().IntSliceVarP(&components, "component", "c", nil, "state components to plot")
	cmd.Flags().StringVar(&field, "field", "", "lattice field to draw (default: first)")
	cmd.Flags().IntVar(&dpi, "dpi", 96, "resolution")
	return cmd
}

func animateCommand() *cobra.Command {
	var flags simFlags
	var (
		out           string
		field         string
		stride, scale int
		fps           int
	)
	cmd := &cobra.Command{
		Use:   "animate [model]",
		Short: "animate a lattice model to GIF or AVI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fps < 1 || scale < 1 {
				return fmt.Errorf("--fps and --scale must be at least 1, got %d and %d", fps, scale)
			}
			exp, err := flags.experiment(optionalArg(args))
			if err != nil {
				return err
			}
			l, ok := exp.System().(pattern.Lattice)
			if !ok {
				return fmt.Errorf("%s is not a lattice model", exp.Metadata().Model)
			}
			if field == "" {
				field = l.Fields()[0]
			}
			k, err := pattern.FieldIndex(l, field)
			if err != nil {
				return err
			}

			result, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}

			nx, ny := l.Shape()
			w, err := render.CreateAnimation(out, nx*scale, ny*scale, fps)
			if err != nil {
				return err
			}
			frames, err := render.Animate(w, result, func(x dynamo.State) grid.Field {
				return pattern.Frame(l, x, k)
			}, stride, scale)
			if err != nil {
				return err
			}
			log.Debug("animation written", zap.String("path", out), zap.Int("frames", frames))
			fmt.Printf("wrote %s (%d frames)\n", out, frames)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "pattern.gif", "output file (.gif or .avi)")
	cmd.Flags().StringVar(&field, "field", "", "field to animate (default: first)")
	cmd.Flags().IntVar(&stride, "stride", 1, "use every n-th recorded sample")
	cmd.Flags().IntVar(&scale, "scale", 4, "pixels per cell")
	cmd.Flags().IntVar(&fps, "fps", 10, "frames per second")
	return cmd
}

func liveCommand() *cobra.Command {
	var flags simFlags
	var inputStep float64
	cmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && flags.configFile == "" {
				return tui.RunMenu(registry, theme)
			}
			cfg, err := flags.resolve(optionalArg(args))
			if err != nil {
				return err
			}
			// the live view owns the terminal, so the run is not logged
			m, err := tui.FromExperiment(experiment.New(registry, cfg.Experiment()))
			if err != nil {
				return err
			}
			m.SetTheme(theme)
			m.SetInputStep(inputStep)
			return tui.RunLive(m)
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64Var(&inputStep, "input-step", 1, "manual input change per key press")
	return cmd
}
