package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/biodyn/internal/config"
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/experiment"
	"github.com/san-kum/biodyn/internal/stability"
)

// Unresolved marks a trial that settled on no known fixed point.
const Unresolved = -1

// BasinConfig samples initial states uniformly within Perturbation of
// Center (or the model's default state) and records which fixed point each
// one converges to. A bistable toggle switch splits its trials between two
// stable nodes.
type BasinConfig struct {
	Base         *config.Config
	Center       []float64
	Perturbation float64
	NumTrials    int
	Seed         uint64
	Parallel     int
	// Tol is the distance from a fixed point counted as converged.
	Tol float64
	// Seeds for Newton's method when the model has no closed-form fixed
	// points; defaults to a grid over [0, 5]^2.
	Seeds []dynamo.State
}

// BasinTrial holds one perturbed run.
type BasinTrial struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	Attractor  int
}

type BasinResult struct {
	FixedPoints []stability.Point
	Trials      []BasinTrial
}

// Counts tallies trials per fixed point index, with Unresolved for those
// that converged to none.
func (b *BasinResult) Counts() map[int]int {
	counts := make(map[int]int)
	for _, t := range b.Trials {
		counts[t.Attractor]++
	}
	return counts
}

// Fraction is the share of trials ending at fixed point i.
func (b *BasinResult) Fraction(i int) float64 {
	if len(b.Trials) == 0 {
		return 0
	}
	return float64(b.Counts()[i]) / float64(len(b.Trials))
}

// RunBasin executes NumTrials runs in parallel. Initial states are drawn
// up front from a PCG source seeded with Seed, so results do not depend on
// scheduling.
func (r *Runner) RunBasin(ctx context.Context, bc *BasinConfig) (*BasinResult, error) {
	if bc.NumTrials < 1 {
		return nil, fmt.Errorf("basin sampling needs at least one trial, got %d", bc.NumTrials)
	}
	cfg, err := bc.Base.Resolve()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(r.registry); err != nil {
		return nil, err
	}

	exp := experiment.New(r.registry, cfg.Experiment())
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	sys := exp.System()
	center := dynamo.State(bc.Center)
	if len(center) == 0 {
		if center, err = exp.InitialState(); err != nil {
			return nil, err
		}
	}
	if len(center) != sys.StateDim() {
		return nil, fmt.Errorf("%w: center has %d components, want %d",
			dynamo.ErrDimensionMismatch, len(center), sys.StateDim())
	}

	seeds := bc.Seeds
	if len(seeds) == 0 {
		seeds = stability.GridSeeds(sys.StateDim(), 0, 5, 0, 5, 6)
	}
	points, err := stability.Survey(sys, seeds, stability.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("locate fixed points: %w", err)
	}
	simCfg, err := exp.SimConfig()
	if err != nil {
		return nil, err
	}
	tol := bc.Tol
	if tol <= 0 {
		tol = 1e-3
	}

	rng := rand.New(rand.NewPCG(bc.Seed, bc.Seed^0x9e3779b97f4a7c15))
	trials := make([]BasinTrial, bc.NumTrials)
	for i := range trials {
		x0 := center.Clone()
		for k := range x0 {
			x0[k] += (rng.Float64()*2 - 1) * bc.Perturbation
		}
		trials[i] = BasinTrial{TrialID: i, InitState: x0, Attractor: Unresolved}
	}

	parallel := bc.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := range trials {
		g.Go(func() error {
			s, integ, stim, err := exp.Build()
			if err != nil {
				return err
			}
			res, err := dynamo.New(s, integ, stim).Run(gctx, trials[i].InitState, simCfg)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			trials[i].FinalState = res.Final()
			trials[i].Attractor = nearest(points, res.Final(), tol)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &BasinResult{FixedPoints: points, Trials: trials}
	r.log.Info("basin sampling done",
		zap.String("model", cfg.Model),
		zap.Int("trials", bc.NumTrials),
		zap.Int("fixed_points", len(points)),
		zap.Int("unresolved", out.Counts()[Unresolved]),
	)
	return out, nil
}

func nearest(points []stability.Point, x dynamo.State, tol float64) int {
	best, bestDist := Unresolved, math.Inf(1)
	for i, p := range points {
		d := p.X.Sub(x).Norm()
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if bestDist > tol*(1+x.Norm()) {
		return Unresolved
	}
	return best
}
