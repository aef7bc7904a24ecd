package dynamo

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Factory builds a fresh system, integrator and stimulus for one sweep member.
// Systems are mutable through SetParam, so members never share one.
type Factory func() (System, Integrator, Stimulus, error)

// SweepRun is the outcome of one member of a parameter sweep.
type SweepRun struct {
	Value  float64
	Result *Result
}

type Sweep struct {
	factory  Factory
	param    string
	metrics  func(System) []Metric
	parallel int
}

// NewSweep builds a sweep over param. metrics, when non-nil, is called with
// each member's system after the parameter is set.
func NewSweep(factory Factory, param string, metrics func(System) []Metric) *Sweep {
	return &Sweep{factory: factory, param: param, metrics: metrics, parallel: runtime.NumCPU()}
}

// SetParallelism bounds the number of concurrent runs.
func (sw *Sweep) SetParallelism(n int) {
	if n > 0 {
		sw.parallel = n
	}
}

// Run simulates every value in order and returns the runs in the same order.
func (sw *Sweep) Run(ctx context.Context, values []float64, x0 State, cfg Config) ([]SweepRun, error) {
	runs := make([]SweepRun, len(values))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sw.parallel)

	for i, v := range values {
		g.Go(func() error {
			sys, integ, stim, err := sw.factory()
			if err != nil {
				return err
			}
			tunable, ok := sys.(Configurable)
			if !ok {
				return fmt.Errorf("sweep over %q: system is not configurable", sw.param)
			}
			if err := tunable.SetParam(sw.param, v); err != nil {
				return fmt.Errorf("sweep %s=%g: %w", sw.param, v, err)
			}

			s := New(sys, integ, stim)
			if sw.metrics != nil {
				for _, m := range sw.metrics(sys) {
					s.AddMetric(m)
				}
			}

			res, err := s.Run(ctx, x0, cfg)
			if err != nil {
				return fmt.Errorf("sweep %s=%g: %w", sw.param, v, err)
			}
			runs[i] = SweepRun{Value: v, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ParallelFor executes fn over [0, n) split into contiguous chunks of at
// least minChunk indices.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	numWorkers := runtime.NumCPU()
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
