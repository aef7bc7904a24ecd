package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// BifurcationPoint holds the distinct post-transient values for one
// parameter value: the local maxima of an oscillation, or the single
// resting value of a steady state.
type BifurcationPoint struct {
	Param  float64
	Values []float64
}

// BifurcationDiagram sweeps a parameter and records where the trajectory
// settles. Peaks closer than resolution are merged. The parameter is
// restored when the sweep ends.
func BifurcationDiagram(
	sys dynamo.System,
	integ dynamo.Integrator,
	paramName string,
	paramMin, paramMax float64,
	paramSteps int,
	stateIndex int,
	x0 dynamo.State,
	dt, transient, record float64,
	resolution float64,
) ([]BifurcationPoint, error) {
	tunable, ok := sys.(dynamo.Configurable)
	if !ok {
		return nil, fmt.Errorf("analysis: bifurcation needs a configurable system")
	}
	if err := checkIndex(len(x0), stateIndex); err != nil {
		return nil, err
	}
	original, ok := tunable.GetParams()[paramName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, paramName)
	}
	defer func() { _ = tunable.SetParam(paramName, original) }()

	if paramSteps < 2 {
		paramSteps = 2
	}
	if resolution <= 0 {
		resolution = 1e-3
	}
	paramStep := (paramMax - paramMin) / float64(paramSteps-1)
	u := make(dynamo.Input, sys.InputDim())

	transientSteps := int(math.Round(transient / dt))
	recordSteps := int(math.Round(record / dt))

	results := make([]BifurcationPoint, 0, paramSteps)
	for i := 0; i < paramSteps; i++ {
		param := paramMin + float64(i)*paramStep
		if err := tunable.SetParam(paramName, param); err != nil {
			return nil, err
		}

		x := x0.Clone()
		t := 0.0
		for k := 0; k < transientSteps; k++ {
			x = integ.Step(sys, x, u, t, dt)
			t += dt
		}

		seen := make(map[int64]bool)
		values := make([]float64, 0, 8)
		prev2, prev1 := math.NaN(), x[stateIndex]
		for k := 0; k < recordSteps; k++ {
			x = integ.Step(sys, x, u, t, dt)
			t += dt
			cur := x[stateIndex]
			if prev1 > prev2 && prev1 >= cur {
				key := int64(math.Round(prev1 / resolution))
				if !seen[key] {
					seen[key] = true
					values = append(values, prev1)
				}
			}
			prev2, prev1 = prev1, cur
		}
		if len(values) == 0 {
			values = append(values, x[stateIndex])
		}

		results = append(results, BifurcationPoint{Param: param, Values: values})
	}

	return results, nil
}

// BifurcationToASCII converts bifurcation data to ASCII art
func BifurcationToASCII(data []BifurcationPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, p := range data {
		for _, v := range p.Values {
			minVal, maxVal = math.Min(minVal, v), math.Max(maxVal, v)
		}
	}
	if math.IsInf(minVal, 1) {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i, p := range data {
		col := min(i*width/len(data), width-1)
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
