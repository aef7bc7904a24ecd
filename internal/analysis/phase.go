package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/biodyn/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D holds a trajectory projected on two state components.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// GeneratePhasePortrait integrates x0 with a zero input and records every
// step in the (xIdx, yIdx) plane.
func GeneratePhasePortrait(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	xIdx, yIdx int,
	dt, duration float64,
) (*PhasePortrait2D, error) {
	if err := checkIndex(len(x0), xIdx, yIdx); err != nil {
		return nil, err
	}

	steps := int(math.Round(duration / dt))
	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, steps+1),
	}

	x := x0.Clone()
	u := make(dynamo.Input, sys.InputDim())
	portrait.Points = append(portrait.Points, Point{x[xIdx], x[yIdx]})
	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, u, float64(i)*dt, dt)
		portrait.Points = append(portrait.Points, Point{x[xIdx], x[yIdx]})
	}

	return portrait, nil
}

// PortraitOf projects a recorded run on two components.
func PortraitOf(res *dynamo.Result, xIdx, yIdx int) (*PhasePortrait2D, error) {
	if res == nil || len(res.States) == 0 {
		return nil, fmt.Errorf("analysis: empty result")
	}
	if err := checkIndex(len(res.States[0]), xIdx, yIdx); err != nil {
		return nil, err
	}
	p := &PhasePortrait2D{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, len(res.States))}
	for i, s := range res.States {
		p.Points[i] = Point{s[xIdx], s[yIdx]}
	}
	return p, nil
}

func checkIndex(n int, idx ...int) error {
	for _, i := range idx {
		if i < 0 || i >= n {
			return fmt.Errorf("analysis: component %d out of range [0, %d): %w", i, n, dynamo.ErrDimensionMismatch)
		}
	}
	return nil
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y

	for _, p := range portrait.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
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

// PoincareSection records the state each time a component crosses a
// threshold upwards.
type PoincareSection struct {
	Points []Point
	// Times are the interpolated crossing instants.
	Times []float64
}

// GeneratePoincareSection integrates x0 and records (recordX, recordY) at
// every upward crossing of threshold by component crossIdx.
func GeneratePoincareSection(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	crossIdx int,
	threshold float64,
	recordX, recordY int,
	dt, duration float64,
) (*PoincareSection, error) {
	if err := checkIndex(len(x0), crossIdx, recordX, recordY); err != nil {
		return nil, err
	}

	section := &PoincareSection{}

	x := x0.Clone()
	u := make(dynamo.Input, sys.InputDim())
	steps := int(math.Round(duration / dt))
	prevVal := x[crossIdx]

	for i := 0; i < steps; i++ {
		t := float64(i) * dt
		prev := x
		x = integ.Step(sys, x, u, t, dt)
		currVal := x[crossIdx]

		if prevVal < threshold && currVal >= threshold {
			frac := (threshold - prevVal) / (currVal - prevVal)
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}
			lerp := func(k int) float64 { return prev[k] + frac*(x[k]-prev[k]) }
			section.Points = append(section.Points, Point{lerp(recordX), lerp(recordY)})
			section.Times = append(section.Times, t+frac*dt)
		}

		prevVal = currVal
	}

	return section, nil
}

// Period is the mean interval between successive crossings, skipping the
// first skip crossings as transient. It is zero with fewer than two
// crossings left.
func (s *PoincareSection) Period(skip int) float64 {
	if s == nil || len(s.Times)-skip < 2 {
		return 0
	}
	ts := s.Times[skip:]
	return (ts[len(ts)-1] - ts[0]) / float64(len(ts)-1)
}

// PoincareSectionToASCII converts section data to ASCII plot
func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}

	portrait := &PhasePortrait2D{Points: section.Points}
	return PhasePortraitToASCII(portrait, width, height)
}
