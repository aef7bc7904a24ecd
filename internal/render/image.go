package render

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette/moreland"

	"github.com/san-kum/biodyn/internal/grid"
)

// FieldImage paints each cell as a scale x scale block coloured on a black
// body ramp from lo to hi. Values outside the range saturate.
func FieldImage(f grid.Field, lo, hi float64, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	colors := moreland.ExtendedBlackBody().Palette(paletteSize).Colors()
	last := len(colors) - 1

	img := image.NewRGBA(image.Rect(0, 0, f.NX*scale, f.NY*scale))
	for i := 0; i < f.NY; i++ {
		for j := 0; j < f.NX; j++ {
			v := f.At(i, j)
			k := 0
			if !math.IsNaN(v) {
				k = int(math.Round((v - lo) / (hi - lo) * float64(last)))
				k = max(0, min(k, last))
			}
			c := color.RGBAModel.Convert(colors[k]).(color.RGBA)
			for y := i * scale; y < (i+1)*scale; y++ {
				for x := j * scale; x < (j+1)*scale; x++ {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
	return img
}
