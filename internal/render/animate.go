package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/icza/mjpeg"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/grid"
)

// FrameWriter consumes animation frames of a fixed size.
type FrameWriter interface {
	AddFrame(img image.Image) error
	Close() error
}

// CreateAnimation opens path for frames of width x height pixels played
// at fps, choosing GIF or Motion-JPEG AVI by extension.
func CreateAnimation(path string, width, height, fps int) (FrameWriter, error) {
	if fps < 1 {
		return nil, fmt.Errorf("render: fps must be at least 1, got %d", fps)
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("render: bad frame size %dx%d", width, height)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		g := NewGIFWriter(f, max(100/fps, 1))
		g.file = f
		return g, nil
	case ".avi":
		return NewAVIWriter(path, width, height, fps)
	default:
		return nil, fmt.Errorf("render: unsupported animation format %q (use .gif or .avi)", filepath.Ext(path))
	}
}

// GIFWriter collects paletted frames and encodes a looping GIF on Close.
type GIFWriter struct {
	w     io.Writer
	delay int
	anim  gif.GIF
	file  io.Closer
}

// NewGIFWriter writes to w with delay between frames in hundredths of a
// second.
func NewGIFWriter(w io.Writer, delay int) *GIFWriter {
	return &GIFWriter{w: w, delay: delay}
}

func (g *GIFWriter) AddFrame(img image.Image) error {
	b := img.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	g.anim.Image = append(g.anim.Image, p)
	g.anim.Delay = append(g.anim.Delay, g.delay)
	return nil
}

func (g *GIFWriter) Close() error {
	err := g.encode()
	if g.file != nil {
		if cerr := g.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (g *GIFWriter) encode() error {
	if len(g.anim.Image) == 0 {
		return fmt.Errorf("render: no frames")
	}
	return gif.EncodeAll(g.w, &g.anim)
}

// AVIWriter streams JPEG frames into a Motion-JPEG AVI file.
type AVIWriter struct {
	aw      mjpeg.AviWriter
	buf     bytes.Buffer
	quality int
}

func NewAVIWriter(path string, width, height, fps int) (*AVIWriter, error) {
	aw, err := mjpeg.New(path, int32(width), int32(height), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("create avi: %w", err)
	}
	return &AVIWriter{aw: aw, quality: 90}, nil
}

func (a *AVIWriter) AddFrame(img image.Image) error {
	a.buf.Reset()
	if err := jpeg.Encode(&a.buf, img, &jpeg.Options{Quality: a.quality}); err != nil {
		return err
	}
	return a.aw.AddFrame(a.buf.Bytes())
}

func (a *AVIWriter) Close() error { return a.aw.Close() }

// FieldSource pulls one field out of a lattice state.
type FieldSource func(x dynamo.State) grid.Field

// Animate writes one frame per recorded state of res, every stride-th
// state, using a colour range fixed over the whole run. The writer is
// closed whether or not the frames were written.
func Animate(w FrameWriter, res *dynamo.Result, field FieldSource, stride, scale int) (int, error) {
	frames, err := writeFrames(w, res, field, stride, scale)
	if err != nil {
		w.Close()
		return frames, err
	}
	return frames, w.Close()
}

func writeFrames(w FrameWriter, res *dynamo.Result, field FieldSource, stride, scale int) (int, error) {
	if res == nil || len(res.States) == 0 {
		return 0, fmt.Errorf("render: empty result")
	}
	if scale < 1 {
		return 0, fmt.Errorf("render: scale must be at least 1, got %d", scale)
	}
	if stride < 1 {
		stride = 1
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for k := 0; k < len(res.States); k += stride {
		f := field(res.States[k])
		lo, hi = math.Min(lo, f.Min()), math.Max(hi, f.Max())
	}

	frames := 0
	for k := 0; k < len(res.States); k += stride {
		if err := w.AddFrame(FieldImage(field(res.States[k]), lo, hi, scale)); err != nil {
			return frames, fmt.Errorf("frame %d: %w", frames, err)
		}
		frames++
	}
	return frames, nil
}
