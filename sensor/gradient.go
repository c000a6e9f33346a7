package sensor

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// GradientTable stores a look-up table of colours interpolated by hue.
type GradientTable []struct {
	Hue float64
	Pos float64
}

// GetColor gets a colour at the specified point on the look-up table.
func (g GradientTable) GetColor(t, s, l float64) colorful.Color {
	for i := 0; i < len(g)-1; i++ {
		c1 := g[i]
		c2 := g[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			h := (((t - c1.Pos) / (c2.Pos - c1.Pos)) * (c2.Hue - c1.Hue)) + c1.Hue
			return colorful.Hcl(h, s, l)
		}
	}

	// Past the last keypoint.
	return colorful.Hcl(g[len(g)-1].Hue, s, l)
}

// A Pattern paints synthetic colour frames.
type Pattern interface {
	CalculateFrame(frameNumber uint32, width, height int) *ColorFrame
}

// A GradientTrail is a Pattern that scrolls a hue gradient across the image.
type GradientTrail struct {
	gradient    GradientTable
	trailLength int
	step        float64
}

// NewGradientTrail creates an instance of a GradientTrail object.
func NewGradientTrail(gradient GradientTable, trailLength int, step float64) *GradientTrail {
	g := new(GradientTrail)
	g.gradient = gradient
	g.trailLength = trailLength
	g.step = step
	return g
}

// DefaultGradient runs through the hue wheel and wraps back to pink.
func DefaultGradient() GradientTable {
	return GradientTable{
		{0.0, 0.0},
		{6.0, 0.04},   // Pink
		{87.0, 0.14},  // Red
		{88.0, 0.28},  // Orange
		{98.0, 0.42},  // Yellow
		{180.0, 0.56}, // Green
		{190.0, 0.70}, // Turquoise
		{320.0, 0.84}, // Blue
		{328.0, 0.91}, // Violet
		{360.0, 1.0},  // Pink wrap
	}
}

// CalculateFrame paints one BGR32 frame. Every row is identical so the
// colour is computed once per column.
func (g *GradientTrail) CalculateFrame(frameNumber uint32, width, height int) *ColorFrame {
	f := &ColorFrame{
		Width:       width,
		Height:      height,
		FrameNumber: frameNumber,
		Pixels:      make([]byte, width*height*BytesPerPixel),
	}

	offset := math.Mod(float64(frameNumber)*g.step, float64(g.trailLength))
	row := make([]byte, width*BytesPerPixel)
	for x := 0; x < width; x++ {
		t := math.Mod(float64(x+g.trailLength)-offset, float64(g.trailLength)) / float64(g.trailLength)
		r, gr, b := g.gradient.GetColor(t, 0.6, 0.5).Clamped().RGB255()
		row[x*4] = b
		row[x*4+1] = gr
		row[x*4+2] = r
		row[x*4+3] = 0xff
	}
	for y := 0; y < height; y++ {
		copy(f.Pixels[y*len(row):], row)
	}

	return f
}
