package display

import (
	"image"
	"image/color"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// Ellipse is a filled ellipse positioned by its top-left margin.
type Ellipse struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
	Fill   colorful.Color
}

// Canvas holds the shapes drawn over the bitmap.
type Canvas struct {
	mu     sync.RWMutex
	shapes []Ellipse
}

// NewCanvas creates an empty canvas.
func NewCanvas() *Canvas {
	return new(Canvas)
}

// Add appends a shape.
func (c *Canvas) Add(e Ellipse) {
	c.mu.Lock()
	c.shapes = append(c.shapes, e)
	c.mu.Unlock()
}

// Clear removes every shape.
func (c *Canvas) Clear() {
	c.mu.Lock()
	c.shapes = c.shapes[:0]
	c.mu.Unlock()
}

// Shapes returns a copy of the current shapes.
func (c *Canvas) Shapes() []Ellipse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Ellipse, len(c.shapes))
	copy(out, c.shapes)
	return out
}

// ellipseMask is an alpha mask covering an axis-aligned ellipse.
type ellipseMask struct {
	bounds image.Rectangle
	cx, cy float64
	rx, ry float64
}

func (m *ellipseMask) ColorModel() color.Model { return color.AlphaModel }

func (m *ellipseMask) Bounds() image.Rectangle { return m.bounds }

func (m *ellipseMask) At(x, y int) color.Color {
	dx := (float64(x) + 0.5 - m.cx) / m.rx
	dy := (float64(y) + 0.5 - m.cy) / m.ry
	if dx*dx+dy*dy <= 1 {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}

// Render composites the bitmap and the canvas shapes into a new image.
func Render(b *Bitmap, c *Canvas) *image.RGBA {
	out := b.RGBA()
	if c == nil {
		return out
	}
	for _, e := range c.Shapes() {
		if e.Width <= 0 || e.Height <= 0 {
			continue
		}
		mask := &ellipseMask{
			bounds: image.Rect(int(e.Left), int(e.Top), int(e.Left+e.Width+0.5), int(e.Top+e.Height+0.5)),
			cx:     e.Left + e.Width/2,
			cy:     e.Top + e.Height/2,
			rx:     e.Width / 2,
			ry:     e.Height / 2,
		}
		r := mask.bounds.Intersect(out.Bounds())
		if r.Empty() {
			continue
		}
		fill := image.NewUniform(e.Fill.Clamped())
		draw.DrawMask(out, r, fill, image.Point{}, mask, r.Min, draw.Over)
	}
	return out
}
