// Package display holds the surfaces the pipeline draws into: a writable
// BGR32 bitmap for the colour stream and a canvas of marker shapes.
package display

import (
	"fmt"
	"image"
	"sync"
)

const bytesPerPixel = 4

// Bitmap is a writable BGR32 image surface of fixed size.
type Bitmap struct {
	mu     sync.RWMutex
	width  int
	height int
	pixels []byte
}

// NewBitmap creates a black bitmap.
func NewBitmap(width, height int) *Bitmap {
	b := new(Bitmap)
	b.width = width
	b.height = height
	b.pixels = make([]byte, width*height*bytesPerPixel)
	return b
}

// Bounds of the bitmap.
func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// WritePixels copies rect from buffer, read with the given stride starting
// at offset, into the same rect of the bitmap.
func (b *Bitmap) WritePixels(rect image.Rectangle, buffer []byte, stride, offset int) error {
	if !rect.In(b.Bounds()) {
		return fmt.Errorf("rect %v outside bitmap %v", rect, b.Bounds())
	}
	rowLength := rect.Dx() * bytesPerPixel
	if stride < rowLength {
		return fmt.Errorf("stride %d shorter than row %d", stride, rowLength)
	}
	if rect.Empty() {
		return nil
	}
	if need := offset + (rect.Dy()-1)*stride + rowLength; len(buffer) < need {
		return fmt.Errorf("buffer holds %d bytes, need %d", len(buffer), need)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for y := 0; y < rect.Dy(); y++ {
		src := buffer[offset+y*stride : offset+y*stride+rowLength]
		dst := ((rect.Min.Y+y)*b.width + rect.Min.X) * bytesPerPixel
		copy(b.pixels[dst:dst+rowLength], src)
	}
	return nil
}

// RGBA converts the bitmap to an image.RGBA.
func (b *Bitmap) RGBA() *image.RGBA {
	out := image.NewRGBA(b.Bounds())

	b.mu.RLock()
	defer b.mu.RUnlock()
	for i := 0; i < len(b.pixels); i += bytesPerPixel {
		out.Pix[i] = b.pixels[i+2]
		out.Pix[i+1] = b.pixels[i+1]
		out.Pix[i+2] = b.pixels[i]
		out.Pix[i+3] = 0xff
	}
	return out
}
