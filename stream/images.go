package stream

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

// ImageRecorder writes colour frames as BMP files into dir/bmp, named by
// elapsed milliseconds on the recording clock and frame number.
type ImageRecorder struct {
	dir   string
	clock *Stopwatch
	img   *image.RGBA
	ready bool
}

func NewImageRecorder(dir string, clock *Stopwatch) *ImageRecorder {
	r := new(ImageRecorder)
	r.dir = filepath.Join(dir, "bmp")
	r.clock = clock
	return r
}

// Dir is the folder images are written to.
func (r *ImageRecorder) Dir() string {
	return r.dir
}

// Save encodes a BGR32 buffer of width x height pixels.
func (r *ImageRecorder) Save(frameNumber uint32, width, height int, pixels []byte) error {
	if len(pixels) < width*height*4 {
		return fmt.Errorf("buffer holds %d bytes for %dx%d", len(pixels), width, height)
	}
	if !r.ready {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return err
		}
		r.ready = true
	}

	if r.img == nil || r.img.Rect.Dx() != width || r.img.Rect.Dy() != height {
		r.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	for i := 0; i < width*height*4; i += 4 {
		r.img.Pix[i] = pixels[i+2]
		r.img.Pix[i+1] = pixels[i+1]
		r.img.Pix[i+2] = pixels[i]
		r.img.Pix[i+3] = 0xff
	}

	name := fmt.Sprintf("%d_%d.bmp", r.clock.Elapsed().Milliseconds(), frameNumber)
	f, err := os.Create(filepath.Join(r.dir, name))
	if err != nil {
		return err
	}
	return errors.Join(bmp.Encode(f, r.img), f.Close())
}
