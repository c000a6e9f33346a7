package stream

import (
	"image"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ichinoseShugo/kinectjointrecord/sensor"
)

// PixelSurface is a writable image surface.
type PixelSurface interface {
	WritePixels(rect image.Rectangle, buffer []byte, stride, offset int) error
}

// ImagesToggle reports whether colour frames should be saved.
type ImagesToggle interface {
	RecordImages() bool
}

// FrameBuffer copies colour frames into one reusable buffer and pushes it
// to the display surface.
type FrameBuffer struct {
	mu      sync.Mutex
	pixels  []byte
	surface PixelSurface
	toggle  ImagesToggle
	images  *ImageRecorder
}

// NewFrameBuffer allocates the pixel buffer for format. toggle and images
// may be nil when frames are never saved.
func NewFrameBuffer(format sensor.ColorImageFormat, surface PixelSurface, toggle ImagesToggle, images *ImageRecorder) *FrameBuffer {
	b := new(FrameBuffer)
	b.pixels = make([]byte, format.FramePixelDataLength())
	b.surface = surface
	b.toggle = toggle
	b.images = images
	return b
}

// Release drops the display surface once any frame in flight has been
// written. Frames still arriving only update the buffer.
func (b *FrameBuffer) Release() {
	b.mu.Lock()
	b.surface = nil
	b.mu.Unlock()
}

// OnColorFrame is the colour stream handler.
func (b *FrameBuffer) OnColorFrame(frame *sensor.ColorFrame) {
	if frame == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := frame.CopyPixelDataTo(b.pixels); err != nil {
		log.Debug().Err(err).Uint32("frame", frame.FrameNumber).Msg("Skipping colour frame")
		return
	}

	if b.surface != nil {
		rect := image.Rect(0, 0, frame.Width, frame.Height)
		if err := b.surface.WritePixels(rect, b.pixels, frame.Width*sensor.BytesPerPixel, 0); err != nil {
			log.Debug().Err(err).Msg("Display write failed")
		}
	}

	if b.images != nil && b.toggle != nil && b.toggle.RecordImages() {
		if err := b.images.Save(frame.FrameNumber, frame.Width, frame.Height, b.pixels); err != nil {
			log.Error().Err(err).Uint32("frame", frame.FrameNumber).Msg("Saving colour frame failed")
		}
	}
}
