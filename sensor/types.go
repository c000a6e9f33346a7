package sensor

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoDevice is returned when no sensor is connected.
	ErrNoDevice = errors.New("no sensor device connected")
	// ErrFrameUnavailable is returned when a frame payload cannot be opened.
	ErrFrameUnavailable = errors.New("frame unavailable")
	// ErrCalibrationUnavailable is returned when a mapping is requested for a
	// colour format the device has not negotiated.
	ErrCalibrationUnavailable = errors.New("calibration unavailable")
	// ErrDepthOutOfRange is returned when a point cannot be projected because
	// it is on or behind the sensor plane.
	ErrDepthOutOfRange = errors.New("depth out of range")
)

// BytesPerPixel of every colour format (BGR32).
const BytesPerPixel = 4

// ColorImageFormat identifies a colour stream resolution and frame rate.
type ColorImageFormat int

const (
	ColorFormatUndefined ColorImageFormat = iota
	RgbResolution640x480Fps30
	RgbResolution1280x960Fps12
)

type colorFormatInfo struct {
	name   string
	width  int
	height int
	fps    int
}

var colorFormats = map[ColorImageFormat]colorFormatInfo{
	RgbResolution640x480Fps30:  {"RgbResolution640x480Fps30", 640, 480, 30},
	RgbResolution1280x960Fps12: {"RgbResolution1280x960Fps12", 1280, 960, 12},
}

func (f ColorImageFormat) String() string {
	if info, ok := colorFormats[f]; ok {
		return info.name
	}
	return "Undefined"
}

// Width of frames in this format.
func (f ColorImageFormat) Width() int { return colorFormats[f].width }

// Height of frames in this format.
func (f ColorImageFormat) Height() int { return colorFormats[f].height }

// FPS is the nominal frame rate.
func (f ColorImageFormat) FPS() int { return colorFormats[f].fps }

// FramePixelDataLength is the size in bytes of one frame.
func (f ColorImageFormat) FramePixelDataLength() int {
	return f.Width() * f.Height() * BytesPerPixel
}

// ParseColorImageFormat looks a format up by name.
func ParseColorImageFormat(name string) (ColorImageFormat, error) {
	for f, info := range colorFormats {
		if info.name == name {
			return f, nil
		}
	}
	return ColorFormatUndefined, fmt.Errorf("unknown colour format %q", name)
}

func (f ColorImageFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *ColorImageFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseColorImageFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f *ColorImageFormat) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	return f.UnmarshalText([]byte(name))
}

// SmoothParameters configure skeleton smoothing on the device.
type SmoothParameters struct {
	Smoothing          float32 `yaml:"smoothing" json:"smoothing"`
	Correction         float32 `yaml:"correction" json:"correction"`
	Prediction         float32 `yaml:"prediction" json:"prediction"`
	JitterRadius       float32 `yaml:"jitterRadius" json:"jitterRadius"`
	MaxDeviationRadius float32 `yaml:"maxDeviationRadius" json:"maxDeviationRadius"`
}

// SkeletonPoint is a position in skeleton space, in metres.
type SkeletonPoint struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// ColorPoint is a pixel position in colour image space.
type ColorPoint struct {
	X int
	Y int
}

// ColorFrame is one frame of the colour stream.
type ColorFrame struct {
	Width       int
	Height      int
	FrameNumber uint32
	Timestamp   time.Time
	Pixels      []byte
}

// CopyPixelDataTo copies the frame's pixels into dst, which must be exactly
// len(f.Pixels) bytes long.
func (f *ColorFrame) CopyPixelDataTo(dst []byte) error {
	if len(dst) != len(f.Pixels) {
		return fmt.Errorf("%w: buffer is %d bytes, frame is %d", ErrFrameUnavailable, len(dst), len(f.Pixels))
	}
	copy(dst, f.Pixels)
	return nil
}

// SkeletonFrame is one frame of the skeleton stream. Skeletons always holds
// the device's full slot count; empty slots are NotTracked.
type SkeletonFrame struct {
	FrameNumber uint32     `json:"frame"`
	Timestamp   time.Time  `json:"timestamp"`
	Skeletons   []Skeleton `json:"skeletons"`
}

// SkeletonArrayLength is the number of slots in the frame.
func (f *SkeletonFrame) SkeletonArrayLength() int {
	return len(f.Skeletons)
}

// CopySkeletonDataTo copies the frame's slots into dst.
func (f *SkeletonFrame) CopySkeletonDataTo(dst []Skeleton) error {
	if len(dst) != len(f.Skeletons) {
		return fmt.Errorf("%w: buffer has %d slots, frame has %d", ErrFrameUnavailable, len(dst), len(f.Skeletons))
	}
	copy(dst, f.Skeletons)
	return nil
}
