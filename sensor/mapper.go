package sensor

import (
	"math"
)

// NominalFocalLength of the colour camera in pixels at 640x480.
const NominalFocalLength = 531.15

const nominalWidth = 640

// Calibration describes the colour camera's intrinsics.
type Calibration struct {
	FocalLength float64 `yaml:"focalLength"`
}

// PinholeMapper projects skeleton space onto colour image space with a
// pinhole model centred on the image.
type PinholeMapper struct {
	Calibration Calibration
}

// MapSkeletonPointToColorPoint projects p into colour pixels for format.
func (m PinholeMapper) MapSkeletonPointToColorPoint(p SkeletonPoint, format ColorImageFormat) (ColorPoint, error) {
	width, height := format.Width(), format.Height()
	if width == 0 || height == 0 {
		return ColorPoint{}, ErrCalibrationUnavailable
	}
	if p.Z <= 0 {
		return ColorPoint{}, ErrDepthOutOfRange
	}

	focal := m.Calibration.FocalLength
	if focal <= 0 {
		focal = NominalFocalLength
	}
	focal *= float64(width) / nominalWidth

	x := float64(width)/2 + focal*float64(p.X)/float64(p.Z)
	y := float64(height)/2 - focal*float64(p.Y)/float64(p.Z)
	return ColorPoint{X: int(math.Round(x)), Y: int(math.Round(y))}, nil
}
