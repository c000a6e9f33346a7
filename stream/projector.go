package stream

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ichinoseShugo/kinectjointrecord/display"
	"github.com/ichinoseShugo/kinectjointrecord/sensor"
)

const (
	markerSize   = 20
	markerOffset = 40
)

var markerFill, _ = colorful.Hex("#000000")

// CoordinateMapper maps skeleton space into colour image space.
type CoordinateMapper interface {
	MapSkeletonPointToColorPoint(p sensor.SkeletonPoint, format sensor.ColorImageFormat) (sensor.ColorPoint, error)
}

// JointProjector projects joints into the negotiated colour format.
type JointProjector struct {
	mapper CoordinateMapper
	format sensor.ColorImageFormat
}

func NewJointProjector(mapper CoordinateMapper, format sensor.ColorImageFormat) *JointProjector {
	p := new(JointProjector)
	p.mapper = mapper
	p.format = format
	return p
}

func (p *JointProjector) Project(position sensor.SkeletonPoint) (sensor.ColorPoint, error) {
	return p.mapper.MapSkeletonPointToColorPoint(position, p.format)
}

// Marker is the shape drawn for a projected joint: 20x20 with its top-left
// margin at (x-40, y-40).
func Marker(pt sensor.ColorPoint) display.Ellipse {
	return display.Ellipse{
		Left:   float64(pt.X - markerOffset),
		Top:    float64(pt.Y - markerOffset),
		Width:  markerSize,
		Height: markerSize,
		Fill:   markerFill,
	}
}
