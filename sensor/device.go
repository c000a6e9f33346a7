package sensor

import (
	"context"
	"sync"
)

// ColorHandler receives colour frames. A nil frame means the notification
// fired but the payload could not be opened.
type ColorHandler func(frame *ColorFrame)

// SkeletonHandler receives skeleton frames. A nil frame means the
// notification fired but the payload could not be opened.
type SkeletonHandler func(frame *SkeletonFrame)

// A Driver enumerates connected sensors.
type Driver interface {
	ListDevices(ctx context.Context) ([]Device, error)
}

// A Device is a single connected sensor. Each stream delivers its frames
// serially: a new frame is not handed to a handler until the previous call
// for that stream has returned. The two streams are independent.
type Device interface {
	ID() string
	EnableColorStream(format ColorImageFormat) error
	DisableColorStream() error
	EnableSkeletonStream(params SmoothParameters) error
	DisableSkeletonStream() error
	ColorFormat() ColorImageFormat
	SkeletonArrayLength() int
	SubscribeColor(handler ColorHandler)
	SubscribeSkeleton(handler SkeletonHandler)
	Start(ctx context.Context) error
	Stop() error
	MapSkeletonPointToColorPoint(p SkeletonPoint, format ColorImageFormat) (ColorPoint, error)
}

// DefaultSkeletonSlots is the slot count of a skeleton frame.
const DefaultSkeletonSlots = 6

// deviceState holds the stream negotiation and subscriptions shared by the
// device implementations.
type deviceState struct {
	mu              sync.Mutex
	mapper          PinholeMapper
	slots           int
	colorFormat     ColorImageFormat
	colorEnabled    bool
	smoothing       SmoothParameters
	skeletonEnabled bool
	onColor         ColorHandler
	onSkeleton      SkeletonHandler
}

func (s *deviceState) init(calibration Calibration, slots int) {
	if slots <= 0 {
		slots = DefaultSkeletonSlots
	}
	s.mapper = PinholeMapper{Calibration: calibration}
	s.slots = slots
}

// ColorFormat returns the negotiated colour format.
func (s *deviceState) ColorFormat() ColorImageFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colorFormat
}

// SkeletonArrayLength returns the fixed slot count of skeleton frames.
func (s *deviceState) SkeletonArrayLength() int {
	return s.slots
}

// Smoothing returns the skeleton smoothing in effect.
func (s *deviceState) Smoothing() SmoothParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.smoothing
}

func (s *deviceState) SubscribeColor(handler ColorHandler) {
	s.mu.Lock()
	s.onColor = handler
	s.mu.Unlock()
}

func (s *deviceState) SubscribeSkeleton(handler SkeletonHandler) {
	s.mu.Lock()
	s.onSkeleton = handler
	s.mu.Unlock()
}

// MapSkeletonPointToColorPoint projects p into the given colour format,
// which must be the one negotiated for the colour stream.
func (s *deviceState) MapSkeletonPointToColorPoint(p SkeletonPoint, format ColorImageFormat) (ColorPoint, error) {
	s.mu.Lock()
	negotiated := s.colorFormat
	s.mu.Unlock()
	if format != negotiated {
		return ColorPoint{}, ErrCalibrationUnavailable
	}
	return s.mapper.MapSkeletonPointToColorPoint(p, format)
}

func (s *deviceState) setColor(format ColorImageFormat, enabled bool) {
	s.mu.Lock()
	s.colorFormat = format
	s.colorEnabled = enabled
	s.mu.Unlock()
}

func (s *deviceState) setSkeleton(params SmoothParameters, enabled bool) {
	s.mu.Lock()
	s.smoothing = params
	s.skeletonEnabled = enabled
	s.mu.Unlock()
}

func (s *deviceState) colorHandler() ColorHandler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.colorEnabled {
		return nil
	}
	return s.onColor
}

func (s *deviceState) skeletonHandler() SkeletonHandler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.skeletonEnabled {
		return nil
	}
	return s.onSkeleton
}
