package stream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ichinoseShugo/kinectjointrecord/display"
	"github.com/ichinoseShugo/kinectjointrecord/sensor"
)

// ErrSessionActive is returned by Initialize on a session that is running.
var ErrSessionActive = errors.New("sensor session already active")

// SensorSession owns the connected sensor and wires its streams into the
// frame buffer, skeleton tracker and recorder.
type SensorSession struct {
	config     Config
	driver     sensor.Driver
	clock      *Stopwatch
	recorder   *Recorder
	controller *RecordingController
	canvas     *display.Canvas
	status     *SkeletonStatus

	mu      sync.Mutex
	device  sensor.Device
	bitmap  *display.Bitmap
	frames  *FrameBuffer
	tracker *SkeletonTracker
}

// NewSensorSession creates a session. sessionStart fixes the recording
// directory for the lifetime of the session.
func NewSensorSession(config Config, driver sensor.Driver, sessionStart time.Time) *SensorSession {
	s := new(SensorSession)
	s.config = config
	s.driver = driver
	s.clock = NewStopwatch(nil)
	s.recorder = NewRecorder(s.clock)
	s.controller = NewRecordingController(config.Recording.Root, sessionStart, s.recorder)
	s.canvas = display.NewCanvas()
	s.status = new(SkeletonStatus)
	return s
}

func (s *SensorSession) Controller() *RecordingController { return s.controller }

func (s *SensorSession) Status() *SkeletonStatus { return s.status }

func (s *SensorSession) Canvas() *display.Canvas { return s.canvas }

func (s *SensorSession) Recorder() *Recorder { return s.recorder }

// Bitmap is the colour display surface, nil until Initialize succeeds.
func (s *SensorSession) Bitmap() *display.Bitmap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bitmap
}

// Device is the connected sensor, nil when the session is not active.
func (s *SensorSession) Device() sensor.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Initialize connects to the first sensor, enables its colour and skeleton
// streams and starts delivery. It returns sensor.ErrNoDevice when nothing
// is connected. Handlers may run before Initialize returns.
func (s *SensorSession) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device != nil {
		return ErrSessionActive
	}

	devices, err := s.driver.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		return sensor.ErrNoDevice
	}
	if len(devices) > 1 {
		log.Warn().Int("count", len(devices)).Msg("More than one sensor connected, using the first")
	}
	device := devices[0]

	format := s.config.Sensor.ColorFormat
	if err := device.EnableColorStream(format); err != nil {
		return fmt.Errorf("enable colour stream: %w", err)
	}
	if err := device.EnableSkeletonStream(s.config.Sensor.Smoothing); err != nil {
		disableStreams(device)
		return fmt.Errorf("enable skeleton stream: %w", err)
	}

	bitmap := display.NewBitmap(format.Width(), format.Height())
	frames := NewFrameBuffer(format, bitmap, s.controller, NewImageRecorder(s.controller.SessionDir(), s.clock))
	tracker := NewSkeletonTracker(s.config.Recording.Joint, device.SkeletonArrayLength(),
		NewJointProjector(device, format), s.canvas, s.recorder, s.controller, s.status)

	if err := os.MkdirAll(s.config.Recording.Root, 0o755); err != nil {
		disableStreams(device)
		return fmt.Errorf("create recording root: %w", err)
	}

	device.SubscribeColor(frames.OnColorFrame)
	device.SubscribeSkeleton(tracker.OnSkeletonFrame)

	if err := device.Start(ctx); err != nil {
		device.SubscribeColor(nil)
		device.SubscribeSkeleton(nil)
		disableStreams(device)
		return fmt.Errorf("start %s: %w", device.ID(), err)
	}

	s.device = device
	s.bitmap = bitmap
	s.frames = frames
	s.tracker = tracker

	log.Info().
		Str("device", device.ID()).
		Str("format", format.String()).
		Str("joint", s.config.Recording.Joint.String()).
		Str("sessionDir", s.controller.SessionDir()).
		Msg("Sensor session started")
	return nil
}

// Shutdown stops delivery, disables both streams, releases the display
// surface and closes the recording file.
func (s *SensorSession) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.device != nil {
		if err := s.device.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", s.device.ID(), err))
		}
		if err := disableStreams(s.device); err != nil {
			errs = append(errs, err)
		}
		s.frames.Release()
		s.device = nil
		log.Info().Msg("Sensor session stopped")
	}
	if err := s.recorder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close recording: %w", err))
	}
	return errors.Join(errs...)
}

func disableStreams(device sensor.Device) error {
	return errors.Join(device.DisableColorStream(), device.DisableSkeletonStream())
}
