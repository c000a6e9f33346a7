package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ichinoseShugo/kinectjointrecord/util"
)

const (
	simSkeletonFPS = 30
	simPathLength  = 120
)

// SimDriver reports a fixed number of simulated sensors.
type SimDriver struct {
	Count       int
	Calibration Calibration
	Slots       int
}

// NewSimDriver creates an instance of a SimDriver.
func NewSimDriver(count int, calibration Calibration, slots int) *SimDriver {
	d := new(SimDriver)
	d.Count = count
	d.Calibration = calibration
	d.Slots = slots
	return d
}

func (d *SimDriver) ListDevices(ctx context.Context) ([]Device, error) {
	devices := make([]Device, 0, d.Count)
	for i := 0; i < d.Count; i++ {
		devices = append(devices, NewSimDevice(fmt.Sprintf("sim-%d", i), d.Calibration, d.Slots))
	}
	return devices, nil
}

// SimDevice produces a scrolling gradient on the colour stream and one
// tracked skeleton waving its left hand on the skeleton stream.
type SimDevice struct {
	deviceState
	id      string
	pattern Pattern
	lut     []float64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSimDevice creates an instance of a SimDevice.
func NewSimDevice(id string, calibration Calibration, slots int) *SimDevice {
	d := new(SimDevice)
	d.init(calibration, slots)
	d.id = id
	d.pattern = NewGradientTrail(DefaultGradient(), 320, 4)
	d.lut = util.GenerateLut(simPathLength)
	return d
}

func (d *SimDevice) ID() string {
	return d.id
}

func (d *SimDevice) EnableColorStream(format ColorImageFormat) error {
	if format.Width() == 0 {
		return fmt.Errorf("unsupported colour format %v", format)
	}
	d.setColor(format, true)
	return nil
}

func (d *SimDevice) DisableColorStream() error {
	d.setColor(d.ColorFormat(), false)
	return nil
}

func (d *SimDevice) EnableSkeletonStream(params SmoothParameters) error {
	d.setSkeleton(params, true)
	return nil
}

func (d *SimDevice) DisableSkeletonStream() error {
	d.setSkeleton(d.Smoothing(), false)
	return nil
}

// Start begins delivering frames until Stop is called or ctx is done.
func (d *SimDevice) Start(ctx context.Context) error {
	if d.cancel != nil {
		return fmt.Errorf("device %s already started", d.id)
	}
	ctx, d.cancel = context.WithCancel(ctx)

	fps := d.ColorFormat().FPS()
	if fps == 0 {
		fps = simSkeletonFPS
	}
	d.wg.Add(2)
	go d.run(ctx, fps, d.sendColor)
	go d.run(ctx, simSkeletonFPS, d.sendSkeleton)
	return nil
}

// Stop halts delivery and waits for in-flight frames to finish.
func (d *SimDevice) Stop() error {
	if d.cancel == nil {
		return nil
	}
	d.cancel()
	d.wg.Wait()
	d.cancel = nil
	return nil
}

func (d *SimDevice) run(ctx context.Context, fps int, send func(frameNumber uint32)) {
	defer d.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var frameNumber uint32
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frameNumber++
			send(frameNumber)
		}
	}
}

func (d *SimDevice) sendColor(frameNumber uint32) {
	handler := d.colorHandler()
	if handler == nil {
		return
	}
	format := d.ColorFormat()
	f := d.pattern.CalculateFrame(frameNumber, format.Width(), format.Height())
	f.Timestamp = time.Now()
	handler(f)
}

func (d *SimDevice) sendSkeleton(frameNumber uint32) {
	handler := d.skeletonHandler()
	if handler == nil {
		return
	}
	f := &SkeletonFrame{
		FrameNumber: frameNumber,
		Timestamp:   time.Now(),
		Skeletons:   make([]Skeleton, d.SkeletonArrayLength()),
	}
	f.Skeletons[0] = d.pose(frameNumber)
	handler(f)
}

// restPose is a person standing two metres from the sensor.
var restPose = map[JointType]SkeletonPoint{
	HipCenter:      {0, -0.2, 2.0},
	Spine:          {0, 0.0, 2.0},
	ShoulderCenter: {0, 0.35, 2.0},
	Head:           {0, 0.55, 2.0},
	ShoulderLeft:   {-0.18, 0.32, 2.0},
	ElbowLeft:      {-0.3, 0.1, 2.0},
	WristLeft:      {-0.32, -0.1, 1.95},
	HandLeft:       {-0.33, -0.15, 1.95},
	ShoulderRight:  {0.18, 0.32, 2.0},
	ElbowRight:     {0.3, 0.1, 2.0},
	WristRight:     {0.32, -0.1, 1.95},
	HandRight:      {0.33, -0.15, 1.95},
	HipLeft:        {-0.1, -0.25, 2.0},
	KneeLeft:       {-0.1, -0.65, 2.0},
	AnkleLeft:      {-0.1, -1.0, 2.0},
	FootLeft:       {-0.1, -1.05, 1.9},
	HipRight:       {0.1, -0.25, 2.0},
	KneeRight:      {0.1, -0.65, 2.0},
	AnkleRight:     {0.1, -1.0, 2.0},
	FootRight:      {0.1, -1.05, 1.9},
}

func (d *SimDevice) pose(frameNumber uint32) Skeleton {
	wave := d.lut[int(frameNumber)%len(d.lut)]
	jitter := func() float32 {
		return float32(util.RandomBetween(-0.003, 0.003))
	}

	s := Skeleton{
		TrackingID:    1,
		TrackingState: Tracked,
		Position:      restPose[HipCenter],
		Joints:        make(map[JointType]Joint, JointCount),
	}
	for t, p := range restPose {
		s.Joints[t] = Joint{Type: t, TrackingState: Tracked, Position: p}
	}

	hand := restPose[HandLeft]
	hand.X += float32(-0.15*wave) + jitter()
	hand.Y += float32(0.6*wave) + jitter()
	hand.Z += float32(-0.2*wave) + jitter()
	s.Joints[HandLeft] = Joint{Type: HandLeft, TrackingState: Tracked, Position: hand}
	return s
}
