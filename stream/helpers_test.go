package stream

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ichinoseShugo/kinectjointrecord/display"
	"github.com/ichinoseShugo/kinectjointrecord/sensor"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 5, 9, 7, 0, 0, time.Local)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeDevice struct {
	sensor.PinholeMapper
	id              string
	slots           int
	format          sensor.ColorImageFormat
	colorEnabled    bool
	skeletonEnabled bool
	started         bool
	startErr        error
	onColor         sensor.ColorHandler
	onSkeleton      sensor.SkeletonHandler
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{id: "fake-0", slots: sensor.DefaultSkeletonSlots}
}

func (d *fakeDevice) ID() string { return d.id }

func (d *fakeDevice) EnableColorStream(format sensor.ColorImageFormat) error {
	d.format = format
	d.colorEnabled = true
	return nil
}

func (d *fakeDevice) DisableColorStream() error {
	d.colorEnabled = false
	return nil
}

func (d *fakeDevice) EnableSkeletonStream(params sensor.SmoothParameters) error {
	d.skeletonEnabled = true
	return nil
}

func (d *fakeDevice) DisableSkeletonStream() error {
	d.skeletonEnabled = false
	return nil
}

func (d *fakeDevice) ColorFormat() sensor.ColorImageFormat { return d.format }

func (d *fakeDevice) SkeletonArrayLength() int { return d.slots }

func (d *fakeDevice) SubscribeColor(handler sensor.ColorHandler) { d.onColor = handler }

func (d *fakeDevice) SubscribeSkeleton(handler sensor.SkeletonHandler) { d.onSkeleton = handler }

func (d *fakeDevice) Start(ctx context.Context) error {
	if d.startErr != nil {
		return d.startErr
	}
	d.started = true
	return nil
}

func (d *fakeDevice) Stop() error {
	d.started = false
	return nil
}

// streamingDevice delivers colour frames from its own goroutine until
// stopped. Stop does not wait for a delivery in progress.
type streamingDevice struct {
	*fakeDevice
	stop      chan struct{}
	done      chan struct{}
	delivered atomic.Int64
}

func newStreamingDevice() *streamingDevice {
	return &streamingDevice{
		fakeDevice: newFakeDevice(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (d *streamingDevice) Start(ctx context.Context) error {
	frame := colorFrame(d.format, 0x55)
	handler := d.onColor
	go func() {
		defer close(d.done)
		for {
			select {
			case <-d.stop:
				// one more frame after stop, as a bridge would
				handler(frame)
				return
			default:
				handler(frame)
				d.delivered.Add(1)
			}
		}
	}()
	return nil
}

func (d *streamingDevice) Stop() error {
	close(d.stop)
	return nil
}

type fakeDriver struct {
	devices []sensor.Device
}

func (d *fakeDriver) ListDevices(ctx context.Context) ([]sensor.Device, error) {
	return d.devices, nil
}

type fakeRecorder struct {
	joints []sensor.Joint
}

func (r *fakeRecorder) RecordSample(joint sensor.Joint) error {
	r.joints = append(r.joints, joint)
	return nil
}

type toggle bool

func (t toggle) RecordPoints() bool { return bool(t) }
func (t toggle) RecordImages() bool { return bool(t) }

// skeletonFrame builds a frame of slots skeletons where the listed slots
// are Tracked with HandLeft at hand.
func skeletonFrame(slots int, hand sensor.SkeletonPoint, tracked ...int) *sensor.SkeletonFrame {
	f := &sensor.SkeletonFrame{Skeletons: make([]sensor.Skeleton, slots)}
	for i := range f.Skeletons {
		f.Skeletons[i].TrackingState = sensor.NotTracked
	}
	for _, i := range tracked {
		f.Skeletons[i] = sensor.Skeleton{
			TrackingState: sensor.Tracked,
			Joints: map[sensor.JointType]sensor.Joint{
				sensor.HandLeft: {TrackingState: sensor.Tracked, Position: hand},
			},
		}
	}
	return f
}

func colorFrame(format sensor.ColorImageFormat, fill byte) *sensor.ColorFrame {
	pixels := make([]byte, format.FramePixelDataLength())
	for i := range pixels {
		pixels[i] = fill
	}
	return &sensor.ColorFrame{Width: format.Width(), Height: format.Height(), Pixels: pixels}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

var _ ShapeSurface = (*display.Canvas)(nil)
var _ PixelSurface = (*display.Bitmap)(nil)
var _ sensor.Device = (*fakeDevice)(nil)
var _ sensor.Device = (*streamingDevice)(nil)
