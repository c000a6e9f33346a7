package sensor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
)

func TestParseJointType(t *testing.T) {
	j, err := ParseJointType("HandLeft")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j != HandLeft {
		t.Errorf("expected HandLeft, got %v", j)
	}
	if _, err := ParseJointType("Tail"); err == nil {
		t.Error("expected error for unknown joint")
	}
	if FootRight.String() != "FootRight" {
		t.Errorf("unexpected name %q", FootRight.String())
	}
}

func TestColorImageFormat(t *testing.T) {
	f, err := ParseColorImageFormat("RgbResolution640x480Fps30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Width() != 640 || f.Height() != 480 || f.FPS() != 30 {
		t.Errorf("unexpected geometry %dx%d@%d", f.Width(), f.Height(), f.FPS())
	}
	if f.FramePixelDataLength() != 640*480*4 {
		t.Errorf("unexpected pixel data length %d", f.FramePixelDataLength())
	}
	if _, err := ParseColorImageFormat("Yuv"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestPinholeMapper(t *testing.T) {
	m := PinholeMapper{}

	p, err := m.MapSkeletonPointToColorPoint(SkeletonPoint{0, 0, 2}, RgbResolution640x480Fps30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != (ColorPoint{320, 240}) {
		t.Errorf("expected image centre, got %+v", p)
	}

	p, err = m.MapSkeletonPointToColorPoint(SkeletonPoint{0.1, 0.2, 3}, RgbResolution640x480Fps30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != (ColorPoint{338, 205}) {
		t.Errorf("unexpected projection %+v", p)
	}

	p, err = m.MapSkeletonPointToColorPoint(SkeletonPoint{0.1, 0.2, 3}, RgbResolution1280x960Fps12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != (ColorPoint{675, 409}) {
		t.Errorf("unexpected high resolution projection %+v", p)
	}
}

func TestPinholeMapper_Errors(t *testing.T) {
	m := PinholeMapper{}
	if _, err := m.MapSkeletonPointToColorPoint(SkeletonPoint{0, 0, 0}, RgbResolution640x480Fps30); !errors.Is(err, ErrDepthOutOfRange) {
		t.Errorf("expected ErrDepthOutOfRange, got %v", err)
	}
	if _, err := m.MapSkeletonPointToColorPoint(SkeletonPoint{0, 0, 1}, ColorFormatUndefined); !errors.Is(err, ErrCalibrationUnavailable) {
		t.Errorf("expected ErrCalibrationUnavailable, got %v", err)
	}
}

func TestDevice_MapRequiresNegotiatedFormat(t *testing.T) {
	d := NewSimDevice("sim-0", Calibration{}, 0)
	if _, err := d.MapSkeletonPointToColorPoint(SkeletonPoint{0, 0, 1}, RgbResolution640x480Fps30); !errors.Is(err, ErrCalibrationUnavailable) {
		t.Errorf("expected ErrCalibrationUnavailable before enable, got %v", err)
	}
	if err := d.EnableColorStream(RgbResolution640x480Fps30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := d.MapSkeletonPointToColorPoint(SkeletonPoint{0, 0, 1}, RgbResolution640x480Fps30); err != nil {
		t.Errorf("unexpected error after enable: %v", err)
	}
	if d.SkeletonArrayLength() != DefaultSkeletonSlots {
		t.Errorf("expected %d slots, got %d", DefaultSkeletonSlots, d.SkeletonArrayLength())
	}
}

func TestSimDriver_ListDevices(t *testing.T) {
	devices, err := NewSimDriver(0, Calibration{}, 6).ListDevices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devices) != 0 {
		t.Errorf("expected no devices, got %d", len(devices))
	}

	devices, err = NewSimDriver(2, Calibration{}, 6).ListDevices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devices) != 2 || devices[1].ID() != "sim-1" {
		t.Errorf("unexpected devices %v", devices)
	}
}

func TestSimDevice_DeliversBothStreams(t *testing.T) {
	d := NewSimDevice("sim-0", Calibration{}, 6)
	if err := d.EnableColorStream(RgbResolution640x480Fps30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.EnableSkeletonStream(SmoothParameters{Smoothing: 0.2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var mu sync.Mutex
	var colors, skeletons int
	gotSkeleton := make(chan *SkeletonFrame, 1)
	d.SubscribeColor(func(f *ColorFrame) {
		mu.Lock()
		colors++
		mu.Unlock()
	})
	d.SubscribeSkeleton(func(f *SkeletonFrame) {
		mu.Lock()
		skeletons++
		mu.Unlock()
		select {
		case gotSkeleton <- f:
		default:
		}
	})

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var frame *SkeletonFrame
	select {
	case frame = <-gotSkeleton:
	case <-time.After(2 * time.Second):
		t.Fatal("no skeleton frame delivered")
	}
	time.Sleep(100 * time.Millisecond)
	if err := d.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if frame.SkeletonArrayLength() != 6 {
		t.Errorf("expected 6 slots, got %d", frame.SkeletonArrayLength())
	}
	if frame.Skeletons[0].TrackingState != Tracked {
		t.Errorf("expected slot 0 tracked")
	}
	if frame.Skeletons[1].TrackingState != NotTracked {
		t.Errorf("expected slot 1 not tracked")
	}

	mu.Lock()
	defer mu.Unlock()
	if colors == 0 {
		t.Error("expected colour frames")
	}
	after := skeletons
	time.Sleep(100 * time.Millisecond)
	if skeletons != after {
		t.Error("frames delivered after Stop")
	}
}

func TestGradientTrail_FrameSize(t *testing.T) {
	g := NewGradientTrail(DefaultGradient(), 320, 4)
	f := g.CalculateFrame(1, 8, 2)
	if len(f.Pixels) != 8*2*BytesPerPixel {
		t.Fatalf("unexpected pixel length %d", len(f.Pixels))
	}
	for i := 3; i < len(f.Pixels); i += 4 {
		if f.Pixels[i] != 0xff {
			t.Fatalf("expected opaque pixel at %d", i)
		}
	}
	if string(f.Pixels[:32]) != string(f.Pixels[32:]) {
		t.Error("expected identical rows")
	}
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func TestMQTTDevice_HandlersDecodeOrDeliverNil(t *testing.T) {
	driver := NewMQTTDriver(nil, MQTTConfig{}, Calibration{}, 6)
	d := newMQTTDevice(driver, "k1")
	d.setColor(RgbResolution640x480Fps30, true)
	d.setSkeleton(SmoothParameters{}, true)

	var colorFrames []*ColorFrame
	var skeletonFrames []*SkeletonFrame
	d.SubscribeColor(func(f *ColorFrame) { colorFrames = append(colorFrames, f) })
	d.SubscribeSkeleton(func(f *SkeletonFrame) { skeletonFrames = append(skeletonFrames, f) })

	good := &ColorFrame{Width: 640, Height: 480, Pixels: make([]byte, 640*480*4)}
	data, err := good.MarshalBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wrongSize := &ColorFrame{Width: 1, Height: 1, Pixels: make([]byte, 4)}
	small, _ := wrongSize.MarshalBinary()

	d.handleColor(nil, fakeMessage{topic: d.topic("color"), payload: data})
	d.handleColor(nil, fakeMessage{topic: d.topic("color"), payload: small})
	d.handleSkeleton(nil, fakeMessage{topic: d.topic("skeleton"), payload: []byte(`{"skeletons":[]}`)})
	d.handleSkeleton(nil, fakeMessage{topic: d.topic("skeleton"), payload: []byte(`not json`)})

	if len(colorFrames) != 2 || colorFrames[0] == nil || colorFrames[1] != nil {
		t.Errorf("unexpected colour deliveries %v", colorFrames)
	}
	if len(skeletonFrames) != 2 || skeletonFrames[0] == nil || skeletonFrames[1] != nil {
		t.Errorf("unexpected skeleton deliveries %v", skeletonFrames)
	}
	if skeletonFrames[0].SkeletonArrayLength() != 6 {
		t.Errorf("expected padded frame, got %d slots", skeletonFrames[0].SkeletonArrayLength())
	}
	if d.topic("color") != "/k1/color" {
		t.Errorf("unexpected topic %q", d.topic("color"))
	}
}

func TestMQTTDevice_DisabledStreamIgnored(t *testing.T) {
	d := newMQTTDevice(NewMQTTDriver(nil, MQTTConfig{}, Calibration{}, 6), "k1")
	called := false
	d.SubscribeSkeleton(func(f *SkeletonFrame) { called = true })
	d.handleSkeleton(nil, fakeMessage{payload: []byte(`{}`)})
	if called {
		t.Error("handler called for disabled stream")
	}
}
