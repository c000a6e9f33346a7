package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const defaultDiscoveryTimeout = 2 * time.Second

// MQTTConfig locates the capture bridge on the broker.
type MQTTConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"clientID"`
	Topics   struct {
		Prefix string `yaml:"prefix"`
	} `yaml:"topics"`
	DiscoveryTimeout time.Duration `yaml:"discoveryTimeout"`
}

// StatusMessage is the bridge's retained list of connected sensors.
type StatusMessage struct {
	Devices []string `json:"devices"`
}

// ControlMessage asks the bridge to change a sensor's streams.
type ControlMessage struct {
	Type      string            `json:"type"`
	Format    string            `json:"format,omitempty"`
	Smoothing *SmoothParameters `json:"smoothing,omitempty"`
}

// MQTTDriver discovers sensors exposed by a capture bridge over MQTT.
type MQTTDriver struct {
	client      mqtt.Client
	config      MQTTConfig
	calibration Calibration
	slots       int
}

// NewMQTTDriver creates an instance of an MQTTDriver.
func NewMQTTDriver(client mqtt.Client, config MQTTConfig, calibration Calibration, slots int) *MQTTDriver {
	d := new(MQTTDriver)
	d.client = client
	d.config = config
	d.calibration = calibration
	d.slots = slots
	return d
}

func (d *MQTTDriver) statusTopic() string {
	return d.config.Topics.Prefix + "/status"
}

// ListDevices waits for the bridge's status message. No message before the
// discovery timeout means no devices.
func (d *MQTTDriver) ListDevices(ctx context.Context) ([]Device, error) {
	status := make(chan StatusMessage, 1)
	handler := func(client mqtt.Client, msg mqtt.Message) {
		var message StatusMessage
		if err := json.Unmarshal(msg.Payload(), &message); err != nil {
			log.Warn().Err(err).Str("topic", msg.Topic()).Msg("Ignoring malformed sensor status")
			return
		}
		select {
		case status <- message:
		default:
		}
	}

	topic := d.statusTopic()
	if token := d.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	defer d.client.Unsubscribe(topic)

	timeout := d.config.DiscoveryTimeout
	if timeout <= 0 {
		timeout = defaultDiscoveryTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var message StatusMessage
	select {
	case message = <-status:
	case <-timer.C:
		log.Debug().Str("topic", topic).Dur("timeout", timeout).Msg("No sensor status received")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	devices := make([]Device, 0, len(message.Devices))
	for _, id := range message.Devices {
		devices = append(devices, newMQTTDevice(d, id))
	}
	return devices, nil
}

// MQTTDevice is a sensor whose frames arrive over MQTT.
type MQTTDevice struct {
	deviceState
	client mqtt.Client
	prefix string
	id     string
}

func newMQTTDevice(d *MQTTDriver, id string) *MQTTDevice {
	m := new(MQTTDevice)
	m.init(d.calibration, d.slots)
	m.client = d.client
	m.prefix = d.config.Topics.Prefix
	m.id = id
	return m
}

// ID returns the bridge's identifier for the sensor.
func (m *MQTTDevice) ID() string {
	return m.id
}

func (m *MQTTDevice) topic(stream string) string {
	return m.prefix + "/" + m.id + "/" + stream
}

func (m *MQTTDevice) publish(message ControlMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic("control"), 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", message.Type, err)
	}
	return nil
}

func (m *MQTTDevice) EnableColorStream(format ColorImageFormat) error {
	if format.Width() == 0 {
		return fmt.Errorf("unsupported colour format %v", format)
	}
	if err := m.publish(ControlMessage{Type: "enableColor", Format: format.String()}); err != nil {
		return err
	}
	m.setColor(format, true)
	return nil
}

func (m *MQTTDevice) DisableColorStream() error {
	m.setColor(m.ColorFormat(), false)
	return m.publish(ControlMessage{Type: "disableColor"})
}

func (m *MQTTDevice) EnableSkeletonStream(params SmoothParameters) error {
	if err := m.publish(ControlMessage{Type: "enableSkeleton", Smoothing: &params}); err != nil {
		return err
	}
	m.setSkeleton(params, true)
	return nil
}

func (m *MQTTDevice) DisableSkeletonStream() error {
	m.setSkeleton(m.Smoothing(), false)
	return m.publish(ControlMessage{Type: "disableSkeleton"})
}

// Start subscribes to both frame topics and asks the bridge to stream.
func (m *MQTTDevice) Start(ctx context.Context) error {
	if token := m.client.Subscribe(m.topic("color"), 0, m.handleColor); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe colour: %w", token.Error())
	}
	if token := m.client.Subscribe(m.topic("skeleton"), 0, m.handleSkeleton); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe skeleton: %w", token.Error())
	}
	return m.publish(ControlMessage{Type: "start"})
}

// Stop unsubscribes from the frame topics and asks the bridge to stop.
func (m *MQTTDevice) Stop() error {
	if token := m.client.Unsubscribe(m.topic("color"), m.topic("skeleton")); token.Wait() && token.Error() != nil {
		log.Warn().Err(token.Error()).Str("device", m.id).Msg("Unsubscribe failed")
	}
	return m.publish(ControlMessage{Type: "stop"})
}

func (m *MQTTDevice) handleColor(client mqtt.Client, msg mqtt.Message) {
	handler := m.colorHandler()
	if handler == nil {
		return
	}

	frame, err := DecodeColorFrame(msg.Payload())
	if err == nil {
		format := m.ColorFormat()
		if frame.Width != format.Width() || frame.Height != format.Height() {
			err = fmt.Errorf("%w: %dx%d frame for %v", ErrFrameUnavailable, frame.Width, frame.Height, format)
		}
	}
	if err != nil {
		log.Debug().Err(err).Str("device", m.id).Msg("Dropping colour frame")
		handler(nil)
		return
	}
	frame.Timestamp = time.Now()
	handler(frame)
}

func (m *MQTTDevice) handleSkeleton(client mqtt.Client, msg mqtt.Message) {
	handler := m.skeletonHandler()
	if handler == nil {
		return
	}

	frame, err := DecodeSkeletonFrame(msg.Payload(), m.SkeletonArrayLength())
	if err != nil {
		log.Debug().Err(err).Str("device", m.id).Msg("Dropping skeleton frame")
		handler(nil)
		return
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}
	handler(frame)
}
