package stream

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ichinoseShugo/kinectjointrecord/sensor"
)

const (
	DriverSim  = "sim"
	DriverMQTT = "mqtt"
)

type SensorConfig struct {
	ColorFormat   sensor.ColorImageFormat `yaml:"colorFormat"`
	SkeletonSlots int                     `yaml:"skeletonSlots"`
	SimDevices    int                     `yaml:"simDevices"`
	Smoothing     sensor.SmoothParameters `yaml:"smoothing"`
	Calibration   sensor.Calibration      `yaml:"calibration"`
}

type RecordingConfig struct {
	Root         string           `yaml:"root"`
	Joint        sensor.JointType `yaml:"joint"`
	RecordPoints bool             `yaml:"recordPoints"`
	RecordImages bool             `yaml:"recordImages"`
}

type ApiConfig struct {
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Driver    string            `yaml:"driver"`
	Mqtt      sensor.MQTTConfig `yaml:"mqtt"`
	Sensor    SensorConfig      `yaml:"sensor"`
	Recording RecordingConfig   `yaml:"recording"`
	Api       ApiConfig         `yaml:"api"`
	Log       LogConfig         `yaml:"log"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	c := Config{
		Driver: DriverSim,
		Sensor: SensorConfig{
			ColorFormat:   sensor.RgbResolution640x480Fps30,
			SkeletonSlots: sensor.DefaultSkeletonSlots,
			SimDevices:    1,
			Smoothing: sensor.SmoothParameters{
				Smoothing:          0.2,
				Correction:         0.8,
				Prediction:         0.0,
				JitterRadius:       0.5,
				MaxDeviationRadius: 0.5,
			},
			Calibration: sensor.Calibration{FocalLength: sensor.NominalFocalLength},
		},
		Recording: RecordingConfig{
			Root:  defaultRecordingRoot(),
			Joint: sensor.HandLeft,
		},
		Api: ApiConfig{Listen: ":3000"},
		Log: LogConfig{Level: "info"},
	}
	c.Mqtt.URL = "tcp://localhost:1883"
	c.Mqtt.Topics.Prefix = "kinect"
	return c
}

// Validate checks the fields the pipeline cannot run without and expands
// the recording root.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSim, DriverMQTT:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.Sensor.ColorFormat.Width() == 0 {
		return fmt.Errorf("colour format %v is not supported", c.Sensor.ColorFormat)
	}
	if c.Recording.Joint < 0 || c.Recording.Joint >= sensor.JointCount {
		return fmt.Errorf("invalid joint %d", int(c.Recording.Joint))
	}
	c.Recording.Root = ExpandPath(strings.TrimSpace(c.Recording.Root))
	if c.Recording.Root == "" {
		return fmt.Errorf("recording root is required")
	}
	if c.Driver == DriverMQTT && c.Mqtt.URL == "" {
		return fmt.Errorf("mqtt url is required")
	}
	return nil
}

// defaultRecordingRoot is the Kinect folder under the user's documents.
func defaultRecordingRoot() string {
	homeDir, _ := os.UserHomeDir()

	if homeDir == "" {
		return "Kinect"
	}

	return filepath.Join(homeDir, "Documents", "Kinect")
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, _ := os.UserHomeDir()
	if homeDir == "" {
		return path
	}

	trimmed := strings.TrimPrefix(path, "~")
	trimmed = strings.TrimPrefix(trimmed, string(os.PathSeparator))
	return filepath.Join(homeDir, trimmed)
}
