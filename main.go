package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/ichinoseShugo/kinectjointrecord/api"
	"github.com/ichinoseShugo/kinectjointrecord/logging"
	"github.com/ichinoseShugo/kinectjointrecord/sensor"
	"github.com/ichinoseShugo/kinectjointrecord/stream"
)

type app struct {
	Config  stream.Config
	Client  mqtt.Client
	Session *stream.SensorSession
	Api     *api.Api
}

func newApp() *app {
	a := new(app)
	a.Config = stream.DefaultConfig()
	return a
}

// readConfig layers the YAML file over the defaults. A missing file at the
// default path leaves the defaults in place.
func (a *app) readConfig(configPath string, required bool) error {
	f, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&a.Config); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", configPath, err)
	}
	return nil
}

func (a *app) handleOnConnect(client mqtt.Client) {
	log.Info().Str("broker", a.Config.Mqtt.URL).Msg("Connected")
}

func (a *app) connect() error {
	clientID := a.Config.Mqtt.ClientID
	if clientID == "" {
		clientID = "kinectjointrecord-" + uuid.NewString()[:8]
	}

	options := mqtt.NewClientOptions().
		AddBroker(a.Config.Mqtt.URL).
		SetClientID(clientID).
		SetUsername(a.Config.Mqtt.Username).
		SetPassword(a.Config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(a.handleOnConnect)
	a.Client = mqtt.NewClient(options)

	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect %s: %w", a.Config.Mqtt.URL, token.Error())
	}
	return nil
}

func (a *app) driver() (sensor.Driver, error) {
	s := a.Config.Sensor
	switch a.Config.Driver {
	case stream.DriverMQTT:
		if err := a.connect(); err != nil {
			return nil, err
		}
		return sensor.NewMQTTDriver(a.Client, a.Config.Mqtt, s.Calibration, s.SkeletonSlots), nil
	default:
		return sensor.NewSimDriver(s.SimDevices, s.Calibration, s.SkeletonSlots), nil
	}
}

func (a *app) disconnect() {
	if a.Client != nil && a.Client.IsConnected() {
		a.Client.Disconnect(250)
	}
}

func (a *app) run(ctx context.Context, recordPoints, recordImages bool) error {
	driver, err := a.driver()
	if err != nil {
		return err
	}
	defer a.disconnect()

	a.Session = stream.NewSensorSession(a.Config, driver, time.Now())
	if err := a.Session.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		if err := a.Session.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Shutdown incomplete")
		}
	}()

	if recordPoints {
		if err := a.Session.Controller().SetRecordPoints(true); err != nil {
			return err
		}
	}
	if recordImages {
		a.Session.Controller().SetRecordImages(true)
	}

	a.Api = api.NewApi(a.Config.Api.Listen, a.Session)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.Api.Serve()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Received signal, shutting down")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.Api.Shutdown(shutdownCtx)
}

func (a *app) setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	if err := a.readConfig(configPath, cmd.Flags().Changed("config")); err != nil {
		return err
	}

	if cmd.Flags().Changed("driver") {
		a.Config.Driver, _ = cmd.Flags().GetString("driver")
	}
	if cmd.Flags().Changed("log-level") {
		a.Config.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("listen") {
		a.Config.Api.Listen, _ = cmd.Flags().GetString("listen")
	}

	logging.Init(a.Config.Log.Level)
	mqtt.ERROR = stdlog.New(log.Logger.With().Str("component", "mqtt").Logger(), "", 0)

	return a.Config.Validate()
}

func newRootCmd() *cobra.Command {
	a := newApp()

	rootCmd := &cobra.Command{
		Use:           "kinectjointrecord",
		Short:         "Track a skeletal joint from a depth sensor and record its trajectory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			recordAll, _ := cmd.Flags().GetBool("record-all")
			recordPoints, _ := cmd.Flags().GetBool("record-points")
			recordImages, _ := cmd.Flags().GetBool("record-images")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx,
				recordAll || recordPoints || a.Config.Recording.RecordPoints,
				recordAll || recordImages || a.Config.Recording.RecordImages)
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "YAML config file")
	rootCmd.PersistentFlags().String("driver", "", "sensor driver (sim|mqtt)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.Flags().String("listen", "", "api listen address")
	rootCmd.Flags().Bool("record-points", false, "record joint points from startup")
	rootCmd.Flags().Bool("record-images", false, "record colour frames from startup")
	rootCmd.Flags().Bool("record-all", false, "record points and images from startup")

	rootCmd.AddCommand(newDevicesCmd(a))
	return rootCmd
}

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List connected sensors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, err := a.driver()
			if err != nil {
				return err
			}
			defer a.disconnect()

			devices, err := driver.ListDevices(cmd.Context())
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				return sensor.ErrNoDevice
			}
			for _, d := range devices {
				fmt.Fprintln(cmd.OutOrStdout(), d.ID())
			}
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, sensor.ErrNoDevice) {
			log.Error().Err(err).Msg("Connect a sensor and try again")
		} else {
			log.Error().Err(err).Msg("Exiting")
		}
		os.Exit(1)
	}
}
