package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/oklog/run"
	"github.com/victorjacobs/go-izzi/bridge"
	"github.com/victorjacobs/go-izzi/config"
	"github.com/victorjacobs/go-izzi/izzi"
	"github.com/victorjacobs/go-izzi/persistence"
	"github.com/victorjacobs/go-izzi/routes"
	"github.com/victorjacobs/go-izzi/statistics"
	"github.com/victorjacobs/go-izzi/ui"
)

func runDaemon(cfg *config.Configuration) error {
	pers := persistence.NewPersistence(cfg.DbPath)
	if err := pers.Init(); err != nil {
		return fmt.Errorf("initializing persistence: %w", err)
	}

	var b *bridge.Bridge
	controller := izzi.NewController(cfg.NewTransport(),
		izzi.WithRole(cfg.Role()),
		izzi.WithBiasStore(pers),
		izzi.WithListener(func(id izzi.SensorID, reading izzi.Reading) {
			if b != nil {
				b.Listen(id, reading)
			}
		}),
	)
	applyDefaults(cfg, controller)

	statistics.Register(statistics.NewControllerCollector(controller))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	{
		// === controller loop
		g.Add(func() error {
			err := controller.Run(ctx)
			ui.Info("Controller stopped.")
			return err
		}, func(err error) {
			cancel()
		})
	}
	{
		// === HTTP state and metrics
		server := &http.Server{Addr: cfg.Http.Listen, Handler: routes.NewRouter(controller)}
		g.Add(func() error {
			ui.Info("Serving HTTP on %s", cfg.Http.Listen)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server: %w", err)
			}
			return nil
		}, func(err error) {
			timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer timeoutCancel()
			if err := server.Shutdown(timeoutCtx); err != nil {
				ui.Warning("Error stopping HTTP server: %v", err)
			}
		})
	}
	if cfg.Mqtt.Enabled() {
		// === MQTT bridge
		b = bridge.New(cfg, controller)
		mqttOpts := cfg.Mqtt.ClientOptions()
		// subscriptions are set up in the connect handler so they survive a reconnect
		mqttOpts.SetOnConnectHandler(b.OnConnect)
		mqttClient := mqtt.NewClient(mqttOpts)

		g.Add(func() error {
			if t := mqttClient.Connect(); t.Wait() && t.Error() != nil {
				return fmt.Errorf("MQTT connection error: %w", t.Error())
			}
			return b.Run(ctx, mqttClient)
		}, func(err error) {
			cancel()
			mqttClient.Disconnect(250)
		})
	} else {
		ui.Warning("No MQTT broker configured, bridge disabled")
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-sig:
				ui.Info("Received SIGTERM signal, exiting...")
			case <-ctx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	return g.Run()
}

// applyDefaults pushes the configured startup values through the public setters.
func applyDefaults(cfg *config.Configuration, controller *izzi.Controller) {
	if !controller.SetBypassTemp(cfg.BypassTemp) {
		ui.Warning("Ignoring bypass_temp %d", cfg.BypassTemp)
	}
	if !controller.SetBypassMode(cfg.BypassModeValue()) {
		ui.Warning("Ignoring bypass_mode %s", cfg.BypassMode)
	}
	if !controller.SetCFMaxParam(cfg.CFParamsMax) {
		ui.Warning("Ignoring cf_params_max %v", cfg.CFParamsMax)
	}
	if !controller.SetCorrection(cfg.ExtractCorrection) {
		ui.Warning("Ignoring extract_correction %d", cfg.ExtractCorrection)
	}
}
