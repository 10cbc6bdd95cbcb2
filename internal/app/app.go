// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/Kampi/SensorHub/bh1726"
	"github.com/Kampi/SensorHub/bme680"
	"github.com/Kampi/SensorHub/internal/config"
	"github.com/Kampi/SensorHub/internal/console"
	"github.com/Kampi/SensorHub/internal/metrics"
	"github.com/Kampi/SensorHub/internal/publish"
	"github.com/Kampi/SensorHub/internal/store"
	"github.com/Kampi/SensorHub/mcp9808"
	"github.com/Kampi/SensorHub/sensorhub"
	"github.com/Kampi/SensorHub/veml6070"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("initializing sensorhub",
		"i2c_bus", cfg.I2CBus,
		"poll_interval", cfg.PollInterval,
		"station_id", cfg.StationID,
	)

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("i2c open: %w", err)
	}
	defer bus.Close()

	sensors, halt, err := newSensors(bus, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := halt(); err != nil {
			logger.Warn("halt sensors", "error", err)
		}
	}()

	opts := sensorhub.DefaultOpts
	opts.Logger = logger
	hub, err := sensorhub.New(sensors, &opts)
	if err != nil {
		return err
	}

	sinks, onError, closeSinks, err := newSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	l := &Loop{
		Source:   hub,
		Sinks:    sinks,
		Interval: cfg.PollInterval,
		OnError:  onError,
		Logger:   logger,
	}
	err = l.Run(ctx)
	logger.Info("sensorhub shutting down")
	return err
}

// newSensors builds the drivers without touching the bus; Hub.Initialize
// brings them up.
func newSensors(bus i2c.Bus, cfg config.Config) (sensorhub.Sensors, func() error, error) {
	temp, err := mcp9808.New(bus, cfg.MCP9808Addr, nil)
	if err != nil {
		return sensorhub.Sensors{}, nil, err
	}
	light, err := bh1726.New(bus, cfg.BH1726Addr, nil)
	if err != nil {
		return sensorhub.Sensors{}, nil, err
	}
	env, err := bme680.New(bus, cfg.BME680Addr, nil)
	if err != nil {
		return sensorhub.Sensors{}, nil, err
	}
	uv, err := veml6070.New(bus, nil)
	if err != nil {
		return sensorhub.Sensors{}, nil, err
	}
	s := sensorhub.Sensors{Temperature: temp, Light: light, Env: env, UV: uv}
	halters := []interface{ Halt() error }{temp, light, env, uv}

	if cfg.ADS1115Addr != 0 {
		o := ads1x15.DefaultOpts
		o.I2cAddress = cfg.ADS1115Addr
		adc, err := ads1x15.NewADS1115(bus, &o)
		if err != nil {
			return sensorhub.Sensors{}, nil, fmt.Errorf("ads1115: %w", err)
		}
		solar, err := adc.PinForChannel(ads1x15.Channel0, 4*physic.Volt, 1*physic.Hertz, ads1x15.SaveEnergy)
		if err != nil {
			return sensorhub.Sensors{}, nil, fmt.Errorf("ads1115 solar: %w", err)
		}
		battery, err := adc.PinForChannel(ads1x15.Channel1, 4*physic.Volt, 1*physic.Hertz, ads1x15.SaveEnergy)
		if err != nil {
			return sensorhub.Sensors{}, nil, fmt.Errorf("ads1115 battery: %w", err)
		}
		s.Solar = solar
		s.Battery = battery
		halters = append(halters, solar, battery)
	}

	halt := func() error {
		var errs []error
		for _, h := range halters {
			if err := h.Halt(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return s, halt, nil
}

// newSinks wires the optional outputs enabled in cfg.
func newSinks(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]Sink, func(error), func(), error) {
	var sinks []Sink
	var closers []func()
	onError := func(error) {}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.MQTTBroker != "" {
		c, err := publish.NewClient(cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		go func() {
			if err := c.Connect(ctx); err != nil {
				logger.Error("mqtt connect failed", "error", err)
			}
		}()
		closers = append(closers, c.Disconnect)
		sinks = append(sinks, SinkFunc("mqtt", func(_ context.Context, r sensorhub.Reading) error {
			return c.Publish(r)
		}))
	}

	if cfg.MetricsAddr != "" {
		m := metrics.New(cfg.StationID)
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		onError = m.ObserveError
		sinks = append(sinks, SinkFunc("metrics", func(_ context.Context, r sensorhub.Reading) error {
			m.Observe(r)
			return nil
		}))
	}

	if cfg.SQLitePath != "" {
		s, err := store.Open(cfg.SQLitePath)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		closers = append(closers, func() {
			if err := s.Close(); err != nil {
				logger.Warn("close history", "error", err)
			}
		})
		sinks = append(sinks, SinkFunc("sqlite", func(ctx context.Context, r sensorhub.Reading) error {
			return s.Insert(ctx, cfg.StationID, r)
		}))
	}

	if cfg.Console {
		b := console.New(&console.Opts{Width: 20})
		closers = append(closers, func() { _ = b.Halt() })
		sinks = append(sinks, SinkFunc("console", func(_ context.Context, r sensorhub.Reading) error {
			return b.Show(r)
		}))
	}

	return sinks, onError, closeAll, nil
}
