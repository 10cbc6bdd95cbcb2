// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"periph.io/x/conn/v3/physic"

	"github.com/Kampi/SensorHub/sensorhub"
)

// Metrics holds the gauges of one station on its own registry.
type Metrics struct {
	reg     *prometheus.Registry
	station string

	temperature    *prometheus.GaugeVec
	envTemperature *prometheus.GaugeVec
	humidity       *prometheus.GaugeVec
	pressure       *prometheus.GaugeVec
	gas            *prometheus.GaugeVec
	light          *prometheus.GaugeVec
	uv             *prometheus.GaugeVec
	voltage        *prometheus.GaugeVec
	iaq            *prometheus.GaugeVec
	iaqValid       *prometheus.GaugeVec
	failures       *prometheus.CounterVec
}

func newGauge(name string, help string, labels ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		append([]string{"station"}, labels...),
	)
}

func New(station string) *Metrics {
	m := &Metrics{
		reg:            prometheus.NewRegistry(),
		station:        station,
		temperature:    newGauge("air_temperature", "Air Temperature (units: degrees Celsius)"),
		envTemperature: newGauge("air_env_temperature", "BME680 Temperature (units: degrees Celsius)"),
		humidity:       newGauge("air_humidity", "Humidity (units: % of relative Humidity)"),
		pressure:       newGauge("air_atm_pressure", "Atmospheric Pressure (units: hPa)"),
		gas:            newGauge("air_gas_resistance", "Gas sensor resistance (units: Ohm)"),
		light:          newGauge("ambient_light", "Ambient light (units: lux)"),
		uv:             newGauge("uv_index", "UV index"),
		voltage:        newGauge("supply_voltage", "Supply voltage (units: V)", "channel"),
		iaq:            newGauge("air_iaq", "Indoor air quality index, 100 is best"),
		iaqValid:       newGauge("air_iaq_valid", "1 once the gas baseline is warmed up"),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensor_failures_total",
				Help: "Failed measurement cycles by sensor",
			},
			[]string{"station", "sensor"},
		),
	}
	m.reg.MustRegister(
		m.temperature, m.envTemperature, m.humidity, m.pressure, m.gas,
		m.light, m.uv, m.voltage, m.iaq, m.iaqValid, m.failures,
		prometheus.NewBuildInfoCollector(),
	)
	return m
}

// Observe sets the gauges from r. The gas and IAQ gauges keep their value
// while the gas reading is invalid.
func (m *Metrics) Observe(r sensorhub.Reading) {
	m.temperature.WithLabelValues(m.station).Set(r.Temperature.Celsius())
	m.envTemperature.WithLabelValues(m.station).Set(r.EnvTemperature.Celsius())
	m.humidity.WithLabelValues(m.station).Set(float64(r.Humidity) / float64(physic.PercentRH))
	m.pressure.WithLabelValues(m.station).Set(float64(r.Pressure) / float64(100*physic.Pascal))
	m.light.WithLabelValues(m.station).Set(r.AmbientLight)
	m.uv.WithLabelValues(m.station).Set(r.UVIndex)
	m.voltage.WithLabelValues(m.station, "solar").Set(float64(r.SolarVoltage) / float64(physic.Volt))
	m.voltage.WithLabelValues(m.station, "battery").Set(float64(r.BatteryVoltage) / float64(physic.Volt))
	if r.GasValid {
		m.gas.WithLabelValues(m.station).Set(float64(r.GasResistance) / float64(physic.Ohm))
		m.iaq.WithLabelValues(m.station).Set(r.IAQ)
	}
	valid := 0.0
	if r.IAQValid {
		valid = 1
	}
	m.iaqValid.WithLabelValues(m.station).Set(valid)
}

// ObserveError counts a failed cycle against the sensor that caused it.
func (m *Metrics) ObserveError(err error) {
	m.failures.WithLabelValues(m.station, sensorName(err)).Inc()
}

func sensorName(err error) string {
	switch {
	case errors.Is(err, sensorhub.ErrTempSensor):
		return "temperature"
	case errors.Is(err, sensorhub.ErrLightSensor):
		return "light"
	case errors.Is(err, sensorhub.ErrEnvSensor):
		return "env"
	case errors.Is(err, sensorhub.ErrUVSensor):
		return "uv"
	case errors.Is(err, sensorhub.ErrCommunication):
		return "communication"
	default:
		return "other"
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.reg,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
