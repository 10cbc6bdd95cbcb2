// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package publish

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/Kampi/SensorHub/sensorhub"
)

// Telemetry is the JSON payload of one reading.
type Telemetry struct {
	StationID      string    `json:"station_id"`
	Timestamp      time.Time `json:"timestamp"`
	Sequence       int       `json:"sequence"`
	Temperature    float64   `json:"temperature_c"`
	EnvTemperature float64   `json:"env_temperature_c"`
	Humidity       float64   `json:"humidity_pct"`
	Pressure       float64   `json:"pressure_hpa"`
	Gas            *float64  `json:"gas_ohm,omitempty"`
	Light          float64   `json:"light_lux"`
	UVIndex        float64   `json:"uv_index"`
	Solar          float64   `json:"solar_v"`
	Battery        float64   `json:"battery_v"`
	// IAQ is omitted while the gas baseline warms up.
	IAQ *float64 `json:"iaq,omitempty"`
}

func NewTelemetry(stationID string, seq int, r sensorhub.Reading) Telemetry {
	t := Telemetry{
		StationID:      stationID,
		Timestamp:      r.Time.UTC(),
		Sequence:       seq,
		Temperature:    r.Temperature.Celsius(),
		EnvTemperature: r.EnvTemperature.Celsius(),
		Humidity:       float64(r.Humidity) / float64(physic.PercentRH),
		Pressure:       float64(r.Pressure) / float64(100*physic.Pascal),
		Light:          r.AmbientLight,
		UVIndex:        r.UVIndex,
		Solar:          float64(r.SolarVoltage) / float64(physic.Volt),
		Battery:        float64(r.BatteryVoltage) / float64(physic.Volt),
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	if r.GasValid {
		g := float64(r.GasResistance) / float64(physic.Ohm)
		t.Gas = &g
	}
	if r.IAQValid {
		iaq := r.IAQ
		t.IAQ = &iaq
	}
	return t
}
