// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorhub

import (
	"github.com/Kampi/SensorHub/bme680"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// Thermometer is a precision temperature sensor, like a *mcp9808.Dev.
type Thermometer interface {
	Init() error
	MeasureTemperature() (physic.Temperature, error)
}

// LightMeter returns a raw ambient light count, like a *bh1726.Dev.
type LightMeter interface {
	Init() error
	MeasureLight() (uint16, error)
}

// UVMeter returns a raw UV count, like a *veml6070.Dev.
type UVMeter interface {
	Init() error
	MeasureUV() (uint16, error)
}

// EnvSensor runs a combined temperature, pressure, humidity and gas cycle,
// like a *bme680.Dev.
type EnvSensor interface {
	Init() error
	SetMode(m bme680.Mode) error
	Measure(h bme680.HeaterProfile, t, p, hum bme680.Oversampling) (bme680.Data, error)
}

// VoltageSource is an ADC channel behind a resistor divider.
//
// analog.PinADC satisfies it.
type VoltageSource interface {
	Read() (analog.Sample, error)
}

// Sensors is the set of peers a Hub drives. Solar and Battery are optional.
type Sensors struct {
	Temperature Thermometer
	Light       LightMeter
	Env         EnvSensor
	UV          UVMeter

	Solar   VoltageSource
	Battery VoltageSource
}
