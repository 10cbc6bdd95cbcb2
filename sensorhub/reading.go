// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorhub

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Reading is the result of one measurement cycle.
type Reading struct {
	Time time.Time

	// Temperature comes from the precision thermometer, EnvTemperature from
	// the BME680.
	Temperature    physic.Temperature
	EnvTemperature physic.Temperature
	Pressure       physic.Pressure
	Humidity       physic.RelativeHumidity
	GasResistance  physic.ElectricResistance
	GasValid       bool

	// AmbientLight in lux.
	AmbientLight float64
	// UVIndex in [0, 11].
	UVIndex float64

	SolarVoltage   physic.ElectricPotential
	BatteryVoltage physic.ElectricPotential

	// IAQ in [0, 100]. It is only meaningful when IAQValid is true.
	IAQ      float64
	IAQValid bool
}

func (r Reading) String() string {
	iaq := "warming up"
	if r.IAQValid {
		iaq = fmt.Sprintf("%.1f", r.IAQ)
	}
	return fmt.Sprintf("%s %s %s gas=%s light=%.1flx uv=%.1f iaq=%s",
		r.Temperature, r.Pressure, r.Humidity, r.GasResistance, r.AmbientLight, r.UVIndex, iaq)
}
