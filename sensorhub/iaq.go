// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorhub

import (
	"fmt"

	"github.com/Kampi/SensorHub/common"
)

// IAQConfig holds the reference point and the weights of the air quality
// index. The weights are expected to sum to 1.
type IAQConfig struct {
	// ReferenceTemperature in °C, in (0, 100).
	ReferenceTemperature float64
	// ReferenceHumidity in %RH, in (0, 100).
	ReferenceHumidity float64

	TemperatureWeight float64
	HumidityWeight    float64
	GasWeight         float64
}

// DefaultIAQConfig is 21°C and 40%RH with the gas resistance carrying 80% of
// the index.
var DefaultIAQConfig = IAQConfig{
	ReferenceTemperature: 21,
	ReferenceHumidity:    40,
	TemperatureWeight:    0.1,
	HumidityWeight:       0.1,
	GasWeight:            0.8,
}

// Index returns the air quality index in [0, 100] for a temperature in °C, a
// relative humidity in %RH and a gas resistance in Ω, given the clean air
// gas resistance baseline in Ω. 100 is the best air.
func (c *IAQConfig) Index(temp, hum, gas, baseline float64) float64 {
	tc := coefficient(temp, c.ReferenceTemperature, c.TemperatureWeight)
	hc := coefficient(hum, c.ReferenceHumidity, c.HumidityWeight)
	// A resistance above the baseline means cleaner air than the baseline.
	gc := c.GasWeight
	if baseline > gas {
		gc = gas / baseline * c.GasWeight
	}
	return common.Clamp((tc+hc+gc)*100, 0, 100)
}

// coefficient is weight at the reference and falls off linearly towards 0
// and 100.
func coefficient(v, ref, weight float64) float64 {
	off := v - ref
	if off > 0 {
		return (100 - ref - off) / (100 - ref) * weight
	}
	return (ref + off) / ref * weight
}

func (c *IAQConfig) validate() error {
	if c.ReferenceTemperature <= 0 || c.ReferenceTemperature >= 100 {
		return fmt.Errorf("%w: reference temperature %g", ErrInvalidParameter, c.ReferenceTemperature)
	}
	if c.ReferenceHumidity <= 0 || c.ReferenceHumidity >= 100 {
		return fmt.Errorf("%w: reference humidity %g", ErrInvalidParameter, c.ReferenceHumidity)
	}
	if c.TemperatureWeight < 0 || c.HumidityWeight < 0 || c.GasWeight < 0 {
		return fmt.Errorf("%w: negative IAQ weight", ErrInvalidParameter)
	}
	return nil
}

// UVIndex converts a raw VEML6070 count to a UV index in [0, 11] using the
// linear approximation of the Vishay application note.
func UVIndex(raw uint16) float64 {
	return common.Clamp(0.005*float64(raw)-0.4854, 0, 11)
}

// Lux converts a raw BH1726 count to lux.
func Lux(raw uint16) float64 {
	return float64(raw) / 4
}
