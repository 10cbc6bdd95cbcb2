// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import (
	"fmt"
	"time"

	"github.com/Kampi/SensorHub/common"
)

// Heater profile limits.
const (
	MaxProfileIndex = 9

	MinHeaterTemperature = 200
	MaxHeaterTemperature = 400

	MinHeaterDuration = time.Millisecond
	MaxHeaterDuration = 4032 * time.Millisecond

	MaxHeaterCurrent = 16
)

// HeaterProfile describes how the hot plate is driven for one gas
// conversion.
//
// The zero value is not valid; use NewHeaterProfile.
type HeaterProfile struct {
	index       uint8
	temperature uint16
	duration    time.Duration
	current     uint8
}

// NewHeaterProfile returns a profile using heater slot index, heating the
// plate to temperature °C for duration. current is the optional boost
// current in mA, 0 disables it.
//
// Out of range values are clamped to the nearest limit.
func NewHeaterProfile(index, temperature int, duration time.Duration, current int) HeaterProfile {
	duration = duration.Truncate(time.Millisecond)
	if duration < MinHeaterDuration {
		duration = MinHeaterDuration
	} else if duration > MaxHeaterDuration {
		duration = MaxHeaterDuration
	}
	return HeaterProfile{
		index:       uint8(common.Clamp(index, 0, MaxProfileIndex)),
		temperature: uint16(common.Clamp(temperature, MinHeaterTemperature, MaxHeaterTemperature)),
		duration:    duration,
		current:     uint8(common.Clamp(current, 0, MaxHeaterCurrent)),
	}
}

// Index returns the heater slot.
func (h HeaterProfile) Index() int {
	return int(h.index)
}

// Temperature returns the target hot plate temperature in °C.
func (h HeaterProfile) Temperature() int {
	return int(h.temperature)
}

// Duration returns the heating time.
func (h HeaterProfile) Duration() time.Duration {
	return h.duration
}

// Current returns the boost current in mA.
func (h HeaterProfile) Current() int {
	return int(h.current)
}

func (h HeaterProfile) String() string {
	return fmt.Sprintf("slot %d: %d°C for %s, %dmA", h.index, h.temperature, h.duration, h.current)
}

// gasWait encodes the heating duration. Bits 5:0 hold the duration and bits
// 7:6 a multiplier of 1, 4, 16 or 64.
func gasWait(d time.Duration) byte {
	ms := d.Milliseconds()
	if ms >= 0xFC0 {
		return 0xFF
	}
	var factor byte
	for ms > 0x3F {
		ms /= 4
		factor++
	}
	return byte(ms) | factor<<6
}

// heaterCurrent encodes the boost current for idac_heat_x.
func heaterCurrent(mA uint8) byte {
	if mA == 0 {
		return 0
	}
	return (mA*8 - 1) << 1
}
