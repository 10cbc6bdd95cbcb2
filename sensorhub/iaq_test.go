// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorhub

import (
	"math"
	"testing"
)

func TestIndex(t *testing.T) {
	c := DefaultIAQConfig
	data := []struct {
		name                     string
		temp, hum, gas, baseline float64
		want                     float64
	}{
		{"reference", 21, 40, 50000, 50000, 100},
		{"cleaner than baseline", 21, 40, 80000, 50000, 100},
		{"half the baseline", 21, 40, 25000, 50000, 60},
		{"warm", 31, 40, 50000, 50000, 98.734},
		{"cold", 10.5, 40, 50000, 50000, 95},
		{"humid", 21, 70, 50000, 50000, 95},
		{"dry", 21, 20, 50000, 50000, 95},
		{"far too cold", -1000, 40, 50000, 50000, 0},
		{"no gas", 21, 40, 0, 50000, 20},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			if got := c.Index(line.temp, line.hum, line.gas, line.baseline); math.Abs(got-line.want) > 1e-3 {
				t.Errorf("got %g, want %g", got, line.want)
			}
		})
	}
}

func TestIndexClamp(t *testing.T) {
	c := IAQConfig{
		ReferenceTemperature: 21,
		ReferenceHumidity:    40,
		TemperatureWeight:    1,
		HumidityWeight:       1,
		GasWeight:            1,
	}
	if got := c.Index(21, 40, 1, 1); got != 100 {
		t.Errorf("expected 100, got %g", got)
	}
	if got := c.Index(1000, -1000, 0, 1); got != 0 {
		t.Errorf("expected 0, got %g", got)
	}
}

func TestUVIndex(t *testing.T) {
	data := []struct {
		raw  uint16
		want float64
	}{
		{0, 0},
		{97, 0},
		{1000, 4.5146},
		{2297, 11},
		{0xFFFF, 11},
	}
	for _, line := range data {
		if got := UVIndex(line.raw); math.Abs(got-line.want) > 1e-3 {
			t.Errorf("UVIndex(%d) = %g; want %g", line.raw, got, line.want)
		}
	}
}

func TestLux(t *testing.T) {
	if got := Lux(0x1234); got != 1165 {
		t.Errorf("expected 1165lx, got %g", got)
	}
}
