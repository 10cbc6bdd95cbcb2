// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import (
	"testing"
	"time"
)

func TestDecodeCalibration(t *testing.T) {
	got := decodeCalibration(coeff1, coeff2, 0x28, 0x10, 0xF0)
	if got != wantCal {
		t.Errorf("got  %+v\nwant %+v", got, wantCal)
	}
	// Only bits 5:4 of 0x02 and 7:4 of 0x04 are trims.
	got = decodeCalibration(coeff1, coeff2, 0xD8, 0xEF, 0x7F)
	if got.HeatVal != -40 || got.HeatRange != 2 || got.RangeSWErr != 7 {
		t.Errorf("unexpected trims %d %d %d", got.HeatVal, got.HeatRange, got.RangeSWErr)
	}
}

func TestCompensateTemperature(t *testing.T) {
	data := []struct {
		raw   uint32
		centi int32
		tFine int32
	}{
		{0x7FFFF, 3438, 176030},
		{0x80000, 3438, 176043},
		{500000, 2673, 136882},
	}
	for _, line := range data {
		c, tFine := wantCal.temperature(line.raw)
		if c != line.centi || tFine != line.tFine {
			t.Errorf("temperature(0x%X) = %d, %d; want %d, %d", line.raw, c, tFine, line.centi, line.tFine)
		}
	}
}

func TestCompensatePressure(t *testing.T) {
	data := []struct {
		raw  uint32
		want int32
	}{
		{0x5A000, 97552},
		{400000, 92089},
	}
	for _, line := range data {
		if got := wantCal.pressure(line.raw, 176030); got != line.want {
			t.Errorf("pressure(%d) = %d; want %d", line.raw, got, line.want)
		}
	}
}

func TestCompensateHumidity(t *testing.T) {
	data := []struct {
		raw  uint32
		want int32
	}{
		{0x6000, 69499},
		{25000, 72467},
		// Would compensate above 100%.
		{0xFFFF, 100000},
		// Would compensate below 0%.
		{0, 0},
	}
	for _, line := range data {
		if got := wantCal.humidity(line.raw, 176030); got != line.want {
			t.Errorf("humidity(%d) = %d; want %d", line.raw, got, line.want)
		}
	}
}

func TestCompensateGas(t *testing.T) {
	data := []struct {
		adc  uint16
		rng  uint8
		want uint32
	}{
		{500, 5, 250537},
		{0x3FF, 15, 177},
		{0, 0, 12976914},
	}
	for _, line := range data {
		if got := wantCal.gasResistance(line.adc, line.rng); got != line.want {
			t.Errorf("gasResistance(%d, %d) = %d; want %d", line.adc, line.rng, got, line.want)
		}
	}
}

func TestDecodeGas(t *testing.T) {
	g := decodeGas([]byte{0xFF, 0xFF})
	if g.adc != 0x3FF || g.rng != 15 || !g.valid {
		t.Errorf("unexpected %+v", g)
	}
	g = decodeGas([]byte{0x00, 0x40})
	if g.adc != 1 || g.rng != 0 || g.valid {
		t.Errorf("unexpected %+v", g)
	}
}

func TestHeaterResistance(t *testing.T) {
	if got := wantCal.heaterResistance(320, 25); got != 116 {
		t.Errorf("expected 116, got %d", got)
	}
}

func TestGasWait(t *testing.T) {
	data := []struct {
		d    time.Duration
		want byte
	}{
		{time.Millisecond, 0x01},
		{63 * time.Millisecond, 0x3F},
		{64 * time.Millisecond, 0x50},
		{100 * time.Millisecond, 0x59},
		{200 * time.Millisecond, 0x72},
		{4032 * time.Millisecond, 0xFF},
	}
	for _, line := range data {
		if got := gasWait(line.d); got != line.want {
			t.Errorf("gasWait(%s) = 0x%02X; want 0x%02X", line.d, got, line.want)
		}
	}
}

func TestHeaterCurrent(t *testing.T) {
	if v := heaterCurrent(0); v != 0 {
		t.Errorf("expected 0, got %d", v)
	}
	if v := heaterCurrent(1); v != 14 {
		t.Errorf("expected 14, got %d", v)
	}
	if v := heaterCurrent(16); v != 254 {
		t.Errorf("expected 254, got %d", v)
	}
}

func TestNewHeaterProfile(t *testing.T) {
	data := []struct {
		name                string
		index, temp         int
		d                   time.Duration
		current             int
		wantIndex, wantTemp int
		wantD               time.Duration
		wantCurrent         int
	}{
		{"in range", 3, 320, 200 * time.Millisecond, 5, 3, 320, 200 * time.Millisecond, 5},
		{"low", -1, 150, 0, -1, 0, 200, time.Millisecond, 0},
		{"high", 12, 500, 5000 * time.Millisecond, 20, 9, 400, 4032 * time.Millisecond, 16},
		{"bounds", 9, 400, 4032 * time.Millisecond, 16, 9, 400, 4032 * time.Millisecond, 16},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			h := NewHeaterProfile(line.index, line.temp, line.d, line.current)
			if h.Index() != line.wantIndex {
				t.Errorf("index %d, want %d", h.Index(), line.wantIndex)
			}
			if h.Temperature() != line.wantTemp {
				t.Errorf("temperature %d, want %d", h.Temperature(), line.wantTemp)
			}
			if h.Duration() != line.wantD {
				t.Errorf("duration %s, want %s", h.Duration(), line.wantD)
			}
			if h.Current() != line.wantCurrent {
				t.Errorf("current %d, want %d", h.Current(), line.wantCurrent)
			}
		})
	}
}

func TestEncodeCtrl(t *testing.T) {
	if v := encodeCtrlMeas(O2x, O16x, Forced); v != 0x55 {
		t.Errorf("ctrl_meas 0x%02X", v)
	}
	if v := encodeCtrlGas1(9, true); v != 0x19 {
		t.Errorf("ctrl_gas_1 0x%02X", v)
	}
	if v := encodeCtrlGas1(9, false); v != 0x09 {
		t.Errorf("ctrl_gas_1 0x%02X", v)
	}
}

func TestConversionDone(t *testing.T) {
	data := []struct {
		status byte
		gas    bool
		want   bool
	}{
		{0x00, false, false},
		{statusNewData, false, true},
		{statusNewData | statusMeasuring, false, false},
		{statusNewData | statusGasMeasuring, false, true},
		{statusNewData | statusGasMeasuring, true, false},
		{statusNewData, true, true},
	}
	for _, line := range data {
		if got := conversionDone(line.status, line.gas); got != line.want {
			t.Errorf("conversionDone(0x%02X, %t) = %t", line.status, line.gas, got)
		}
	}
}
