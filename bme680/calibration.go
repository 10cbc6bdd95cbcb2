// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import "encoding/binary"

// Calibration holds the trimming coefficients read from the device ROM.
type Calibration struct {
	T1 uint16
	T2 int16
	T3 int8

	P1  uint16
	P2  int16
	P3  int8
	P4  int16
	P5  int16
	P6  int8
	P7  int8
	P8  int16
	P9  int16
	P10 uint8

	H1 uint16
	H2 uint16
	H3 int8
	H4 int8
	H5 int8
	H6 uint8
	H7 int8

	G1 int8
	G2 int16
	G3 int8

	HeatRange  uint8
	HeatVal    int8
	RangeSWErr int8
}

// decodeCalibration decodes the 0x8A..0xA0 block c1, the 0xE1..0xEE block c2
// and the raw heater trim registers 0x00, 0x02 and 0x04.
func decodeCalibration(c1, c2 []byte, heatVal, heatRange, swErr byte) Calibration {
	le := binary.LittleEndian
	return Calibration{
		T1: le.Uint16(c2[8:]),
		T2: int16(le.Uint16(c1[0:])),
		T3: int8(c1[2]),

		P1:  le.Uint16(c1[4:]),
		P2:  int16(le.Uint16(c1[6:])),
		P3:  int8(c1[8]),
		P4:  int16(le.Uint16(c1[10:])),
		P5:  int16(le.Uint16(c1[12:])),
		P7:  int8(c1[14]),
		P6:  int8(c1[15]),
		P8:  int16(le.Uint16(c1[18:])),
		P9:  int16(le.Uint16(c1[20:])),
		P10: c1[22],

		// H1 and H2 share the nibbles of 0xE2.
		H2: uint16(c2[0])<<4 | uint16(c2[1])>>4,
		H1: uint16(c2[2])<<4 | uint16(c2[1]&0x0F),
		H3: int8(c2[3]),
		H4: int8(c2[4]),
		H5: int8(c2[5]),
		H6: c2[6],
		H7: int8(c2[7]),

		G2: int16(le.Uint16(c2[10:])),
		G1: int8(c2[12]),
		G3: int8(c2[13]),

		HeatVal:    int8(heatVal),
		HeatRange:  (heatRange & 0x30) >> 4,
		RangeSWErr: int8(swErr&0xF0) / 16,
	}
}

// temperature returns the compensated temperature in 1/100 °C and t_fine.
func (c *Calibration) temperature(raw uint32) (int32, int32) {
	var1 := int64(raw)>>3 - int64(c.T1)<<1
	var2 := (var1 * int64(c.T2)) >> 11
	var3 := ((var1 >> 1) * (var1 >> 1)) >> 12
	var3 = (var3 * (int64(c.T3) << 4)) >> 14
	tFine := int32(var2 + var3)
	return int32((int64(tFine)*5 + 128) >> 8), tFine
}

// pressure returns the compensated pressure in Pa.
//
// The math is 32 bits wide and relies on wrapping the way the datasheet
// reference does.
func (c *Calibration) pressure(raw uint32, tFine int32) int32 {
	var1 := (tFine >> 1) - 64000
	var2 := ((((var1 >> 2) * (var1 >> 2)) >> 11) * int32(c.P6)) >> 2
	var2 += (var1 * int32(c.P5)) << 1
	var2 = (var2 >> 2) + (int32(c.P4) << 16)
	var1 = (((((var1 >> 2) * (var1 >> 2)) >> 13) * (int32(c.P3) << 5)) >> 3) + ((int32(c.P2) * var1) >> 1)
	var1 >>= 18
	var1 = ((32768 + var1) * int32(c.P1)) >> 15
	if var1 == 0 {
		return 0
	}
	pc := 1048576 - int32(raw)
	pc = (pc - (var2 >> 12)) * 3125
	if pc >= 1<<30 {
		pc = (pc / var1) << 1
	} else {
		pc = (pc << 1) / var1
	}
	var1 = (int32(c.P9) * (((pc >> 3) * (pc >> 3)) >> 13)) >> 12
	var2 = ((pc >> 2) * int32(c.P8)) >> 13
	var3 := ((pc >> 8) * (pc >> 8) * (pc >> 8) * int32(c.P10)) >> 17
	return pc + ((var1 + var2 + var3 + (int32(c.P7) << 7)) >> 4)
}

// humidity returns the compensated relative humidity in 1/1000 %RH,
// clamped to [0, 100000].
func (c *Calibration) humidity(raw uint32, tFine int32) int32 {
	ts := (tFine*5 + 128) >> 8
	var1 := int32(raw) - int32(c.H1)<<4 - (((ts * int32(c.H3)) / 100) >> 1)
	var2 := (int32(c.H2) * (((ts * int32(c.H4)) / 100) +
		(((ts * ((ts * int32(c.H5)) / 100)) >> 6) / 100) + (1 << 14))) >> 10
	var3 := var1 * var2
	var4 := (int32(c.H6)<<7 + (ts*int32(c.H7))/100) >> 4
	var5 := ((var3 >> 14) * (var3 >> 14)) >> 10
	var6 := (var4 * var5) >> 1
	h := (((var3 + var6) >> 10) * 1000) >> 12
	if h > 100000 {
		return 100000
	}
	if h < 0 {
		return 0
	}
	return h
}

// Range dependent constants for the gas resistance equation.
var (
	gasRange1 = [16]int64{
		2147483647, 2147483647, 2147483647, 2147483647, 2147483647,
		2126008810, 2147483647, 2130303777, 2147483647, 2147483647,
		2143188679, 2136746228, 2147483647, 2126008810, 2147483647,
		2147483647,
	}
	gasRange2 = [16]int64{
		4096000000, 2048000000, 1024000000, 512000000, 255744255,
		127110228, 64000000, 32258064, 16016016, 8000000, 4000000,
		2000000, 1000000, 500000, 250000, 125000,
	}
)

// gasResistance returns the gas resistance in Ω.
func (c *Calibration) gasResistance(adc uint16, rng uint8) uint32 {
	rng &= 0x0F
	var1 := ((1340 + 5*int64(c.RangeSWErr)) * gasRange1[rng]) >> 16
	var2 := int64(adc)<<15 - 16777216 + var1
	if var2 == 0 {
		return 0
	}
	var3 := (gasRange2[rng] * var1) >> 9
	return uint32((var3 + var2>>1) / var2)
}

// heaterResistance returns the res_heat_x value for target °C given the
// ambient temperature amb in °C.
func (c *Calibration) heaterResistance(target uint16, amb int32) byte {
	var1 := ((amb * int32(c.G3)) / 1000) * 256
	var2 := (int32(c.G1) + 784) * (((((int32(c.G2) + 154009) * int32(target) * 5) / 100) + 3276800) / 10)
	var3 := var1 + var2/2
	var4 := var3 / (int32(c.HeatRange) + 4)
	var5 := 131*int32(c.HeatVal) + 65536
	x100 := (var4/var5 - 250) * 34
	return byte((x100 + 50) / 100)
}
