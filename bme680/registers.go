// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

// Register map.
const (
	regResHeatVal   byte = 0x00
	regResHeatRange byte = 0x02
	regRangeSWErr   byte = 0x04
	regMeasStatus0  byte = 0x1D
	regPressMSB     byte = 0x1F
	regGasRMSB      byte = 0x2A
	regIdacHeat0    byte = 0x50
	regResHeat0     byte = 0x5A
	regGasWait0     byte = 0x64
	regCtrlGas0     byte = 0x70
	regCtrlGas1     byte = 0x71
	regCtrlHum      byte = 0x72
	regCtrlMeas     byte = 0x74
	regConfig       byte = 0x75
	regCoeff1       byte = 0x8A
	regChipID       byte = 0xD0
	regCoeff2       byte = 0xE1
	regSoftReset    byte = 0xE0
)

const (
	chipID       byte = 0x61
	softResetCmd byte = 0xB6

	coeff1Len = 23
	coeff2Len = 14
	// P, T and H data registers 0x1F..0x26.
	fieldLen = 8
)

// meas_status_0 bits.
const (
	statusNewData      byte = 1 << 7
	statusGasMeasuring byte = 1 << 6
	statusMeasuring    byte = 1 << 5
)

// gas_r_lsb bits.
const (
	gasValid byte = 1 << 5
	heatStab byte = 1 << 4
)

const (
	ctrlGas1RunGas  byte = 1 << 4
	ctrlGas0HeatOff byte = 1 << 3
)

// encodeCtrlMeas packs osrs_t (7:5), osrs_p (4:2) and mode (1:0).
func encodeCtrlMeas(t, p Oversampling, m Mode) byte {
	return byte(t&7)<<5 | byte(p&7)<<2 | byte(m&3)
}

// encodeCtrlGas1 packs run_gas (4) and nb_conv (3:0).
func encodeCtrlGas1(index uint8, run bool) byte {
	v := index & 0x0F
	if run {
		v |= ctrlGas1RunGas
	}
	return v
}

// fields is the decoded 0x1F..0x26 burst.
type fields struct {
	press uint32
	temp  uint32
	hum   uint32
}

func decodeFields(b []byte) fields {
	return fields{
		press: uint32(b[0])<<12 | uint32(b[1])<<4 | uint32(b[2])>>4,
		temp:  uint32(b[3])<<12 | uint32(b[4])<<4 | uint32(b[5])>>4,
		hum:   uint32(b[6])<<8 | uint32(b[7]),
	}
}

// gasFields is the decoded 0x2A..0x2B pair.
type gasFields struct {
	adc   uint16
	rng   uint8
	valid bool
}

func decodeGas(b []byte) gasFields {
	return gasFields{
		adc:   uint16(b[0])<<2 | uint16(b[1])>>6,
		rng:   b[1] & 0x0F,
		valid: b[1]&gasValid != 0 && b[1]&heatStab != 0,
	}
}

// conversionDone reports whether a forced cycle finished. gas selects
// whether the gas conversion must be complete too.
func conversionDone(status byte, gas bool) bool {
	if status&statusNewData == 0 || status&statusMeasuring != 0 {
		return false
	}
	return !gas || status&statusGasMeasuring == 0
}
