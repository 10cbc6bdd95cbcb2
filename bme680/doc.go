// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bme680 controls a Bosch BME680 environmental sensor over I²C.
//
// The device measures temperature, pressure, relative humidity and the
// resistance of a heated metal oxide layer, the latter being an indicator of
// volatile organic compounds in the air. Only forced mode is supported: each
// measurement is a one shot conversion after which the device goes back to
// sleep.
//
// bme680.Dev implements physic.SenseEnv for temperature, pressure and
// humidity. Gas resistance is measured with MeasureGas or Measure, both taking
// a HeaterProfile describing how the hot plate is driven.
//
// All compensation is done with the fixed point formulas from the datasheet.
//
// **Datasheet:** https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bme680-ds001.pdf
package bme680
