// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensorhub fuses the readings of a precision thermometer, an
// ambient light sensor, a BME680 environmental sensor and a UV sensor into a
// single Reading with an indoor air quality index.
//
// A Hub owns its peers. Initialize brings every peer up in order and
// UpdateData runs one measurement cycle. A cycle aborts on the first peer
// failure and the previous Reading stays available through Last.
//
// The IAQ index needs a gas resistance baseline. The first WarmupSamples
// valid gas samples after Initialize build it; Reading.IAQValid stays false
// until then.
package sensorhub
