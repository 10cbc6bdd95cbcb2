// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp9808 controls a Microchip MCP9808 digital temperature sensor
// over I²C. The device has a typical accuracy of ±0.25°C and a resolution up
// to 0.0625°C.
//
// mcp9808.Dev implements the physic.SenseEnv interface; only the temperature
// field is set.
//
// **Datasheet:** https://ww1.microchip.com/downloads/en/DeviceDoc/25095A.pdf
package mcp9808
