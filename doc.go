// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devices is a container for the SensorHub drivers.
//
// bme680, mcp9808, bh1726 and veml6070 control the sensors of the board,
// sensorhub fuses their readings and cmd/sensorhub runs the board as a
// service.
package devices
