// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorhub

import (
	"errors"
	"fmt"
)

// Errors returned by Hub. Peer failures wrap the driver error, so both the
// kind and the cause match with errors.Is.
var (
	ErrTempSensor       = errors.New("sensorhub: temperature sensor failure")
	ErrLightSensor      = errors.New("sensorhub: light sensor failure")
	ErrEnvSensor        = errors.New("sensorhub: environmental sensor failure")
	ErrUVSensor         = errors.New("sensorhub: uv sensor failure")
	ErrCommunication    = errors.New("sensorhub: sensors not initialized")
	ErrInvalidParameter = errors.New("sensorhub: invalid parameter")
)

func wrap(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}
