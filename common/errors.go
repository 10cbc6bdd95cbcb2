// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import (
	"errors"
	"fmt"
)

// Error kinds shared by the drivers. Drivers wrap them with their own prefix,
// test them with errors.Is.
var (
	// ErrNoDevice is returned when the identity register does not hold the
	// expected value.
	ErrNoDevice = errors.New("no device found")
	// ErrNotConnected is returned when no bus was provided.
	ErrNotConnected = errors.New("bus not connected")
	// ErrNotInitialized is returned by every operation attempted before a
	// successful Init.
	ErrNotInitialized = errors.New("device not initialized")
	// ErrInvalidParameter is returned for arguments that are not clamped.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrTimeout is returned when a conversion did not complete in time.
	ErrTimeout = errors.New("timeout waiting for conversion")
	// ErrTransmission matches every *TransmissionError.
	ErrTransmission = errors.New("transmission error")
)

// TransmissionError is a failed bus transaction on a register.
type TransmissionError struct {
	Device string
	Reg    byte
	Err    error
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("%s: transmission error on register 0x%02X: %v", e.Device, e.Reg, e.Err)
}

// Unwrap returns the error reported by the bus.
func (e *TransmissionError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransmission as matching.
func (e *TransmissionError) Is(target error) bool {
	return target == ErrTransmission
}
