// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp9808

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Kampi/SensorHub/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Resolution is the conversion resolution. Finer resolutions take longer.
type Resolution byte

const (
	// DefaultAddr is the address with A2..A0 tied low. A0..A2 add 0 to 7.
	DefaultAddr uint16 = 0x18

	Res0_5C    Resolution = 0 // 30ms
	Res0_25C   Resolution = 1 // 65ms
	Res0_125C  Resolution = 2 // 130ms
	Res0_0625C Resolution = 3 // 250ms

	_REGISTER_CONFIGURATION byte = 0x01
	_REGISTER_TEMPERATURE   byte = 0x05
	_REGISTER_MANUFACTURER  byte = 0x06
	_REGISTER_DEVICE_ID     byte = 0x07
	_REGISTER_RESOLUTION    byte = 0x08

	_MANUFACTURER_ID uint16 = 0x0054
	_DEVICE_ID       byte   = 0x04

	_SHUTDOWN_BIT = 8

	_DEGREES_RESOLUTION physic.Temperature = 62_500 * physic.MicroKelvin
)

var conversionTime = [...]time.Duration{
	30 * time.Millisecond,
	65 * time.Millisecond,
	130 * time.Millisecond,
	250 * time.Millisecond,
}

// Opts represents configurable options for the MCP9808.
type Opts struct {
	Resolution Resolution
}

// DefaultOpts is the finest resolution.
var DefaultOpts = Opts{Resolution: Res0_0625C}

// Dev represents a MCP9808 sensor.
type Dev struct {
	d    *i2c.Dev
	opts Opts

	mu          sync.Mutex
	initialized bool
	shutdown    bool
	// ready is when the first conversion after a wake up completes.
	ready time.Time

	stop chan struct{}
	wg   sync.WaitGroup
}

// New returns an uninitialized Dev. Init must be called before use.
func New(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if b == nil {
		return nil, fmt.Errorf("mcp9808: %w", common.ErrNotConnected)
	}
	if addr < DefaultAddr || addr > DefaultAddr+7 {
		return nil, fmt.Errorf("mcp9808: address 0x%02X: %w", addr, common.ErrInvalidParameter)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Resolution > Res0_0625C {
		return nil, fmt.Errorf("mcp9808: resolution %d: %w", opts.Resolution, common.ErrInvalidParameter)
	}
	return &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, opts: *opts}, nil
}

// NewI2C returns an initialized MCP9808 on the bus at addr.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	d, err := New(b, addr, opts)
	if err != nil {
		return nil, err
	}
	return d, d.Init()
}

// Init checks the device identity, sets the resolution and starts
// continuous conversion.
func (dev *Dev) Init() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.initialized = false

	r := make([]byte, 2)
	if err := dev.read(_REGISTER_DEVICE_ID, r); err != nil {
		return err
	}
	if r[0] != _DEVICE_ID {
		return fmt.Errorf("mcp9808: device ID 0x%02X: %w", r[0], common.ErrNoDevice)
	}
	if err := dev.read(_REGISTER_MANUFACTURER, r); err != nil {
		return err
	}
	if id := uint16(r[0])<<8 | uint16(r[1]); id != _MANUFACTURER_ID {
		return fmt.Errorf("mcp9808: manufacturer ID 0x%04X: %w", id, common.ErrNoDevice)
	}
	if err := dev.write(_REGISTER_RESOLUTION, byte(dev.opts.Resolution)); err != nil {
		return err
	}
	if err := dev.setShutdown(false); err != nil {
		return err
	}
	dev.initialized = true
	return nil
}

// MeasureTemperature returns the ambient temperature. A device in shutdown
// is woken up first, which waits for one conversion.
func (dev *Dev) MeasureTemperature() (physic.Temperature, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if !dev.initialized {
		return 0, fmt.Errorf("mcp9808: %w", common.ErrNotInitialized)
	}
	if dev.shutdown {
		if err := dev.setShutdown(false); err != nil {
			return 0, err
		}
	}
	if d := time.Until(dev.ready); d > 0 {
		time.Sleep(d)
	}
	r := make([]byte, 2)
	if err := dev.read(_REGISTER_TEMPERATURE, r); err != nil {
		return 0, err
	}
	return countToTemperature(r), nil
}

// countToTemperature decodes the 13 bit two's complement TA register. The
// upper three bits are alert flags.
func countToTemperature(b []byte) physic.Temperature {
	count := int16(uint16(b[0]&0x1F)<<11|uint16(b[1])<<3) >> 3
	return physic.ZeroCelsius + physic.Temperature(count)*_DEGREES_RESOLUTION
}

// setShutdown updates the shutdown bit of the configuration register.
func (dev *Dev) setShutdown(off bool) error {
	r := make([]byte, 2)
	if err := dev.read(_REGISTER_CONFIGURATION, r); err != nil {
		return err
	}
	config := uint16(r[0])<<8 | uint16(r[1])
	if off {
		config |= 1 << _SHUTDOWN_BIT
	} else {
		config &^= 1 << _SHUTDOWN_BIT
	}
	if err := dev.write(_REGISTER_CONFIGURATION, byte(config>>8), byte(config)); err != nil {
		return err
	}
	dev.shutdown = off
	if !off {
		dev.ready = time.Now().Add(conversionTime[dev.opts.Resolution])
	}
	return nil
}

// Sense reads temperature from the device. Implements physic.SenseEnv.
func (dev *Dev) Sense(env *physic.Env) error {
	t, err := dev.MeasureTemperature()
	if err != nil {
		return err
	}
	env.Temperature = t
	return nil
}

// SenseContinuous continuously reads from the device and writes the value to
// the returned channel. Implements physic.SenseEnv. To terminate the
// continuous read, call Halt().
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < conversionTime[dev.opts.Resolution] {
		return nil, fmt.Errorf("mcp9808: interval %s shorter than conversion: %w", interval, common.ErrInvalidParameter)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.stop != nil {
		return nil, errors.New("mcp9808: already sensing continuously")
	}
	stop := make(chan struct{})
	dev.stop = stop
	channel := make(chan physic.Env)
	dev.wg.Add(1)
	go func() {
		defer dev.wg.Done()
		defer close(channel)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e := physic.Env{}
				if err := dev.Sense(&e); err != nil {
					continue
				}
				select {
				case channel <- e:
				case <-stop:
					return
				}
			}
		}
	}()
	return channel, nil
}

// Halt aborts SenseContinuous and shuts the device down. Implements
// conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	stop := dev.stop
	dev.stop = nil
	dev.mu.Unlock()
	if stop != nil {
		close(stop)
		dev.wg.Wait()
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if !dev.initialized || dev.shutdown {
		return nil
	}
	return dev.setShutdown(true)
}

// Precision returns the configured resolution. Note that the accuracy of the
// device is +/- 0.25 degrees Celsius.
func (dev *Dev) Precision(env *physic.Env) {
	env.Temperature = _DEGREES_RESOLUTION << (3 - dev.opts.Resolution)
	env.Pressure = 0
	env.Humidity = 0
}

func (dev *Dev) String() string {
	return fmt.Sprintf("mcp9808: %s", dev.d.String())
}

func (dev *Dev) read(reg byte, r []byte) error {
	if err := dev.d.Tx([]byte{reg}, r); err != nil {
		return &common.TransmissionError{Device: "mcp9808", Reg: reg, Err: err}
	}
	return nil
}

func (dev *Dev) write(reg byte, v ...byte) error {
	if err := dev.d.Tx(append([]byte{reg}, v...), nil); err != nil {
		return &common.TransmissionError{Device: "mcp9808", Reg: reg, Err: err}
	}
	return nil
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
