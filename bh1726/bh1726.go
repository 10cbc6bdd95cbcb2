// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bh1726

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/Kampi/SensorHub/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// Addresses selected by the ADDR pin.
const (
	AddrLow  uint16 = 0x29
	AddrHigh uint16 = 0x39
)

const (
	regControl byte = 0x00
	regTiming  byte = 0x01
	regGain    byte = 0x07
	regPartID  byte = 0x12
	regData0   byte = 0x14

	// Register accesses go through a command byte.
	cmdRegister  byte = 0x80
	cmdSoftReset byte = 0xE4

	partID byte = 0x72

	controlPower    byte = 1 << 0
	controlADCEn    byte = 1 << 1
	controlADCValid byte = 1 << 4
)

// Gain is the ADC gain of one channel.
type Gain byte

// Possible gain values.
const (
	Gain1x   Gain = 0
	Gain2x   Gain = 1
	Gain64x  Gain = 2
	Gain128x Gain = 3
)

// Opts holds the configuration options for the device.
type Opts struct {
	Gain0 Gain
	Gain1 Gain
	// Timing is the raw TIMING register. The integration time is
	// 2.7ms*(256-Timing).
	Timing byte
	// ConversionTimeout bounds the wait for ADC valid. 0 means no timeout.
	ConversionTimeout time.Duration
	// PollInterval is the delay between two status reads.
	PollInterval time.Duration
}

// DefaultOpts is 1x gain and the reset integration time of about 100ms.
var DefaultOpts = Opts{
	Gain0:             Gain1x,
	Gain1:             Gain1x,
	Timing:            0xDA,
	ConversionTimeout: 500 * time.Millisecond,
	PollInterval:      10 * time.Millisecond,
}

// Dev is a handle to a BH1726 ambient light sensor.
type Dev struct {
	d           conn.Conn
	opts        Opts
	mu          sync.Mutex
	initialized bool
}

// New returns an uninitialized Dev. Init must be called before use.
func New(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if b == nil {
		return nil, fmt.Errorf("bh1726: %w", common.ErrNotConnected)
	}
	if addr != AddrLow && addr != AddrHigh {
		return nil, fmt.Errorf("bh1726: address 0x%02X: %w", addr, common.ErrInvalidParameter)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, opts: *opts}
	if d.opts.PollInterval <= 0 {
		d.opts.PollInterval = DefaultOpts.PollInterval
	}
	return d, nil
}

// NewI2C returns an initialized BH1726 on the bus at addr.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	d, err := New(b, addr, opts)
	if err != nil {
		return nil, err
	}
	return d, d.Init()
}

// Init checks the part ID and programs gain and integration time. The ADC
// stays powered down between measurements.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	var id [1]byte
	if err := d.read(regPartID, id[:]); err != nil {
		return err
	}
	if id[0] != partID {
		return fmt.Errorf("bh1726: part ID 0x%02X: %w", id[0], common.ErrNoDevice)
	}
	if err := d.write(regGain, byte(d.opts.Gain0&3)<<2|byte(d.opts.Gain1&3)); err != nil {
		return err
	}
	if err := d.write(regTiming, d.opts.Timing); err != nil {
		return err
	}
	d.initialized = true
	return nil
}

// MeasureLight powers the ADC up, waits for a valid conversion, and returns
// the raw DATA0 (visible and infrared) count. The ADC is powered down again
// afterward.
func (d *Dev) MeasureLight() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, fmt.Errorf("bh1726: %w", common.ErrNotInitialized)
	}
	var c [1]byte
	if err := d.read(regControl, c[:]); err != nil {
		return 0, err
	}
	if err := d.write(regControl, c[0]|controlPower|controlADCEn); err != nil {
		return 0, err
	}
	err := common.WaitFor(d.opts.ConversionTimeout, d.opts.PollInterval, func() (bool, error) {
		if err := d.read(regControl, c[:]); err != nil {
			return false, err
		}
		return c[0]&controlADCValid != 0, nil
	})
	if err != nil {
		return 0, fmt.Errorf("bh1726: %w", err)
	}
	var data [2]byte
	if err := d.read(regData0, data[:]); err != nil {
		return 0, err
	}
	if err := d.write(regControl, c[0]&^(controlPower|controlADCEn|controlADCValid)); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data[:]), nil
}

// SoftReset resets all registers. Init must be called afterward.
func (d *Dev) SoftReset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	if err := d.d.Tx([]byte{cmdSoftReset}, nil); err != nil {
		return &common.TransmissionError{Device: "bh1726", Reg: cmdSoftReset, Err: err}
	}
	return nil
}

// Halt powers the ADC down.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil
	}
	return d.write(regControl, 0)
}

func (d *Dev) String() string {
	return fmt.Sprintf("bh1726{%s}", d.d)
}

func (d *Dev) read(reg byte, r []byte) error {
	if err := d.d.Tx([]byte{cmdRegister | reg}, r); err != nil {
		return &common.TransmissionError{Device: "bh1726", Reg: reg, Err: err}
	}
	return nil
}

func (d *Dev) write(reg, v byte) error {
	if err := d.d.Tx([]byte{cmdRegister | reg, v}, nil); err != nil {
		return &common.TransmissionError{Device: "bh1726", Reg: reg, Err: err}
	}
	return nil
}

var _ conn.Resource = &Dev{}
