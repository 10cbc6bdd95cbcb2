// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package veml6070

import (
	"fmt"
	"sync"
	"time"

	"github.com/Kampi/SensorHub/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// The device answers on three fixed addresses.
const (
	addrCommand uint16 = 0x38 // write command, read LSB
	addrDataMSB uint16 = 0x39
	addrARA     uint16 = 0x0C // alert response
)

const (
	cmdShutdown byte = 1 << 0
	cmdReserved byte = 1 << 1
	cmdAckThd   byte = 1 << 4
	cmdAck      byte = 1 << 5
)

// IntegrationTime is a multiple of the base integration time set by the
// RSET resistor, T = 125ms with the recommended 270kΩ.
type IntegrationTime byte

// Possible integration times.
const (
	IntegrationHalf IntegrationTime = 0
	Integration1T   IntegrationTime = 1
	Integration2T   IntegrationTime = 2
	Integration4T   IntegrationTime = 3
)

func (i IntegrationTime) duration(t time.Duration) time.Duration {
	if i == IntegrationHalf {
		return t / 2
	}
	return t << (i - 1)
}

// Opts holds the configuration options for the device.
type Opts struct {
	Integration IntegrationTime
	// RefreshTime is the base integration time T for the RSET fitted.
	RefreshTime time.Duration
}

// DefaultOpts is 1T with a 270kΩ RSET.
var DefaultOpts = Opts{
	Integration: Integration1T,
	RefreshTime: 125 * time.Millisecond,
}

// Dev is a handle to a VEML6070 UV sensor.
type Dev struct {
	cmd  i2c.Dev
	msb  i2c.Dev
	ara  i2c.Dev
	opts Opts

	mu          sync.Mutex
	initialized bool
	// ready is when the first integration after Init completes.
	ready time.Time
}

// New returns an uninitialized Dev. Init must be called before use.
func New(b i2c.Bus, opts *Opts) (*Dev, error) {
	if b == nil {
		return nil, fmt.Errorf("veml6070: %w", common.ErrNotConnected)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Integration > Integration4T {
		return nil, fmt.Errorf("veml6070: integration time %d: %w", opts.Integration, common.ErrInvalidParameter)
	}
	return &Dev{
		cmd:  i2c.Dev{Bus: b, Addr: addrCommand},
		msb:  i2c.Dev{Bus: b, Addr: addrDataMSB},
		ara:  i2c.Dev{Bus: b, Addr: addrARA},
		opts: *opts,
	}, nil
}

// NewI2C returns an initialized VEML6070.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	d, err := New(b, opts)
	if err != nil {
		return nil, err
	}
	return d, d.Init()
}

// Init clears a pending acknowledge and starts continuous integration.
//
// The device has no identity register; a missing device shows up as a
// transmission error on the command write.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	// The ARA only answers while an acknowledge is pending.
	var b [1]byte
	_ = d.ara.Tx(nil, b[:])
	if err := d.command(false); err != nil {
		return err
	}
	d.ready = time.Now().Add(d.opts.Integration.duration(d.opts.RefreshTime))
	d.initialized = true
	return nil
}

// MeasureUV returns the raw 16 bit UV count.
func (d *Dev) MeasureUV() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, fmt.Errorf("veml6070: %w", common.ErrNotInitialized)
	}
	if w := time.Until(d.ready); w > 0 {
		time.Sleep(w)
	}
	var msb, lsb [1]byte
	if err := d.msb.Tx(nil, msb[:]); err != nil {
		return 0, &common.TransmissionError{Device: "veml6070", Reg: byte(addrDataMSB), Err: err}
	}
	if err := d.cmd.Tx(nil, lsb[:]); err != nil {
		return 0, &common.TransmissionError{Device: "veml6070", Reg: byte(addrCommand), Err: err}
	}
	return uint16(msb[0])<<8 | uint16(lsb[0]), nil
}

// Halt puts the device in shutdown. Init wakes it up again.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil
	}
	d.initialized = false
	return d.command(true)
}

func (d *Dev) String() string {
	return fmt.Sprintf("veml6070{%s}", d.cmd.Bus)
}

func (d *Dev) command(shutdown bool) error {
	c := byte(d.opts.Integration&3)<<2 | cmdReserved
	if shutdown {
		c |= cmdShutdown
	}
	if err := d.cmd.Tx([]byte{c}, nil); err != nil {
		return &common.TransmissionError{Device: "veml6070", Reg: byte(addrCommand), Err: err}
	}
	return nil
}

var _ conn.Resource = &Dev{}
