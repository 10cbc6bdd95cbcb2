// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

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

// I²C addresses, selected by the SDO pin.
const (
	AddrSDOLow  uint16 = 0x76
	AddrSDOHigh uint16 = 0x77
)

// Oversampling affects how much time is taken to measure each of
// temperature, pressure and humidity.
type Oversampling uint8

// Possible oversampling values.
const (
	Skip Oversampling = 0
	O1x  Oversampling = 1
	O2x  Oversampling = 2
	O4x  Oversampling = 3
	O8x  Oversampling = 4
	O16x Oversampling = 5
)

func (o Oversampling) String() string {
	switch o {
	case Skip:
		return "Skip"
	case O1x:
		return "1x"
	case O2x:
		return "2x"
	case O4x:
		return "4x"
	case O8x:
		return "8x"
	case O16x:
		return "16x"
	default:
		return fmt.Sprintf("Oversampling(%d)", uint8(o))
	}
}

// Mode is the power mode of the device.
type Mode uint8

// Possible modes.
const (
	Sleep  Mode = 0
	Forced Mode = 1
)

// Filter is the IIR filter coefficient applied to temperature and pressure.
type Filter uint8

// Possible filter coefficients.
const (
	NoFilter Filter = 0
	F1       Filter = 1
	F3       Filter = 2
	F7       Filter = 3
	F15      Filter = 4
	F31      Filter = 5
	F63      Filter = 6
	F127     Filter = 7
)

// Data is the result of a combined measurement.
type Data struct {
	physic.Env
	GasResistance physic.ElectricResistance
	// GasValid is false when the gas conversion or the heater did not
	// settle; GasResistance is then meaningless.
	GasValid bool
}

// Opts holds the configuration options for the device.
type Opts struct {
	// Temperature, Pressure and Humidity are the oversampling used by Sense.
	Temperature Oversampling
	Pressure    Oversampling
	Humidity    Oversampling
	// ConversionTimeout bounds the wait for a conversion. Gas conversions
	// add the heater duration. 0 means no timeout.
	ConversionTimeout time.Duration
	// PollInterval is the delay between two status reads. Leave 0 to use
	// the default.
	PollInterval time.Duration
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	Temperature:       O2x,
	Pressure:          O16x,
	Humidity:          O1x,
	ConversionTimeout: 500 * time.Millisecond,
	PollInterval:      2 * time.Millisecond,
}

// ambientDefault is used for the heater setpoint until a temperature was
// measured.
const ambientDefault = 25

// Dev is a handle to a BME680 environmental sensor.
type Dev struct {
	d    i2c.Dev
	opts Opts
	name string

	mu          sync.Mutex
	initialized bool
	cal         Calibration
	tFine       int32
	ambient     int32
	gasEnabled  bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// New returns an uninitialized Dev on the bus at addr. It does not talk to
// the device; call Init before any other operation.
//
// The Opts can be nil.
func New(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if b == nil {
		return nil, fmt.Errorf("bme680: %w", common.ErrNotConnected)
	}
	if addr != AddrSDOLow && addr != AddrSDOHigh {
		return nil, fmt.Errorf("bme680: address 0x%02X: %w", addr, common.ErrInvalidParameter)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{
		d:       i2c.Dev{Bus: b, Addr: addr},
		opts:    *opts,
		name:    fmt.Sprintf("bme680{%s, 0x%02X}", b, addr),
		ambient: ambientDefault,
	}
	if d.opts.PollInterval <= 0 {
		d.opts.PollInterval = DefaultOpts.PollInterval
	}
	return d, nil
}

// NewI2C returns an initialized Dev on the bus at addr.
//
// The Opts can be nil.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	d, err := New(b, addr, opts)
	if err != nil {
		return nil, err
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return d.name
}

// Init verifies the chip identity and loads the calibration coefficients.
//
// Init can be called again after a failure or a SoftReset.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false

	var id [1]byte
	if err := d.readReg(regChipID, id[:]); err != nil {
		return err
	}
	if id[0] != chipID {
		return fmt.Errorf("bme680: chip ID 0x%02X, expected 0x%02X: %w", id[0], chipID, common.ErrNoDevice)
	}

	var c1 [coeff1Len]byte
	var c2 [coeff2Len]byte
	var heatVal, heatRange, swErr [1]byte
	if err := d.readReg(regCoeff1, c1[:]); err != nil {
		return err
	}
	if err := d.readReg(regCoeff2, c2[:]); err != nil {
		return err
	}
	if err := d.readReg(regResHeatVal, heatVal[:]); err != nil {
		return err
	}
	if err := d.readReg(regResHeatRange, heatRange[:]); err != nil {
		return err
	}
	if err := d.readReg(regRangeSWErr, swErr[:]); err != nil {
		return err
	}
	d.cal = decodeCalibration(c1[:], c2[:], heatVal[0], heatRange[0], swErr[0])
	d.ambient = ambientDefault
	d.gasEnabled = false
	d.initialized = true
	return nil
}

// Calibration returns the coefficients loaded by Init.
func (d *Dev) Calibration() (Calibration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return Calibration{}, d.errNotInitialized()
	}
	return d.cal, nil
}

// SoftReset resets the device. Init must be called afterward.
func (d *Dev) SoftReset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	if err := d.writeReg(regSoftReset, softResetCmd); err != nil {
		return err
	}
	time.Sleep(2 * time.Millisecond) // start-up time per datasheet
	return nil
}

// SetMode sets the power mode. Writing Forced starts a conversion with the
// current settings.
func (d *Dev) SetMode(m Mode) error {
	if m > Forced {
		return fmt.Errorf("bme680: mode %d: %w", m, common.ErrInvalidParameter)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return d.errNotInitialized()
	}
	return d.updateReg(regCtrlMeas, 0x03, byte(m))
}

// Mode returns the current power mode.
func (d *Dev) Mode() (Mode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, d.errNotInitialized()
	}
	var v [1]byte
	if err := d.readReg(regCtrlMeas, v[:]); err != nil {
		return 0, err
	}
	return Mode(v[0] & 0x03), nil
}

// SetFilter sets the IIR filter coefficient.
func (d *Dev) SetFilter(f Filter) error {
	if f > F127 {
		return fmt.Errorf("bme680: filter %d: %w", f, common.ErrInvalidParameter)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return d.errNotInitialized()
	}
	return d.updateReg(regConfig, 0x1C, byte(f)<<2)
}

// Filter returns the current IIR filter coefficient.
func (d *Dev) Filter() (Filter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, d.errNotInitialized()
	}
	var v [1]byte
	if err := d.readReg(regConfig, v[:]); err != nil {
		return 0, err
	}
	return Filter((v[0] >> 2) & 0x07), nil
}

// SetHeater turns the hot plate on or off.
func (d *Dev) SetHeater(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return d.errNotInitialized()
	}
	var v byte
	if !on {
		v = ctrlGas0HeatOff
	}
	return d.updateReg(regCtrlGas0, ctrlGas0HeatOff, v)
}

// MeasureTemperature runs a forced temperature conversion.
func (d *Dev) MeasureTemperature(os Oversampling) (physic.Temperature, error) {
	if err := checkOversampling(os, false); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := d.forcedTPH(os, Skip, Skip)
	if err != nil {
		return 0, err
	}
	return d.compensateTemperature(f.temp), nil
}

// MeasurePressure runs a forced pressure conversion. Temperature is
// converted in the same cycle at 1x since compensation depends on it.
func (d *Dev) MeasurePressure(os Oversampling) (physic.Pressure, error) {
	if err := checkOversampling(os, false); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := d.forcedTPH(O1x, os, Skip)
	if err != nil {
		return 0, err
	}
	d.compensateTemperature(f.temp)
	return d.compensatePressure(f.press), nil
}

// MeasureHumidity runs a forced humidity conversion. Temperature is
// converted in the same cycle at 1x since compensation depends on it.
func (d *Dev) MeasureHumidity(os Oversampling) (physic.RelativeHumidity, error) {
	if err := checkOversampling(os, false); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := d.forcedTPH(O1x, Skip, os)
	if err != nil {
		return 0, err
	}
	d.compensateTemperature(f.temp)
	return d.compensateHumidity(f.hum), nil
}

// MeasureGas heats the plate per profile and returns the gas resistance.
// valid is false when the device flags the conversion or the heater as not
// settled.
func (d *Dev) MeasureGas(profile HeaterProfile) (physic.ElectricResistance, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, false, d.errNotInitialized()
	}
	if err := d.setupHeater(profile); err != nil {
		return 0, false, err
	}
	if err := d.writeReg(regCtrlMeas, encodeCtrlMeas(Skip, Skip, Forced)); err != nil {
		return 0, false, err
	}
	if err := d.waitConversion(true, profile.Duration()); err != nil {
		return 0, false, err
	}
	var b [2]byte
	if err := d.readReg(regGasRMSB, b[:]); err != nil {
		return 0, false, err
	}
	g := decodeGas(b[:])
	return d.compensateGas(g), g.valid, nil
}

// Measure runs temperature, pressure, humidity and gas conversions in one
// forced cycle. Pressure and humidity can be Skip, their fields are then
// left zero. Temperature cannot be skipped.
func (d *Dev) Measure(profile HeaterProfile, t, p, h Oversampling) (Data, error) {
	if err := checkOversampling(t, false); err != nil {
		return Data{}, err
	}
	if err := checkOversampling(p, true); err != nil {
		return Data{}, err
	}
	if err := checkOversampling(h, true); err != nil {
		return Data{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return Data{}, d.errNotInitialized()
	}
	if err := d.setupHeater(profile); err != nil {
		return Data{}, err
	}
	if err := d.writeReg(regCtrlHum, byte(h)); err != nil {
		return Data{}, err
	}
	if err := d.writeReg(regCtrlMeas, encodeCtrlMeas(t, p, Forced)); err != nil {
		return Data{}, err
	}
	if err := d.waitConversion(true, profile.Duration()); err != nil {
		return Data{}, err
	}
	var raw [fieldLen]byte
	if err := d.readReg(regPressMSB, raw[:]); err != nil {
		return Data{}, err
	}
	var gb [2]byte
	if err := d.readReg(regGasRMSB, gb[:]); err != nil {
		return Data{}, err
	}

	f := decodeFields(raw[:])
	g := decodeGas(gb[:])
	var out Data
	out.Temperature = d.compensateTemperature(f.temp)
	if p != Skip {
		out.Pressure = d.compensatePressure(f.press)
	}
	if h != Skip {
		out.Humidity = d.compensateHumidity(f.hum)
	}
	out.GasResistance = d.compensateGas(g)
	out.GasValid = g.valid
	return out, nil
}

// Sense implements physic.SenseEnv. It runs a forced conversion with the
// oversampling from Opts, without the gas sensor.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.opts.Temperature
	if t == Skip {
		t = O1x
	}
	f, err := d.forcedTPH(t, d.opts.Pressure, d.opts.Humidity)
	if err != nil {
		return err
	}
	e.Temperature = d.compensateTemperature(f.temp)
	e.Pressure = 0
	e.Humidity = 0
	if d.opts.Pressure != Skip {
		e.Pressure = d.compensatePressure(f.press)
	}
	if d.opts.Humidity != Skip {
		e.Humidity = d.compensateHumidity(f.hum)
	}
	return nil
}

// SenseContinuous implements physic.SenseEnv. It is the caller's
// responsibility to call Halt() when done. Failed measurements are skipped.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("bme680: interval %s: %w", interval, common.ErrInvalidParameter)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("bme680: already sensing continuously")
	}
	stop := make(chan struct{})
	d.stop = stop
	sensing := make(chan physic.Env)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(sensing)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				var e physic.Env
				if err := d.Sense(&e); err != nil {
					continue
				}
				select {
				case sensing <- e:
				case <-stop:
					return
				}
			}
		}
	}()
	return sensing, nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Pressure = physic.Pascal
	e.Humidity = 10 * physic.MicroRH
}

// Halt stops continuous sensing and puts the device to sleep.
func (d *Dev) Halt() error {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		d.wg.Wait()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil
	}
	return d.updateReg(regCtrlMeas, 0x03, byte(Sleep))
}

// forcedTPH triggers a forced conversion without the gas sensor and returns
// the raw fields.
func (d *Dev) forcedTPH(t, p, h Oversampling) (fields, error) {
	if !d.initialized {
		return fields{}, d.errNotInitialized()
	}
	if d.gasEnabled {
		if err := d.writeReg(regCtrlGas1, encodeCtrlGas1(0, false)); err != nil {
			return fields{}, err
		}
		d.gasEnabled = false
	}
	if err := d.writeReg(regCtrlHum, byte(h)); err != nil {
		return fields{}, err
	}
	if err := d.writeReg(regCtrlMeas, encodeCtrlMeas(t, p, Forced)); err != nil {
		return fields{}, err
	}
	if err := d.waitConversion(false, 0); err != nil {
		return fields{}, err
	}
	var raw [fieldLen]byte
	if err := d.readReg(regPressMSB, raw[:]); err != nil {
		return fields{}, err
	}
	return decodeFields(raw[:]), nil
}

// setupHeater programs heater slot profile.Index() and enables the gas
// conversion for the next forced cycle.
func (d *Dev) setupHeater(profile HeaterProfile) error {
	i := byte(profile.index)
	if err := d.writeReg(regResHeat0+i, d.cal.heaterResistance(profile.temperature, d.ambient)); err != nil {
		return err
	}
	if err := d.writeReg(regGasWait0+i, gasWait(profile.duration)); err != nil {
		return err
	}
	if err := d.writeReg(regIdacHeat0+i, heaterCurrent(profile.current)); err != nil {
		return err
	}
	if err := d.writeReg(regCtrlGas0, 0); err != nil {
		return err
	}
	if err := d.writeReg(regCtrlGas1, encodeCtrlGas1(profile.index, true)); err != nil {
		return err
	}
	d.gasEnabled = true
	return nil
}

// waitConversion polls meas_status_0 until the forced cycle completed.
func (d *Dev) waitConversion(gas bool, heat time.Duration) error {
	timeout := d.opts.ConversionTimeout
	if timeout > 0 {
		timeout += heat
	}
	var s [1]byte
	err := common.WaitFor(timeout, d.opts.PollInterval, func() (bool, error) {
		if err := d.readReg(regMeasStatus0, s[:]); err != nil {
			return false, err
		}
		return conversionDone(s[0], gas), nil
	})
	if errors.Is(err, common.ErrTimeout) {
		return fmt.Errorf("bme680: status 0x%02X after %s: %w", s[0], timeout, err)
	}
	return err
}

func (d *Dev) compensateTemperature(raw uint32) physic.Temperature {
	c, tFine := d.cal.temperature(raw)
	d.tFine = tFine
	d.ambient = c / 100
	return physic.ZeroCelsius + physic.Temperature(c)*10*physic.MilliKelvin
}

func (d *Dev) compensatePressure(raw uint32) physic.Pressure {
	return physic.Pressure(d.cal.pressure(raw, d.tFine)) * physic.Pascal
}

func (d *Dev) compensateHumidity(raw uint32) physic.RelativeHumidity {
	return physic.RelativeHumidity(d.cal.humidity(raw, d.tFine)) * (physic.PercentRH / 1000)
}

func (d *Dev) compensateGas(g gasFields) physic.ElectricResistance {
	return physic.ElectricResistance(d.cal.gasResistance(g.adc, g.rng)) * physic.Ohm
}

func (d *Dev) readReg(reg byte, b []byte) error {
	if err := d.d.Tx([]byte{reg}, b); err != nil {
		return &common.TransmissionError{Device: "bme680", Reg: reg, Err: err}
	}
	return nil
}

func (d *Dev) writeReg(reg, v byte) error {
	if err := d.d.Tx([]byte{reg, v}, nil); err != nil {
		return &common.TransmissionError{Device: "bme680", Reg: reg, Err: err}
	}
	return nil
}

// updateReg replaces the bits of reg in mask with v.
func (d *Dev) updateReg(reg, mask, v byte) error {
	var b [1]byte
	if err := d.readReg(reg, b[:]); err != nil {
		return err
	}
	return d.writeReg(reg, b[0]&^mask|v&mask)
}

func (d *Dev) errNotInitialized() error {
	return fmt.Errorf("bme680: %w", common.ErrNotInitialized)
}

func checkOversampling(o Oversampling, skipOK bool) error {
	if o > O16x || (o == Skip && !skipOK) {
		return fmt.Errorf("bme680: oversampling %s: %w", o, common.ErrInvalidParameter)
	}
	return nil
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
