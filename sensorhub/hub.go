// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorhub

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Kampi/SensorHub/bme680"
	"periph.io/x/conn/v3/physic"
)

// WarmupSamples is the default number of valid gas samples that build the
// baseline.
const WarmupSamples = 100

// SolarDivider is the ratio of the 122kΩ/22kΩ divider in front of the ADC.
const SolarDivider = 122.0 / 22.0

// State is the life cycle of a Hub.
type State int

// Hub states.
const (
	Uninitialized State = iota
	Initializing
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Opts holds the configuration of a Hub.
type Opts struct {
	// Heater is used for every gas conversion.
	Heater bme680.HeaterProfile
	// Oversampling of the BME680 channels. Temperature must not be Skip.
	Temperature bme680.Oversampling
	Pressure    bme680.Oversampling
	Humidity    bme680.Oversampling

	IAQ           IAQConfig
	WarmupSamples int
	// Divider scales the solar and battery ADC voltages.
	Divider float64

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOpts heats slot 0 to 320°C for 200ms without boost current.
var DefaultOpts = Opts{
	Heater:        bme680.NewHeaterProfile(0, 320, 200*time.Millisecond, 0),
	Temperature:   bme680.O2x,
	Pressure:      bme680.O16x,
	Humidity:      bme680.O1x,
	IAQ:           DefaultIAQConfig,
	WarmupSamples: WarmupSamples,
	Divider:       SolarDivider,
}

// Hub drives the peers of a Sensors set and fuses their readings.
//
// All methods are safe for concurrent use; measurement cycles are
// serialized.
type Hub struct {
	s    Sensors
	opts Opts
	log  *slog.Logger

	mu    sync.Mutex
	state State
	// samples and baseline (Ω) are the gas warm-up state.
	samples  int
	baseline float64
	last     Reading
	hasLast  bool
}

// New returns a Hub in the Uninitialized state. It does not touch the bus.
func New(s Sensors, opts *Opts) (*Hub, error) {
	if s.Temperature == nil || s.Light == nil || s.Env == nil || s.UV == nil {
		return nil, fmt.Errorf("%w: missing sensor", ErrInvalidParameter)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Heater == (bme680.HeaterProfile{}) {
		o.Heater = DefaultOpts.Heater
	}
	if o.Temperature == bme680.Skip || o.Temperature > bme680.O16x || o.Pressure > bme680.O16x || o.Humidity > bme680.O16x {
		return nil, fmt.Errorf("%w: oversampling %s/%s/%s", ErrInvalidParameter, o.Temperature, o.Pressure, o.Humidity)
	}
	if o.WarmupSamples <= 0 {
		return nil, fmt.Errorf("%w: warm-up samples %d", ErrInvalidParameter, o.WarmupSamples)
	}
	if o.Divider <= 0 {
		return nil, fmt.Errorf("%w: divider %g", ErrInvalidParameter, o.Divider)
	}
	if err := o.IAQ.validate(); err != nil {
		return nil, err
	}
	l := o.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Hub{s: s, opts: o, log: l.With("component", "sensorhub")}, nil
}

// Initialize brings up the thermometer, the light sensor, the environmental
// sensor and the UV sensor, in that order.
//
// On success the gas baseline restarts from zero. On failure the Hub stays
// Uninitialized and the error wraps both the sensor kind and the cause.
func (h *Hub) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = Initializing
	peers := []struct {
		name string
		kind error
		init func() error
	}{
		{"temperature", ErrTempSensor, h.s.Temperature.Init},
		{"light", ErrLightSensor, h.s.Light.Init},
		{"env", ErrEnvSensor, h.s.Env.Init},
		{"uv", ErrUVSensor, h.s.UV.Init},
	}
	for _, p := range peers {
		if err := p.init(); err != nil {
			h.state = Uninitialized
			h.log.Error("sensor init failed", "sensor", p.name, "error", err)
			return wrap(p.kind, err)
		}
	}
	h.samples = 0
	h.baseline = 0
	h.state = Ready
	h.log.Info("sensors initialized")
	return nil
}

// UpdateData runs one measurement cycle.
//
// The first failing peer aborts the cycle; the returned Reading is then the
// zero value and Last keeps the previous one. A failing voltage source is
// logged and reported as 0V.
func (h *Hub) UpdateData() (Reading, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Ready {
		return Reading{}, ErrCommunication
	}

	temp, err := h.s.Temperature.MeasureTemperature()
	if err != nil {
		return Reading{}, wrap(ErrTempSensor, err)
	}
	light, err := h.s.Light.MeasureLight()
	if err != nil {
		return Reading{}, wrap(ErrLightSensor, err)
	}
	if err := h.s.Env.SetMode(bme680.Forced); err != nil {
		return Reading{}, wrap(ErrEnvSensor, err)
	}
	env, err := h.s.Env.Measure(h.opts.Heater, h.opts.Temperature, h.opts.Pressure, h.opts.Humidity)
	if err != nil {
		return Reading{}, wrap(ErrEnvSensor, err)
	}
	uv, err := h.s.UV.MeasureUV()
	if err != nil {
		return Reading{}, wrap(ErrUVSensor, err)
	}

	r := Reading{
		Time:           time.Now(),
		Temperature:    temp,
		EnvTemperature: env.Temperature,
		Pressure:       env.Pressure,
		Humidity:       env.Humidity,
		GasResistance:  env.GasResistance,
		GasValid:       env.GasValid,
		AmbientLight:   Lux(light),
		UVIndex:        UVIndex(uv),
		SolarVoltage:   h.voltage("solar", h.s.Solar),
		BatteryVoltage: h.voltage("battery", h.s.Battery),
	}
	if env.GasValid {
		gas := float64(env.GasResistance) / float64(physic.Ohm)
		if h.samples < h.opts.WarmupSamples {
			h.samples++
			h.baseline += (gas - h.baseline) / float64(h.samples)
		}
		r.IAQValid = h.samples >= h.opts.WarmupSamples
		hum := float64(env.Humidity) / float64(physic.PercentRH)
		r.IAQ = h.opts.IAQ.Index(temp.Celsius(), hum, gas, h.baseline)
	}
	h.last = r
	h.hasLast = true
	h.log.Debug("reading", "reading", r.String(), "samples", h.samples)
	return r, nil
}

// Last returns the last Reading UpdateData produced, if any.
func (h *Hub) Last() (Reading, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.hasLast
}

// State returns the current life cycle state.
func (h *Hub) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Baseline returns the gas resistance baseline.
func (h *Hub) Baseline() physic.ElectricResistance {
	h.mu.Lock()
	defer h.mu.Unlock()
	return physic.ElectricResistance(h.baseline * float64(physic.Ohm))
}

// Samples returns how many valid gas samples went into the baseline.
func (h *Hub) Samples() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.samples
}

func (h *Hub) voltage(name string, v VoltageSource) physic.ElectricPotential {
	if v == nil {
		return 0
	}
	s, err := v.Read()
	if err != nil {
		h.log.Warn("voltage read failed", "channel", name, "error", err)
		return 0
	}
	return physic.ElectricPotential(float64(s.V) * h.opts.Divider)
}
