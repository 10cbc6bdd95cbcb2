// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorhub

import (
	"errors"
	"math"
	"testing"

	"github.com/Kampi/SensorHub/bme680"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

var errBus = errors.New("bus failure")

type fakeThermo struct {
	t       physic.Temperature
	initErr error
	err     error
	calls   int
}

func (f *fakeThermo) Init() error { return f.initErr }

func (f *fakeThermo) MeasureTemperature() (physic.Temperature, error) {
	f.calls++
	return f.t, f.err
}

type fakeCounter struct {
	v       uint16
	initErr error
	err     error
	calls   int
	inits   int
}

func (f *fakeCounter) Init() error {
	f.inits++
	return f.initErr
}

func (f *fakeCounter) MeasureLight() (uint16, error) {
	f.calls++
	return f.v, f.err
}

func (f *fakeCounter) MeasureUV() (uint16, error) {
	f.calls++
	return f.v, f.err
}

type fakeEnv struct {
	data    bme680.Data
	initErr error
	err     error
	modes   []bme680.Mode
	heater  bme680.HeaterProfile
	inits   int
	calls   int
}

func (f *fakeEnv) Init() error {
	f.inits++
	return f.initErr
}

func (f *fakeEnv) SetMode(m bme680.Mode) error {
	f.modes = append(f.modes, m)
	return nil
}

func (f *fakeEnv) Measure(h bme680.HeaterProfile, t, p, hum bme680.Oversampling) (bme680.Data, error) {
	f.calls++
	f.heater = h
	return f.data, f.err
}

type fakeVoltage struct {
	v   physic.ElectricPotential
	err error
}

func (f *fakeVoltage) Read() (analog.Sample, error) {
	return analog.Sample{V: f.v}, f.err
}

type fakes struct {
	thermo *fakeThermo
	light  *fakeCounter
	env    *fakeEnv
	uv     *fakeCounter
}

func newFakes() *fakes {
	return &fakes{
		thermo: &fakeThermo{t: physic.ZeroCelsius + 21*physic.Celsius},
		light:  &fakeCounter{v: 400},
		env: &fakeEnv{data: bme680.Data{
			Env: physic.Env{
				Temperature: physic.ZeroCelsius + 22*physic.Celsius,
				Pressure:    1013 * 100 * physic.Pascal,
				Humidity:    40 * physic.PercentRH,
			},
			GasResistance: 50 * physic.KiloOhm,
			GasValid:      true,
		}},
		uv: &fakeCounter{v: 1000},
	}
}

func (f *fakes) sensors() Sensors {
	return Sensors{Temperature: f.thermo, Light: f.light, Env: f.env, UV: f.uv}
}

func newReadyHub(t *testing.T, s Sensors, opts *Opts) *Hub {
	t.Helper()
	h, err := New(s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Initialize(); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestNew(t *testing.T) {
	f := newFakes()
	s := f.sensors()
	s.UV = nil
	if _, err := New(s, nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	opts := DefaultOpts
	opts.Temperature = bme680.Skip
	if _, err := New(f.sensors(), &opts); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	opts = DefaultOpts
	opts.WarmupSamples = 0
	if _, err := New(f.sensors(), &opts); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	opts = DefaultOpts
	opts.IAQ.ReferenceHumidity = 100
	if _, err := New(f.sensors(), &opts); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	h, err := New(f.sensors(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if s := h.State(); s != Uninitialized {
		t.Errorf("expected uninitialized, got %s", s)
	}
}

func TestUpdateDataNotInitialized(t *testing.T) {
	f := newFakes()
	h, err := New(f.sensors(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.UpdateData(); !errors.Is(err, ErrCommunication) {
		t.Fatalf("expected ErrCommunication, got %v", err)
	}
	if f.thermo.calls != 0 || f.light.calls != 0 || f.env.calls != 0 || f.uv.calls != 0 {
		t.Error("sensors touched before Initialize")
	}
	if _, ok := h.Last(); ok {
		t.Error("unexpected last reading")
	}
}

func TestInitializeFailure(t *testing.T) {
	f := newFakes()
	f.light.initErr = errBus
	h, err := New(f.sensors(), nil)
	if err != nil {
		t.Fatal(err)
	}
	err = h.Initialize()
	if !errors.Is(err, ErrLightSensor) || !errors.Is(err, errBus) {
		t.Fatalf("expected light sensor failure, got %v", err)
	}
	if s := h.State(); s != Uninitialized {
		t.Errorf("expected uninitialized, got %s", s)
	}
	if f.env.inits != 0 || f.uv.inits != 0 {
		t.Error("initialization continued after a failure")
	}
	// The caller retries.
	f.light.initErr = nil
	if err := h.Initialize(); err != nil {
		t.Fatal(err)
	}
	if s := h.State(); s != Ready {
		t.Errorf("expected ready, got %s", s)
	}
}

func TestUpdateData(t *testing.T) {
	f := newFakes()
	solar := &fakeVoltage{v: 500 * physic.MilliVolt}
	s := f.sensors()
	s.Solar = solar
	h := newReadyHub(t, s, nil)
	r, err := h.UpdateData()
	if err != nil {
		t.Fatal(err)
	}
	if r.Temperature != f.thermo.t || r.EnvTemperature != f.env.data.Temperature {
		t.Errorf("unexpected temperatures %s %s", r.Temperature, r.EnvTemperature)
	}
	if r.Pressure != f.env.data.Pressure || r.Humidity != f.env.data.Humidity || r.GasResistance != f.env.data.GasResistance {
		t.Errorf("unexpected env %+v", r)
	}
	if r.AmbientLight != 100 {
		t.Errorf("expected 100lx, got %g", r.AmbientLight)
	}
	if math.Abs(r.UVIndex-4.5146) > 1e-9 {
		t.Errorf("expected UV 4.5146, got %g", r.UVIndex)
	}
	v := float64(r.SolarVoltage) / float64(physic.Volt)
	if math.Abs(v-0.5*122/22) > 1e-6 {
		t.Errorf("unexpected solar voltage %g", v)
	}
	if r.BatteryVoltage != 0 {
		t.Errorf("expected no battery voltage, got %s", r.BatteryVoltage)
	}
	if len(f.env.modes) != 1 || f.env.modes[0] != bme680.Forced {
		t.Errorf("expected forced mode, got %v", f.env.modes)
	}
	if f.env.heater != DefaultOpts.Heater {
		t.Errorf("unexpected heater %s", f.env.heater)
	}
	if r.IAQValid {
		t.Error("IAQ valid before warm-up")
	}
	last, ok := h.Last()
	if !ok || last != r {
		t.Errorf("Last() = %+v, %t", last, ok)
	}
}

func TestUpdateDataFailFast(t *testing.T) {
	f := newFakes()
	h := newReadyHub(t, f.sensors(), nil)
	f.thermo.err = errBus
	_, err := h.UpdateData()
	if !errors.Is(err, ErrTempSensor) || !errors.Is(err, errBus) {
		t.Fatalf("expected temperature failure, got %v", err)
	}
	if f.light.calls != 0 || f.env.calls != 0 || f.uv.calls != 0 {
		t.Error("cycle continued after a failure")
	}

	f.thermo.err = nil
	f.uv.err = errBus
	if _, err := h.UpdateData(); !errors.Is(err, ErrUVSensor) {
		t.Fatalf("expected uv failure, got %v", err)
	}
	if _, ok := h.Last(); ok {
		t.Error("failed cycle produced a reading")
	}

	f.uv.err = nil
	f.env.err = errBus
	if _, err := h.UpdateData(); !errors.Is(err, ErrEnvSensor) {
		t.Fatalf("expected env failure, got %v", err)
	}
	f.env.err = nil
	f.light.err = errBus
	if _, err := h.UpdateData(); !errors.Is(err, ErrLightSensor) {
		t.Fatalf("expected light failure, got %v", err)
	}
	if h.Samples() != 0 {
		t.Errorf("failed cycles fed the baseline: %d", h.Samples())
	}
}

func TestWarmup(t *testing.T) {
	f := newFakes()
	h := newReadyHub(t, f.sensors(), nil)
	for i := 1; i <= WarmupSamples+1; i++ {
		r, err := h.UpdateData()
		if err != nil {
			t.Fatal(err)
		}
		if want := i >= WarmupSamples; r.IAQValid != want {
			t.Fatalf("sample %d: IAQValid = %t", i, r.IAQValid)
		}
	}
	if n := h.Samples(); n != WarmupSamples {
		t.Errorf("expected %d samples, got %d", WarmupSamples, n)
	}
	if b := h.Baseline(); b != f.env.data.GasResistance {
		t.Errorf("expected baseline %s, got %s", f.env.data.GasResistance, b)
	}
	// A new Initialize starts over.
	if err := h.Initialize(); err != nil {
		t.Fatal(err)
	}
	if h.Samples() != 0 || h.Baseline() != 0 {
		t.Errorf("baseline kept across Initialize")
	}
}

func TestWarmupSkipsInvalidGas(t *testing.T) {
	f := newFakes()
	opts := DefaultOpts
	opts.WarmupSamples = 3
	h := newReadyHub(t, f.sensors(), &opts)
	f.env.data.GasValid = false
	for i := 0; i < 5; i++ {
		r, err := h.UpdateData()
		if err != nil {
			t.Fatal(err)
		}
		if r.IAQValid || r.IAQ != 0 {
			t.Fatalf("IAQ from an invalid gas sample: %+v", r)
		}
	}
	if h.Samples() != 0 {
		t.Errorf("invalid samples counted: %d", h.Samples())
	}
}

func TestBaselineMean(t *testing.T) {
	f := newFakes()
	opts := DefaultOpts
	opts.WarmupSamples = 3
	h := newReadyHub(t, f.sensors(), &opts)
	for _, g := range []physic.ElectricResistance{100, 200, 300, 1000} {
		f.env.data.GasResistance = g * physic.KiloOhm
		if _, err := h.UpdateData(); err != nil {
			t.Fatal(err)
		}
	}
	if b := h.Baseline(); b != 200*physic.KiloOhm {
		t.Errorf("expected 200kΩ, got %s", b)
	}
}

func TestIdempotent(t *testing.T) {
	f := newFakes()
	h := newReadyHub(t, f.sensors(), nil)
	var prev Reading
	for i := 0; i < WarmupSamples+2; i++ {
		r, err := h.UpdateData()
		if err != nil {
			t.Fatal(err)
		}
		if i > WarmupSamples && math.Abs(r.IAQ-prev.IAQ) > 1e-9 {
			t.Errorf("IAQ drifted from %g to %g", prev.IAQ, r.IAQ)
		}
		prev = r
	}
}

func TestVoltageFailure(t *testing.T) {
	f := newFakes()
	s := f.sensors()
	s.Battery = &fakeVoltage{err: errBus}
	h := newReadyHub(t, s, nil)
	r, err := h.UpdateData()
	if err != nil {
		t.Fatal(err)
	}
	if r.BatteryVoltage != 0 {
		t.Errorf("expected 0V, got %s", r.BatteryVoltage)
	}
}

func TestStateString(t *testing.T) {
	if s := Ready.String(); s != "ready" {
		t.Error(s)
	}
	if s := State(7).String(); s != "State(7)" {
		t.Error(s)
	}
}
