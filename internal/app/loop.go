// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Kampi/SensorHub/sensorhub"
)

// maxFailures is the number of consecutive failed cycles after which the
// sensors are initialized again.
const maxFailures = 3

// Source is what Loop polls, a *sensorhub.Hub.
type Source interface {
	Initialize() error
	UpdateData() (sensorhub.Reading, error)
}

// Sink receives every good Reading.
type Sink interface {
	Name() string
	Handle(ctx context.Context, r sensorhub.Reading) error
}

type sinkFunc struct {
	name string
	fn   func(context.Context, sensorhub.Reading) error
}

func (s sinkFunc) Name() string { return s.name }

func (s sinkFunc) Handle(ctx context.Context, r sensorhub.Reading) error { return s.fn(ctx, r) }

// SinkFunc adapts fn to a Sink.
func SinkFunc(name string, fn func(context.Context, sensorhub.Reading) error) Sink {
	return sinkFunc{name: name, fn: fn}
}

// Loop calls Source.UpdateData every Interval and fans the readings out to
// the sinks.
//
// Initialization happens on the first tick and again after ErrCommunication
// or maxFailures failed cycles in a row. The gas baseline restarts each
// time.
type Loop struct {
	Source   Source
	Sinks    []Sink
	Interval time.Duration
	// OnError is called for every failed Initialize or UpdateData. Optional.
	OnError func(error)
	Logger  *slog.Logger
}

// Run polls until ctx is done. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	needInit := true
	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if needInit {
			if err := l.Source.Initialize(); err != nil {
				l.Logger.Error("sensor initialization failed", "error", err)
				l.onError(err)
			} else {
				needInit = false
				failures = 0
			}
		}
		if !needInit {
			r, err := l.Source.UpdateData()
			if err != nil {
				failures++
				l.Logger.Warn("measurement cycle failed", "error", err, "failures", failures)
				l.onError(err)
				if errors.Is(err, sensorhub.ErrCommunication) || failures >= maxFailures {
					needInit = true
				}
			} else {
				failures = 0
				l.dispatch(ctx, r)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, r sensorhub.Reading) {
	for _, s := range l.Sinks {
		if err := s.Handle(ctx, r); err != nil {
			l.Logger.Warn("sink failed", "sink", s.Name(), "error", err)
		}
	}
}

func (l *Loop) onError(err error) {
	if l.OnError != nil {
		l.OnError(err)
	}
}
