// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/Kampi/SensorHub/sensorhub"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func reading(ts time.Time, iaq float64) sensorhub.Reading {
	return sensorhub.Reading{
		Time:           ts,
		Temperature:    physic.ZeroCelsius + 21500*physic.MilliKelvin,
		EnvTemperature: physic.ZeroCelsius + 23*physic.Celsius,
		Pressure:       101325 * physic.Pascal,
		Humidity:       45 * physic.PercentRH,
		GasResistance:  120 * physic.KiloOhm,
		GasValid:       true,
		AmbientLight:   250,
		UVIndex:        2.5,
		SolarVoltage:   5 * physic.Volt,
		IAQ:            iaq,
		IAQValid:       true,
	}
}

func TestInsertLatest(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := s.Insert(ctx, "attic", reading(t0.Add(time.Duration(i)*time.Minute), float64(90+i))); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	warm := reading(t0.Add(time.Hour), 0)
	warm.IAQValid = false
	warm.GasValid = false
	if err := s.Insert(ctx, "cellar", warm); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.Latest(ctx, "attic", 2)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if !got[0].Time.Equal(t0.Add(2*time.Minute)) || !got[1].Time.Equal(t0.Add(time.Minute)) {
		t.Errorf("wrong order: %v, %v", got[0].Time, got[1].Time)
	}
	if got[0].IAQ == nil || *got[0].IAQ != 92 {
		t.Errorf("IAQ = %v, want 92", got[0].IAQ)
	}
	if got[0].Gas == nil || *got[0].Gas != 120000 {
		t.Errorf("Gas = %v, want 120000", got[0].Gas)
	}
	if got[0].Temperature != 21.5 || got[0].Pressure != 1013.25 || got[0].Humidity != 45 {
		t.Errorf("unexpected record %+v", got[0])
	}

	cellar, err := s.Latest(ctx, "cellar", 10)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(cellar) != 1 || cellar[0].IAQ != nil || cellar[0].Gas != nil {
		t.Errorf("unexpected cellar records %+v", cellar)
	}

	none, err := s.Latest(ctx, "garage", 10)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no records, got %d", len(none))
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Insert(context.Background(), "attic", reading(time.Now(), 80)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening keeps the history.
	s, err = Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	got, err := s.Latest(context.Background(), "attic", 10)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d records, want 1", len(got))
	}
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{":memory:", ":memory:"},
		{"history.db", "file:history.db?_busy_timeout=5000&_journal_mode=WAL"},
		{"file:history.db?cache=shared", "file:history.db?cache=shared&_busy_timeout=5000&_journal_mode=WAL"},
	}
	for _, tt := range tests {
		got, err := buildDSN(tt.path)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("buildDSN(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
