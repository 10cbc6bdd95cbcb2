// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"periph.io/x/conn/v3/physic"

	"github.com/Kampi/SensorHub/sensorhub"
)

const schema = `
CREATE TABLE IF NOT EXISTS readings (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	station_id      TEXT    NOT NULL,
	ts              TEXT    NOT NULL,
	temperature_c   REAL    NOT NULL,
	env_temp_c      REAL    NOT NULL,
	humidity_pct    REAL    NOT NULL,
	pressure_hpa    REAL    NOT NULL,
	gas_ohm         REAL,
	light_lux       REAL    NOT NULL,
	uv_index        REAL    NOT NULL,
	solar_v         REAL    NOT NULL,
	battery_v       REAL    NOT NULL,
	iaq             REAL
);
CREATE INDEX IF NOT EXISTS readings_station_ts ON readings (station_id, ts);
`

// tsLayout has a fixed width so that ts sorts as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

const insertReadingSQL = `
INSERT INTO readings (station_id, ts, temperature_c, env_temp_c, humidity_pct,
	pressure_hpa, gas_ohm, light_lux, uv_index, solar_v, battery_v, iaq)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const latestReadingsSQL = `
SELECT station_id, ts, temperature_c, env_temp_c, humidity_pct, pressure_hpa,
	gas_ohm, light_lux, uv_index, solar_v, battery_v, iaq
FROM readings
WHERE station_id = ?
ORDER BY ts DESC, id DESC
LIMIT ?`

// Record is one stored reading in display units. Gas and IAQ are nil when
// the reading did not carry a valid value.
type Record struct {
	StationID      string
	Time           time.Time
	Temperature    float64
	EnvTemperature float64
	Humidity       float64
	Pressure       float64
	Gas            *float64
	Light          float64
	UVIndex        float64
	Solar          float64
	Battery        float64
	IAQ            *float64
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path. ":memory:" is
// accepted for tests.
func Open(path string) (*Store, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// One writer; it also keeps a ":memory:" database on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, stationID string, r sensorhub.Reading) error {
	rec := NewRecord(stationID, r)
	_, err := s.db.ExecContext(ctx, insertReadingSQL,
		rec.StationID, rec.Time.UTC().Format(tsLayout),
		rec.Temperature, rec.EnvTemperature, rec.Humidity, rec.Pressure,
		rec.Gas, rec.Light, rec.UVIndex, rec.Solar, rec.Battery, rec.IAQ,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// Latest returns up to limit records of stationID, newest first.
func (s *Store) Latest(ctx context.Context, stationID string, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, latestReadingsSQL, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest readings rows", "error", err)
		}
	}()
	var out []Record
	for rows.Next() {
		var rec Record
		var ts string
		var gas, iaq sql.NullFloat64
		if err := rows.Scan(&rec.StationID, &ts, &rec.Temperature, &rec.EnvTemperature,
			&rec.Humidity, &rec.Pressure, &gas, &rec.Light, &rec.UVIndex,
			&rec.Solar, &rec.Battery, &iaq); err != nil {
			return nil, err
		}
		t, err := time.Parse(tsLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		rec.Time = t
		if gas.Valid {
			rec.Gas = &gas.Float64
		}
		if iaq.Valid {
			rec.IAQ = &iaq.Float64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// NewRecord converts r to display units.
func NewRecord(stationID string, r sensorhub.Reading) Record {
	rec := Record{
		StationID:      stationID,
		Time:           r.Time,
		Temperature:    r.Temperature.Celsius(),
		EnvTemperature: r.EnvTemperature.Celsius(),
		Humidity:       float64(r.Humidity) / float64(physic.PercentRH),
		Pressure:       float64(r.Pressure) / float64(100*physic.Pascal),
		Light:          r.AmbientLight,
		UVIndex:        r.UVIndex,
		Solar:          float64(r.SolarVoltage) / float64(physic.Volt),
		Battery:        float64(r.BatteryVoltage) / float64(physic.Volt),
	}
	if r.GasValid {
		g := float64(r.GasResistance) / float64(physic.Ohm)
		rec.Gas = &g
	}
	if r.IAQValid {
		iaq := r.IAQ
		rec.IAQ = &iaq
	}
	return rec
}

func buildDSN(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	dir := filepath.Dir(path)
	if dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
