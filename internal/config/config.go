// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	I2CBus       string
	BME680Addr   uint16
	MCP9808Addr  uint16
	BH1726Addr   uint16
	ADS1115Addr  uint16
	PollInterval time.Duration

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	StationID    string

	MetricsAddr string
	SQLitePath  string
	Console     bool
}

func LoadFromEnv() (Config, error) {
	appEnv := env("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	bme680Addr, err := parseAddr("BME680_ADDR", "0x76", 0x76, 0x77)
	if err != nil {
		return Config{}, err
	}
	mcp9808Addr, err := parseAddr("MCP9808_ADDR", "0x18", 0x18, 0x1F)
	if err != nil {
		return Config{}, err
	}
	bh1726Addr, err := parseAddr("BH1726_ADDR", "0x29", 0x29, 0x39)
	if err != nil {
		return Config{}, err
	}
	if bh1726Addr != 0x29 && bh1726Addr != 0x39 {
		return Config{}, fmt.Errorf("invalid BH1726_ADDR 0x%02X (allowed: 0x29, 0x39)", bh1726Addr)
	}
	// 0 disables the ADC.
	adsAddr, err := parseAddr("ADS1115_ADDR", "0", 0, 0x4B)
	if err != nil {
		return Config{}, err
	}
	if adsAddr != 0 && adsAddr < 0x48 {
		return Config{}, fmt.Errorf("invalid ADS1115_ADDR 0x%02X (allowed: 0, 0x48..0x4B)", adsAddr)
	}

	pollStr := env("POLL_INTERVAL", "10s")
	poll, err := time.ParseDuration(pollStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid POLL_INTERVAL %q: %w", pollStr, err)
	}
	if poll <= 0 {
		return Config{}, fmt.Errorf("POLL_INTERVAL must be positive, got %v", poll)
	}

	mqttPortStr := env("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT out of range, got %d", mqttPort)
	}

	consoleStr := env("CONSOLE", "false")
	console, err := strconv.ParseBool(consoleStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid CONSOLE %q: %w", consoleStr, err)
	}

	return Config{
		AppEnv:       appEnv,
		LogLevel:     level,
		I2CBus:       env("I2C_BUS", ""),
		BME680Addr:   bme680Addr,
		MCP9808Addr:  mcp9808Addr,
		BH1726Addr:   bh1726Addr,
		ADS1115Addr:  adsAddr,
		PollInterval: poll,
		MQTTBroker:   env("MQTT_BROKER", ""),
		MQTTPort:     mqttPort,
		MQTTClientID: env("MQTT_CLIENT_ID", "sensorhub"),
		StationID:    env("STATION_ID", "sensorhub"),
		MetricsAddr:  env("METRICS_ADDR", ""),
		SQLitePath:   env("SQLITE_PATH", ""),
		Console:      console,
	}, nil
}

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseAddr(key, def string, lo, hi uint16) (uint16, error) {
	s := env(key, def)
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if uint16(v) < lo || uint16(v) > hi {
		return 0, fmt.Errorf("invalid %s %q (allowed: 0x%02X..0x%02X)", key, s, lo, hi)
	}
	return uint16(v), nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
