// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Kampi/SensorHub/internal/config"
)

func TestNewLogger_Prod(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo}, "1.2.3", "sensorhub")
	l.Debug("hidden")
	l.Info("reading", "iaq", 87.5)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	for k, v := range map[string]any{"msg": "reading", "app": "sensorhub", "version": "1.2.3", "env": "prod", "iaq": 87.5} {
		if rec[k] != v {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}
}

func TestNewLogger_Dev(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, config.Config{AppEnv: "dev", LogLevel: slog.LevelDebug}, "dev", "sensorhub")
	l.Debug("sensors initialized")

	out := buf.String()
	if !strings.Contains(out, "sensors initialized") || !strings.Contains(out, "sensorhub") {
		t.Errorf("unexpected output %q", out)
	}
	if json.Valid([]byte(strings.TrimSpace(out))) {
		t.Errorf("dev output should not be JSON: %q", out)
	}
}
