// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import (
	"errors"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	calls := 0
	err := WaitFor(time.Second, time.Millisecond, func() (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWaitForTimeout(t *testing.T) {
	err := WaitFor(5*time.Millisecond, time.Millisecond, func() (bool, error) {
		return false, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestWaitForError(t *testing.T) {
	bang := errors.New("bang")
	err := WaitFor(0, time.Millisecond, func() (bool, error) {
		return false, bang
	})
	if err != bang {
		t.Fatalf("expected %v, got %v", bang, err)
	}
}

func TestTransmissionError(t *testing.T) {
	cause := errors.New("nack")
	var err error = &TransmissionError{Device: "bme680", Reg: 0xD0, Err: cause}
	if !errors.Is(err, ErrTransmission) {
		t.Error("expected ErrTransmission to match")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the bus error to match")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("unexpected ErrTimeout match")
	}
	if s := err.Error(); s != "bme680: transmission error on register 0xD0: nack" {
		t.Errorf("unexpected message %q", s)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, want int
	}{
		{-5, 0},
		{0, 0},
		{7, 7},
		{11, 11},
		{12, 11},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, 0, 11); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
	if got := Clamp(11.5, 0, 11); got != 11 {
		t.Errorf("Clamp(11.5) = %v", got)
	}
}
