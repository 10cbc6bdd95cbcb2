// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "time"

// WaitFor calls ready until it returns true or an error, sleeping interval
// between calls. It returns ErrTimeout once timeout has elapsed. A timeout of
// 0 waits forever.
//
// ready is always called at least once, before any sleep.
func WaitFor(timeout, interval time.Duration, ready func() (bool, error)) error {
	end := time.Now().Add(timeout)
	for {
		ok, err := ready()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if timeout > 0 && !time.Now().Before(end) {
			return ErrTimeout
		}
		time.Sleep(interval)
	}
}

// Clamp limits v to [lo, hi].
func Clamp[T int | int32 | int64 | float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
