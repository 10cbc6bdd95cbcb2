// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions and error kinds used across multiple
// drivers. For example, the bounded status poll every driver uses while a
// conversion is in progress.
package common
