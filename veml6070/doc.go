// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package veml6070 controls a Vishay VEML6070 UVA light sensor over I²C.
//
// The device is unusual in that it has no registers: the command and the two
// data bytes each live at their own I²C address.
//
// **Datasheet:** https://www.vishay.com/docs/84277/veml6070.pdf
package veml6070
