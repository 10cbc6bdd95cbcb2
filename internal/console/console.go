// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package console draws the air quality index as a one line bar on a
// terminal using ANSI color codes.
package console

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"

	"github.com/Kampi/SensorHub/sensorhub"
)

// Bar colors by IAQ band.
var (
	Good     = color.NRGBA{0x00, 0xC0, 0x00, 0xFF}
	Moderate = color.NRGBA{0xE0, 0xE0, 0x00, 0xFF}
	Poor     = color.NRGBA{0xFF, 0x80, 0x00, 0xFF}
	Bad      = color.NRGBA{0xE0, 0x00, 0x00, 0xFF}
	Warmup   = color.NRGBA{0x60, 0x60, 0x60, 0xFF}
	empty    = color.NRGBA{0x00, 0x00, 0x00, 0xFF}
)

// Opts represents the options available for the bar.
type Opts struct {
	// Width is the number of cells for an IAQ of 100.
	Width   int
	Palette *ansi256.Palette
}

// Bar redraws itself in place on every Show.
type Bar struct {
	w       io.Writer
	width   int
	palette ansi256.Palette

	buf bytes.Buffer
}

// New returns a Bar that draws on stdout.
func New(opts *Opts) *Bar {
	return newBar(colorable.NewColorableStdout(), opts)
}

func newBar(w io.Writer, opts *Opts) *Bar {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	width := opts.Width
	if width <= 0 {
		width = 20
	}
	return &Bar{w: w, width: width, palette: *p}
}

func (b *Bar) String() string {
	return "console"
}

// BandColor returns the bar color for an IAQ value.
func BandColor(iaq float64, valid bool) color.NRGBA {
	switch {
	case !valid:
		return Warmup
	case iaq >= 80:
		return Good
	case iaq >= 60:
		return Moderate
	case iaq >= 40:
		return Poor
	default:
		return Bad
	}
}

// Show draws r. While the gas baseline warms up the bar is full and grey.
func (b *Bar) Show(r sensorhub.Reading) error {
	lit := b.width
	if r.IAQValid {
		lit = int(math.Round(r.IAQ / 100 * float64(b.width)))
	}
	c := BandColor(r.IAQ, r.IAQValid)

	b.buf.Reset()
	_, _ = b.buf.WriteString("\r\033[0m")
	for i := 0; i < b.width; i++ {
		cell := c
		if i >= lit {
			cell = empty
		}
		_, _ = io.WriteString(&b.buf, b.palette.Block(cell))
	}
	_, _ = b.buf.WriteString("\033[0m ")
	if r.IAQValid {
		fmt.Fprintf(&b.buf, "IAQ %5.1f", r.IAQ)
	} else {
		_, _ = b.buf.WriteString("IAQ  ... ")
	}
	fmt.Fprintf(&b.buf, " %s %.1flx UV %.1f ", r.Temperature, r.AmbientLight, r.UVIndex)
	_, err := b.buf.WriteTo(b.w)
	return err
}

// Halt resets the terminal colors and ends the line.
func (b *Bar) Halt() error {
	_, err := b.w.Write([]byte("\n\033[0m"))
	return err
}
