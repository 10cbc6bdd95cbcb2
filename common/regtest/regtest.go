// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package regtest implements a fake i2c.Bus backed by register files.
//
// Unlike i2ctest.Playback it does not care about the exact sequence of
// transactions, which suits tests that run many cycles or poll a status
// register an unknown number of times.
package regtest

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Bus answers transactions for every address present in Regs.
//
// A transaction writes w[1:] starting at register w[0] and then reads len(r)
// bytes starting at register w[0]. Register addresses auto-increment and wrap
// at 0xFF.
type Bus struct {
	mu   sync.Mutex
	regs map[uint16]*[256]byte

	// Fail is called before every transaction. A non-nil return is
	// reported as the bus error and the transaction is not applied.
	Fail func(addr uint16, w, r []byte) error
	// Count is the number of transactions seen, failed ones included.
	Count int
}

// New returns a Bus with a device answering at each addr.
func New(addrs ...uint16) *Bus {
	b := &Bus{regs: map[uint16]*[256]byte{}}
	for _, a := range addrs {
		b.regs[a] = &[256]byte{}
	}
	return b
}

// Set stores v starting at register reg of device addr.
func (b *Bus) Set(addr uint16, reg byte, v ...byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f := b.regs[addr]
	if f == nil {
		f = &[256]byte{}
		b.regs[addr] = f
	}
	for i, c := range v {
		f[reg+byte(i)] = c
	}
}

// Get returns register reg of device addr.
func (b *Bus) Get(addr uint16, reg byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f := b.regs[addr]; f != nil {
		return f[reg]
	}
	return 0
}

func (b *Bus) String() string {
	return "regtest"
}

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Count++
	if b.Fail != nil {
		if err := b.Fail(addr, w, r); err != nil {
			return err
		}
	}
	f := b.regs[addr]
	if f == nil {
		return fmt.Errorf("regtest: no device at 0x%02X", addr)
	}
	if len(w) == 0 {
		if len(r) != 0 {
			return fmt.Errorf("regtest: read without register address at 0x%02X", addr)
		}
		return nil
	}
	reg := w[0]
	for i, c := range w[1:] {
		f[reg+byte(i)] = c
	}
	for i := range r {
		r[i] = f[reg+byte(i)]
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return nil
}

var _ i2c.Bus = &Bus{}
