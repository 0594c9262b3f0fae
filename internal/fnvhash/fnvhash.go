// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package fnvhash writes fixed-width values into an FNV-1a hash for
// structural hashing of state descriptors.
package fnvhash

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"
)

// Hasher accumulates values into a 64-bit FNV-1a hash.
// The zero value is not usable; call New.
type Hasher struct {
	h   hash.Hash64
	buf [8]byte
}

// New returns an empty hasher.
func New() *Hasher {
	return &Hasher{h: fnv.New64a()}
}

// Uint32 writes v in little-endian order.
func (h *Hasher) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(h.buf[:4], v)
	_, _ = h.h.Write(h.buf[:4])
}

// Uint64 writes v in little-endian order.
func (h *Hasher) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = h.h.Write(h.buf[:])
}

// Int32 writes v as its two's-complement bits.
func (h *Hasher) Int32(v int32) {
	h.Uint32(uint32(v)) //nolint:gosec // bit reinterpretation
}

// Float32 writes the IEEE-754 bits of v. Values that compare equal hash
// equally: -0 is written as +0, and every NaN as one canonical NaN.
func (h *Hasher) Float32(v float32) {
	switch {
	case v == 0:
		v = 0
	case v != v:
		v = float32(math.NaN())
	}
	h.Uint32(math.Float32bits(v))
}

// Float64 writes the IEEE-754 bits of v, canonicalized like Float32.
func (h *Hasher) Float64(v float64) {
	switch {
	case v == 0:
		v = 0
	case math.IsNaN(v):
		v = math.NaN()
	}
	h.Uint64(math.Float64bits(v))
}

// Bool writes a single byte.
func (h *Hasher) Bool(v bool) {
	if v {
		_, _ = h.h.Write([]byte{1})
	} else {
		_, _ = h.h.Write([]byte{0})
	}
}

// String writes the length of s followed by its bytes.
//
//nolint:gosec // G115: labels and keys are short
func (h *Hasher) String(s string) {
	h.Uint32(uint32(len(s)))
	_, _ = h.h.Write([]byte(s))
}

// Sum64 returns the hash of everything written so far.
func (h *Hasher) Sum64() uint64 {
	return h.h.Sum64()
}

// Bytes returns the FNV-1a hash of data.
func Bytes(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}
