// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the CRC8 calculation and word framing used by Sensirion sensors.
//
// Sensirion devices exchange 16-bit words on the wire as checksum groups:
// the big-endian word followed by the CRC8 of those two bytes.
package common

const (
	// Polynomial x^8 + x^5 + x^4 + 1. The x^8 term is implied.
	crc8Polynomial byte = 0x31
	crc8Init       byte = 0xff

	// GroupSize is the number of bytes in a checksum group.
	GroupSize = 3
)

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. CRC bytes are used in sensors from TI and Sensirion.
// Computed MSB first with no final XOR.
func CRC8(bytes []byte) byte {
	crc := crc8Init
	for _, val := range bytes {
		crc ^= val
		for i := 0; i < 8; i++ {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (crc << 1) ^ crc8Polynomial
			}
		}
	}
	return crc
}

// AppendWord appends word to b as a checksum group and returns the extended
// slice.
func AppendWord(b []byte, word uint16) []byte {
	hi, lo := byte(word>>8), byte(word)
	return append(b, hi, lo, CRC8([]byte{hi, lo}))
}

// Words splits b into checksum groups and returns the words they carry. If a
// group's CRC byte doesn't match, Words returns nil, the index of the failing
// group, and false. The length of b must be a multiple of GroupSize.
func Words(b []byte) ([]uint16, int, bool) {
	words := make([]uint16, len(b)/GroupSize)
	for ix := range words {
		g := b[ix*GroupSize : ix*GroupSize+GroupSize]
		if CRC8(g[:2]) != g[2] {
			return nil, ix, false
		}
		words[ix] = uint16(g[0])<<8 | uint16(g[1])
	}
	return words, 0, true
}
