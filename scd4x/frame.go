// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"fmt"

	"github.com/GermanBionicSystems/sensirion/common"
)

// Response holds the words returned by the device for one command, in the
// order the device sent them.
type Response []uint16

// Word returns the first word of the response. Use it for commands that
// return exactly one word.
func (r Response) Word() uint16 {
	if len(r) == 0 {
		return 0
	}
	return r[0]
}

// encode returns the bytes written to the device for code. If payload is
// non-nil, it's appended as a checksum group.
func encode(code cmd, payload *uint16) []byte {
	w := make([]byte, 2, 2+common.GroupSize)
	w[0] = byte(code >> 8)
	w[1] = byte(code)
	if payload != nil {
		w = common.AppendWord(w, *payload)
	}
	return w
}

// decode converts the raw bytes read from the device into words, verifying
// the CRC of every group. A response with any bad group is rejected whole.
func decode(code cmd, raw []byte, words int) (Response, error) {
	if len(raw) != words*common.GroupSize {
		return nil, fmt.Errorf("scd4x: cmd 0x%04x: read %d bytes, expected %d", uint16(code), len(raw), words*common.GroupSize)
	}
	result, group, ok := common.Words(raw)
	if !ok {
		return nil, &ChecksumError{Cmd: uint16(code), Group: group}
	}
	return Response(result), nil
}
