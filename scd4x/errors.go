// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"fmt"
	"time"
)

// ChecksumError is returned when a word read from the device fails CRC
// validation. No part of the response is used.
type ChecksumError struct {
	Cmd uint16
	// Index of the first word with a bad CRC.
	Group int
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("scd4x: cmd 0x%04x: invalid crc in response word %d", e.Cmd, e.Group)
}

// TimeoutError is returned by a blocking Measure when the device didn't
// report data ready within the timeout.
type TimeoutError struct {
	Timeout time.Duration
	// Number of data ready checks made.
	Polls int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("scd4x: timeout waiting for data ready status after %s (%d polls)", e.Timeout, e.Polls)
}

// DeviceFailureError is returned when the device reports that an operation
// failed. Code is the word returned by the device.
type DeviceFailureError struct {
	Cmd  uint16
	Code uint16
}

func (e *DeviceFailureError) Error() string {
	return fmt.Sprintf("scd4x: cmd 0x%04x: device reported failure 0x%04x", e.Cmd, e.Code)
}

// ValidationError is returned when an argument can't be sent to the device.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scd4x: invalid %s: %s", e.Field, e.Reason)
}
