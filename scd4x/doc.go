// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// This package provides a driver for the Sensiron SCD4x CO2 sensors.
// The scd4x family provide a compact sensor that can be used to measure
// Temperature, Humidity, and CO2 concentration.
//
// Every operation is a single I2C transaction: a 16-bit command word,
// optionally followed by a one word argument, a command specific settle time,
// and for commands that return data, a read of one or more words. Each word
// on the wire is followed by a CRC8; a response with a bad CRC is rejected.
//
// A Dev isn't safe for use by multiple goroutines except through
// SenseContinuous and Halt. Callers sharing a sensor must serialize access.
//
// Refer to the datasheet for more information.
//
// https://sensirion.com/media/documents/48C4B7FB/66E05452/CD_DS_SCD4x_Datasheet_D1.pdf
package scd4x
