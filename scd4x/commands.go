// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import "time"

type cmd uint16

// command describes one entry of the device command set. Entries are fixed at
// package init and never modified.
type command struct {
	name string
	// The 16-bit command word.
	code cmd
	// True if the command carries a one word argument.
	payload bool
	// The number of words returned by the device. 0, 1, or 3.
	words int
	// Time the device needs after the write before it will answer, or before
	// it accepts another command.
	settle time.Duration
	// True if this command is permitted while the sensor is running in
	// periodic measurement mode.
	whileSensing bool
}

var (
	cmdSoftReset = command{
		name:   "reinit",
		code:   0x3646,
		settle: 20 * time.Millisecond,
	}
	cmdFactoryReset = command{
		name:   "perform_factory_reset",
		code:   0x3632,
		settle: 1200 * time.Millisecond,
	}
	cmdForcedRecalibration = command{
		name:    "perform_forced_recalibration",
		code:    0x362f,
		payload: true,
		words:   1,
		settle:  400 * time.Millisecond,
	}
	cmdSelfTest = command{
		name:   "perform_self_test",
		code:   0x3639,
		words:  1,
		settle: 10 * time.Second,
	}
	cmdDataReady = command{
		name:         "get_data_ready_status",
		code:         0xe4b8,
		words:        1,
		settle:       time.Millisecond,
		whileSensing: true,
	}
	cmdStopMeasurement = command{
		name:         "stop_periodic_measurement",
		code:         0x3f86,
		settle:       500 * time.Millisecond,
		whileSensing: true,
	}
	cmdStartMeasurement = command{
		name: "start_periodic_measurement",
		code: 0x21b1,
	}
	cmdStartLowPowerMeasurement = command{
		name: "start_low_power_periodic_measurement",
		code: 0x21ac,
	}
	cmdReadMeasurement = command{
		name:         "read_measurement",
		code:         0xec05,
		words:        3,
		settle:       time.Millisecond,
		whileSensing: true,
	}
	cmdSerialNumber = command{
		name:   "get_serial_number",
		code:   0x3682,
		words:  3,
		settle: time.Millisecond,
	}
	cmdGetTemperatureOffset = command{
		name:   "get_temperature_offset",
		code:   0x2318,
		words:  1,
		settle: time.Millisecond,
	}
	cmdSetTemperatureOffset = command{
		name:    "set_temperature_offset",
		code:    0x241d,
		payload: true,
	}
	cmdGetAltitude = command{
		name:   "get_sensor_altitude",
		code:   0x2322,
		words:  1,
		settle: time.Millisecond,
	}
	cmdSetAltitude = command{
		name:    "set_sensor_altitude",
		code:    0x2427,
		payload: true,
	}
	cmdGetAmbientPressure = command{
		name:         "get_ambient_pressure",
		code:         0xe000,
		words:        1,
		settle:       time.Millisecond,
		whileSensing: true,
	}
	cmdSetAmbientPressure = command{
		name:         "set_ambient_pressure",
		code:         0xe000,
		payload:      true,
		whileSensing: true,
	}
	cmdPersistSettings = command{
		name:   "persist_settings",
		code:   0x3615,
		settle: 800 * time.Millisecond,
	}
	cmdGetASCEnabled = command{
		name:   "get_automatic_self_calibration_enabled",
		code:   0x2313,
		words:  1,
		settle: time.Millisecond,
	}
	cmdSetASCEnabled = command{
		name:    "set_automatic_self_calibration_enabled",
		code:    0x2416,
		payload: true,
	}
	cmdGetASCTarget = command{
		name:   "get_automatic_self_calibration_target",
		code:   0x233f,
		words:  1,
		settle: time.Millisecond,
	}
	cmdSetASCTarget = command{
		name:    "set_automatic_self_calibration_target",
		code:    0x243a,
		payload: true,
	}
	cmdGetASCInitialPeriod = command{
		name:   "get_automatic_self_calibration_initial_period",
		code:   0x2340,
		words:  1,
		settle: time.Millisecond,
	}
	cmdSetASCInitialPeriod = command{
		name:    "set_automatic_self_calibration_initial_period",
		code:    0x2445,
		payload: true,
	}
	cmdGetASCStandardPeriod = command{
		name:   "get_automatic_self_calibration_standard_period",
		code:   0x234b,
		words:  1,
		settle: time.Millisecond,
	}
	cmdSetASCStandardPeriod = command{
		name:    "set_automatic_self_calibration_standard_period",
		code:    0x244e,
		payload: true,
	}
	cmdGetSensorVariant = command{
		name:   "get_sensor_variant",
		code:   0x202f,
		words:  1,
		settle: time.Millisecond,
	}
	// The sensor doesn't acknowledge this command.
	cmdWakeUp = command{
		name:   "wake_up",
		code:   0x36f6,
		settle: 30 * time.Millisecond,
	}
)
