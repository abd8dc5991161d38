// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Sensor Variant type
type Variant int

const (
	SCD40 Variant = iota
	SCD41
	SCD43
	VariantUnknown
)

func (v Variant) String() string {
	switch v {
	case SCD40:
		return "SCD40"
	case SCD41:
		return "SCD41"
	case SCD43:
		return "SCD43"
	default:
		return "unknown"
	}
}

const (
	// Offsets larger than this are refused by SetTemperatureOffset.
	maxTemperatureOffset = 374
	// ForcedRecalibration returns this on failure.
	frcFailed = 0xffff
)

// DevConfig is the current running configuration of the device. Values prefixed
// with ASC refer to Automatic-Self-Calibration. Use Dev.Configuration() to read
// the value, and Dev.SetConfiguration() to apply changes.
//
// Refer to the datasheet for more information on settings.
type DevConfig struct {
	// Ambient pressure value. Used to adjust operation of sensor.
	AmbientPressure physic.Pressure
	// Automatic-Self-Calibration enabled. True or false.
	ASCEnabled bool
	// Refer to datasheet for usage. Whole hours, a multiple of 4.
	ASCInitialPeriod time.Duration
	// Refer to datasheet for usage. Whole hours, a multiple of 4.
	ASCStandardPeriod time.Duration
	// Target CO2 concentration for automatic self calibration. To obtain the
	// current value, visit:
	//
	// https://www.co2.earth/daily-co2
	ASCTarget PPM
	// Sensor altitude. Alternative method to adjust ambient pressure for
	// sensor correction.
	SensorAltitude physic.Distance
	// The 48 bit unique serial number of the device. Read-Only
	SerialNumber uint64
	// Offset subtracted from the temperature reading.
	TemperatureOffset physic.Temperature
	// The Type of sensor. Read-Only
	SensorType Variant
}

func toWord(field string, v int64) (uint16, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("%d out of range", v)}
	}
	return uint16(v), nil
}

func (d *Dev) readWord(c command) (uint16, error) {
	r, err := d.send(c, nil)
	if err != nil {
		return 0, err
	}
	return r.Word(), nil
}

// SetAmbientPressure sets the ambient pressure used for pressure compensation.
// The device takes the value in hPa. It may be called while measuring.
func (d *Dev) SetAmbientPressure(p physic.Pressure) error {
	w, err := toWord("ambient pressure", int64(p/(100*physic.Pascal)))
	if err != nil {
		return err
	}
	return d.sendValue(cmdSetAmbientPressure, w)
}

// AmbientPressure returns the ambient pressure set on the device.
func (d *Dev) AmbientPressure() (physic.Pressure, error) {
	w, err := d.readWord(cmdGetAmbientPressure)
	return 100 * physic.Pascal * physic.Pressure(w), err
}

// SetTemperatureOffset sets the offset subtracted from measured temperatures.
// offset is a temperature difference, e.g. 4*physic.Kelvin. Offsets over 374
// degrees are refused.
func (d *Dev) SetTemperatureOffset(offset physic.Temperature) error {
	celsius := float64(offset) / float64(physic.Kelvin)
	if celsius > maxTemperatureOffset {
		return &ValidationError{Field: "temperature offset", Reason: fmt.Sprintf("%.2f must be <= %d", celsius, maxTemperatureOffset)}
	}
	w, err := toWord("temperature offset", int64(math.Round(celsius*countDivisor/175)))
	if err != nil {
		return err
	}
	return d.sendValue(cmdSetTemperatureOffset, w)
}

// TemperatureOffset returns the temperature offset stored on the device.
func (d *Dev) TemperatureOffset() (physic.Temperature, error) {
	w, err := d.readWord(cmdGetTemperatureOffset)
	if err != nil {
		return 0, err
	}
	return countToOffset(w), nil
}

// countToOffset uses twice the divisor of the write conversion, so a value
// read back is half the value written.
func countToOffset(count uint16) physic.Temperature {
	return physic.Temperature(175 * float64(count) / (2 * countDivisor) * float64(physic.Kelvin))
}

// SetAltitude sets the sensor altitude in whole metres.
func (d *Dev) SetAltitude(altitude physic.Distance) error {
	w, err := toWord("altitude", int64(altitude/physic.Metre))
	if err != nil {
		return err
	}
	return d.sendValue(cmdSetAltitude, w)
}

// Altitude returns the sensor altitude.
func (d *Dev) Altitude() (physic.Distance, error) {
	w, err := d.readWord(cmdGetAltitude)
	return physic.Distance(w) * physic.Metre, err
}

// SetAutomaticSelfCalibration enables or disables automatic self calibration.
func (d *Dev) SetAutomaticSelfCalibration(enabled bool) error {
	var w uint16
	if enabled {
		w = 1
	}
	return d.sendValue(cmdSetASCEnabled, w)
}

// AutomaticSelfCalibration returns true if automatic self calibration is
// enabled.
func (d *Dev) AutomaticSelfCalibration() (bool, error) {
	w, err := d.readWord(cmdGetASCEnabled)
	return w != 0, err
}

// SetASCTarget sets the CO2 concentration automatic self calibration
// adjusts to.
func (d *Dev) SetASCTarget(target PPM) error {
	w, err := toWord("asc target", int64(target))
	if err != nil {
		return err
	}
	return d.sendValue(cmdSetASCTarget, w)
}

// ASCTarget returns the automatic self calibration target.
func (d *Dev) ASCTarget() (PPM, error) {
	w, err := d.readWord(cmdGetASCTarget)
	return PPM(w), err
}

func periodToWord(field string, period time.Duration) (uint16, error) {
	if period%time.Hour != 0 || (period/time.Hour)%4 != 0 {
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("%s must be a multiple of 4 hours", period)}
	}
	return toWord(field, int64(period/time.Hour))
}

// SetASCInitialPeriod sets the time before the first automatic self
// calibration.
func (d *Dev) SetASCInitialPeriod(period time.Duration) error {
	w, err := periodToWord("asc initial period", period)
	if err != nil {
		return err
	}
	return d.sendValue(cmdSetASCInitialPeriod, w)
}

// ASCInitialPeriod returns the time before the first automatic self
// calibration.
func (d *Dev) ASCInitialPeriod() (time.Duration, error) {
	w, err := d.readWord(cmdGetASCInitialPeriod)
	return time.Hour * time.Duration(w), err
}

// SetASCStandardPeriod sets the interval between automatic self
// calibrations.
func (d *Dev) SetASCStandardPeriod(period time.Duration) error {
	w, err := periodToWord("asc standard period", period)
	if err != nil {
		return err
	}
	return d.sendValue(cmdSetASCStandardPeriod, w)
}

// ASCStandardPeriod returns the interval between automatic self
// calibrations.
func (d *Dev) ASCStandardPeriod() (time.Duration, error) {
	w, err := d.readWord(cmdGetASCStandardPeriod)
	return time.Hour * time.Duration(w), err
}

// Variant returns the sensor type.
func (d *Dev) Variant() (Variant, error) {
	w, err := d.readWord(cmdGetSensorVariant)
	if err != nil {
		return VariantUnknown, err
	}
	switch w >> 12 {
	case 0:
		return SCD40, nil
	case 1:
		return SCD41, nil
	case 5:
		return SCD43, nil
	}
	return VariantUnknown, nil
}

// ForcedRecalibration calibrates the sensor against a known CO2
// concentration. The sensor should have been measuring in the target
// concentration for at least 3 minutes beforehand. The correction applied by
// the sensor is returned.
func (d *Dev) ForcedRecalibration(target PPM) (PPM, error) {
	v, err := toWord("recalibration target", int64(target))
	if err != nil {
		return 0, err
	}
	if err := d.StopPeriodicMeasurement(); err != nil {
		return 0, err
	}
	r, err := d.send(cmdForcedRecalibration, &v)
	if err != nil {
		return 0, err
	}
	if r.Word() == frcFailed {
		return 0, &DeviceFailureError{Cmd: uint16(cmdForcedRecalibration.code), Code: r.Word()}
	}
	return PPM(int(r.Word()) - 0x8000), nil
}

// PersistSettings writes the current configuration to EEPROM so it survives a
// power cycle. The EEPROM supports a limited number of write cycles; don't
// call this repeatedly.
func (d *Dev) PersistSettings() error {
	_, err := d.send(cmdPersistSettings, nil)
	return err
}

// Configuration returns a structure containing all of the scd4x configuration
// variables. You can then alter settings and call SetConfiguration with it.
//
// To examine the device use:
//
//	cfg, _ := dev.Configuration()
//	fmt.Printf("Configuration=%#v\n", cfg)
func (d *Dev) Configuration() (*DevConfig, error) {
	cfg := &DevConfig{}
	var err error
	if cfg.AmbientPressure, err = d.AmbientPressure(); err != nil {
		return nil, err
	}
	if cfg.ASCEnabled, err = d.AutomaticSelfCalibration(); err != nil {
		return nil, err
	}
	if cfg.ASCInitialPeriod, err = d.ASCInitialPeriod(); err != nil {
		return nil, err
	}
	if cfg.ASCStandardPeriod, err = d.ASCStandardPeriod(); err != nil {
		return nil, err
	}
	if cfg.ASCTarget, err = d.ASCTarget(); err != nil {
		return nil, err
	}
	if cfg.SerialNumber, err = d.SerialNumber(); err != nil {
		return nil, err
	}
	if cfg.SensorType, err = d.Variant(); err != nil {
		return nil, err
	}
	if cfg.SensorAltitude, err = d.Altitude(); err != nil {
		return nil, err
	}
	if cfg.TemperatureOffset, err = d.TemperatureOffset(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetConfiguration alters the configuration of the sensor. Only values that
// differ from the running configuration are written. Note that this call
// does not persist the settings to EEPROM. You need to call PersistSettings()
// to commit the writes to EEPROM. If you do not persist changes, then those
// settings will be lost when the unit is power-cycled.
func (d *Dev) SetConfiguration(newCfg *DevConfig) error {
	current, err := d.Configuration()
	if err != nil {
		return fmt.Errorf("scd4x: reading configuration: %w", err)
	}
	if current.AmbientPressure != newCfg.AmbientPressure {
		if err := d.SetAmbientPressure(newCfg.AmbientPressure); err != nil {
			return err
		}
	}
	if current.ASCEnabled != newCfg.ASCEnabled {
		if err := d.SetAutomaticSelfCalibration(newCfg.ASCEnabled); err != nil {
			return err
		}
	}
	if current.ASCInitialPeriod != newCfg.ASCInitialPeriod {
		if err := d.SetASCInitialPeriod(newCfg.ASCInitialPeriod); err != nil {
			return err
		}
	}
	if current.ASCStandardPeriod != newCfg.ASCStandardPeriod {
		if err := d.SetASCStandardPeriod(newCfg.ASCStandardPeriod); err != nil {
			return err
		}
	}
	if current.ASCTarget != newCfg.ASCTarget {
		if err := d.SetASCTarget(newCfg.ASCTarget); err != nil {
			return err
		}
	}
	if current.SensorAltitude != newCfg.SensorAltitude {
		if err := d.SetAltitude(newCfg.SensorAltitude); err != nil {
			return err
		}
	}
	if current.TemperatureOffset != newCfg.TemperatureOffset {
		if err := d.SetTemperatureOffset(newCfg.TemperatureOffset); err != nil {
			return err
		}
	}
	return nil
}
