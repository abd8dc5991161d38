// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"

	"github.com/GermanBionicSystems/sensirion/common"
)

// PPM=Parts Per Million. Units of measure for CO2 concentration.
type PPM int

func (ppm PPM) String() string {
	return fmt.Sprintf("%d PPM", int(ppm))
}

const (
	// These devices only support this i2c address.
	SensorAddress uint16 = 0x62
)

// Opts holds the configuration options for the device.
type Opts struct {
	// I2C address of the sensor. 0 selects SensorAddress.
	Addr uint16
	// When false, the serial number is logged at Info level once the sensor
	// has been initialized.
	Quiet bool
	// Logger receives the driver's log output. nil selects
	// logrus.StandardLogger().
	Logger logrus.FieldLogger
	// Clock supplies the time and the settle delays. nil selects WallClock.
	Clock Clock
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	Addr:  SensorAddress,
	Quiet: true,
}

// Dev represents an SCD4x device. A Dev owns the bus device for its
// lifetime; operations are synchronous and block for the command settle
// times.
type Dev struct {
	d     *i2c.Dev
	log   logrus.FieldLogger
	clock Clock
	// busMu is held for the whole of a transaction, write, settle and read.
	busMu sync.Mutex

	mu sync.Mutex
	// True if the device is in periodic measurement mode.
	sensing bool
	// closed to halt SenseContinuous
	chHalt chan struct{}
	wg     sync.WaitGroup
	serial uint64
}

// NewI2C returns an SCD4x connected to bus. The Opts can be nil.
//
// The sensor may still be measuring from a previous run, so a stop
// measurement is always sent first. The serial number is then read to verify
// communication.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Addr == 0 {
		o.Addr = SensorAddress
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Clock == nil {
		o.Clock = WallClock
	}
	d := &Dev{
		d:     &i2c.Dev{Bus: b, Addr: o.Addr},
		log:   o.Logger.WithField("device", "scd4x"),
		clock: o.Clock,
	}
	if err := d.StopPeriodicMeasurement(); err != nil {
		return nil, err
	}
	sn, err := d.SerialNumber()
	if err != nil {
		return nil, err
	}
	d.serial = sn
	if !o.Quiet {
		d.log.WithField("serial", fmt.Sprintf("%012x", sn)).Info("sensor initialized")
	}
	return d, nil
}

// rdwr performs one transaction. The command, and value if supplied, are
// written, the command settle time elapses, and if the command returns data
// the response is read and validated.
func (d *Dev) rdwr(c command, value *uint16) (Response, error) {
	if c.payload != (value != nil) {
		return nil, fmt.Errorf("scd4x: %s: payload mismatch", c.name)
	}
	w := encode(c.code, value)

	d.busMu.Lock()
	defer d.busMu.Unlock()

	d.log.WithFields(logrus.Fields{"cmd": c.name, "w": fmt.Sprintf("%x", w)}).Debug("tx")
	if err := d.d.Tx(w, nil); err != nil {
		return nil, fmt.Errorf("scd4x: %s (0x%04x): %w", c.name, uint16(c.code), err)
	}
	d.clock.Sleep(c.settle)
	if c.words == 0 {
		return Response{}, nil
	}
	r := make([]byte, c.words*common.GroupSize)
	if err := d.d.Tx(nil, r); err != nil {
		return nil, fmt.Errorf("scd4x: %s (0x%04x) read: %w", c.name, uint16(c.code), err)
	}
	return decode(c.code, r, c.words)
}

// send is rdwr for the public operations. If the sensor is measuring and the
// command isn't accepted in that mode, measurement is stopped first.
func (d *Dev) send(c command, value *uint16) (Response, error) {
	if !c.whileSensing && d.isSensing() {
		if err := d.StopPeriodicMeasurement(); err != nil {
			return nil, err
		}
	}
	return d.rdwr(c, value)
}

// sendValue is send for commands that take a one word argument.
func (d *Dev) sendValue(c command, value uint16) error {
	_, err := d.send(c, &value)
	return err
}

func (d *Dev) isSensing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sensing
}

func (d *Dev) setSensing(sensing bool) {
	d.mu.Lock()
	d.sensing = sensing
	d.mu.Unlock()
}

// StartPeriodicMeasurement puts the sensor in periodic measurement mode. In
// normal mode a reading is available every 5 seconds, in low power mode
// every 30 seconds.
func (d *Dev) StartPeriodicMeasurement(lowPower bool) error {
	c := cmdStartMeasurement
	if lowPower {
		c = cmdStartLowPowerMeasurement
	}
	if _, err := d.send(c, nil); err != nil {
		return err
	}
	d.setSensing(true)
	return nil
}

// StopPeriodicMeasurement returns the sensor to idle. The sensor rejects
// reset, self test and configuration commands while measuring.
func (d *Dev) StopPeriodicMeasurement() error {
	_, err := d.rdwr(cmdStopMeasurement, nil)
	if err == nil {
		d.setSensing(false)
	}
	return err
}

// Reset re-initializes the sensor, loading the user settings stored in
// EEPROM.
func (d *Dev) Reset() error {
	_, err := d.send(cmdSoftReset, nil)
	return err
}

// FactoryReset resets the sensor to its factory state. All user settings
// stored in EEPROM are erased.
func (d *Dev) FactoryReset() error {
	if err := d.StopPeriodicMeasurement(); err != nil {
		return err
	}
	_, err := d.send(cmdFactoryReset, nil)
	return err
}

// SelfTest runs the on-chip self test. It takes 10 seconds. A
// DeviceFailureError is returned if the sensor reports a malfunction.
func (d *Dev) SelfTest() error {
	if err := d.StopPeriodicMeasurement(); err != nil {
		return err
	}
	r, err := d.send(cmdSelfTest, nil)
	if err != nil {
		return err
	}
	if r.Word() != 0 {
		return &DeviceFailureError{Cmd: uint16(cmdSelfTest.code), Code: r.Word()}
	}
	return nil
}

// WakeUp wakes a sensor that is in power-down mode. The sensor doesn't
// acknowledge the command, so transmission errors are ignored.
func (d *Dev) WakeUp() {
	_, err := d.rdwr(cmdWakeUp, nil)
	if err != nil {
		d.log.WithError(err).Debug("wake_up not acknowledged")
	}
}

// SerialNumber returns the 48 bit serial number of the sensor.
func (d *Dev) SerialNumber() (uint64, error) {
	r, err := d.send(cmdSerialNumber, nil)
	if err != nil {
		return 0, err
	}
	return uint64(r[0])<<32 | uint64(r[1])<<16 | uint64(r[2]), nil
}

// Serial returns the serial number read when the device was opened.
func (d *Dev) Serial() uint64 {
	return d.serial
}

// Halt stops a running SenseContinuous, and if the sensor is in periodic
// measurement mode, returns it to idle. Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	ch := d.chHalt
	d.chHalt = nil
	d.mu.Unlock()
	if ch != nil {
		close(ch)
		d.wg.Wait()
	}
	if d.isSensing() {
		return d.StopPeriodicMeasurement()
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("scd4x: %s serial %012x", d.d.String(), d.serial)
}

var _ conn.Resource = &Dev{}
