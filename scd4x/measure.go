// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

const (
	// DefaultTimeout is the data ready timeout used by Sense.
	DefaultTimeout = 10 * time.Second

	pollInterval  = 100 * time.Millisecond
	dataReadyMask = 0x030f
	// Divisor for the temperature and humidity counts.
	countDivisor = float64(1 << 16)
)

// Measurement is a single reading taken from the device.
type Measurement struct {
	CO2         PPM
	Temperature physic.Temperature
	Humidity    physic.RelativeHumidity
	// Time the reading was read from the device.
	Time time.Time
}

func (m *Measurement) String() string {
	return fmt.Sprintf("Temperature: %s Humidity: %s CO2: %s", m.Temperature, m.Humidity, m.CO2)
}

// The sensor reading. Returns CO2 PPM, Temperature, and Humidity.
type Env struct {
	physic.Env
	CO2 PPM
}

// Return the sensor readings in string format.
func (e *Env) String() string {
	return fmt.Sprintf("Temperature: %s Humidity: %s CO2: %s", e.Temperature.String(), e.Humidity.String(), e.CO2.String())
}

type pollState int

const (
	stateIdle pollState = iota
	statePolling
	stateReady
)

// DataReady returns true if a measurement is waiting to be read.
func (d *Dev) DataReady() (bool, error) {
	r, err := d.send(cmdDataReady, nil)
	if err != nil {
		return false, err
	}
	return r.Word()&dataReadyMask != 0, nil
}

// Measure reads a measurement from the device. The sensor must be in
// periodic measurement mode.
//
// If blocking is false, data ready is checked once and if no measurement is
// available Measure returns false with a nil error. Otherwise data ready is
// polled every 100ms until a measurement is available. If timeout elapses
// first, a TimeoutError is returned.
func (d *Dev) Measure(blocking bool, timeout time.Duration) (Measurement, bool, error) {
	start := d.clock.Now()
	polls := 0
	state := stateIdle
	for state != stateReady {
		state = statePolling
		ready, err := d.DataReady()
		polls++
		switch {
		case err != nil:
			return Measurement{}, false, err
		case ready:
			state = stateReady
		case !blocking:
			return Measurement{}, false, nil
		case d.clock.Now().Sub(start) > timeout:
			return Measurement{}, false, &TimeoutError{Timeout: timeout, Polls: polls}
		default:
			d.clock.Sleep(pollInterval)
		}
	}
	m, err := d.readMeasurement()
	state = stateIdle
	if err != nil {
		return Measurement{}, false, err
	}
	return m, true, nil
}

func (d *Dev) readMeasurement() (Measurement, error) {
	r, err := d.send(cmdReadMeasurement, nil)
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{
		CO2:         PPM(r[0]),
		Temperature: countToTemp(r[1]),
		Humidity:    countToHumidity(r[2]),
		Time:        d.clock.Now(),
	}, nil
}

// countToTemp converts a device count to Temperature
func countToTemp(count uint16) physic.Temperature {
	celsius := -45 + 175*float64(count)/countDivisor
	return physic.ZeroCelsius + physic.Temperature(celsius*float64(physic.Kelvin))
}

func countToHumidity(count uint16) physic.RelativeHumidity {
	return physic.RelativeHumidity(100 * float64(count) / countDivisor * float64(physic.PercentRH))
}

// Sense returns readings (Temperature, Humidity, and CO2 concentration in PPM)
// from the device. If the sensor isn't measuring, periodic measurement is
// started. Note that in normal acquisition mode, the minimum reading period is
// 5 seconds. If you call this function more frequently than this, it will
// block until data is ready, or DefaultTimeout elapses.
func (d *Dev) Sense(env *Env) error {
	env.Temperature = 0
	env.Humidity = 0
	env.Pressure = 0
	env.CO2 = 0

	if !d.isSensing() {
		if err := d.StartPeriodicMeasurement(false); err != nil {
			return err
		}
	}
	m, _, err := d.Measure(true, DefaultTimeout)
	if err != nil {
		return err
	}
	env.CO2 = m.CO2
	env.Temperature = m.Temperature
	env.Humidity = m.Humidity
	return nil
}

// SenseContinuous continuously reads the sensor on the specified duration, and
// writes readings to the returned channel. The sense time for the scd4x device
// is 5 seconds in normal acquisition mode. If you specify a shorter period than
// that, the routine will wait until the device indicates a reading is ready.
// Readings are dropped if the channel is full. To terminate a continuous
// sense, call Halt().
//
// The interval is timed with the wall clock, not Opts.Clock. The Clock only
// governs the settle and poll delays of each reading.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Env, error) {
	if interval <= 0 {
		return nil, &ValidationError{Field: "interval", Reason: "must be > 0"}
	}
	d.mu.Lock()
	if d.chHalt != nil {
		d.mu.Unlock()
		return nil, errors.New("scd4x: SenseContinuous() running already")
	}
	halt := make(chan struct{})
	d.chHalt = halt
	d.mu.Unlock()

	if !d.isSensing() {
		if err := d.StartPeriodicMeasurement(false); err != nil {
			d.mu.Lock()
			d.chHalt = nil
			d.mu.Unlock()
			return nil, err
		}
	}

	channelSize := 16
	channel := make(chan Env, channelSize)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(channel)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-halt:
				return
			case <-ticker.C:
				e := Env{}
				if err := d.Sense(&e); err != nil {
					d.log.WithError(err).Warn("continuous sense")
					continue
				}
				select {
				case channel <- e:
				default:
				}
			}
		}
	}()
	return channel, nil
}

// Precision returns the sensor's resolution, or minimum value between steps the
// device can make. The specified precision is 1 PPM for CO2, 175/65536 °C for
// temperature and 100/65536 %RH for humidity.
func (d *Dev) Precision(env *Env) {
	countIncrement := 1 / countDivisor
	env.Temperature = physic.Temperature(175 * countIncrement * float64(physic.Kelvin))
	env.Pressure = 0
	env.Humidity = physic.RelativeHumidity(100 * countIncrement * float64(physic.PercentRH))
	env.CO2 = 1
}
