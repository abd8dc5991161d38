// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/sensirion/common"
)

// READ_MEASUREMENT response for 500 PPM, 25 °C, 37 %RH.
var measurementIO = i2ctest.IO{Addr: SensorAddress, R: []byte{0x01, 0xf4, 0x33, 0x66, 0x67, 0xa2, 0x5e, 0xb9, 0x3c}}

func celsius(t physic.Temperature) float64 {
	return t.Celsius()
}

func percentRH(h physic.RelativeHumidity) float64 {
	return float64(h) / float64(physic.PercentRH)
}

func TestCountToTemperature(t *testing.T) {
	tests := []struct {
		count    uint16
		expected float64
	}{
		{count: 0x6667, expected: 25},
		{count: 0, expected: -45},
		{count: 0x8000, expected: 42.5},
	}
	for _, test := range tests {
		result := celsius(countToTemp(test.count))
		if math.Abs(result-test.expected) > 0.01 {
			t.Errorf("countToTemp(0x%x) received: %.8f expected %.8f", test.count, result, test.expected)
		}
	}
}

func TestCountToHumidity(t *testing.T) {
	result := percentRH(countToHumidity(0x5eb9)) // from the datasheet
	if math.Abs(result-37) > 0.01 {
		t.Errorf("unexpected value: %f expected 37", result)
	}
	if h := countToHumidity(0); h != 0 {
		t.Errorf("countToHumidity(0) received %s", h)
	}
}

func TestDataReady(t *testing.T) {
	tests := []struct {
		status   uint16
		expected bool
	}{
		{status: 0x8006, expected: true},
		{status: 0x8000, expected: false},
		{status: 0x0100, expected: true},
		{status: 0x7cf0, expected: false},
	}
	for _, test := range tests {
		dev, bus, clk := getDev(t, cmdIO(0xe4b8), respIO(test.status))
		ready, err := dev.DataReady()
		if err != nil {
			t.Fatal(err)
		}
		if ready != test.expected {
			t.Errorf("DataReady() status 0x%04x received %t expected %t", test.status, ready, test.expected)
		}
		verify(t, bus, clk, time.Millisecond)
	}
}

func TestMeasure(t *testing.T) {
	dev, bus, clk := getDev(t,
		cmdIO(0xe4b8), respIO(0x8000), // No Data Ready
		cmdIO(0xe4b8), respIO(0x8006), // Data Ready
		cmdIO(0xec05), measurementIO,
	)
	m, ok, err := dev.Measure(true, 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Measure() returned no data")
	}
	t.Log(m.String())
	if m.CO2 != 500 {
		t.Errorf("CO2 received %s expected 500 PPM", m.CO2)
	}
	if math.Abs(celsius(m.Temperature)-25) > 0.01 {
		t.Errorf("temperature received %s expected 25°C", m.Temperature)
	}
	if math.Abs(percentRH(m.Humidity)-37) > 0.01 {
		t.Errorf("humidity received %s expected 37%%rH", m.Humidity)
	}
	if !m.Time.Equal(clk.Now()) {
		t.Errorf("timestamp received %s expected %s", m.Time, clk.Now())
	}
	verify(t, bus, clk, time.Millisecond, pollInterval, time.Millisecond, time.Millisecond)
}

func TestMeasureNonBlocking(t *testing.T) {
	dev, bus, clk := getDev(t, cmdIO(0xe4b8), respIO(0x8000))
	m, ok, err := dev.Measure(false, 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("Measure() non-blocking returned %#v", m)
	}
	// Exactly one data ready check.
	verify(t, bus, clk, time.Millisecond)
}

func TestMeasureNonBlockingReady(t *testing.T) {
	dev, bus, clk := getDev(t, cmdIO(0xe4b8), respIO(0x8006), cmdIO(0xec05), measurementIO)
	m, ok, err := dev.Measure(false, 0)
	if err != nil || !ok || m.CO2 != 500 {
		t.Errorf("Measure() non-blocking returned %#v, %t, %v", m, ok, err)
	}
	verify(t, bus, clk, time.Millisecond, time.Millisecond)
}

func TestMeasureTimeout(t *testing.T) {
	// Each poll takes 1ms for data ready plus the 100ms poll interval, so the
	// 11th poll is the first made after 1s has elapsed.
	const polls = 11
	var ops []i2ctest.IO
	for i := 0; i < polls; i++ {
		ops = append(ops, cmdIO(0xe4b8), respIO(0x8000))
	}
	dev, bus, clk := getDev(t, ops...)
	start := clk.Now()
	_, ok, err := dev.Measure(true, time.Second)
	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Measure() returned %v expected TimeoutError", err)
	}
	if ok {
		t.Error("Measure() returned data on timeout")
	}
	if timeout.Polls != polls {
		t.Errorf("TimeoutError.Polls=%d expected %d", timeout.Polls, polls)
	}
	if elapsed := clk.Now().Sub(start); elapsed < time.Second {
		t.Errorf("timed out after %s", elapsed)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestMeasureChecksumError(t *testing.T) {
	bad := i2ctest.IO{Addr: SensorAddress, R: []byte{0x01, 0xf4, 0x33, 0x66, 0x67, 0xa2, 0x5e, 0xb9, 0x3d}}
	dev, bus, _ := getDev(t, cmdIO(0xe4b8), respIO(0x8006), cmdIO(0xec05), bad)
	_, ok, err := dev.Measure(true, time.Second)
	var crcErr *ChecksumError
	if !errors.As(err, &crcErr) || ok {
		t.Errorf("Measure() returned %t, %v expected ChecksumError", ok, err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestSense(t *testing.T) {
	dev, bus, clk := getDev(t,
		cmdIO(0x21b1),
		cmdIO(0xe4b8), respIO(0x8006),
		cmdIO(0xec05), measurementIO,
	)
	env := Env{}
	if err := dev.Sense(&env); err != nil {
		t.Fatal(err)
	}
	t.Log(env.String())
	if env.CO2 != 500 || math.Abs(celsius(env.Temperature)-25) > 0.01 || env.Pressure != 0 {
		t.Errorf("Sense() returned %s", env.String())
	}
	if !dev.isSensing() {
		t.Error("Sense() didn't start periodic measurement")
	}
	verify(t, bus, clk, 0, time.Millisecond, time.Millisecond)
}

func TestPrecision(t *testing.T) {
	dev, _, _ := getDev(t)
	env := Env{}
	dev.Precision(&env)
	t.Logf("scd4x.Precision()=%#v\n", env)
	if env.CO2 != 1 || env.Humidity != 152*physic.TenthMicroRH || env.Temperature != 2670288*physic.NanoKelvin {
		t.Error(fmt.Errorf("incorrect value for Precision(): %#v", env))
	}
}

// simBus answers like a measuring sensor, always with data ready.
type simBus struct {
	mu   sync.Mutex
	last uint16
	cmds []uint16
}

func (s *simBus) String() string {
	return "simbus"
}

func (s *simBus) SetSpeed(f physic.Frequency) error {
	return nil
}

func (s *simBus) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(w) >= 2 {
		s.last = uint16(w[0])<<8 | uint16(w[1])
		s.cmds = append(s.cmds, s.last)
	}
	if len(r) == 0 {
		return nil
	}
	var words []uint16
	switch s.last {
	case 0x3682:
		words = []uint16{0xf896, 0x9f07, 0x3bbe}
	case 0xe4b8:
		words = []uint16{0x8006}
	case 0xec05:
		words = []uint16{0x01f4, 0x6667, 0x5eb9}
	default:
		return fmt.Errorf("simbus: unexpected read after 0x%04x", s.last)
	}
	var b []byte
	for _, word := range words {
		b = common.AppendWord(b, word)
	}
	if len(b) != len(r) {
		return fmt.Errorf("simbus: read %d bytes, have %d", len(r), len(b))
	}
	copy(r, b)
	return nil
}

func (s *simBus) commands() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint16(nil), s.cmds...)
}

func TestSenseContinuous(t *testing.T) {
	bus := &simBus{}
	dev, err := NewI2C(bus, &Opts{Quiet: true, Clock: newFakeClock()})
	if err != nil {
		t.Fatal(err)
	}
	ch, err := dev.SenseContinuous(5 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.SenseContinuous(5 * time.Millisecond); err == nil {
		t.Error("SenseContinuous() started twice")
	}

	readings := 3
	for i := 0; i < readings; i++ {
		select {
		case env := <-ch:
			if env.CO2 != 500 {
				t.Errorf("received %s", env.String())
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for reading")
		}
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	for range ch {
	}

	cmds := bus.commands()
	if cmds[2] != 0x21b1 {
		t.Errorf("periodic measurement not started, commands %04x", cmds)
	}
	if cmds[len(cmds)-1] != 0x3f86 {
		t.Errorf("Halt() didn't stop measurement, commands %04x", cmds)
	}
}

func TestSenseContinuousInterval(t *testing.T) {
	dev, bus, _ := getDev(t)
	if _, err := dev.SenseContinuous(0); err == nil {
		t.Error("SenseContinuous(0) accepted")
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}
