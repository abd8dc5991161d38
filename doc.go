// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensirion is a container for Sensirion sensor drivers built on
// periph.io.
//
// The scd4x package drives the SCD40/SCD41/SCD43 CO2 sensors. The common
// package holds the CRC8 and word framing shared by Sensirion devices.
// cmd/scd4x-exporter publishes SCD4x readings as Prometheus metrics.
package sensirion
