// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// scd4x-exporter reads an SCD4x CO2 sensor and exposes the readings as
// Prometheus metrics.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/sensirion/scd4x"
)

// CLI args
var (
	busName      = flag.String("bus", "", "I2C bus to use, empty for the first bus")
	addr         = flag.Uint("addr", uint(scd4x.SensorAddress), "I2C address of the sensor")
	listenAddr   = flag.String("listen-address", ":8080", "The address to listen on for HTTP requests.")
	readInterval = flag.Duration("read-int", 30*time.Second, "time interval between sensor reads")
	lowPower     = flag.Bool("low-power", false, "use low power periodic measurement (30s sample rate)")
	timeout      = flag.Duration("timeout", scd4x.DefaultTimeout, "how long to wait for a reading to be ready")
	logLevel     = flag.String("log-level", "info", "log level: debug, info, warn, error")
	verbose      = flag.Bool("verbose", false, "log the sensor serial number at startup")
)

// metrics to expose to Prometheus
var (
	gaugeCo2Level    = newGauge("air_co2_level", "Air Carbon Dioxide level (units: ppm)")
	gaugeTemperature = newGauge("air_temperature", "Air Temperature (units: degrees Celsius)")
	gaugeHumidity    = newGauge("air_humidity", "Humidity (units: % of relative Humidity)")
	counterReadErrs  = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scd4x_read_errors_total",
			Help: "Failed sensor reads",
		},
		[]string{"serial_number"},
	)
)

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{"serial_number"},
	)
}

func init() {
	prometheus.MustRegister(gaugeCo2Level)
	prometheus.MustRegister(gaugeTemperature)
	prometheus.MustRegister(gaugeHumidity)
	prometheus.MustRegister(counterReadErrs)

	// Add Go module build info.
	prometheus.MustRegister(collectors.NewBuildInfoCollector())

	//logging
	formatter := &log.TextFormatter{
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)
}

// publish sets the gauges for serial from m.
func publish(serial string, m *scd4x.Measurement) {
	gaugeCo2Level.WithLabelValues(serial).Set(float64(m.CO2))
	gaugeTemperature.WithLabelValues(serial).Set(m.Temperature.Celsius())
	gaugeHumidity.WithLabelValues(serial).Set(float64(m.Humidity) / float64(physic.PercentRH))
}

// poll reads one measurement and publishes it.
func poll(dev *scd4x.Dev, serial string) {
	m, _, err := dev.Measure(true, *timeout)
	if err != nil {
		counterReadErrs.WithLabelValues(serial).Inc()
		log.Errorf("failed to read from sensor (serialNr %s): %s", serial, err)
		return
	}
	log.WithField("serial", serial).Debug(m.String())
	publish(serial, &m)
}

func run() error {
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer bus.Close()

	dev, err := scd4x.NewI2C(bus, &scd4x.Opts{
		Addr:   uint16(*addr),
		Quiet:  !*verbose,
		Logger: log.StandardLogger(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Halt(); err != nil {
			log.Errorf("failed to stop sensor: %s", err)
		}
	}()
	serial := fmt.Sprintf("%012x", dev.Serial())

	if err := dev.StartPeriodicMeasurement(*lowPower); err != nil {
		return err
	}
	log.Infof("started %s, serving metrics on %s", dev, *listenAddr)

	go func() {
		// Expose the registered metrics via HTTP.
		http.Handle("/metrics", promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{
				// Opt into OpenMetrics to support exemplars.
				EnableOpenMetrics: true,
			},
		))
		log.Panic(http.ListenAndServe(*listenAddr, nil))
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(*readInterval)
	defer ticker.Stop()
	for {
		select {
		case s := <-sig:
			log.Infof("received %s, stopping", s)
			return nil
		case <-ticker.C:
			poll(dev, serial)
		}
	}
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
