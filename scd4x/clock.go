// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import "time"

// Clock provides the time source and the delays used between commands.
// Tests supply their own to avoid waiting on the device settle times.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type wallClock struct{}

func (wallClock) Now() time.Time {
	return time.Now()
}

func (wallClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// WallClock is the Clock used when Opts.Clock is nil.
var WallClock Clock = wallClock{}
