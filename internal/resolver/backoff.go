// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"math"
	"math/rand"
	"time"
)

const numOfUnits = 100

// exponentialBackoff returns a Duration equal to 2^events * delay plus
// jitter in [0,delay). Grounded on the teacher's backoff.go, adapted for
// retrying a single query attempt that failed with a transport fault
// (FailureOther) rather than a DNS protocol answer.
func exponentialBackoff(events int, delay time.Duration) time.Duration {
	return time.Duration(math.Pow(2, float64(events)))*delay + backoffJitter(0, delay)
}

func backoffJitter(min, max time.Duration) time.Duration {
	if max < min {
		return 0
	}
	if period := max - min; period > time.Duration(numOfUnits) {
		return min + time.Duration(rand.Intn(numOfUnits))*(period/time.Duration(numOfUnits))
	}
	return min
}
