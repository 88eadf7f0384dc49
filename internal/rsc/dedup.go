// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package rsc

// Dedup performs the optional pairwise post-dedup pass from spec.md §4.5 /
// §9's Open Question (ESD.py's distinct(), left disabled there as "maybe
// misinformation"). bodies maps an admitted FQDN to its captured HTML.
// Dedup returns the set of FQDNs to drop: for each pair whose bodies are
// >= ratio-similar, the later one (by iteration order of names) is
// dropped, keeping the first. This pass is O(k^2) in len(bodies) and is
// intentionally never invoked by the driver unless explicitly requested.
func Dedup(names []string, bodies map[string]string, ratio float64) map[string]bool {
	drop := make(map[string]bool)

	for i, name := range names {
		if drop[name] {
			continue
		}
		for _, other := range names[i+1:] {
			if drop[other] {
				continue
			}
			if RealQuickRatio(bodies[name], bodies[other]) >= ratio {
				drop[other] = true
			}
		}
	}
	return drop
}
