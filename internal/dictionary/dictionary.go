// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package dictionary expands a template dictionary file into the set of
// candidate subdomain labels fed to the DNS fan-out phase.
package dictionary

import (
	"bufio"
	"io"
	"strings"

	"github.com/caffix/stringset"
)

// Apex is the sentinel candidate label that means "the apex domain itself".
const Apex = "@"

const (
	letterToken = "{letter}"
	numberToken = "{number}"
	letters     = "abcdefghijklmnopqrstuvwxyz"
	digits      = "0123456789"
)

// Expand reads templates from r (one per line, '#' and blank lines
// skipped) and returns the deduplicated set of candidate labels, always
// including the apex sentinel.
func Expand(r io.Reader) ([]string, error) {
	set := stringset.New()
	defer set.Close()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.Contains(line, "#") {
			continue
		}
		for _, cand := range expandTemplate(line) {
			set.Insert(cand)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	set.Insert(Apex)
	return set.Slice(), nil
}

// expandTemplate produces the Cartesian product of {letter} slots followed
// by the Cartesian product of {number} slots, per spec.md §4.1. The
// contiguous run of all L {letter} tokens is replaced by each L-character
// tuple, and likewise {number}; tokens that are not adjacent to each other
// are not substituted and stay in the candidate literally.
func expandTemplate(line string) []string {
	letterCount := strings.Count(line, letterToken)
	numberCount := strings.Count(line, numberToken)

	intermediate := []string{line}
	if letterCount > 0 {
		intermediate = substituteAll(intermediate, letterToken, letterCount, product(letters, letterCount))
	}
	if numberCount > 0 {
		intermediate = substituteAll(intermediate, numberToken, numberCount, product(digits, numberCount))
	}

	for i, s := range intermediate {
		intermediate[i] = strings.Trim(s, ".")
	}
	return intermediate
}

// substituteAll replaces the concatenated run of `token` repeated `count`
// times in every string of base with each value in values, in turn.
func substituteAll(base []string, token string, count int, values []string) []string {
	if count == 0 {
		return base
	}
	run := strings.Repeat(token, count)

	out := make([]string, 0, len(base)*len(values))
	for _, b := range base {
		for _, v := range values {
			out = append(out, strings.ReplaceAll(b, run, v))
		}
	}
	return out
}

// product returns every length-n tuple over alphabet's characters, joined
// into strings, e.g. product("ab", 2) -> ["aa","ab","ba","bb"].
func product(alphabet string, n int) []string {
	if n == 0 {
		return []string{""}
	}

	results := []string{""}
	for i := 0; i < n; i++ {
		next := make([]string, 0, len(results)*len(alphabet))
		for _, prefix := range results {
			for _, c := range alphabet {
				next = append(next, prefix+string(c))
			}
		}
		results = next
	}
	return results
}

// FQDN joins a candidate label with the apex domain, honoring the Apex
// sentinel.
func FQDN(label, domain string) string {
	if label == Apex {
		return domain
	}
	return label + "." + domain
}
