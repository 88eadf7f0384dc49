// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package store implements the result store and two-file writer from
// spec.md §4.6: a concurrency-safe FQDN -> sorted IP list map, and an
// output format matching ESD.py's padded two-column text file.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store accumulates the admitted FQDN -> sorted IP list mapping. Grounded
// on spec.md §5's "Shared resources" guidance: writes are pointwise, so a
// single mutex around a map is sufficient (candidate labels are unique,
// so there is no cross-key contention to worry about).
type Store struct {
	mu   sync.Mutex
	data map[string][]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]string)}
}

// Put records fqdn -> ips. ips is copied and sorted lexicographically
// (spec.md §3's sort invariant). Calling Put twice for the same key with
// the same value is a harmless no-op; spec.md §3 forbids any other kind
// of mutation after insertion.
func (s *Store) Put(fqdn string, ips []string) {
	cp := append([]string(nil), ips...)
	sort.Strings(cp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[fqdn] = cp
}

// Has reports whether fqdn has already been admitted.
func (s *Store) Has(fqdn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data[fqdn]
	return ok
}

// Delete removes fqdn from the store, used by the optional RSC post-dedup
// pass (spec.md §4.5).
func (s *Store) Delete(fqdn string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, fqdn)
}

// Len returns the number of admitted FQDNs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Snapshot returns a copy of the current FQDN -> IPs mapping.
func (s *Store) Snapshot() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]string, len(s.data))
	for k, v := range s.data {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Write emits the two output files described in spec.md §4.6 under dir
// ("./data" by default): "<domain>.esd" (overwritten each run) and a
// timestamped historical copy. now is passed in explicitly so callers
// control the timestamp.
func (s *Store) Write(dir, domain string, now time.Time) (stablePath, timestampedPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	snapshot := s.Snapshot()
	content := Format(snapshot)

	stablePath = filepath.Join(dir, domain+".esd")
	timestampedPath = filepath.Join(dir, fmt.Sprintf("%s_%s.esd", domain, now.Format("2006-01_02_15-04")))

	if err := os.WriteFile(stablePath, []byte(content), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", stablePath, err)
	}
	if err := os.WriteFile(timestampedPath, []byte(content), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", timestampedPath, err)
	}
	return stablePath, timestampedPath, nil
}

// Format renders the mapping using the padded two-column format from
// spec.md §4.6: each FQDN is padded to max(|FQDN|)+2 columns, followed by
// the comma-joined IP list. The padding width is computed from the
// admitted set, not prescribed.
func Format(data map[string][]string) string {
	if len(data) == 0 {
		return ""
	}

	maxLen := 0
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
		if len(name) > maxLen {
			maxLen = len(name)
		}
	}
	sort.Strings(names)

	width := maxLen + 2
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(strings.Repeat(" ", width-len(name)))
		b.WriteString(strings.Join(data[name], ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// Parse is the inverse of Format, used by the round-trip test in spec.md
// §8 ("Parsing the emitted file and re-sorting yields the same mapping").
func Parse(content string) map[string][]string {
	out := make(map[string][]string)

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		ips := strings.Split(fields[1], ",")
		sort.Strings(ips)
		out[fields[0]] = ips
	}
	return out
}
