// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package config loads ESD's on-disk configuration (servers.esd,
// subs.esd) and validates apex domain input, per spec.md §3/§6. Grounded
// on the flag-driven params struct in the teacher's cmd/resolve/main.go.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/Jerusalemsbell/ESD/internal/resolver"
	"github.com/Jerusalemsbell/ESD/internal/rsc"
)

// domainPattern is the apex validation regex from spec.md §3.
var domainPattern = regexp.MustCompile(`^(([a-z0-9]+(-[a-z0-9]+)*\.)+[a-z]{2,})$`)

// ErrServersMissing is returned when servers.esd does not exist, per
// spec.md §6/§7 ("Fatal config").
var ErrServersMissing = errors.New("servers.esd file not found")

// Tunables holds the per-run knobs spec.md hardcodes as defaults but which
// SPEC_FULL.md exposes as overridable configuration.
type Tunables struct {
	CDNS        int           // DNS fan-out in-flight cap, default 100_000
	CReq        int           // RSC in-flight cap, default 100
	RSCRatio    float64       // admission threshold, default 0.8
	DNSTimeout  time.Duration // per-query DNS timeout
	HTTPTimeout time.Duration // per-probe HTTP timeout
	OutputDir   string        // default "./data"
	Dedup       bool          // optional RSC post-dedup pass, default false
}

// DefaultTunables mirrors ESD.py's hardcoded constants.
func DefaultTunables() Tunables {
	return Tunables{
		CDNS:        100_000,
		CReq:        100,
		RSCRatio:    rsc.DefaultRatio,
		DNSTimeout:  resolver.DefaultTimeout,
		HTTPTimeout: rsc.DefaultTimeout,
		OutputDir:   "./data",
		Dedup:       false,
	}
}

// ValidateDomain checks d against spec.md §3's apex regex, and (as a
// supplemental sanity check grounded on the teacher's use of
// golang.org/x/net/publicsuffix in rate.go) that it names a registrable
// domain.
func ValidateDomain(d string) error {
	d = strings.ToLower(strings.TrimSpace(d))
	m := domainPattern.FindStringSubmatch(d)
	if m == nil || m[1] != d {
		return fmt.Errorf("domain validation failed: %s", d)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(d); err != nil {
		return fmt.Errorf("domain validation failed: %s: %w", d, err)
	}
	return nil
}

// LoadServers reads one DNS server IP per line from path. A missing file
// is fatal (spec.md §6); an empty file falls back to
// resolver.DefaultStableServers (spec.md §4.2).
func LoadServers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrServersMissing
		}
		return nil, err
	}
	defer f.Close()

	var servers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			servers = append(servers, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(servers) == 0 {
		return append([]string(nil), resolver.DefaultStableServers...), nil
	}
	return servers, nil
}

// LoadDictionaryFile opens the subs.esd template file at path.
func LoadDictionaryFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// ParseTargets interprets the CLI positional argument per spec.md §6: a
// single domain, a comma-separated list, or a path to a file with one
// domain per line. Invalid domains are skipped; the caller is expected to
// log each skip via the returned skipped slice.
func ParseTargets(arg string) (valid, skipped []string) {
	var candidates []string

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		if f, err := os.Open(arg); err == nil {
			defer f.Close()

			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				line := strings.ToLower(strings.TrimSpace(scanner.Text()))
				if line != "" {
					candidates = append(candidates, line)
				}
			}
		}
	} else if strings.Contains(arg, ",") {
		for _, p := range strings.Split(arg, ",") {
			if p = strings.TrimSpace(p); p != "" {
				candidates = append(candidates, p)
			}
		}
	} else if arg != "" {
		candidates = append(candidates, strings.TrimSpace(arg))
	}

	for _, c := range candidates {
		if err := ValidateDomain(c); err != nil {
			skipped = append(skipped, c)
			continue
		}
		valid = append(valid, c)
	}
	return valid, skipped
}
