// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package driver sequences the phases described in spec.md §4.7: load
// dictionary -> load DNS servers -> wildcard oracle -> DNS phase -> (if
// wildcard) RSC phase -> write outputs. Grounded on ESD.py's run() method
// and the teacher's resolve.go phase-wiring style (NewServerPool).
package driver

import (
	"context"
	"io"
	"time"

	"github.com/Jerusalemsbell/ESD/internal/config"
	"github.com/Jerusalemsbell/ESD/internal/dictionary"
	"github.com/Jerusalemsbell/ESD/internal/resolver"
	"github.com/Jerusalemsbell/ESD/internal/rsc"
	"github.com/Jerusalemsbell/ESD/internal/scheduler"
	"github.com/Jerusalemsbell/ESD/internal/store"
	"github.com/Jerusalemsbell/ESD/internal/wildcard"
)

// Logger is the minimal surface the driver needs from the application
// logger (satisfied by *zap.SugaredLogger).
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Stats reports the per-phase wall-clock timings from spec.md §4.7.
type Stats struct {
	Candidates     int
	DNSAdmitted    int
	RSCAdmitted    int
	IsWildcard     bool
	DNSDuration    time.Duration
	RSCDuration    time.Duration
	TotalDuration  time.Duration
}

// Run executes every phase for a single apex domain and returns the
// populated Store plus timing stats. subs is the already-opened subs.esd
// reader; servers is the already-loaded DNS server list.
func Run(ctx context.Context, domain string, servers []string, subs io.Reader, tun config.Tunables, log Logger) (*store.Store, Stats, error) {
	start := time.Now()
	stats := Stats{}

	candidates, err := dictionary.Expand(subs)
	if err != nil {
		return nil, stats, err
	}
	stats.Candidates = len(candidates)
	log.Infof("%s: %d candidate subdomains", domain, len(candidates))

	pool := resolver.New(servers)
	pool.SetTimeout(tun.DNSTimeout)

	stable := append([]string(nil), resolver.DefaultStableServers...)
	baseline := wildcard.Detect(ctx, domain, pool.Servers(), stable, tun.DNSTimeout, log)
	stats.IsWildcard = baseline.IsWildcard

	if baseline.IsWildcard {
		log.Infof("%s: wildcard domain detected, IPs=%v", domain, baseline.IPs)
		if baseline.Disagreement {
			log.Infof("%s: DNS servers disagreed on the wildcard probe, restricting to the stable subset", domain)
			pool.RestrictTo(stable)
		}
	} else {
		log.Infof("%s: not a wildcard domain", domain)
	}

	st := store.New()
	dnsStart := time.Now()
	runDNSPhase(ctx, pool, domain, candidates, baseline, tun, st, log)
	stats.DNSDuration = time.Since(dnsStart)
	stats.DNSAdmitted = st.Len()
	log.Infof("%s: DNS phase admitted %d names in %s", domain, stats.DNSAdmitted, stats.DNSDuration)

	if baseline.IsWildcard && baseline.HTMLCaptured {
		rscStart := time.Now()
		admitted := runRSCPhase(ctx, domain, candidates, baseline, tun, st, log)
		stats.RSCDuration = time.Since(rscStart)
		stats.RSCAdmitted = admitted
		log.Infof("%s: RSC phase admitted %d additional names in %s", domain, admitted, stats.RSCDuration)
	} else if baseline.IsWildcard {
		log.Warnf("%s: wildcard domain but no HTML baseline captured, RSC disabled", domain)
	}

	stats.TotalDuration = time.Since(start)
	return st, stats, nil
}

// runDNSPhase fans out the DNS query for every candidate under the
// scheduler's cap, applying the inline classifier from spec.md §4.4.
func runDNSPhase(ctx context.Context, pool *resolver.Pool, domain string, candidates []string, baseline *wildcard.Baseline, tun config.Tunables, st *store.Store, log Logger) {
	sched := scheduler.New(tun.CDNS)
	remainder := scheduler.NewRemainder(len(candidates))

	results := scheduler.Run(ctx, sched, candidates, remainder, func(ctx context.Context, sub string) resolver.Result {
		return pool.Query(ctx, sub, domain)
	})

	for res := range results {
		switch res.Kind {
		case resolver.FailureNone:
			if baseline.IsWildcard && baseline.HasIPs(res.IPs) {
				log.Debugf("%d maybe wildcard domain, continue RSC %s", remainder.Value(), res.FQDN)
				continue
			}
			st.Put(res.FQDN, res.IPs)
			log.Infof("%d %s %v", remainder.Value(), res.FQDN, res.IPs)
		case resolver.FailureUnexpected:
			log.Infof("%s unexpected DNS result: %v", res.FQDN, res.Err)
		case resolver.FailureOther:
			if res.Err != nil {
				log.Warnf("%s: %v", res.FQDN, res.Err)
			}
		}
	}
}

// runRSCPhase probes every candidate not already admitted by the DNS
// phase, per spec.md §4.5's candidate set definition, and returns the
// number of additional names admitted.
func runRSCPhase(ctx context.Context, domain string, candidates []string, baseline *wildcard.Baseline, tun config.Tunables, st *store.Store, log Logger) int {
	var queue []string
	for _, sub := range candidates {
		if !st.Has(dictionary.FQDN(sub, domain)) {
			queue = append(queue, sub)
		}
	}

	prober := rsc.NewProber(domain, baseline.HTML, wildcard.HTTPHeaders)
	prober.Ratio = tun.RSCRatio
	prober.Timeout = tun.HTTPTimeout

	sched := scheduler.New(tun.CReq)
	remainder := scheduler.NewRemainder(len(queue))

	results := scheduler.Run(ctx, sched, queue, remainder, func(ctx context.Context, sub string) rsc.Verdict {
		return prober.Probe(ctx, sub)
	})

	bodies := make(map[string]string)
	var admittedOrder []string
	var admitted int

	for v := range results {
		fqdn := dictionary.FQDN(v.Sub, domain)
		if v.Err != nil {
			log.Debugf("%d RSC probe failed %s: %v", remainder.Value(), fqdn, v.Err)
			continue
		}
		if !v.Admitted {
			log.Debugf("%d RSC ratio: %v (rejected) %s", remainder.Value(), v.Ratio, fqdn)
			continue
		}
		log.Infof("%d RSC ratio: %v (added) %s", remainder.Value(), v.Ratio, fqdn)
		st.Put(fqdn, baseline.IPs)
		bodies[fqdn] = v.Body
		admittedOrder = append(admittedOrder, fqdn)
		admitted++
	}

	if tun.Dedup && len(admittedOrder) > 1 {
		drop := rsc.Dedup(admittedOrder, bodies, tun.RSCRatio)
		for fqdn := range drop {
			st.Delete(fqdn)
			admitted--
			log.Infof("RSC post-dedup removed %s", fqdn)
		}
	}

	return admitted
}
