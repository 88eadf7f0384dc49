// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package resolver implements the A-record resolver pool described in
// spec.md §4.2: a user-supplied server list, randomly selected per query,
// with typed failure classification. The shared remainder counter is
// decremented by internal/scheduler, not by the pool.
package resolver

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/ratelimit"
)

// DefaultStableServers is used when servers.esd is present but empty, per
// spec.md §4.2.
var DefaultStableServers = []string{"114.114.114.114"}

// DefaultTimeout bounds a single DNS round trip.
const DefaultTimeout = 5 * time.Second

// FailureKind partitions DNS engine errors the way spec.md §4.2 and §7 do.
type FailureKind int

const (
	// FailureNone means the query succeeded.
	FailureNone FailureKind = iota
	// FailureExpectedSilent covers no-data, NXDOMAIN, unreachable, timeout.
	FailureExpectedSilent
	// FailureUnexpected covers any other DNS protocol error.
	FailureUnexpected
	// FailureOther covers transport/decoding faults outside the DNS protocol.
	FailureOther
)

// Result is the outcome of a single A-record query.
type Result struct {
	Sub   string
	FQDN  string
	IPs   []string // sorted, per spec.md §3
	Kind  FailureKind
	Err   error
	Spent time.Duration
}

// Pool is a pool of DNS servers queried by random selection, with an
// optional shared QPS ceiling. Grounded on the teacher's randomSelector
// (selector.go) and Resolvers.SetMaxQPS (resolvers.go).
type Pool struct {
	mu      sync.Mutex
	servers []string
	rand    *rand.Rand
	limiter ratelimit.Limiter
	timeout time.Duration
	client  *dns.Client
}

// New builds a Pool from the given server addresses (IPs, port optional).
// The list is copied and shuffled once, per spec.md §4.2.
func New(servers []string) *Pool {
	cp := make([]string, len(servers))
	copy(cp, servers)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })

	return &Pool{
		servers: cp,
		rand:    r,
		timeout: DefaultTimeout,
		client:  &dns.Client{Net: "udp", Timeout: DefaultTimeout},
	}
}

// SetTimeout overrides the per-query timeout.
func (p *Pool) SetTimeout(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.timeout = d
	p.client = &dns.Client{Net: "udp", Timeout: d}
}

// SetMaxQPS installs a shared rate limiter across every query issued by
// the pool. A qps of 0 disables the limiter.
func (p *Pool) SetMaxQPS(qps int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if qps <= 0 {
		p.limiter = nil
		return
	}
	p.limiter = ratelimit.New(qps)
}

// RestrictTo narrows the working server list to exactly addrs, used when
// the wildcard oracle finds disagreement among servers (spec.md §4.3).
func (p *Pool) RestrictTo(addrs []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := make([]string, len(addrs))
	copy(cp, addrs)
	p.servers = cp
}

// Servers returns a copy of the current working server list.
func (p *Pool) Servers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := make([]string, len(p.servers))
	copy(cp, p.servers)
	return cp
}

func (p *Pool) pick() (string, *dns.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.servers) == 0 {
		return "", nil, errors.New("resolver pool has no servers")
	}
	addr := p.servers[p.rand.Intn(len(p.servers))]
	if p.limiter != nil {
		p.limiter.Take()
	}
	return withPort(addr), p.client, nil
}

// maxTransportRetries bounds the retries below; a transport fault (socket
// reset, decode error) gets a couple of backed-off attempts before it's
// treated as a generic task fault per spec.md §7.
const maxTransportRetries = 2

// Query resolves sub (a label, or dictionary.Apex meaning "the apex
// itself") under domain for A records using a randomly selected server
// from the pool. A query that fails with a transport-level fault
// (FailureOther) is retried a bounded number of times with exponential
// backoff before giving up; DNS protocol answers (NXDOMAIN, NODATA,
// SERVFAIL, ...) are never retried.
func (p *Pool) Query(ctx context.Context, sub, domain string) Result {
	fqdn := fqdnFor(sub, domain)

	var res Result
	for attempt := 0; attempt <= maxTransportRetries; attempt++ {
		addr, client, err := p.pick()
		if err != nil {
			return Result{Sub: sub, FQDN: fqdn, Kind: FailureOther, Err: err}
		}

		res = QueryAt(ctx, client, addr, fqdn, sub)
		if res.Kind != FailureOther {
			return res
		}
		if attempt < maxTransportRetries {
			select {
			case <-ctx.Done():
				return res
			case <-time.After(exponentialBackoff(attempt, 10*time.Millisecond)):
			}
		}
	}
	return res
}

// QueryAt resolves fqdn for A records against a single, explicit server
// address. Used directly by the wildcard oracle, which must bind a fresh
// resolver to one server at a time (spec.md §4.3).
func QueryAt(ctx context.Context, client *dns.Client, addr, fqdn, sub string) Result {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(fqdn), dns.TypeA)
	msg.RecursionDesired = true

	start := time.Now()
	resp, _, err := client.ExchangeContext(ctx, msg, addr)
	spent := time.Since(start)

	if err != nil {
		return Result{Sub: sub, FQDN: fqdn, Kind: classifyTransportError(err), Err: err, Spent: spent}
	}
	if resp.Rcode != dns.RcodeSuccess {
		return Result{Sub: sub, FQDN: fqdn, Kind: classifyRcode(resp.Rcode), Spent: spent}
	}

	var ips []string
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	if len(ips) == 0 {
		// NODATA: the question resolved without error but produced no A record.
		return Result{Sub: sub, FQDN: fqdn, Kind: FailureExpectedSilent, Spent: spent}
	}

	sort.Strings(ips)
	return Result{Sub: sub, FQDN: fqdn, IPs: ips, Kind: FailureNone, Spent: spent}
}

func classifyRcode(rcode int) FailureKind {
	switch rcode {
	case dns.RcodeNameError:
		return FailureExpectedSilent
	default:
		return FailureUnexpected
	}
}

func classifyTransportError(err error) FailureKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureExpectedSilent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureExpectedSilent
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		// unreachable / connection refused
		return FailureExpectedSilent
	}
	return FailureOther
}

func fqdnFor(sub, domain string) string {
	if sub == "@" {
		return domain
	}
	return sub + "." + domain
}

// WithPort appends the default DNS port (53) to addr when it doesn't
// already specify one.
func WithPort(addr string) string {
	return withPort(addr)
}

func withPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	if strings.Contains(addr, ":") && !strings.HasPrefix(addr, "[") {
		// bare IPv6 literal without brackets
		return net.JoinHostPort(addr, "53")
	}
	return net.JoinHostPort(addr, "53")
}
