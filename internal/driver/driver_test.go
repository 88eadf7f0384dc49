// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"

	"github.com/Jerusalemsbell/ESD/internal/config"
)

// testLogger discards everything; these tests assert on the Store, not
// on log output.
type testLogger struct{}

func (testLogger) Infof(string, ...interface{})  {}
func (testLogger) Warnf(string, ...interface{})  {}
func (testLogger) Debugf(string, ...interface{}) {}

// runLocalUDPServer starts an ephemeral UDP DNS server, grounded on the
// teacher's base_test.go helper of the same name.
func runLocalUDPServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to open test UDP socket: %v", err)
	}

	mux := dns.NewServeMux()
	mux.HandleFunc(".", handler)
	server := &dns.Server{PacketConn: pc, Handler: mux, ReadTimeout: time.Minute, WriteTimeout: time.Minute}

	var waitLock sync.Mutex
	waitLock.Lock()
	server.NotifyStartedFunc = waitLock.Unlock

	go server.ActivateAndServe()
	waitLock.Lock()

	t.Cleanup(func() {
		server.Shutdown()
		pc.Close()
	})
	return pc.LocalAddr().String()
}

func aRecordReply(name string, ip net.IP) *dns.Msg {
	m := new(dns.Msg)
	m.Answer = []dns.RR{&dns.A{
		Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 0},
		A:   ip,
	}}
	return m
}

// TestRunNonWildcardOneHit exercises spec.md §8 scenario 1: a
// non-wildcard domain where exactly one candidate resolves.
func TestRunNonWildcardOneHit(t *testing.T) {
	handler := func(w dns.ResponseWriter, r *dns.Msg) {
		name := r.Question[0].Name
		m := new(dns.Msg)
		m.SetReply(r)

		switch name {
		case "www.example.test.":
			m.Answer = aRecordReply(name, net.ParseIP("93.184.216.34")).Answer
		default:
			m.Rcode = dns.RcodeNameError
		}
		w.WriteMsg(m)
	}
	addr := runLocalUDPServer(t, handler)

	tun := config.DefaultTunables()
	tun.DNSTimeout = 2 * time.Second
	tun.HTTPTimeout = 200 * time.Millisecond

	st, stats, err := Run(context.Background(), "example.test", []string{addr}, strings.NewReader("www\nmail\n"), tun, testLogger{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.IsWildcard {
		t.Fatal("did not expect this domain to be classified as wildcard")
	}

	snap := st.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("got %d admitted names, want 1: %v", len(snap), snap)
	}
	ips, ok := snap["www.example.test"]
	if !ok || len(ips) != 1 || ips[0] != "93.184.216.34" {
		t.Fatalf("got %v for www.example.test, want [93.184.216.34]", ips)
	}
}

// TestRunWildcardDistinguishableByIP exercises spec.md §8 scenario 2: a
// wildcard domain where one candidate is distinguishable purely by IP,
// and the RSC phase is disabled because the wildcard HTML can't be
// fetched (no real web server behind this test's DNS answers).
func TestRunWildcardDistinguishableByIP(t *testing.T) {
	wildcardIP := net.ParseIP("1.2.3.4")
	wwwIP := net.ParseIP("5.6.7.8")

	handler := func(w dns.ResponseWriter, r *dns.Msg) {
		name := r.Question[0].Name
		m := new(dns.Msg)
		m.SetReply(r)

		switch name {
		case "www.example.test.":
			m.Answer = aRecordReply(name, wwwIP).Answer
		case "example.test.":
			m.Rcode = dns.RcodeNameError
		default:
			// every other label, including the wildcard oracle's random
			// label and "mail", resolves to the same catch-all IP.
			m.Answer = aRecordReply(name, wildcardIP).Answer
		}
		w.WriteMsg(m)
	}
	addr := runLocalUDPServer(t, handler)

	tun := config.DefaultTunables()
	tun.DNSTimeout = 2 * time.Second
	tun.HTTPTimeout = 200 * time.Millisecond

	st, stats, err := Run(context.Background(), "example.test", []string{addr}, strings.NewReader("www\nmail\n"), tun, testLogger{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !stats.IsWildcard {
		t.Fatal("expected this domain to be classified as wildcard")
	}

	snap := st.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("got %d admitted names, want 1 (www only): %v", len(snap), snap)
	}
	if ips := snap["www.example.test"]; len(ips) != 1 || ips[0] != "5.6.7.8" {
		t.Fatalf("got %v for www.example.test, want [5.6.7.8]", ips)
	}
	if _, found := snap["mail.example.test"]; found {
		t.Fatal("mail.example.test matches the wildcard IP set and has no fetchable HTML; it must not be admitted")
	}
}
