// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Command esd enumerates live subdomains of one or more apex domains by
// combining DNS brute-forcing with an HTTP response-similarity fallback
// for wildcard domains, per spec.md.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jerusalemsbell/ESD/internal/config"
	"github.com/Jerusalemsbell/ESD/internal/driver"
	"github.com/Jerusalemsbell/ESD/internal/logging"
)

const (
	serversFile = "servers.esd"
	subsFile    = "subs.esd"
)

func main() {
	os.Exit(run())
}

func run() int {
	tun := config.DefaultTunables()

	cmd := &cobra.Command{
		Use:   "esd <domain|domain,domain,...|path-to-file>",
		Short: "Enumerate live subdomains via DNS brute-force and response-similarity classification",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().IntVar(&tun.CDNS, "dns-concurrency", tun.CDNS, "Maximum in-flight DNS queries")
	cmd.Flags().IntVar(&tun.CReq, "rsc-concurrency", tun.CReq, "Maximum in-flight RSC HTTP probes")
	cmd.Flags().Float64Var(&tun.RSCRatio, "rsc-ratio", tun.RSCRatio, "RSC admission similarity threshold")
	cmd.Flags().DurationVar(&tun.HTTPTimeout, "http-timeout", tun.HTTPTimeout, "Per-probe HTTP timeout")
	cmd.Flags().BoolVar(&tun.Dedup, "rsc-dedup", tun.Dedup, "Enable the optional RSC post-dedup pass")
	cmd.Flags().StringVar(&tun.OutputDir, "output-dir", tun.OutputDir, "Directory for the two-column output files")

	exitCode := 0
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		exitCode = execute(args[0], tun)
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}

func execute(arg string, tun config.Tunables) int {
	log, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		return 1
	}
	defer log.Sync() //nolint:errcheck

	servers, err := config.LoadServers(serversFile)
	if err != nil {
		if errors.Is(err, config.ErrServersMissing) {
			log.Errorf("%s file not found!", serversFile)
		} else {
			log.Errorf("failed to load %s: %v", serversFile, err)
		}
		return 1
	}

	domains, skipped := config.ParseTargets(arg)
	for _, s := range skipped {
		log.Errorf("Domain validation failed: %s", s)
	}
	log.Infof("Total target domains: %d", len(domains))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, domain := range domains {
		select {
		case <-ctx.Done():
			log.Infof("Bye :)")
			return 0
		default:
		}

		log.Infof("----------")
		log.Infof("Start domain: %s", domain)

		subsHandle, err := config.LoadDictionaryFile(subsFile)
		if err != nil {
			log.Errorf("%v", err)
			continue
		}

		st, stats, err := driver.Run(ctx, domain, servers, subsHandle, tun, log)
		subsHandle.Close()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Infof("Bye :)")
				return 0
			}
			log.Errorf("enumeration failed for %s: %v", domain, err)
			continue
		}

		stable, timestamped, err := st.Write(tun.OutputDir, domain, time.Now())
		if err != nil {
			log.Errorf("failed to write output for %s: %v", domain, err)
			continue
		}

		log.Infof("Output: %s", stable)
		log.Infof("Output with time: %s", timestamped)
		log.Infof("Total domain: %d", st.Len())
		log.Infof("Time consume: %s", stats.TotalDuration)
	}

	return 0
}
