package main

import (
	"context"
	"io"
	"net/netip"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/game"
	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/scanner"
)

func runScan(ctx context.Context, w io.Writer, cmd config.ScanCommand) error {
	ip, err := game.ResolveHost(ctx, cmd.Args.Address)
	if err != nil {
		return err
	}

	d, err := game.NewDialer(cmd.Scan.Timeout, cmd.Scan.Proxy)
	if err != nil {
		return err
	}

	probe := func(ctx context.Context, addr netip.AddrPort) bool {
		return game.Probe(ctx, d, addr, cmd.Scan.Timeout)
	}
	s := scanner.New(probe,
		scanner.WithWorkers(cmd.Scan.Workers),
		scanner.WithRate(cmd.Scan.Rate, cmd.Scan.Workers),
		scanner.WithOnOpen(func(port uint16) {
			log.Info().Str("ip", ip.String()).Uint16("port", port).Msg("Found server")
		}),
	)

	r := scanner.Range{From: cmd.Scan.From, To: cmd.Scan.To}
	if r.Empty() {
		log.Warn().Uint16("from", r.From).Uint16("to", r.To).Msg("Empty port range")
	}

	start := time.Now()
	res, scanErr := s.Scan(ctx, ip, r)

	report := models.NewScanReport(ip.String(), r, res, time.Since(start), scanErr != nil)
	if scanErr != nil {
		log.Warn().Int("open", res.Len()).Msg("Scan interrupted, printing partial result")
	}

	if cmd.JSON {
		err = writeJSON(w, report)
	} else {
		err = printScan(w, report)
	}
	if err != nil {
		return err
	}

	return scanErr
}
