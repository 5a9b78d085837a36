package main

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/game"
	"github.com/woozymasta/mcstatus/internal/geoip"
	"github.com/woozymasta/mcstatus/internal/models"
)

func runPing(ctx context.Context, w io.Writer, cmd config.PingCommand) error {
	address := cmd.Args.Address
	if !cmd.Query.NoSRV {
		address = lookupSRV(ctx, address, cmd.Query.Timeout)
	}

	addr, err := game.ResolveEndpoint(ctx, address, config.DefaultPort)
	if err != nil {
		return err
	}

	d, err := game.NewDialer(cmd.Query.Timeout, cmd.Query.Proxy)
	if err != nil {
		return err
	}

	geo := openGeoIP(ctx, cmd.GeoIP)
	if geo != nil {
		defer func() {
			if err := geo.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing GeoIP provider")
			}
		}()
	}

	log.Debug().Str("address", addr.String()).Msg("Querying server")
	res, err := game.Query(ctx, d, addr, cmd.Query)
	if err != nil {
		return err
	}

	report := models.NewPingReport(res, geo.CountryCode(addr.Addr()))
	if cmd.JSON {
		return writeJSON(w, report)
	}

	return printPing(w, report)
}

func lookupSRV(ctx context.Context, address string, timeout time.Duration) string {
	r, err := game.NewSRVResolver(timeout)
	if err != nil {
		log.Debug().Err(err).Msg("SRV lookup disabled")
		return address
	}

	resolved := game.ApplySRV(ctx, r, address)
	if resolved != address {
		log.Debug().Str("host", address).Str("target", resolved).Msg("Using SRV record")
	}

	return resolved
}

// openGeoIP returns nil when country lookup is disabled or the database is unusable.
func openGeoIP(ctx context.Context, cfg config.GeoIP) *geoip.Provider {
	if cfg.Path == "" {
		return nil
	}

	if cfg.URL != "" {
		if err := geoip.EnsureDB(ctx, cfg.Path, cfg.URL, cfg.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}
	}

	geo, err := geoip.Open(cfg.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		return nil
	}

	return geo
}
