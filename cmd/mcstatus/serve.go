package main

import (
	"context"
	"math/rand/v2"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/fake"
)

func runServe(ctx context.Context, cmd config.ServeCommand) error {
	mode, err := fake.ParseMode(cmd.Mode)
	if err != nil {
		return err
	}

	text := fake.RandomStatus(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	if cmd.MOTD != "" {
		text = fake.StatusJSON(cmd.MOTD, rand.IntN(cmd.MaxPlayers+1), cmd.MaxPlayers)
	}

	srv, err := fake.Listen(cmd.Listen, mode, text)
	if err != nil {
		return err
	}
	log.Info().Str("address", srv.Addr().String()).Str("mode", string(mode)).Msg("Fake server listening")

	<-ctx.Done()

	log.Info().Msg("Shutting down fake server...")
	return srv.Close()
}
