package main

import (
	"context"
	"net/http"
	"os"

	_ "net/http/pprof"

	"github.com/appspotengine/rsnova/cmd"
	"github.com/rs/zerolog/log"
)

func main() {
	go func() {
		log.Debug().Err(http.ListenAndServe("localhost:6060", nil)).Msg("pprof listener stopped")
	}()

	command := cmd.New()

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("gateway exited")
	}
}
