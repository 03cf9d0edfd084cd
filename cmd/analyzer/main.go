package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
