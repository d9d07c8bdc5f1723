// Command token mints a service bearer token for calling the coordinator.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/dkeye/Coordinator/internal/auth"
	"github.com/dkeye/Coordinator/internal/config"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	service := flag.StringP("service", "s", "", "calling service name, becomes the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	tokens := auth.New(cfg.Auth.ServiceSecret, cfg.Auth.Issuer)
	if !tokens.Enabled() {
		log.Fatal().Msg("auth.service_secret is empty, service auth is disabled")
	}

	tok, err := tokens.Sign(*service, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	fmt.Println(tok)
}
