package main

import (
	"context"
	"flag"
	"os"

	"github.com/oaustech/docportal/internal/pkg/logger"
	"github.com/oaustech/docportal/internal/server"
)

// @title OAUSTECH Document Portal API
// @version 1.0
// @description Student registration document submission and review

// @contact.name Registry ICT Unit
// @contact.email ict@oaustech.edu.ng

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	srv, err := server.NewServer(context.Background(), *configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("config", *configPath).Msg("Document portal failed to start")
	}
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Document portal stopped with errors")
		os.Exit(1)
	}
}
