package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/studyhall/studyhall/internal/server"
	"github.com/studyhall/studyhall/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("server init: %v", err)
	}

	if err := app.Run(context.Background()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}
