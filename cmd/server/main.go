package main

import (
	"context"
	"log"
	"os"

	"github.com/rafael/cbenef/internal/api"
	"github.com/rafael/cbenef/internal/client"
	"github.com/rafael/cbenef/internal/config"
	"github.com/rafael/cbenef/internal/extract"
	"github.com/rafael/cbenef/internal/service"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	cfg, err := config.Load(os.Getenv("CBENEF_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	httpClient := client.NewHTTPClient(cfg)
	download := client.NewDownloadClient(cfg, httpClient)
	avail := client.NewAvailabilityClient(cfg, httpClient)

	factory := extract.NewFactory(cfg, download, avail)
	integration := service.NewIntegration(cfg, factory)

	var cache *service.Cache
	if cfg.Cache.Enabled {
		cache = service.NewCache(cfg, integration)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		cache.StartSweeper(ctx)
		defer cache.StopSweeper()
	}

	library := service.NewLibrary(cfg, integration, cache)

	srv := api.NewServer(library, factory)
	log.Printf("Server starting on port %s (states: %v)", port, library.GetAvailableStates())
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
