package main

import (
	"context"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"skillswap/internal/blob"
	"skillswap/internal/meetlink"
	"skillswap/internal/realtime"
	"skillswap/internal/server"
	"skillswap/internal/storage"
)

func main() {
	// .env is optional, real deployments export variables directly
	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("zap.NewDevelopment: %v", err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()
	sugar.Info("Application is starting")

	srvCfg := server.EnvConfig{}
	if err := env.Parse(&srvCfg); err != nil {
		sugar.Fatalf("Cannot parse server env config: %v", err)
	}

	dbCfg := storage.Config{}
	if err := env.Parse(&dbCfg); err != nil {
		sugar.Fatalf("Cannot parse storage env config: %v", err)
	}

	blobCfg := blob.Config{}
	if err := env.Parse(&blobCfg); err != nil {
		sugar.Fatalf("Cannot parse blob env config: %v", err)
	}

	store, err := storage.NewStore(context.Background(), sugar, dbCfg,
		storage.ConnectionTimeout(30*time.Second))
	if err != nil {
		sugar.Fatalf("Cannot create Store instance: %v", err)
	}

	blobs, err := blob.NewStore(sugar, blobCfg)
	if err != nil {
		sugar.Fatalf("Cannot create blob Store instance: %v", err)
	}

	hub := realtime.NewHub(sugar)
	links := meetlink.New(srvCfg.MeetBaseURL)

	serverOpts := []server.Option{
		server.WithEnvConfig(srvCfg),
		server.ReadTimeout(5 * time.Second),
		server.RegisterAfterShutdown(store.Close),
	}

	srv, err := server.NewServer(logger, store, blobs, hub, links, serverOpts...)
	if err != nil {
		sugar.Fatalf("Cannot create Server instance: %v", err)
	}

	if err := srv.Start(); err != nil {
		sugar.Fatalf("Cannot start http srv: %v", err)
	}
}
