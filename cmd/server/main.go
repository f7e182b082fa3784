package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/morningcafe/ordering-api/internal/config"
	"github.com/morningcafe/ordering-api/internal/database"
	"github.com/morningcafe/ordering-api/internal/router"
	"github.com/morningcafe/ordering-api/internal/session"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	redisClient, err := session.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Unable to connect to redis: %v", err)
	}
	defer redisClient.Close()

	queries := database.New(pool)
	sessions := session.NewRedisStore(redisClient)

	r := router.New(cfg, queries, pool, sessions)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
