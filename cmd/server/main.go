package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-service-sync/internal/config"
	"github.com/iliyamo/restaurant-service-sync/internal/database"
	"github.com/iliyamo/restaurant-service-sync/internal/gateway"
	"github.com/iliyamo/restaurant-service-sync/internal/handler"
	"github.com/iliyamo/restaurant-service-sync/internal/persistence"
	"github.com/iliyamo/restaurant-service-sync/internal/queue"
	"github.com/iliyamo/restaurant-service-sync/internal/router"
	queue_publisher "github.com/iliyamo/restaurant-service-sync/internal/service"
	"github.com/iliyamo/restaurant-service-sync/internal/store"
)

func main() {
	// .env is optional; deployments usually set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	bridge := buildBridge(cfg)

	registry := store.NewRegistry()
	gw := gateway.New(registry, bridge, cfg.DefaultSession)
	gw.SetPublisher(queue_publisher.PublishTimelineEvent)

	if cfg.TimelineConsumer {
		go func() {
			if err := queue.StartTimelineConsumer(); err != nil {
				log.Printf("timeline consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	router.RegisterRoutes(e, gw, handler.NewSessionHandler(registry, bridge))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, persistence=%s)", addr, cfg.Env, cfg.PersistenceDriver)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// buildBridge selects the snapshot store from configuration. A backend
// that cannot be reached at startup degrades to the no-op bridge; the
// session engine runs fine without persistence.
func buildBridge(cfg config.Config) persistence.Bridge {
	switch cfg.PersistenceDriver {
	case "mysql":
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Printf("mysql unavailable, running without persistence: %v", err)
			return persistence.Noop{}
		}
		b := persistence.NewMySQLBridge(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.EnsureSchema(ctx); err != nil {
			log.Printf("mysql schema init failed, running without persistence: %v", err)
			return persistence.Noop{}
		}
		return b
	case "redis":
		rdb := config.NewRedisClient()
		if rdb == nil {
			log.Printf("redis unavailable, running without persistence")
			return persistence.Noop{}
		}
		return persistence.NewRedisBridge(rdb)
	default:
		return persistence.Noop{}
	}
}
