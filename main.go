package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	auctions "auction-site/internal/auctionService"
	"auction-site/internal/auth"
	bidding "auction-site/internal/biddingService"
	"auction-site/internal/config"
	"auction-site/internal/database"
	"auction-site/internal/events"
	"auction-site/internal/imagestore"
	"auction-site/internal/repository"
	"auction-site/internal/server"
	users "auction-site/internal/userService"
	systemHandler "auction-site/services/system/handler"
	"auction-site/utils"

	"github.com/gin-gonic/gin"
)

// stores groups the backends selected by configuration
type stores struct {
	users    repository.UserDB
	auctions repository.AuctionDB
	seeder   repository.Seeder
	checks   []systemHandler.Check
	closers  []func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	utils.SetLevel(cfg.Server.LogLevel)
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		utils.Fatal("failed to open stores", map[string]any{"error": err.Error()})
	}
	defer func() {
		for _, closeFn := range st.closers {
			closeFn()
		}
	}()

	if cfg.Database.Seed && !cfg.IsProd() {
		if err := st.seeder.Reset(ctx); err != nil {
			utils.Fatal("failed to reset store", map[string]any{"error": err.Error()})
		}
		if err := st.seeder.Resample(ctx); err != nil {
			utils.Fatal("failed to load sample data", map[string]any{"error": err.Error()})
		}
		utils.Info("sample data loaded", nil)
	}

	images, err := imagestore.NewFileStore(cfg.Images.Directory)
	if err != nil {
		utils.Fatal("failed to open image store", map[string]any{"error": err.Error()})
	}

	publisher := openPublisher(cfg, st)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpireDuration.Duration)

	userSvc := users.NewUserService(st.users, tokens, images)
	auctionSvc := auctions.NewAuctionService(st.auctions, images, publisher)
	biddingSvc := bidding.NewBiddingService(st.auctions, publisher)

	router := server.SetupRouter(cfg, server.Dependencies{
		Users:    userSvc,
		Auth:     userSvc,
		Auctions: auctionSvc,
		Bidding:  biddingSvc,
		Seeder:   st.seeder,
		Images:   images,
		Checks:   st.checks,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"address": cfg.Server.Address, "env": cfg.Env, "driver": cfg.Database.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	utils.Info("shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("server forced to shutdown", map[string]any{"error": err.Error()})
	}
}

// openStores selects the memory or MySQL store and wraps auctions in the Redis cache when configured
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{}

	switch cfg.Database.Driver {
	case "mysql":
		db, err := database.OpenMySQL(cfg.Database)
		if err != nil {
			return nil, err
		}
		repo := repository.NewGormRepo(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		st.users, st.auctions, st.seeder = repo, repo, repo
		st.checks = append(st.checks, systemHandler.Check{Name: "database", Ping: repo.Ping})
		st.closers = append(st.closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
	default:
		repo := repository.NewMemoryRepo()
		st.users, st.auctions, st.seeder = repo, repo, repo
	}

	if cfg.Redis.Addr != "" {
		rdb, err := database.ConnectRedis(ctx, cfg.Redis, 5)
		if err != nil {
			utils.Warn("redis unavailable, running without cache", map[string]any{"addr": cfg.Redis.Addr, "error": err.Error()})
			return st, nil
		}
		cached := repository.NewCachedRepo(st.auctions, rdb, cfg.Redis.TTL.Duration)
		st.auctions, st.seeder = cached, cached
		st.checks = append(st.checks, systemHandler.Check{Name: "cache", Ping: cached.Ping})
		st.closers = append(st.closers, func() { _ = rdb.Close() })
	}
	return st, nil
}

// openPublisher connects to RabbitMQ when configured; events are dropped otherwise
func openPublisher(cfg *config.Config, st *stores) events.Publisher {
	if cfg.AMQP.URL == "" {
		return events.NopPublisher{}
	}
	pub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		utils.Warn("rabbitmq unavailable, domain events disabled", map[string]any{"error": err.Error()})
		return events.NopPublisher{}
	}
	st.checks = append(st.checks, systemHandler.Check{Name: "events", Ping: func(context.Context) error {
		if !pub.Healthy() {
			return errors.New("amqp connection closed")
		}
		return nil
	}})
	st.closers = append(st.closers, func() { _ = pub.Close() })
	return pub
}
