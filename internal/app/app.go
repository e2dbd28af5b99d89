// Package app connects the stores and assembles the service graph shared by
// the server and seed commands.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"readingcompass/internal/cache"
	"readingcompass/internal/config"
	"readingcompass/internal/repository"
	"readingcompass/internal/service"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const pingTimeout = 5 * time.Second

type App struct {
	Mongo *mongo.Client
	Redis *redis.Client

	TaxonomyRepo repository.TaxonomyRepo
	ProfileRepo  repository.ProfileRepo
	LinkRepo     repository.LinkRepo

	Sessions     cache.ResponseCache
	Distribution cache.DistributionCache
	LinkCodes    cache.LinkCodeCache

	Metrics       *service.Metrics
	Auth          *service.AuthService
	Taxonomies    *service.TaxonomyService
	Assessments   *service.AssessmentService
	Compatibility *service.CompatibilityService
}

// ConnectMongo connects and pings MongoDB.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// ConnectRedis connects and pings Redis.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// New connects to Mongo and Redis and wires every repository, cache and
// service. reg receives the Prometheus collectors.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer) (*App, error) {
	mongoClient, err := ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	log.Info("connected to MongoDB", "database", cfg.MongoDatabase)

	rdb, err := ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		mongoClient.Disconnect(context.Background())
		return nil, err
	}
	log.Info("connected to Redis", "addr", cfg.RedisAddr)

	db := mongoClient.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Warn("failed to ensure indexes", "error", err)
	}

	metrics, err := service.NewMetrics("readingcompass", reg)
	if err != nil {
		mongoClient.Disconnect(context.Background())
		rdb.Close()
		return nil, err
	}

	a := &App{
		Mongo:        mongoClient,
		Redis:        rdb,
		TaxonomyRepo: repository.NewTaxonomyRepo(db),
		ProfileRepo:  repository.NewProfileRepo(db),
		LinkRepo:     repository.NewLinkRepo(db),
		Sessions:     cache.NewResponseCache(rdb, cfg.SessionTTL),
		Distribution: cache.NewDistributionCache(rdb),
		LinkCodes:    cache.NewLinkCodeCache(rdb, cfg.LinkCodeTTL),
		Metrics:      metrics,
		Auth:         service.NewAuthService(cfg.JWTSecret),
	}
	a.Taxonomies = service.NewTaxonomyService(a.TaxonomyRepo, cfg.TaxonomyCacheSize, cfg.TaxonomyCacheTTL, log)
	a.Assessments = service.NewAssessmentService(a.Taxonomies, a.Sessions, a.ProfileRepo, a.Distribution, metrics, log, cfg.RetakeInterval)
	a.Compatibility = service.NewCompatibilityService(a.Taxonomies, a.ProfileRepo, a.LinkRepo, a.LinkCodes, metrics, log)
	return a, nil
}

// Close releases the store connections.
func (a *App) Close(ctx context.Context) {
	a.Redis.Close()
	a.Mongo.Disconnect(ctx)
}
