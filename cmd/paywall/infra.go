package main

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/paywall/pkg/billing"
	"github.com/dmitrymomot/paywall/pkg/config"
	"github.com/dmitrymomot/paywall/pkg/httpserver"
	"github.com/dmitrymomot/paywall/pkg/paddle"
	"github.com/dmitrymomot/paywall/pkg/pg"
	"github.com/dmitrymomot/paywall/pkg/polar"
	"github.com/dmitrymomot/paywall/pkg/queue"
	"github.com/dmitrymomot/paywall/pkg/redis"
	"github.com/dmitrymomot/paywall/pkg/store"
	"github.com/dmitrymomot/paywall/pkg/webhook"
)

// storage is the persistence chosen by STORAGE_BACKEND.
type storage struct {
	mappings billing.MappingStore
	tasks    interface {
		queue.EnqueuerRepository
		queue.WorkerRepository
	}
	checks map[string]httpserver.CheckFunc
	close  func()
}

func openStorage(ctx context.Context, app appConfig, log *slog.Logger) (*storage, error) {
	switch app.Storage {
	case storageMemory:
		log.WarnContext(ctx, "using in-memory storage; mappings and queued tasks are lost on restart")
		return &storage{
			mappings: billing.NewMemoryMappings(),
			tasks:    queue.NewMemoryStorage(),
			checks:   map[string]httpserver.CheckFunc{},
			close:    func() {},
		}, nil

	case storagePostgres:
		cfg, err := config.Load[pg.Config]()
		if err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, store.Migrations, store.MigrationsDir, cfg, log); err != nil {
			pool.Close()
			return nil, err
		}
		return &storage{
			mappings: store.NewPGMappings(pool),
			tasks:    queue.NewPGStorage(pool),
			checks:   map[string]httpserver.CheckFunc{"postgres": pg.Healthcheck(pool)},
			close:    pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", app.Storage)
}

// newProvider builds the payments provider selected by BILLING_PROVIDER
// together with its webhook verification and parsing.
func newProvider(app appConfig) (billing.Provider, webhook.Verifier, webhook.Parser, error) {
	switch app.Provider {
	case providerPolar:
		cfg, err := config.Load[polar.Config]()
		if err != nil {
			return nil, nil, nil, err
		}
		client, err := polar.NewClient(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return client, webhook.NewStandardVerifier(cfg.WebhookSecret), webhook.PolarParser, nil

	case providerPaddle:
		cfg, err := config.Load[paddle.Config]()
		if err != nil {
			return nil, nil, nil, err
		}
		p, err := paddle.NewProvider(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return p, paddle.NewVerifier(cfg.WebhookSecret), paddle.Parser, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown BILLING_PROVIDER %q", app.Provider)
}

// newDeduplicator returns the webhook delivery deduplicator selected by
// WEBHOOK_DEDUP, plus a redis readiness check when redis is used.
func newDeduplicator(ctx context.Context, app appConfig) (webhook.Deduplicator, *goredis.Client, error) {
	switch app.Dedup {
	case dedupMemory:
		return webhook.NewMemoryDeduplicator(app.DedupCapacity, app.DedupTTL), nil, nil

	case dedupRedis:
		cfg, err := config.Load[redis.Config]()
		if err != nil {
			return nil, nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return webhook.NewRedisDeduplicator(client, cfg.KeyPrefix, app.DedupTTL), client, nil
	}
	return nil, nil, fmt.Errorf("unknown WEBHOOK_DEDUP %q", app.Dedup)
}
