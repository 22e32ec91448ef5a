// Command paywall serves billing entitlements, checkout and payments
// provider webhooks.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/paywall/pkg/api"
	"github.com/dmitrymomot/paywall/pkg/auth"
	"github.com/dmitrymomot/paywall/pkg/billing"
	"github.com/dmitrymomot/paywall/pkg/config"
	"github.com/dmitrymomot/paywall/pkg/email"
	"github.com/dmitrymomot/paywall/pkg/httpserver"
	"github.com/dmitrymomot/paywall/pkg/logger"
	"github.com/dmitrymomot/paywall/pkg/metrics"
	"github.com/dmitrymomot/paywall/pkg/notify"
	"github.com/dmitrymomot/paywall/pkg/queue"
	"github.com/dmitrymomot/paywall/pkg/redis"
	"github.com/dmitrymomot/paywall/pkg/requestid"
	"github.com/dmitrymomot/paywall/pkg/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}
	app, err := config.Load[appConfig]()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(app.Env, app.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	slog.SetDefault(log)

	billingCfg, err := config.Load[billing.Config]()
	if err != nil {
		return err
	}
	authCfg, err := config.Load[auth.Config]()
	if err != nil {
		return err
	}
	emailCfg, err := config.Load[email.Config]()
	if err != nil {
		return err
	}
	queueCfg, err := config.Load[queue.Config]()
	if err != nil {
		return err
	}
	httpCfg, err := config.Load[httpserver.Config]()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg, app.MetricsNamespace)

	st, err := openStorage(ctx, app, log.With(logger.Component("storage")))
	if err != nil {
		return err
	}
	defer st.close()

	provider, verifier, parser, err := newProvider(app)
	if err != nil {
		return err
	}

	dedup, redisClient, err := newDeduplicator(ctx, app)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		st.checks["redis"] = redis.Healthcheck(redisClient)
	}

	svc := billing.NewService(provider, st.mappings,
		billing.WithConfig(billingCfg),
		billing.WithLogger(log.With(logger.Component("billing"))),
		billing.WithMetrics(rec),
	)

	sender, err := email.NewSender(emailCfg)
	if err != nil {
		return err
	}

	enqueuer, err := queue.NewEnqueuer(st.tasks, queue.WithDefaultMaxAttempts(queueCfg.MaxAttempts))
	if err != nil {
		return err
	}
	worker, err := queue.NewWorker(st.tasks, append(queueCfg.WorkerOptions(),
		queue.WithObserver(rec),
		queue.WithWorkerLogger(log.With(logger.Component("queue"))),
	)...)
	if err != nil {
		return err
	}
	worker.RegisterHandlers(notify.NewHandlers(sender, svc,
		notify.WithAppName(app.Name),
		notify.WithSiteURL(billingCfg.SiteURL),
		notify.WithLogger(log.With(logger.Component("notify"))),
	).QueueHandlers()...)

	hooks := webhook.NewHandler(verifier, notify.NewDispatcher(enqueuer),
		webhook.WithParser(parser),
		webhook.WithDeduplicator(dedup),
		webhook.WithMetrics(rec),
		webhook.WithLogger(log.With(logger.Component("webhook"))),
	)

	authenticator, err := auth.NewAuthenticator(authCfg)
	if err != nil {
		return err
	}
	var extract auth.TokenExtractorFunc = auth.BearerTokenExtractor
	if authCfg.Cookie != "" {
		extract = auth.ChainExtractors(auth.BearerTokenExtractor, auth.CookieTokenExtractor(authCfg.Cookie))
	}

	router := api.Router(api.RouterOptions{
		Billing:       svc,
		Session:       auth.Session,
		Authenticate:  auth.Middleware(authenticator, extract, log.With(logger.Component("auth"))),
		Webhooks:      hooks,
		WebhookPrefix: "/" + app.Provider,
		Liveness:      httpserver.LivenessHandler(),
		Readiness:     httpserver.ReadinessHandler(log, app.ReadinessTimeout, st.checks),
		Metrics:       rec.Handler(),
		Logger:        log.With(logger.Component("api")),
	})
	server := httpserver.New(httpCfg, router, httpserver.WithLogger(log.With(logger.Component("http"))))

	log.InfoContext(ctx, "starting paywall",
		slog.String("provider", app.Provider),
		slog.String("storage", app.Storage),
		slog.String("dedup", app.Dedup),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(worker.Run(gctx))
	g.Go(func() error { return server.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorContext(ctx, "paywall stopped with error", logger.Error(err))
		return err
	}
	log.InfoContext(ctx, "paywall stopped")
	return nil
}
