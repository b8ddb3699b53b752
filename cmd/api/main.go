package main

import (
	"context"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/twofourteen/backend-scents/internal/auth"
	"github.com/twofourteen/backend-scents/internal/cart"
	"github.com/twofourteen/backend-scents/internal/catalog"
	"github.com/twofourteen/backend-scents/internal/checkout"
	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/config"
	"github.com/twofourteen/backend-scents/internal/db"
	"github.com/twofourteen/backend-scents/internal/events"
	"github.com/twofourteen/backend-scents/internal/health"
	"github.com/twofourteen/backend-scents/internal/notify"
	"github.com/twofourteen/backend-scents/internal/obs"
	"github.com/twofourteen/backend-scents/internal/order"
	"github.com/twofourteen/backend-scents/internal/payment"
	"github.com/twofourteen/backend-scents/internal/ratelimit"
	"github.com/twofourteen/backend-scents/internal/security"
	"github.com/twofourteen/backend-scents/internal/user"
	"github.com/twofourteen/backend-scents/internal/wishlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "api").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "scents")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "scents-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("init tracer")
		} else if shutdown != nil {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	pool, queries := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()
	store := db.NewStore(pool)

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	asynqClient := asynq.NewClient(asynqRedisOpt(cfg.RedisURL))
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close asynq client")
		}
	}()

	notifiers := []events.Notifier{notify.EmailNotifier{Queue: asynqClient}}
	bus := &events.Bus{Store: queries, Notifiers: notifiers}

	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Queries:      queries,
		Cache:        catalogCache,
		DefaultPage:  envInt("CATALOG_DEFAULT_PAGE", 1),
		DefaultLimit: envInt("CATALOG_DEFAULT_LIMIT", 20),
		MaxLimit:     envInt("CATALOG_MAX_LIMIT", 100),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	authService, err := auth.NewService(auth.Config{
		Queries:        queries,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         "backend-scents",
		Audience:       "scents-storefront",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init auth service")
	}
	authHandler := &auth.Handler{Service: authService}
	authMW := auth.Middleware{Service: authService}

	cartService := cart.NewService(cart.ServiceConfig{Queries: queries})
	cartHandler := cart.NewHandler(cart.HandlerConfig{
		Service:          cartService,
		TaxRate:          cfg.TaxRate,
		ShippingFlatCost: cfg.ShippingFlatCost,
	})

	wishlistService := wishlist.NewService(wishlist.ServiceConfig{Queries: queries})
	wishlistHandler := wishlist.NewHandler(wishlist.HandlerConfig{Service: wishlistService})

	orderService := order.NewService(order.ServiceConfig{Queries: queries, Events: bus, Logger: logger})
	orderHandler := order.NewHandler(order.HandlerConfig{Service: orderService})
	orderAdminHandler := order.NewAdminHandler(orderService)

	stripeProvider := &payment.Stripe{SecretKey: cfg.StripeSecretKey}
	paymentHandler := payment.NewHandler(payment.HandlerConfig{
		Provider:        stripeProvider,
		DefaultCurrency: cfg.CurrencyCode,
		Logger:          logger,
	})

	checkoutService := checkout.NewService(checkout.ServiceConfig{
		Queries:          queries,
		Store:            store,
		Carts:            cartService,
		Provider:         stripeProvider,
		Notifiers:        notifiers,
		TaxRate:          cfg.TaxRate,
		ShippingFlatCost: cfg.ShippingFlatCost,
		Currency:         cfg.CurrencyCode,
		Logger:           logger,
	})
	checkoutHandler := checkout.NewHandler(checkout.HandlerConfig{Service: checkoutService})

	userService := user.NewService(user.ServiceConfig{Queries: queries})
	userHandler := user.NewHandler(user.HandlerConfig{Service: userService})

	authLimiter := mustInitLimiter(redisClient, envOrDefault("RATE_LIMIT_AUTH", "10-M"), "rl:auth", logger)
	checkoutLimiter := mustInitLimiter(redisClient, envOrDefault("RATE_LIMIT_CHECKOUT", "30-M"), "rl:checkout", logger)
	limitByIP := func(r *http.Request) string { return common.ClientIP(r) }
	authRate := ratelimit.Handler{Limiter: authLimiter, Key: limitByIP, OnError: func(err error) {
		logger.Warn().Err(err).Msg("rate limiter store")
	}}
	checkoutRate := ratelimit.Handler{Limiter: checkoutLimiter, Key: limitByIP, OnError: func(err error) {
		logger.Warn().Err(err).Msg("rate limiter store")
	}}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	secureHeaders := security.Headers{
		Enable:                envBool("SECURE_HEADERS_ENABLE", true),
		EnableHSTS:            envBool("SECURE_HSTS_ENABLE", false),
		HSTSMaxAge:            envInt("SECURE_HSTS_MAX_AGE", 31536000),
		HSTSIncludeSubdomains: envBool("SECURE_HSTS_INCLUDE_SUBDOMAINS", true),
	}
	bodyLimit := security.BodyLimit{Max: int64(envInt("SECURE_BODY_LIMIT_BYTES", 1<<20))}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics := obs.NewHTTPMetrics(metricsNamespace, buckets, prometheus.DefaultRegisterer)
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(secureHeaders.Middleware)
	r.Use(bodyLimit.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", "X-Request-ID", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	if envBool("OBS_ENABLE_PPROF", false) {
		pprofUser := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pprofPass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Route("/debug/pprof", func(pr chi.Router) {
			pr.Use(basicAuth(pprofUser, pprofPass))
			pr.Get("/", pprof.Index)
			pr.Get("/cmdline", pprof.Cmdline)
			pr.Get("/profile", pprof.Profile)
			pr.Get("/symbol", pprof.Symbol)
			pr.Get("/trace", pprof.Trace)
			pr.Get("/{name}", func(w http.ResponseWriter, req *http.Request) {
				pprof.Handler(chi.URLParam(req, "name")).ServeHTTP(w, req)
			})
		})
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{pool: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/categories", catalogHandler.Categories)
		api.Get("/products", catalogHandler.Products)
		api.Get("/products/{slug}", catalogHandler.ProductDetail)

		api.Route("/auth", func(ar chi.Router) {
			ar.With(authRate.Middleware).Post("/register", authHandler.Register)
			ar.With(authRate.Middleware).Post("/login", authHandler.Login)
			ar.With(authMW.RequireAuth).Get("/me", authHandler.Me)
		})

		api.Route("/cart", func(cr chi.Router) {
			cr.Use(authMW.RequireAuth)
			cr.Get("/", cartHandler.Get)
			cr.Post("/items", cartHandler.AddItem)
			cr.Patch("/items/{itemId}", cartHandler.UpdateItem)
			cr.Delete("/items/{itemId}", cartHandler.RemoveItem)
		})

		api.Route("/wishlist", func(wr chi.Router) {
			wr.Use(authMW.RequireAuth)
			wr.Get("/", wishlistHandler.Get)
			wr.Post("/items", wishlistHandler.AddItem)
			wr.Delete("/items", wishlistHandler.RemoveItem)
		})

		api.Route("/orders", func(or chi.Router) {
			or.With(authMW.Authenticate, checkoutRate.Middleware, idem.Middleware).Post("/", checkoutHandler.PlaceOrder)
			or.With(authMW.RequireAuth).Get("/", orderHandler.List)
			or.With(authMW.RequireAuth).Get("/{id}", orderHandler.Get)
		})

		api.Route("/users", func(ur chi.Router) {
			ur.Use(authMW.RequireAuth)
			ur.Get("/{id}", userHandler.Get)
			ur.Patch("/{id}", userHandler.Update)
		})

		api.Post("/stripe/create-payment-intent", paymentHandler.CreateIntent)

		api.Route("/admin", func(adm chi.Router) {
			adm.Use(authMW.RequireAdmin)
			adm.Patch("/orders/{id}/status", orderAdminHandler.UpdateStatus)
			adm.Patch("/orders/{id}/payment-status", orderAdminHandler.UpdatePaymentStatus)
			adm.Put("/orders/{id}/tracking", orderAdminHandler.SetTracking)
		})
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("env", cfg.AppEnv).Msg("api listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, *db.Queries) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database url")
	}
	poolCfg.ConnConfig.Tracer = obs.PGXTracer{}
	if poolCfg.ConnConfig.RuntimeParams == nil {
		poolCfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "scents-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool, db.New(pool)
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Warn().Err(err).Msg("instrument redis tracing")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func mustInitLimiter(client *redis.Client, rateSpec, prefix string, logger zerolog.Logger) *limiter.Limiter {
	rate, err := limiter.NewRateFromFormatted(rateSpec)
	if err != nil {
		logger.Fatal().Err(err).Str("rate", rateSpec).Msg("parse rate limit")
	}
	lim, err := ratelimit.NewRedisLimiter(client, rate, prefix)
	if err != nil {
		logger.Fatal().Err(err).Msg("init rate limiter")
	}
	return lim
}

func asynqRedisOpt(redisURL string) asynq.RedisClientOpt {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{Addr: "localhost:6379"}
	}
	return asynq.RedisClientOpt{Addr: opts.Addr, Username: opts.Username, Password: opts.Password, DB: opts.DB}
}

// readinessChecker probes the direct dependencies of the API.
type readinessChecker struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.pool.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func basicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username == "" || password == "" {
				http.NotFound(w, r)
				return
			}
			u, p, ok := r.BasicAuth()
			if !ok || u != username || p != password {
				w.Header().Set("WWW-Authenticate", `Basic realm="restricted"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
