package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/config"
	"github.com/twofourteen/backend-scents/internal/notify"
	"github.com/twofourteen/backend-scents/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "scents"), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := asynq.NewServer(asynqRedisOpt(cfg.RedisURL), asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 10),
	})

	worker := &notify.Worker{Mail: buildMailer(), Logger: logger}
	mux := asynq.NewServeMux()
	worker.Register(mux)

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down worker")
		srv.Shutdown()
	}()

	logger.Info().Str("env", cfg.AppEnv).Msg("worker consuming tasks")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}

func buildMailer() common.EmailSender {
	host := envOrDefault("SMTP_HOST", "")
	if host == "" {
		return common.NopEmailSender{}
	}
	return common.SMTPEmail{
		Host:     host,
		Port:     envInt("SMTP_PORT", 587),
		Username: envOrDefault("SMTP_USERNAME", ""),
		Password: envOrDefault("SMTP_PASSWORD", ""),
		From:     envOrDefault("SMTP_FROM", "orders@214scents.com"),
	}
}

func asynqRedisOpt(redisURL string) asynq.RedisClientOpt {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{Addr: "localhost:6379"}
	}
	return asynq.RedisClientOpt{Addr: opts.Addr, Username: opts.Username, Password: opts.Password, DB: opts.DB}
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
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
