package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	lognotify "arbiter/internal/adapter/alert/lognotify"
	webhook "arbiter/internal/adapter/alert/webhook"
	dice "arbiter/internal/adapter/checks/dice"
	httpadapter "arbiter/internal/adapter/http"
	metricsinmem "arbiter/internal/adapter/metrics/inmemory"
	gormrepo "arbiter/internal/adapter/repo/gorm"
	staticrules "arbiter/internal/adapter/rules/static"
	"arbiter/internal/app/detect"
	"arbiter/internal/app/pending"
	"arbiter/internal/app/ports"
	"arbiter/internal/app/resolve"
	"arbiter/internal/domain/gametime"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "arbiter").Logger()

	rules, err := staticrules.Load(strEnv("ARBITER_RULES_PATH", "./conflict_rules.json"))
	if err != nil {
		logger.Fatal().Err(err).Msg("load conflict rules")
	}
	logger.Info().Int("rule_count", rules.Len()).Msg("conflict rules loaded")

	pendingRepo, txManager := mustBuildRepos(logger)
	checks := buildCheckResolverFromEnv()
	alerts := buildAlertChannelFromEnv(logger)
	kpiRecorder := metricsinmem.NewRecorder()

	autoUC := resolve.AutoUseCase{
		Rules:   rules,
		Checks:  checks,
		Metrics: kpiRecorder,
		Logger:  logger,
	}
	prepareUC := resolve.PrepareUseCase{
		Rules:   rules,
		Pending: pendingRepo,
		Alerts:  alerts,
		Metrics: kpiRecorder,
		Logger:  logger,
		Now:     time.Now,
	}

	h := httpadapter.Handler{
		DetectUC: detect.UseCase{
			Rules:   rules,
			Auto:    autoUC,
			Manual:  prepareUC,
			Metrics: kpiRecorder,
			Logger:  logger,
		},
		ApplyUC: resolve.ApplyUseCase{
			TxManager: txManager,
			Pending:   pendingRepo,
			Rules:     rules,
			Checks:    checks,
			Metrics:   kpiRecorder,
			Logger:    logger,
		},
		PendingUC: pending.UseCase{Pending: pendingRepo, Logger: logger},
		KPI:       kpiRecorder,
		MasterKey: strings.TrimSpace(os.Getenv("ARBITER_MASTER_KEY")),
	}
	if h.MasterKey == "" {
		logger.Warn().Msg("ARBITER_MASTER_KEY not set; manual resolution endpoint disabled")
	}

	addr := strEnv("ARBITER_LISTEN_ADDR", ":8080")
	s := server.Default(server.WithHostPorts(addr))
	h.RegisterRoutes(s)

	logger.Info().Str("addr", addr).Msg("arbiter server listening")
	s.Spin()
}

func mustBuildRepos(logger zerolog.Logger) (ports.PendingConflictRepository, ports.TxManager) {
	dsn := os.Getenv("ARBITER_DB_DSN")
	if dsn == "" {
		logger.Fatal().Msg("ARBITER_DB_DSN is required")
	}
	db, err := gormrepo.OpenPostgres(dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("open postgres")
	}
	if err := gormrepo.ApplyMigrations(context.Background(), db, strEnv("ARBITER_MIGRATIONS_DIR", "./migrations")); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	return gormrepo.NewPendingConflictRepo(db), gormrepo.NewTxManager(db)
}

func buildCheckResolverFromEnv() ports.CheckResolver {
	daySeconds := intEnv("GAME_DAY_SECONDS", int((10 * time.Minute).Seconds()))
	nightSeconds := intEnv("GAME_NIGHT_SECONDS", int((5 * time.Minute).Seconds()))
	clock := gametime.NewClock(gametime.ClockConfig{
		StartAt:       time.Unix(int64(intEnv("GAME_CLOCK_START_UNIX", 0)), 0),
		DayDuration:   time.Duration(daySeconds) * time.Second,
		NightDuration: time.Duration(nightSeconds) * time.Second,
	})

	cfg := dice.Config{Clock: clock, HasClock: true}
	if seed := strings.TrimSpace(os.Getenv("ARBITER_DICE_SEED")); seed != "" {
		if n, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	return dice.NewResolver(cfg)
}

func buildAlertChannelFromEnv(logger zerolog.Logger) ports.AlertChannel {
	url := strings.TrimSpace(os.Getenv("ARBITER_ALERT_WEBHOOK_URL"))
	if url == "" {
		return lognotify.Channel{Logger: logger}
	}
	ch, err := webhook.NewChannel(url)
	if err != nil {
		logger.Fatal().Err(err).Msg("build alert webhook")
	}
	return ch
}

func strEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
