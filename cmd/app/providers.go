package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/suncare/internal/bootstrap"
	"github.com/yanqian/suncare/internal/domain/advice"
	"github.com/yanqian/suncare/internal/domain/auth"
	"github.com/yanqian/suncare/internal/domain/monitor"
	"github.com/yanqian/suncare/internal/domain/notify"
	"github.com/yanqian/suncare/internal/domain/profile"
	"github.com/yanqian/suncare/internal/infra/accountrepo"
	"github.com/yanqian/suncare/internal/infra/advicecache"
	"github.com/yanqian/suncare/internal/infra/config"
	"github.com/yanqian/suncare/internal/infra/llm/chatgpt"
	"github.com/yanqian/suncare/internal/infra/migrations"
	"github.com/yanqian/suncare/internal/infra/notifier"
	"github.com/yanqian/suncare/internal/infra/profilerepo"
	"github.com/yanqian/suncare/internal/infra/sensorfeed"
	"github.com/yanqian/suncare/internal/infra/uv/datagov"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}
}

func provideAdviceConfig(cfg *config.Config) advice.Config {
	return advice.Config{
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		Timeout:        cfg.Advice.Timeout,
		CacheTTL:       cfg.Advice.CacheTTL,
		SummaryPrompt:  cfg.Advice.SummaryPrompt,
		SeverityPrompt: cfg.Advice.SeverityPrompt,
	}
}

func provideMonitorConfig(cfg *config.Config) monitor.Config {
	return monitor.Config{
		UVDeltaThreshold: cfg.Monitor.UVDeltaThreshold,
		RecalcInterval:   cfg.Monitor.RecalcInterval,
		WriteConcurrency: cfg.Monitor.WriteConcurrency,
		WriteTimeout:     cfg.Monitor.WriteTimeout,
	}
}

func provideHubConfig(cfg *config.Config) notifier.HubConfig {
	return notifier.HubConfig{
		UVThreshold:    cfg.Notifications.UVThreshold,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}
}

// provideChatClient returns a nil interface when no API key is configured so
// the advice domain switches to its local rules.
func provideChatClient(cfg *config.Config, logger *slog.Logger) advice.ChatClient {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Info("llm api key not set, advice uses local rules")
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.Advice.Timeout)
	if err != nil {
		logger.Error("failed to create llm client, advice uses local rules", "error", err)
		return nil
	}
	return client
}

func providePostgresPool(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func()) {
	noop := func() {}
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil, noop
	}
	if cfg.Postgres.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := migrations.Up(ctx, dsn)
		cancel()
		if err != nil {
			logger.Error("postgres migration failed, using memory repositories", "error", err)
			return nil, noop
		}
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil, noop
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil, noop
	}
	logger.Info("postgres repositories enabled")
	return pool, pool.Close
}

func provideProfileStore(pool *pgxpool.Pool) profile.Store {
	if pool == nil {
		return profilerepo.NewMemoryRepository()
	}
	return profilerepo.NewPostgresRepository(pool)
}

func provideAccountRepository(pool *pgxpool.Pool) auth.Repository {
	if pool == nil {
		return accountrepo.NewMemoryRepository()
	}
	return accountrepo.NewPostgresRepository(pool)
}

// provideValkeyClient returns nil when valkey is disabled or unreachable.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func()) {
	noop := func() {}
	if !cfg.Valkey.Enabled {
		return nil, noop
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory", "error", err)
		return nil, noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory", "error", err)
		client.Close()
		return nil, noop
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client, client.Close
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Valkey.Addr, "://") {
		return valkey.ParseURL(cfg.Valkey.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}, nil
}

func provideAdviceCache(cfg *config.Config, client valkey.Client) advice.Cache {
	if client != nil {
		return advicecache.NewValkeyCache(client, "suncare")
	}
	return advicecache.NewMemoryCache(cfg.Advice.CacheSize, cfg.Advice.CacheTTL)
}

func provideBroadcaster(logger *slog.Logger) (*sensorfeed.Broadcaster, func()) {
	b := sensorfeed.NewBroadcaster(logger)
	return b, b.Close
}

func provideSensorFeed(cfg *config.Config, client valkey.Client, local *sensorfeed.Broadcaster, logger *slog.Logger) sensorfeed.Shared {
	if cfg.Sensor.Feed == config.SensorFeedValkey {
		if client != nil {
			return sensorfeed.NewValkeyFeed(client, cfg.Sensor.Prefix, local, logger)
		}
		logger.Warn("valkey sensor feed requested but valkey is unavailable, using in-process feed")
	}
	return local
}

func provideUVPoller(cfg *config.Config, feed sensorfeed.Shared, logger *slog.Logger) *datagov.Poller {
	if !cfg.Sensor.Poller.Enabled {
		return nil
	}
	return datagov.NewPoller(
		datagov.PollerConfig{Interval: cfg.Sensor.Poller.Interval, Scale: cfg.Sensor.Poller.Scale},
		datagov.NewClient(cfg.Sensor.Poller.APIBaseURL),
		feed,
		feed,
		logger,
	)
}

// provideServerSession builds the process-wide session. It is the only writer
// of the last applied instant. With serverSession enabled it also logs every
// notification and, with valkey, appends it to the outbox.
func provideServerSession(cfg *config.Config, feed sensorfeed.Shared, store profile.Store, client valkey.Client, logger *slog.Logger) *notify.Session {
	var target notify.Notifier
	if cfg.Notifications.ServerSession {
		targets := notifier.Multi{notifier.NewLogNotifier(logger)}
		if client != nil {
			targets = append(targets, notifier.NewValkeyOutbox(client, cfg.Notifications.OutboxKey, cfg.Notifications.OutboxLength))
		}
		target = targets
	}
	gate := notify.NewGate(cfg.Notifications.UVThreshold, target, store, logger)
	return notify.NewSession(feed, gate)
}

func provideBackground(feed sensorfeed.Shared, poller *datagov.Poller, session *notify.Session) bootstrap.Background {
	var bg bootstrap.Background
	if runner, ok := feed.(bootstrap.Runner); ok {
		bg.Feed = runner
	}
	if poller != nil {
		bg.Poller = poller
	}
	bg.Session = session
	return bg
}
