//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/suncare/internal/bootstrap"
	"github.com/yanqian/suncare/internal/domain/advice"
	"github.com/yanqian/suncare/internal/domain/auth"
	"github.com/yanqian/suncare/internal/domain/monitor"
	"github.com/yanqian/suncare/internal/domain/profile"
	"github.com/yanqian/suncare/internal/domain/sensor"
	"github.com/yanqian/suncare/internal/infra/config"
	"github.com/yanqian/suncare/internal/infra/notifier"
	"github.com/yanqian/suncare/internal/infra/sensorfeed"
	httpiface "github.com/yanqian/suncare/internal/interface/http"
	"github.com/yanqian/suncare/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAuthConfig,
		provideAdviceConfig,
		provideMonitorConfig,
		provideHubConfig,
		provideChatClient,
		providePostgresPool,
		provideProfileStore,
		provideAccountRepository,
		provideValkeyClient,
		provideAdviceCache,
		provideBroadcaster,
		provideSensorFeed,
		provideUVPoller,
		provideServerSession,
		provideBackground,
		advice.NewService,
		monitor.New,
		profile.NewService,
		auth.NewService,
		notifier.NewHub,
		wire.Bind(new(sensor.Feed), new(sensorfeed.Shared)),
		wire.Bind(new(monitor.ProfileSource), new(profile.Store)),
		wire.Bind(new(profile.SeverityClassifier), new(advice.Service)),
		wire.Bind(new(profile.Tracker), new(*monitor.Monitor)),
		wire.Bind(new(auth.ProfileRegistrar), new(profile.Service)),
		wire.Bind(new(httpiface.MonitorController), new(*monitor.Monitor)),
		wire.Bind(new(httpiface.SensorStore), new(sensorfeed.Shared)),
		wire.Bind(new(httpiface.SessionServer), new(*notifier.Hub)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
