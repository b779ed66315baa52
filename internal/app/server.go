package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"weatherdash/internal/config"
	"weatherdash/internal/db"
	"weatherdash/internal/httpapi"
	weather "weatherdash/internal/modules/weather"
	"weatherdash/internal/modules/weather/service"
	"weatherdash/internal/mqtt"
)

const mqttConnectTimeout = 5 * time.Second

// RunServer serves the weather and history API until ctx is done.
func RunServer(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"weatherCacheTTL", cfg.WeatherCacheTTL,
		"historyLimit", cfg.HistoryLimit,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	if cfg.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY is empty; upstream lookups will fail")
	}

	dbConn, applied, err := db.OpenMigrated(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()
	logger.Info("database ready", "migrationsApplied", applied)

	var publisher service.EventPublisher
	if cfg.MQTTBroker != "" {
		p := mqtt.NewPublisher(cfg, logger)
		defer p.Disconnect()

		// A short initial connect keeps startup from blocking when the broker
		// is down. Paho keeps retrying in the background.
		connectCtx, connectCancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err := p.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
		publisher = p
	} else {
		logger.Info("mqtt disabled")
	}

	mux := httpapi.NewMux(dbConn)
	weather.RegisterFeature(mux, dbConn, cfg, publisher, logger)

	err = httpapi.Serve(ctx, httpapi.NewServer(cfg.HTTPAddr, mux))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}
