package main

import (
	"context"
	"log"
	"net/http"

	"github.com/xlab/closer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/calendav/assistant-backend/internal/api"
	events_service "github.com/calendav/assistant-backend/internal/business/events"
	"github.com/calendav/assistant-backend/internal/business/resolver"
	"github.com/calendav/assistant-backend/internal/caldav"
	"github.com/calendav/assistant-backend/internal/config"
	"github.com/calendav/assistant-backend/internal/database"
	"github.com/calendav/assistant-backend/internal/database/events"
	"github.com/calendav/assistant-backend/internal/gcal"
	"github.com/calendav/assistant-backend/internal/intent"
	"github.com/calendav/assistant-backend/internal/session"
)

func main() {
	ctx := context.Background()

	logger, err := initLogger()
	if err != nil {
		log.Fatalf("unable to initialize logger: %v", err)
	}

	store, err := newCalendarStore(ctx, logger)
	if err != nil {
		logger.Fatalw("unable to initialize calendar store", "backend", config.CalendarBackend(), "err", err)
	}

	eventsService := events_service.NewService(logger, store)
	resolverService := resolver.NewService(logger, eventsService)

	parser, err := intent.NewParser(logger)
	if err != nil {
		logger.Fatalw("unable to initialize intent parser", "err", err)
	}

	sessions := session.NewStore(config.HistoryLimit())

	a, err := api.NewApi(logger, eventsService, resolverService, parser, sessions)
	if err != nil {
		logger.Fatalw("unable to initialize api", "err", err)
	}

	errLogger, err := zap.NewStdLogAt(logger.Desugar(), zap.ErrorLevel)
	if err != nil {
		logger.Fatalw("error initiating server logger", "err", err)
	}

	server := &http.Server{
		Addr:     ":" + config.Port(),
		Handler:  a,
		ErrorLog: errLogger,
	}

	logger.Infow("Started server", "port", config.Port(), "backend", config.CalendarBackend())
	logger.Fatalw("server error", "err", server.ListenAndServe())
}

func newCalendarStore(ctx context.Context, logger *zap.SugaredLogger) (events_service.CalendarStore, error) {
	switch config.CalendarBackend() {
	case "postgres":
		db, err := database.NewPGX(ctx)
		if err != nil {
			return nil, err
		}
		return events.NewStore(logger, db), nil
	case "google":
		return gcal.NewStore(ctx, logger)
	default:
		return caldav.NewStore(ctx, logger)
	}
}

func initLogger() (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if config.Production() {
		logger, err = zap.NewProduction()
	} else {
		conf := zap.NewDevelopmentConfig()
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err = conf.Build()
	}

	if err != nil {
		return nil, err
	}

	closer.Bind(func() {
		_ = logger.Sync()
	})

	return logger.Sugar(), nil
}
