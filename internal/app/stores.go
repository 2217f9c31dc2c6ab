package app

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/models"
	"github.com/ternarybob/searadar/internal/storage/mongostore"
	"github.com/ternarybob/searadar/internal/storage/sqlstore"
	"github.com/ternarybob/searadar/internal/transform"
)

// Lazy store adapters. Connections open inside the operation and close with
// it, so a store being down fails the calling step or query instead of the
// whole process.

type lazyEventSink struct {
	config *common.MongoConfig
	logger arbor.ILogger
}

func (l *lazyEventSink) ReplaceEvents(ctx context.Context, events []models.NewsEvent) (int, error) {
	store, err := mongostore.Connect(ctx, l.config, l.logger)
	if err != nil {
		return 0, err
	}
	defer store.Close(ctx)
	return store.ReplaceEvents(ctx, events)
}

type lazyRateSink struct {
	config *common.PostgresConfig
	logger arbor.ILogger
}

func (l *lazyRateSink) ReplaceRates(ctx context.Context, rates []models.HourlyRate) (int, error) {
	store, err := sqlstore.Open(l.config.DSN, l.logger)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.ReplaceRates(ctx, rates)
}

type lazyGoldSource struct {
	config *common.PostgresConfig
	logger arbor.ILogger
}

func (l *lazyGoldSource) QueryGold(ctx context.Context) ([]models.GoldRow, error) {
	store, err := sqlstore.Open(l.config.DSN, l.logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.QueryGold(ctx)
}

type lazyTransformRunner struct {
	config *common.Config
	logger arbor.ILogger
}

func (l *lazyTransformRunner) Run(ctx context.Context) (string, error) {
	events, err := mongostore.Connect(ctx, &l.config.Mongo, l.logger)
	if err != nil {
		return "", err
	}
	defer events.Close(ctx)

	sql, err := sqlstore.Open(l.config.Postgres.DSN, l.logger)
	if err != nil {
		return "", err
	}
	defer sql.Close()

	return transform.NewRunner(events, sql, sql, l.logger).Run(ctx)
}
