package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/lmittmann/tint"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/pflag"

	"github.com/SlavaShagalov/car-rental-api/internal/journal/repository"
	"github.com/SlavaShagalov/car-rental-api/internal/pkg/app"
	"github.com/SlavaShagalov/car-rental-api/pkg/journal"
	"github.com/SlavaShagalov/car-rental-api/pkg/migrations"
)

// journal consumes one topic (kafka.topic) and stores every entry in journal_entries.
// Run one instance per topic: lifecycle events and request statistics.
func main() {
	var configPath, migrationsPath string
	pflag.StringVarP(&configPath, "config", "c", "configs/journal.yaml", "Config file path")
	pflag.StringVarP(&migrationsPath, "migrations", "", "migrations", "Migrations directory path")
	pflag.Parse()

	config, err := app.ReadLocalConfig(configPath)
	if err != nil {
		panic(err)
	}

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.Level(config.Logging.Level)}))

	db, err := sqlx.Connect(config.DB.DriverName, config.DB.ConnectionString)
	if err != nil {
		panic(err)
	}

	defer func(db *sqlx.DB) {
		err = db.Close()
		if err != nil {
			panic(err)
		}
	}(db)

	err = migrations.Do(config.DB.ConnectionString, migrationsPath, logger)
	if err != nil {
		panic(err)
	}

	repo := repository.NewSqlxRepository(db, logger)

	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: config.Kafka.Addresses,
		Topic:   config.Kafka.Topic,
	})

	consumer := journal.NewKafkaJournal(kafkaReader, nil, logger, repo)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("journal consumer started", slog.String("topic", config.Kafka.Topic))

	for {
		err = consumer.Consume(ctx)
		if ctx.Err() != nil {
			break
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(err.Error())
		}
	}

	if err = kafkaReader.Close(); err != nil {
		logger.Error("close kafka reader", slog.String("error", err.Error()))
	}
	logger.Info("journal consumer stopped")
}
