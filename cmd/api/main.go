package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/lmittmann/tint"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/pflag"

	carDelivery "github.com/SlavaShagalov/car-rental-api/internal/car/delivery"
	carRepository "github.com/SlavaShagalov/car-rental-api/internal/car/repository"
	carUsecase "github.com/SlavaShagalov/car-rental-api/internal/car/usecase"
	checkoutDelivery "github.com/SlavaShagalov/car-rental-api/internal/checkout/delivery"
	"github.com/SlavaShagalov/car-rental-api/internal/checkout/gateway"
	checkoutUsecase "github.com/SlavaShagalov/car-rental-api/internal/checkout/usecase"
	paymentDelivery "github.com/SlavaShagalov/car-rental-api/internal/payment/delivery"
	paymentRepository "github.com/SlavaShagalov/car-rental-api/internal/payment/repository"
	paymentUsecase "github.com/SlavaShagalov/car-rental-api/internal/payment/usecase"
	"github.com/SlavaShagalov/car-rental-api/internal/pkg/app"
	rentalDelivery "github.com/SlavaShagalov/car-rental-api/internal/rental/delivery"
	rentalRepository "github.com/SlavaShagalov/car-rental-api/internal/rental/repository"
	rentalUsecase "github.com/SlavaShagalov/car-rental-api/internal/rental/usecase"
	userRepository "github.com/SlavaShagalov/car-rental-api/internal/user/repository"
	"github.com/SlavaShagalov/car-rental-api/pkg/journal"
	"github.com/SlavaShagalov/car-rental-api/pkg/migrations"
	"github.com/SlavaShagalov/car-rental-api/pkg/sqlxutils"
)

type WebApp interface {
	Start() error
	Shutdown(ctx context.Context) error
}

func startApp(webApp WebApp, config app.Config, logger *slog.Logger) {
	logger.Debug(fmt.Sprintf("web app starts at %s with prefix %q", config.Web.Host+":"+config.Web.Port, config.Web.Prefix))

	go func() {
		err := webApp.Start()
		if err != nil {
			panic(err)
		}
	}()
}

func shutdownApp(webApp WebApp, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Debug("shutdown web app ...")

	const shutdownTimeout = time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

	err := webApp.Shutdown(ctx)
	if err != nil {
		panic(err)
	}

	cancel()
	logger.Debug("web app exited")
}

func newKafkaWriter(addresses []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(addresses...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func main() {
	var configPath, migrationsPath string
	pflag.StringVarP(&configPath, "config", "c", "configs/api.yaml", "Config file path")
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
	db.SetMaxOpenConns(config.DB.MaxOpenConns)

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

	kafkaWriter := newKafkaWriter(config.Kafka.Addresses, config.Kafka.Topic)
	defer kafkaWriter.Close()

	kafkaStatWriter := newKafkaWriter(config.Kafka.Addresses, config.Kafka.StatTopic)
	defer kafkaStatWriter.Close()

	events := journal.NewKafkaJournal(nil, kafkaWriter, logger, nil)
	stat := journal.NewKafkaJournal(nil, kafkaStatWriter, logger, nil)

	txManager := sqlxutils.NewTxManager(db)
	users := userRepository.NewSqlxRepository(db, logger)
	cars := carRepository.NewSqlxRepository(db, logger)
	rentals := rentalRepository.NewSqlxRepository(db, logger)
	payments := paymentRepository.NewSqlxRepository(db, logger)

	stripe := gateway.New(config.Checkout, &http.Client{Timeout: config.Checkout.Timeout}, logger)

	paymentUC := paymentUsecase.New(payments, rentals, txManager, events, logger)
	checkoutUC := checkoutUsecase.New(stripe, payments, paymentUC, events, logger)
	rentalUC := rentalUsecase.New(rentals, payments, cars, users, checkoutUC, txManager, events, logger)
	carUC := carUsecase.New(cars, logger)

	validator := app.NewValidator()
	deliveries := []app.Delivery{
		carDelivery.New(carUC, validator, logger),
		rentalDelivery.New(rentalUC, validator, logger),
		paymentDelivery.New(paymentUC, validator, logger),
		checkoutDelivery.New(checkoutUC, logger),
	}
	checkers := []app.HealthChecker{users, cars, rentals, payments}

	auth := app.JWTAuthMiddleware(config.Web.JWTSecret, logger)
	statisticsMW := app.NewStatisticsMW(stat, config.Web.Prefix, logger)

	webApp := app.NewFiberApp(config.Web, deliveries, checkers, statisticsMW, auth, logger)

	startApp(webApp, config, logger)
	shutdownApp(webApp, logger)
}
