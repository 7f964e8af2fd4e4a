package app

import (
	"time"

	"github.com/nil-go/konf"
	"github.com/nil-go/konf/provider/file"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/SlavaShagalov/car-rental-api/internal/checkout/gateway"
)

type WebConfig struct {
	Host         string        `konf:"host"`
	Port         string        `konf:"port"`
	Prefix       string        `konf:"prefix"`
	JWTSecret    string        `konf:"jwt_secret"`
	ReadTimeout  time.Duration `konf:"read_timeout"`
	WriteTimeout time.Duration `konf:"write_timeout"`
}

type LoggingConfig struct {
	Level int `konf:"level"`
}

type DBConfig struct {
	DriverName       string `konf:"driver_name"`
	ConnectionString string `konf:"connection_string"`
	MaxOpenConns     int    `konf:"max_open_conns"`
}

type KafkaConfig struct {
	Addresses []string `konf:"addresses"`
	Topic     string   `konf:"topic"`
	StatTopic string   `konf:"stat_topic"`
}

type Config struct {
	Web      WebConfig      `konf:"web"`
	Logging  LoggingConfig  `konf:"logging"`
	DB       DBConfig       `konf:"db"`
	Kafka    KafkaConfig    `konf:"kafka"`
	Checkout gateway.Config `konf:"checkout"`
}

func defaultConfig() Config {
	return Config{
		Web: WebConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			Prefix:       "/api",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		DB: DBConfig{
			DriverName:   "postgres",
			MaxOpenConns: 25,
		},
		Checkout: gateway.DefaultConfig(),
	}
}

// ReadLocalConfig loads a YAML file on top of the defaults.
func ReadLocalConfig(path string) (Config, error) {
	loader := konf.New()
	err := loader.Load(file.New(path, file.WithUnmarshal(yaml.Unmarshal)))
	if err != nil {
		return Config{}, errors.Wrap(err, "load config file")
	}

	config := defaultConfig()
	if err = loader.Unmarshal("", &config); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}

	return config, nil
}
