package config

import (
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/astlibr/loan-service/pkg/kafka"
	"github.com/astlibr/loan-service/pkg/logger"
	"github.com/astlibr/loan-service/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"30s"`
	WriteTimeout time.Duration
}

// Loan holds the lending policy knobs.
type Loan struct {
	DefaultBorrowDays int           `yaml:"defaultBorrowDays" envconfig:"DEFAULT_BORROW_DAYS" default:"14"`
	FinePerDay        int           `yaml:"finePerDay" envconfig:"FINE_PER_DAY" default:"10"`
	SweepAt           string        `yaml:"sweepAt" envconfig:"SWEEP_AT" default:"00:00"`
	SweepInterval     time.Duration `yaml:"sweepInterval" envconfig:"SWEEP_INTERVAL" default:"24h"`
}

type Config struct {
	Server   HTTPServer   `yaml:"server"`
	Database postgres.DB  `yaml:"db"`
	Kafka    kafka.Config `yaml:"kafka"`
	Loan     Loan         `yaml:"loan"`
	Log      logger.Log   `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		// options win over env and tag defaults
		for _, op := range ops {
			op(&config)
		}
		cfg = &config
	})

	return cfg
}
