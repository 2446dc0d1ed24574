package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/astlibr/loan-service/config"
	"github.com/astlibr/loan-service/internal/events"
	"github.com/astlibr/loan-service/internal/handler"
	"github.com/astlibr/loan-service/internal/repository"
	"github.com/astlibr/loan-service/internal/server"
	"github.com/astlibr/loan-service/internal/service"
	"github.com/astlibr/loan-service/migrations"
	"github.com/astlibr/loan-service/pkg/kafka"
	"github.com/astlibr/loan-service/pkg/logger"
	"github.com/astlibr/loan-service/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "loan")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Fatal("kafka.NewProducer", zap.Error(err))
	}
	pub := events.NewPublisher(producer, log)

	svc := service.NewService(repo, pub, pub, cfg.Loan, log)

	sweeper := service.NewSweeper(svc, cfg.Loan, log)
	sweeper.Start(context.Background())

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	sweeper.Stop()
	if err := producer.Close(); err != nil {
		log.Error("producer.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
