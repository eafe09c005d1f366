package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/kitchen/config"
	"github.com/ray-remotestate/kitchen/database"
	"github.com/ray-remotestate/kitchen/database/dbhelper"
	"github.com/ray-remotestate/kitchen/events"
	"github.com/ray-remotestate/kitchen/handlers"
	"github.com/ray-remotestate/kitchen/server"
)

const shutdownTimeOut = 10 * time.Second

func main() {
	config.Init()

	db, err := database.ConnectAndMigrate(config.DatabaseURL(), config.MigrationsPath())
	if err != nil {
		logrus.Panicf("failed to initialize database, error: %v", err)
	}
	logrus.Println("migration is successful")

	var publisher events.Publisher = events.NoopPublisher{}
	if url := config.NATSURL(); url != "" {
		publisher, err = events.NewNATSPublisher(url)
		if err != nil {
			logrus.Panicf("failed to connect to NATS, error: %v", err)
		}
	}

	ticketStore := dbhelper.NewTicketStore(db)
	queueStore := dbhelper.NewQueueStore(db)
	liveView := dbhelper.NewLiveView(db, queueStore)

	stats := &handlers.Stats{}
	ticketHandler := handlers.NewTicketHandler(ticketStore, liveView, publisher, stats)
	queueHandler := handlers.NewQueueHandler(queueStore, liveView)

	svr := server.SetupRoutes(ticketHandler, queueHandler)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := svr.Run(config.HTTPPort()); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Panic("server stopped unexpectedly")
		}
	}()
	logrus.Printf("listening on %s", config.HTTPPort())

	<-done

	logrus.Info("shutting down...")
	if err := svr.Shutdown(shutdownTimeOut); err != nil {
		logrus.WithError(err).Error("failed to shut down server cleanly")
	}
	publisher.Close()
	if err := db.Shutdown(); err != nil {
		logrus.WithError(err).Error("failed to close database connection!")
	}

	logrus.Info("system is shut ..zzz")
}
