// @title TripCraft Backend API
// @version 1.0
// @description TripCraft Backend API for collaborative trip planning and booking

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	_ "TRIPCRAFT_BACK-END/docs" // This is required for swagger
	"TRIPCRAFT_BACK-END/internal/config"
	"TRIPCRAFT_BACK-END/internal/handlers"
	"TRIPCRAFT_BACK-END/internal/routes"
	"TRIPCRAFT_BACK-END/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})

	// pgxpool with simple protocol (needed when connecting through PgBouncer)
	poolCfg, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		logrus.WithError(err).Fatal("failed to parse database DSN")
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "tripcraft-backend"
	poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = "30000" // 30s
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create connection pool")
	}
	defer pool.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			logrus.WithError(err).Fatal("database ping failed")
		}
	}

	emailService := utils.NewEmailService(&cfg.Email)

	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(pool, &cfg.JWT),
		GoogleAuth:  handlers.NewGoogleAuthHandler(pool, cfg),
		Health:      handlers.NewHealthHandler(pool),
		Trips:       handlers.NewTripsHandler(pool),
		Invitations: handlers.NewInvitationsHandler(pool, cfg, emailService),
		TripState:   handlers.NewTripStateHandler(pool),
		Bookings:    handlers.NewBookingsHandler(pool),
		Tours:       handlers.NewToursHandler(pool),
	}
	routes.SetupRoutes(h, &cfg.JWT)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	handler := c.Handler(http.DefaultServeMux)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("server shutdown error")
	}
	logrus.Info("server stopped")
}
