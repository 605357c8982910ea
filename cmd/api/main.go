// Command api serves the conference HTTP API and runs the background task
// consumer and the sold-out announcement scheduler.
//
// @title Conference Central API
// @version 1.0
// @description Conferences, sessions, speakers, registrations and wishlists.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"conferencecentral/config"
	_ "conferencecentral/docs"
	"conferencecentral/internal/adapters/auth"
	"conferencecentral/internal/adapters/cache"
	"conferencecentral/internal/adapters/email"
	"conferencecentral/internal/adapters/queue"
	deliveryhttp "conferencecentral/internal/delivery/http"
	"conferencecentral/internal/delivery/http/controllers"
	"conferencecentral/internal/delivery/http/middleware"
	"conferencecentral/internal/domain"
	"conferencecentral/internal/repository/postgres"
	"conferencecentral/internal/services"
	"conferencecentral/internal/tasks"

	"github.com/spf13/pflag"
)

const shutdownTimeout = 25 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := pflag.NewFlagSet("api", pflag.ExitOnError)
	port := flags.StringP("port", "p", cfg.Port, "HTTP listen port")
	migrate := flags.Bool("migrate", true, "apply the database schema on startup")
	worker := flags.Bool("worker", true, "consume queued tasks in this process")
	issueFor := flags.String("issue-token", "", "print a development token for this email and exit")
	tokenTTL := flags.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by --issue-token")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	if *issueFor != "" {
		token, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer).Issue(domain.Identity{UserID: *issueFor, Email: *issueFor}, *tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Println(token)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if *migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema applied")
	}

	announcementCache, cacheCloser := cache.New(ctx, cfg.Cache, logger)
	defer cacheCloser.Close()

	transport, err := queue.New(ctx, cfg.Queue, logger)
	if err != nil {
		return fmt.Errorf("open task queue: %w", err)
	}
	defer transport.Close()

	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	mailer := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)

	conferenceRepo := postgres.NewConferenceRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	speakerRepo := postgres.NewSpeakerRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	transactor := postgres.NewTransactor(db)

	timeout := cfg.RequestTimeout
	speakerSvc := services.NewSpeakerService(speakerRepo, sessionRepo, announcementCache, logger, timeout)
	conferenceSvc := services.NewConferenceService(conferenceRepo, profileRepo, transactor, transport, logger, timeout)
	sessionSvc := services.NewSessionService(sessionRepo, conferenceRepo, speakerSvc, transport, logger, timeout)
	registrationSvc := services.NewRegistrationService(transactor, conferenceRepo, sessionRepo, profileRepo, timeout)
	profileSvc := services.NewProfileService(profileRepo, timeout)
	announcementSvc := services.NewAnnouncementService(conferenceRepo, announcementCache, timeout)
	emailSvc := services.NewEmailService(mailer, renderer, logger)

	var wg sync.WaitGroup
	if *worker {
		dispatcher := tasks.NewDispatcher(logger)
		tasks.RegisterHandlers(dispatcher, speakerSvc, emailSvc, announcementSvc)
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := transport.Run(ctx, dispatcher); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("task consumer stopped", "err", err)
			}
		}()
		go func() {
			defer wg.Done()
			tasks.Schedule(ctx, logger, transport, domain.TaskRefreshAnnouncement, cfg.AnnouncementInterval)
		}()
	}

	router := deliveryhttp.NewRouter(deliveryhttp.RouterDeps{
		Logger:        logger,
		Verifier:      auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		Health:        db,
		Conferences:   controllers.NewConferenceController(logger, conferenceSvc, registrationSvc),
		Sessions:      controllers.NewSessionController(logger, sessionSvc),
		Speakers:      controllers.NewSpeakerController(logger, speakerSvc),
		Profiles:      controllers.NewProfileController(logger, profileSvc, registrationSvc),
		Announcements: controllers.NewAnnouncementController(logger, announcementSvc),
	})
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.AllowedOrigins, router))

	server := &http.Server{
		Addr:              ":" + *port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr, "env", cfg.Environment, "queue", cfg.Queue.Provider, "cache", cfg.Cache.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	wg.Wait()
	return nil
}
