package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/abjin/reward-closet/internal/config"
	"github.com/abjin/reward-closet/internal/database"
	"github.com/abjin/reward-closet/internal/estimation"
	"github.com/abjin/reward-closet/internal/handler"
	"github.com/abjin/reward-closet/internal/media"
	"github.com/abjin/reward-closet/internal/metrics"
	"github.com/abjin/reward-closet/internal/repository"
	"github.com/abjin/reward-closet/internal/service"
	"github.com/abjin/reward-closet/internal/session"
)

func serve(ctx context.Context) error {
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	slog.Info("database connected")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	userRepo := repository.NewUserRepository(db)
	donationRepo := repository.NewDonationRepository(db)

	donationSvc := service.NewDonationService(userRepo, donationRepo, collector)
	profileSvc := service.NewProfileService(userRepo, donationSvc)

	sessions, err := newSessionStack(ctx, userRepo)
	if err != nil {
		return err
	}

	estimator := estimation.NewEstimator(newClassifier(), estimation.WithRecorder(collector))

	var uploads *handler.UploadHandler
	if cfg.S3PublicBaseURL != "" {
		client, err := media.NewS3Client(ctx, media.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		uploads = handler.NewUploadHandler(media.NewBucket(client, cfg.S3Bucket, cfg.S3PublicBaseURL))
	} else {
		slog.Warn("S3_PUBLIC_BASE_URL not set, uploads disabled")
	}

	e := handler.NewRouter(handler.Handlers{
		Auth:      handler.NewAuthHandler(sessions.auth, handler.CookieConfig{Secure: cfg.Production(), TTL: cfg.SessionTTL}, sessions.authOpts...),
		User:      handler.NewUserHandler(profileSvc),
		Donation:  handler.NewDonationHandler(donationSvc),
		Predict:   handler.NewPredictHandler(estimator),
		Upload:    uploads,
		Verifier:  sessions.verifier,
		Recorder:  collector,
		Metrics:   metrics.Handler(reg),
		Readiness: pinger(db),
	}, handler.RouterConfig{
		AllowOrigin:   cfg.FrontendURL,
		AuthRateLimit: cfg.AuthRateLimit,
		WebDir:        cfg.WebDir,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"port", cfg.Port,
			"auth_mode", cfg.AuthMode,
			"classifier_mode", cfg.ClassifierMode,
		)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

type sessionStack struct {
	verifier session.Verifier
	auth     *service.AuthService
	authOpts []handler.AuthOption
}

// newSessionStack picks the session strategy for AUTH_MODE. Password
// sign-in only exists with self-issued tokens, so the AuthService is nil in
// firebase mode and clients exchange their Firebase ID token instead.
func newSessionStack(ctx context.Context, users service.UserStore) (sessionStack, error) {
	switch cfg.AuthMode {
	case config.AuthModeFirebase:
		client, err := session.NewFirebaseClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			return sessionStack{}, err
		}
		return sessionStack{
			verifier: session.NewFirebaseVerifier(client),
			authOpts: []handler.AuthOption{
				handler.WithSessionExchanger(session.NewFirebaseExchanger(client, cfg.SessionTTL)),
			},
		}, nil
	default:
		tokens := session.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
		return sessionStack{verifier: tokens, auth: service.NewAuthService(users, tokens)}, nil
	}
}

func newClassifier() estimation.Classifier {
	if cfg.ClassifierMode == config.ClassifierModeSimulated {
		return estimation.NewSimulatedClassifier(cfg.SimulatedDelay, nil)
	}
	return estimation.NewRemoteClassifier(cfg.ClassifierURL, cfg.ClassifierTimeout)
}

func pinger(db *sqlx.DB) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	}
}
