package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/joho/godotenv"

	"fitroomserver/internal/auth"
	"fitroomserver/internal/config"
	"fitroomserver/internal/httpapi"
	"fitroomserver/internal/push"
	"fitroomserver/internal/service"
	"fitroomserver/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		authSvc          *service.AuthService
		roomSvc          *service.RoomService
		exerciseSvc      *service.ExerciseService
		routineSvc       *service.RoutineService
		subscriptionSvc  *service.SubscriptionService
		dispatchSvc      *service.DispatchService
		notificationsSvc *service.NotificationService
		resetSvc         *service.PasswordResetService
		dbPing           func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		users := postgres.NewUsersStore(pgPool)
		sessions := postgres.NewSessionsStore(pgPool)
		resets := postgres.NewPasswordResetStore(pgPool)
		rooms := postgres.NewRoomsStore(pgPool)
		members := postgres.NewRoomMembersStore(pgPool)
		exercises := postgres.NewExercisesStore(pgPool)
		routines := postgres.NewRoutinesStore(pgPool)
		subs := postgres.NewPushSubscriptionsStore(pgPool)
		notifications := postgres.NewNotificationsStore(pgPool)

		authSvc = &service.AuthService{
			Users:             users,
			Sessions:          sessions,
			SessionTTL:        cfg.SessionTTL,
			GoogleWebClientID: cfg.GoogleWebClientID,
			AppleServiceID:    cfg.AppleServiceID,
		}

		transport := newPushTransport(cfg, logger)
		deviceSender := newDeviceSender(cfg, logger)

		dispatchSvc = &service.DispatchService{
			Subs:          subs,
			Notifications: notifications,
			Transport:     transport,
			Devices:       deviceSender,
			Logger:        logger,
		}
		subscriptionSvc = &service.SubscriptionService{
			Subs:           subs,
			VAPIDPublicKey: cfg.VAPIDPublicKey,
		}
		notificationsSvc = &service.NotificationService{Notifications: notifications}

		roomSvc = &service.RoomService{Rooms: rooms, Members: members}
		exerciseSvc = &service.ExerciseService{
			Exercises: exercises,
			Rooms:     rooms,
			Members:   members,
			Notifier:  dispatchSvc,
			Logger:    logger,
		}
		routineSvc = &service.RoutineService{
			Routines:  routines,
			Exercises: exercises,
			Rooms:     rooms,
			Members:   members,
		}

		if cfg.SMTP.Configured() {
			publicURL := ""
			if cfg.PublicURL != nil {
				publicURL = cfg.PublicURL.String()
			}
			resetSvc = &service.PasswordResetService{
				Store:     resets,
				Users:     users,
				Mailer:    &service.EmailService{SMTP: cfg.SMTP},
				PublicURL: publicURL,
				TokenTTL:  cfg.ResetTokenTTL,
				Logger:    logger,
			}
		} else {
			logger.Info("password reset disabled: smtp not configured")
		}

		dbPing = pgPool.Ping
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:        logger,
		IsProd:        cfg.IsProd(),
		DBPing:        dbPing,
		Auth:          authSvc,
		Rooms:         roomSvc,
		Exercises:     exerciseSvc,
		Routines:      routineSvc,
		Subscriptions: subscriptionSvc,
		Dispatch:      dispatchSvc,
		Notifications: notificationsSvc,
		Reset:         resetSvc,
		CookieCodec:   auth.NewCookieCodec([]byte(cfg.CookieSecret)),
		CookieSecure:  cfg.CookieSecure(),
		SessionTTL:    cfg.SessionTTL,
		MediaDir:      cfg.MediaDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

// newPushTransport picks the Web Push implementation at startup. Missing
// VAPID keys are a hard error in prod; in dev sends are logged and dropped.
func newPushTransport(cfg config.Config, logger *slog.Logger) push.Transport {
	if cfg.WebPushEnabled() {
		transport, err := push.NewWebPushTransport(cfg.VAPIDSubject, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
		if err != nil {
			logger.Error("web push transport init failed", "err", err)
			os.Exit(1)
		}
		return transport
	}
	if cfg.IsProd() {
		logger.Error("web push keys are required in prod")
		os.Exit(1)
	}
	logger.Info("web push disabled: using dry-run transport")
	return &push.NoopTransport{Logger: logger}
}

func newDeviceSender(cfg config.Config, logger *slog.Logger) service.DeviceSender {
	if cfg.FCMCredentialsPath == "" {
		logger.Info("fcm disabled: no credentials configured")
		return nil
	}
	sender, err := push.NewFCMSender(context.Background(), cfg.FCMProjectID, cfg.FCMCredentialsPath)
	if err != nil {
		logger.Error("fcm sender init failed", "err", err)
		os.Exit(1)
	}
	return sender
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
