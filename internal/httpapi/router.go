package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fitroomserver/internal/auth"
	"fitroomserver/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth          *service.AuthService
	Rooms         *service.RoomService
	Exercises     *service.ExerciseService
	Routines      *service.RoutineService
	Subscriptions *service.SubscriptionService
	Dispatch      *service.DispatchService
	Notifications *service.NotificationService
	Reset         *service.PasswordResetService

	CookieCodec  auth.CookieCodec
	CookieSecure bool
	SessionTTL   time.Duration
	MediaDir     string
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.MediaDir == "" {
		opts.MediaDir = "data/media"
	}

	api := &api{
		logger:           logger,
		isProd:           opts.IsProd,
		dbPing:           opts.DBPing,
		authSvc:          opts.Auth,
		roomSvc:          opts.Rooms,
		exerciseSvc:      opts.Exercises,
		routineSvc:       opts.Routines,
		subscriptionSvc:  opts.Subscriptions,
		dispatchSvc:      opts.Dispatch,
		notificationsSvc: opts.Notifications,
		resetSvc:         opts.Reset,
		mediaDir:         opts.MediaDir,
		cookieCodec:      opts.CookieCodec,
		cookieSecure:     opts.CookieSecure,
		sessionTTL:       opts.SessionTTL,
		loginLimiter:     newLoginLimiter(5*time.Minute, 10),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)
	publicMux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(opts.MediaDir))))

	if api.authSvc == nil {
		apiMux.HandleFunc("POST /v1/auth/register", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/login", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/google", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/apple", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/logout", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/forgot-password", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/reset-password", handleNotImplemented)
		apiMux.HandleFunc("GET /v1/users/me", handleNotImplemented)
	} else {
		apiMux.HandleFunc("POST /v1/auth/register", api.handleAuthRegister)
		apiMux.HandleFunc("POST /v1/auth/login", api.handleAuthLogin)
		apiMux.HandleFunc("POST /v1/auth/google", api.handleAuthLoginGoogle)
		apiMux.HandleFunc("POST /v1/auth/apple", api.handleAuthLoginApple)
		apiMux.HandleFunc("POST /v1/auth/logout", api.requireAuth(api.handleAuthLogout))
		apiMux.HandleFunc("POST /v1/auth/forgot-password", api.handleAuthForgot)
		apiMux.HandleFunc("POST /v1/auth/reset-password", api.handleAuthReset)
		apiMux.HandleFunc("GET /v1/users/me", api.requireAuth(api.handleUsersMe))
	}

	if api.roomSvc != nil {
		apiMux.HandleFunc("POST /v1/rooms", api.requireAuth(api.handleRoomsCreate))
		apiMux.HandleFunc("GET /v1/rooms", api.requireAuth(api.handleRoomsList))
		apiMux.HandleFunc("GET /v1/rooms/totals", api.requireAuth(api.handleRoomsTotals))
		apiMux.HandleFunc("POST /v1/rooms/join", api.requireAuth(api.handleRoomsJoin))
		apiMux.HandleFunc("GET /v1/rooms/{id}", api.requireAuth(api.handleRoomsGet))
		apiMux.HandleFunc("PATCH /v1/rooms/{id}", api.requireAuth(api.handleRoomsRename))
		apiMux.HandleFunc("DELETE /v1/rooms/{id}", api.requireAuth(api.handleRoomsDelete))
		apiMux.HandleFunc("POST /v1/rooms/{id}/leave", api.requireAuth(api.handleRoomsLeave))
		apiMux.HandleFunc("GET /v1/rooms/{id}/members", api.requireAuth(api.handleRoomsMembers))
	}

	if api.exerciseSvc != nil {
		apiMux.HandleFunc("POST /v1/rooms/{id}/exercises", api.requireAuth(api.handleExercisesCreate))
		apiMux.HandleFunc("GET /v1/rooms/{id}/exercises", api.requireAuth(api.handleExercisesList))
		apiMux.HandleFunc("GET /v1/exercises/{id}", api.requireAuth(api.handleExercisesGet))
		apiMux.HandleFunc("PATCH /v1/exercises/{id}", api.requireAuth(api.handleExercisesUpdate))
		apiMux.HandleFunc("DELETE /v1/exercises/{id}", api.requireAuth(api.handleExercisesDelete))
		apiMux.HandleFunc("POST /v1/exercises/media", api.requireAuth(api.handleExercisesMediaUpload))
	}

	if api.routineSvc != nil {
		apiMux.HandleFunc("POST /v1/routines", api.requireAuth(api.handleRoutinesAdd))
		apiMux.HandleFunc("GET /v1/routines", api.requireAuth(api.handleRoutinesList))
		apiMux.HandleFunc("POST /v1/routines/{id}/status", api.requireAuth(api.handleRoutinesSetStatus))
		apiMux.HandleFunc("POST /v1/routines/{id}/favorite", api.requireAuth(api.handleRoutinesSetFavorite))
		apiMux.HandleFunc("DELETE /v1/routines/{id}", api.requireAuth(api.handleRoutinesRemove))
	}

	if api.subscriptionSvc != nil {
		apiMux.HandleFunc("POST /v1/push/subscribe", api.requireAuth(api.handlePushSubscribe))
		apiMux.HandleFunc("POST /v1/push/unsubscribe", api.requireAuth(api.handlePushUnsubscribe))
		apiMux.HandleFunc("GET /v1/push/vapid-key", api.requireAuth(api.handlePushVAPIDKey))
	}
	if api.dispatchSvc != nil {
		apiMux.HandleFunc("POST /v1/push/test", api.requireAuth(api.handlePushTest))
		apiMux.HandleFunc("POST /v1/push/device-test", api.requireAuth(api.handlePushDeviceTest))
	}

	if api.notificationsSvc != nil {
		apiMux.HandleFunc("GET /v1/notifications", api.requireAuth(api.handleNotificationsList))
		apiMux.HandleFunc("POST /v1/notifications/read-all", api.requireAuth(api.handleNotificationsReadAll))
		apiMux.HandleFunc("POST /v1/notifications/{id}/read", api.requireAuth(api.handleNotificationsRead))
		apiMux.HandleFunc("DELETE /v1/notifications/{id}", api.requireAuth(api.handleNotificationsDelete))
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	authSvc          *service.AuthService
	roomSvc          *service.RoomService
	exerciseSvc      *service.ExerciseService
	routineSvc       *service.RoutineService
	subscriptionSvc  *service.SubscriptionService
	dispatchSvc      *service.DispatchService
	notificationsSvc *service.NotificationService
	resetSvc         *service.PasswordResetService

	mediaDir     string
	cookieCodec  auth.CookieCodec
	cookieSecure bool
	sessionTTL   time.Duration

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
