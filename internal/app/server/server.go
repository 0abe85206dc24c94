package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/app/server/handlers"
	"github.com/Likith-Yadav/echo-us/internal/config"
	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/services"
	"github.com/Likith-Yadav/echo-us/pkg/middleware"
)

const maxUploadBytes = 10 << 20

type Server struct {
	mux      *http.ServeMux
	addr     string
	log      *slog.Logger
	tokenSvc *services.TokenService

	authHandler    *handlers.AuthHandler
	userHandler    *handlers.UserHandler
	messageHandler *handlers.MessageHandler
	callHandler    *handlers.CallHandler
	wsHandler      *handlers.WSHandler

	httpSrv *http.Server
}

func NewServer(
	cfg config.ServiceConfig,
	log *slog.Logger,
	userSvc *services.UserService,
	tokenSvc *services.TokenService,
	sessionSvc *services.SessionService,
	messageSvc *services.MessageService,
	callSvc *services.CallService,
	reg contracts.Registry,
	limiter contracts.RateLimiter,
	media contracts.MediaStore,
) *Server {
	s := &Server{
		mux:            http.NewServeMux(),
		addr:           cfg.Addr,
		log:            log,
		tokenSvc:       tokenSvc,
		authHandler:    handlers.NewAuthHandler(userSvc, tokenSvc, limiter),
		userHandler:    handlers.NewUserHandler(userSvc, maxUploadBytes),
		messageHandler: handlers.NewMessageHandler(messageSvc, media, maxUploadBytes),
		callHandler:    handlers.NewCallHandler(callSvc),
		wsHandler:      handlers.NewWSHandler(log, reg, sessionSvc, messageSvc, callSvc),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	auth := middleware.AuthMiddleware(s.tokenSvc)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	// Public routes.
	s.mux.HandleFunc("POST /api/auth/register", s.authHandler.Register)
	s.mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)

	// Protected REST routes.
	s.mux.Handle("GET /api/auth/me", protected(s.authHandler.Me))
	s.mux.Handle("POST /api/auth/logout", protected(s.authHandler.Logout))

	s.mux.Handle("GET /api/users", protected(s.userHandler.List))
	s.mux.Handle("GET /api/users/{userId}", protected(s.userHandler.Get))
	s.mux.Handle("PUT /api/users/profile", protected(s.userHandler.UpdateProfile))
	s.mux.Handle("POST /api/users/profile-pic", protected(s.userHandler.UploadProfilePic))
	s.mux.Handle("PUT /api/users/password", protected(s.userHandler.ChangePassword))
	s.mux.Handle("POST /api/users/push-token", protected(s.userHandler.SetPushToken))

	s.mux.Handle("GET /api/messages/{otherUserId}", protected(s.messageHandler.History))
	s.mux.Handle("POST /api/messages", protected(s.messageHandler.Send))
	s.mux.Handle("POST /api/messages/upload", protected(s.messageHandler.Upload))
	s.mux.Handle("PUT /api/messages/read/{otherUserId}", protected(s.messageHandler.MarkRead))
	s.mux.Handle("DELETE /api/messages/{messageId}", protected(s.messageHandler.Delete))

	s.mux.Handle("GET /api/calls", protected(s.callHandler.History))
	s.mux.Handle("POST /api/calls", protected(s.callHandler.Create))
	s.mux.Handle("PUT /api/calls/{callId}", protected(s.callHandler.Update))

	// The socket authenticates in-band via the authenticate event, so no
	// auth middleware here.
	s.mux.HandleFunc("/ws", s.wsHandler.Handler)

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func (s *Server) Start() error {
	handler := middleware.RequestLogger(s.log)(
		middleware.TracerMiddleware("echous-backend")(s.mux),
	)

	s.httpSrv = &http.Server{
		Addr:        s.addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would kill long-lived websocket sessions.
		IdleTimeout: 60 * time.Second,
	}

	s.log.Info("server starting", "addr", s.addr)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
