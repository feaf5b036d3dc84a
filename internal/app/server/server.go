package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"courier/internal/app/server/handlers"
	"courier/internal/core/contracts"
	"courier/internal/core/services"
	"courier/pkg/middleware"
)

type Server struct {
	log  *slog.Logger
	mux  *http.ServeMux
	name string
	addr string

	authHandler  *handlers.AuthHandler
	wsHandler    *handlers.WSHandler
	queryHandler *handlers.QueryHandler
	tokenSvc     *services.TokenService
}

func New(
	log *slog.Logger,
	name, addr string,
	accounts *services.AccountService,
	tokenSvc *services.TokenService,
	router *services.Router,
	registry contracts.Registry,
	uploader contracts.AssetStore,
	presence contracts.PresenceStore,
	heartbeatTTL time.Duration,
) *Server {
	s := &Server{
		log:          log,
		mux:          http.NewServeMux(),
		name:         name,
		addr:         addr,
		authHandler:  handlers.NewAuthHandler(accounts),
		wsHandler:    handlers.NewWSHandler(registry, router, uploader, presence, heartbeatTTL),
		queryHandler: handlers.NewQueryHandler(router, presence),
		tokenSvc:     tokenSvc,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	auth := middleware.Auth(s.tokenSvc)
	logged := middleware.RequestLogger(s.log)
	traced := middleware.Tracer(s.name)

	public := func(h http.Handler) http.Handler { return traced(logged(h)) }
	protected := func(h http.Handler) http.Handler { return traced(logged(auth(h))) }

	s.mux.Handle("POST /auth/verification-email", public(http.HandlerFunc(s.authHandler.VerificationEmail)))
	s.mux.Handle("POST /auth/token", public(http.HandlerFunc(s.authHandler.Token)))

	s.mux.Handle("/ws", protected(http.HandlerFunc(s.wsHandler.Handler)))
	s.mux.Handle("GET /history", protected(http.HandlerFunc(s.queryHandler.History)))
	s.mux.Handle("GET /online", protected(http.HandlerFunc(s.queryHandler.Online)))
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.addr,
		Handler:     s.mux,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: it would kill long-lived websocket connections
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("server - start - listening", slog.String("addr", s.addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	}
}
