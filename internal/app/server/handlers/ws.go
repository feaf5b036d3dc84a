package handlers

import (
	"context"
	"net/http"
	"time"

	"courier/internal/app/server/ws"
	"courier/internal/core/contracts"
	"courier/internal/core/services"
	"courier/pkg/logging"
	"courier/pkg/middleware"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type WSHandler struct {
	registry     contracts.Registry
	router       *services.Router
	uploader     contracts.AssetStore
	presence     contracts.PresenceStore
	heartbeatTTL time.Duration
}

func NewWSHandler(
	registry contracts.Registry,
	router *services.Router,
	uploader contracts.AssetStore,
	presence contracts.PresenceStore,
	heartbeatTTL time.Duration,
) *WSHandler {
	return &WSHandler{
		registry:     registry,
		router:       router,
		uploader:     uploader,
		presence:     presence,
		heartbeatTTL: heartbeatTTL,
	}
}

func (h *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	span := trace.SpanFromContext(r.Context())

	subject, ok := middleware.UserID(r.Context())
	if !ok {
		log.ErrorContext(r.Context(), "ws handler - unauthorised missing user id")
		http.Error(w, "unauthorized: user id missing", http.StatusUnauthorized)
		return
	}
	span.SetAttributes(attribute.String("user.id", subject))

	// the connection outlives the upgrade request
	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	defer cancel()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", logging.Err(err))
		return
	}
	conn.SetCloseHandler(func(code int, text string) error {
		cancel()
		return nil
	})

	socket := ws.NewWebSocket(ctx, conn)
	client := ws.NewClient(ctx, socket, uuid.NewString())
	defer client.Close()

	sess := newSession(log, subject, client, h.registry, h.router, h.uploader, h.presence, h.heartbeatTTL)
	defer sess.close(sessionCtx)
	log.InfoContext(ctx, "ws handler - connection established",
		logging.User(subject), logging.Conn(client.ID()))

	// frames are handled synchronously to preserve per-connection ordering
	socket.ReadLoop(func(data []byte) {
		sess.Handle(ctx, data)
	})
}
