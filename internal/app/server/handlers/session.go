package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
	"courier/internal/core/services"
	"courier/pkg/logging"
)

// session is the lifecycle manager for one connection. It owns the
// connection's event dispatch (register, message, upload) and translates each
// frame into registry or router calls. States: connected anonymous →
// connected registered (re-register legal) → disconnected (terminal, handled
// by the ws handler's deferred unregister).
type session struct {
	log          *slog.Logger
	subject      string // authenticated identity from the token
	client       contracts.Client
	registry     contracts.Registry
	router       *services.Router
	uploader     contracts.AssetStore
	presence     contracts.PresenceStore
	heartbeatTTL time.Duration
	registered   bool
	heartbeat    context.CancelFunc
}

func newSession(
	log *slog.Logger,
	subject string,
	client contracts.Client,
	registry contracts.Registry,
	router *services.Router,
	uploader contracts.AssetStore,
	presence contracts.PresenceStore,
	heartbeatTTL time.Duration,
) *session {
	return &session{
		log:          log,
		subject:      subject,
		client:       client,
		registry:     registry,
		router:       router,
		uploader:     uploader,
		presence:     presence,
		heartbeatTTL: heartbeatTTL,
	}
}

// Handle processes one inbound frame. Frames from a single connection arrive
// here in order; errors are reported back on the same connection and never
// tear it down.
func (s *session) Handle(ctx context.Context, raw []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.ErrorContext(ctx, "session - handle - malformed frame", logging.Conn(s.client.ID()), logging.Err(err))
		s.sendError(ctx, "bad_frame", "malformed frame")
		return
	}
	switch env.Type {
	case domain.TypeRegister:
		s.handleRegister(ctx, env)
	case domain.TypeMessage:
		s.handleMessage(ctx, env)
	case domain.TypeUpload:
		s.handleUpload(ctx, env)
	default:
		s.sendError(ctx, "unknown_type", "unknown frame type: "+env.Type)
	}
}

func (s *session) handleRegister(ctx context.Context, env domain.Envelope) {
	if env.UserID != s.subject {
		s.log.WarnContext(ctx, "session - register - identity mismatch",
			logging.Conn(s.client.ID()), logging.User(env.UserID))
		s.sendError(ctx, "identity_mismatch", domain.ErrIdentityMismatch.Error())
		return
	}
	s.registry.Register(s.subject, s.client)
	s.registered = true
	s.startHeartbeat(ctx)
	s.log.InfoContext(ctx, "session - register - user bound",
		logging.User(s.subject), logging.Conn(s.client.ID()))
	s.reply(ctx, domain.RegisteredResponse{Type: domain.TypeRegistered, UserID: s.subject})
}

func (s *session) handleMessage(ctx context.Context, env domain.Envelope) {
	receipt, err := s.router.Route(ctx, domain.Inbound{
		SenderID:    s.subject,
		ReceiverID:  env.ReceiverID,
		Text:        env.Text,
		ImageURL:    env.ImageURL,
		ClientMsgID: env.ClientMsgID,
	})
	if err != nil {
		// the sender gets an explicit failure when their message is not durable
		code := "route_failed"
		if errors.Is(err, domain.ErrInvalidPayload) {
			code = "invalid_payload"
		} else if errors.Is(err, domain.ErrStoreUnavailable) {
			code = "store_unavailable"
		}
		s.sendError(ctx, code, err.Error())
		return
	}
	// delivered-live vs stored-for-later is indistinguishable to the sender
	s.reply(ctx, domain.AckMessage{
		Type:        domain.TypeAck,
		ClientMsgID: env.ClientMsgID,
		ChatRoomID:  receipt.Message.ConversationKey,
		MessageID:   receipt.Message.ID,
		Timestamp:   receipt.Message.CreatedAt,
	})
}

func (s *session) handleUpload(ctx context.Context, env domain.Envelope) {
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		s.reply(ctx, domain.UploadResult{Type: domain.TypeUploadResult, Error: "invalid base64 payload"})
		return
	}
	url, err := s.uploader.Upload(ctx, env.FileName, data)
	if err != nil {
		s.log.ErrorContext(ctx, "session - upload - asset store failed",
			logging.Conn(s.client.ID()), logging.Err(err))
		s.reply(ctx, domain.UploadResult{Type: domain.TypeUploadResult, Error: "upload failed"})
		return
	}
	s.reply(ctx, domain.UploadResult{Type: domain.TypeUploadResult, Success: true, ImageURL: url})
}

// startHeartbeat refreshes the advisory presence mirror until the connection
// context ends. Failures degrade the online indicator, never routing.
func (s *session) startHeartbeat(ctx context.Context) {
	if s.presence == nil || s.heartbeat != nil {
		return
	}
	hbCtx, cancel := context.WithCancel(ctx)
	s.heartbeat = cancel
	_ = s.presence.Heartbeat(hbCtx, s.subject, s.heartbeatTTL)
	go func() {
		ticker := time.NewTicker(s.heartbeatTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				if err := s.presence.Heartbeat(hbCtx, s.subject, s.heartbeatTTL); err != nil {
					s.log.WarnContext(hbCtx, "session - heartbeat - refresh failed",
						logging.User(s.subject), logging.Err(err))
				}
			}
		}
	}()
}

// close runs the terminal transition: the registry entry dies with the
// connection, and the presence mirror is cleared eagerly.
func (s *session) close(ctx context.Context) {
	if s.heartbeat != nil {
		s.heartbeat()
	}
	s.registry.Unregister(s.client)
	if s.registered && s.presence != nil {
		// another connection may have taken over the identity; only clear the
		// mirror when the user is truly unroutable
		if _, online := s.registry.Lookup(s.subject); !online {
			_ = s.presence.Clear(ctx, s.subject)
		}
	}
	s.log.InfoContext(ctx, "session - close - connection finished", logging.Conn(s.client.ID()))
}

func (s *session) reply(ctx context.Context, v any) {
	data, _ := json.Marshal(v)
	if err := s.client.Send(ctx, data); err != nil {
		s.log.WarnContext(ctx, "session - reply - send failed", logging.Conn(s.client.ID()), logging.Err(err))
	}
}

func (s *session) sendError(ctx context.Context, code, msg string) {
	s.reply(ctx, domain.ErrorMessage{Type: domain.TypeError, Code: code, Message: msg})
}
