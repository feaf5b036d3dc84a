package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
	"courier/pkg/logging"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("router-service")

// Router runs the validate → persist → lookup → deliver pipeline for one
// inbound message. Persistence always happens before any delivery attempt;
// delivery is fire-and-forget on top of the durable record.
type Router struct {
	store    domain.MessageStore
	registry contracts.Registry
	validate *validator.Validate
	log      *slog.Logger
}

func NewRouter(log *slog.Logger, store domain.MessageStore, registry contracts.Registry) *Router {
	return &Router{
		store:    store,
		registry: registry,
		validate: validator.New(),
		log:      log,
	}
}

func (r *Router) Route(ctx context.Context, in domain.Inbound) (domain.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Router.Route", trace.WithAttributes(
		attribute.String("chat.sender_id", in.SenderID),
		attribute.String("chat.receiver_id", in.ReceiverID),
	))
	defer span.End()

	if err := r.validate.Struct(in); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		r.log.ErrorContext(ctx, "router - route - invalid payload", logging.Err(err))
		return domain.Receipt{}, fmt.Errorf("%w: %s", domain.ErrInvalidPayload, err)
	}
	if !domain.ValidIdentity(in.ReceiverID) {
		// the key derivation is only collision-free over the identity alphabet
		span.SetStatus(codes.Error, "invalid receiver id")
		r.log.ErrorContext(ctx, "router - route - invalid receiver id",
			slog.String("receiver_id", in.ReceiverID))
		return domain.Receipt{}, fmt.Errorf("%w: invalid receiver id", domain.ErrInvalidPayload)
	}

	key := domain.ConversationKey(in.SenderID, in.ReceiverID)
	span.SetAttributes(attribute.String("chat.room_id", key))

	persisted, err := r.store.Append(ctx, key, domain.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Text:       in.Text,
		ImageURL:   in.ImageURL,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		r.log.ErrorContext(ctx, "router - route - append failed", logging.Room(key), logging.Err(err))
		return domain.Receipt{}, err
	}
	r.log.InfoContext(ctx, "router - route - message persisted",
		logging.Room(key), slog.String("message_id", persisted.ID.String()))

	receipt := domain.Receipt{Message: persisted}
	peer, online := r.registry.Lookup(in.ReceiverID)
	if !online {
		// durable record only; the receiver catches up over the history path
		r.log.InfoContext(ctx, "router - route - receiver offline", logging.Room(key),
			slog.String("receiver_id", in.ReceiverID))
		return receipt, nil
	}

	data, _ := json.Marshal(domain.NewChatMessage(persisted))
	if err := peer.Send(ctx, data); err != nil {
		// the message is already durable; transport failures stop here
		span.RecordError(err)
		r.log.WarnContext(ctx, "router - route - delivery failed", logging.Room(key),
			slog.String("receiver_id", in.ReceiverID), logging.Err(err))
		return receipt, nil
	}
	receipt.Delivered = true
	r.log.InfoContext(ctx, "router - route - message delivered", logging.Room(key),
		slog.String("receiver_id", in.ReceiverID))
	return receipt, nil
}

// History returns the persisted log of the conversation between self and peer.
func (r *Router) History(ctx context.Context, self, peer string, limit int) ([]domain.PersistedMessage, error) {
	ctx, span := tracer.Start(ctx, "Router.History")
	defer span.End()
	if !domain.ValidIdentity(peer) {
		return nil, domain.ErrInvalidIdentity
	}
	key := domain.ConversationKey(self, peer)
	span.SetAttributes(attribute.String("chat.room_id", key))
	msgs, err := r.store.History(ctx, key, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history read failed")
		r.log.ErrorContext(ctx, "router - history - read failed", logging.Room(key), logging.Err(err))
		return nil, err
	}
	return msgs, nil
}
