package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
	"courier/internal/core/services"
	"courier/pkg/logging"
	"courier/pkg/middleware"
)

// QueryHandler serves the read-only paths: conversation history and the
// advisory online indicator.
type QueryHandler struct {
	router   *services.Router
	presence contracts.PresenceStore
}

func NewQueryHandler(router *services.Router, presence contracts.PresenceStore) *QueryHandler {
	return &QueryHandler{router: router, presence: presence}
}

// History returns the caller's conversation log with ?peer=<id>. This is the
// catch-up path for messages persisted while the caller was offline.
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	self, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	peer := r.URL.Query().Get("peer")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	msgs, err := h.router.History(r.Context(), self, peer, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidIdentity) {
			http.Error(w, "invalid peer", http.StatusBadRequest)
			return
		}
		log.ErrorContext(r.Context(), "query handler - history failed", logging.Err(err))
		http.Error(w, "history unavailable", http.StatusServiceUnavailable)
		return
	}
	out := make([]domain.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.NewChatMessage(m))
	}
	json.NewEncoder(w).Encode(map[string]any{"messages": out})
}

// Online answers whether ?user=<id> has a recent heartbeat. Advisory only.
func (h *QueryHandler) Online(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	user := r.URL.Query().Get("user")
	if !domain.ValidIdentity(user) {
		http.Error(w, "invalid user", http.StatusBadRequest)
		return
	}
	online, err := h.presence.IsOnline(r.Context(), user)
	if err != nil {
		log.ErrorContext(r.Context(), "query handler - presence lookup failed", logging.Err(err))
		http.Error(w, "presence unavailable", http.StatusServiceUnavailable)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"user_id": user, "online": online})
}
