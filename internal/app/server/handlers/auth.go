package handlers

import (
	"encoding/json"
	"net/http"

	"courier/internal/core/services"
	"courier/pkg/logging"
)

type AuthHandler struct {
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// VerificationEmail relays a verification-link request to the identity
// provider.
func (h *AuthHandler) VerificationEmail(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.ErrorContext(r.Context(), "auth handler - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.accounts.RequestVerification(r.Context(), req.Email); err != nil {
		log.ErrorContext(r.Context(), "auth handler - verification email failed", logging.Err(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "verification email sent"})
}

// Token exchanges a provider assertion for a relay token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	var req struct {
		Assertion string `json:"assertion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.ErrorContext(r.Context(), "auth handler - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	userID, token, err := h.accounts.Login(r.Context(), req.Assertion)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - login failed", logging.Err(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"token":   token,
		"user_id": userID,
	})
	log.InfoContext(r.Context(), "auth handler - token issued", logging.User(userID))
}
