package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/service"
	"github.com/MKhiriev/wallet-cloud-sync/internal/utils"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.services.AuthService.RegisterUser)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.services.AuthService.Login)
}

// authenticate decodes the credentials, runs step (register or login) and
// answers with a fresh token in both the body and the Authorization header.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, user models.User) (models.User, error)) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		writeServiceError(w, r, fmt.Errorf("%w: %w", service.ErrInvalidDataProvided, err))
		return
	}

	account, err := step(ctx, user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := h.services.AuthService.CreateToken(ctx, account)
	if err != nil {
		log.Err(err).Msg("creation of token failed")
		writeServiceError(w, r, err)
		return
	}

	log.Debug().Int64("id", account.UserID).Msg("token issued")

	w.Header().Set("Authorization", "Bearer "+token.SignedString)
	utils.WriteJSON(w, models.TokenResponse{Token: token.SignedString}, http.StatusOK)
}
