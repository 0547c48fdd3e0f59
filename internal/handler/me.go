package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/middleware"
	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
)

func (h *Handler) MeHandler(rw http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), username)
	if err != nil {
		h.logger.Error("Failed to load current user",
			zap.String("username", username),
			zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	resp := models.UserResponse{Username: user.Username, Disabled: user.Disabled}
	if err := json.NewEncoder(rw).Encode(resp); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}
