package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/middleware"
	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
	"github.com/vasilyryabtsev/link-redirect-service/internal/service"
)

// RotateHandler reissues a link under a fresh code. The old code stops
// resolving immediately.
func (h *Handler) RotateHandler(rw http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	caller, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	newCode, err := h.links.Rotate(r.Context(), code, caller)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			http.Error(rw, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, service.ErrNotOwner):
			http.Error(rw, "You do not own this link", http.StatusMethodNotAllowed)
		default:
			h.logger.Error("Failed to rotate link",
				zap.String("code", code),
				zap.Error(err))
			http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	resp := models.ShortenResponse{Result: h.shortURL(newCode)}
	if err := json.NewEncoder(rw).Encode(resp); err != nil {
		h.logger.Error("Failed to encode rotate response", zap.Error(err))
	}
}
