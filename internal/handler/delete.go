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

func (h *Handler) DeleteHandler(rw http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	caller, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.links.Delete(r.Context(), code, caller); err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			http.Error(rw, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, service.ErrNotOwner):
			http.Error(rw, "You do not own this link", http.StatusMethodNotAllowed)
		default:
			h.logger.Error("Failed to delete link",
				zap.String("code", code),
				zap.Error(err))
			http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	resp := models.Message{Text: "Short link deleted"}
	if err := json.NewEncoder(rw).Encode(resp); err != nil {
		h.logger.Error("Failed to encode delete response", zap.Error(err))
	}
}
