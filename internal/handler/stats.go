package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
	"github.com/vasilyryabtsev/link-redirect-service/internal/service"
)

// StatsHandler reports the stored metadata for a code. Redirects buffered
// in the cache are reflected only after the next stats flush.
func (h *Handler) StatsHandler(rw http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	link, err := h.links.Stats(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			http.Error(rw, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get link stats",
			zap.String("code", code),
			zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := models.StatsResponse{
		Owner:      link.Owner,
		Link:       link.Link,
		Code:       link.Code,
		CreatedAt:  link.CreatedAt,
		UpdatedAt:  link.UpdatedAt,
		UsageCount: link.UsageCount,
		ExpiresAt:  link.ExpiresAt,
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(rw).Encode(resp); err != nil {
		h.logger.Error("Failed to encode stats response", zap.Error(err))
	}
}
