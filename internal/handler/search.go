package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
	"github.com/vasilyryabtsev/link-redirect-service/internal/service"
)

// SearchHandler is the reverse lookup: original URL to short URL.
func (h *Handler) SearchHandler(rw http.ResponseWriter, r *http.Request) {
	originalURL := r.URL.Query().Get("original_url")
	if originalURL == "" {
		http.Error(rw, "original_url query parameter is required", http.StatusBadRequest)
		return
	}

	link, err := h.links.Search(r.Context(), originalURL)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			http.Error(rw, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to search link",
			zap.String("original_url", originalURL),
			zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	resp := models.ShortenResponse{Result: h.shortURL(link.Code)}
	if err := json.NewEncoder(rw).Encode(resp); err != nil {
		h.logger.Error("Failed to encode search response", zap.Error(err))
	}
}
