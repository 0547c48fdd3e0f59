package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/middleware"
	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
	"github.com/vasilyryabtsev/link-redirect-service/internal/service"
)

func (h *Handler) ShortenHandler(rw http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" {
		http.Error(rw, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	var req models.ShortenRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Link == "" {
		http.Error(rw, "Link cannot be empty", http.StatusBadRequest)
		return
	}

	if _, err := url.ParseRequestURI(req.Link); err != nil {
		http.Error(rw, "Invalid link", http.StatusBadRequest)
		return
	}

	owner, _ := middleware.GetUsernameFromContext(r.Context())

	code, err := h.links.CreateShortLink(r.Context(), req.Link, req.ExpiresAt, owner, req.Alias)

	status := http.StatusCreated
	switch {
	case errors.Is(err, service.ErrLinkExists):
		status = http.StatusAlreadyReported
	case errors.Is(err, service.ErrAliasTaken):
		http.Error(rw, "Alias already taken", http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("Failed to create short link",
			zap.String("link", req.Link),
			zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	resp := models.ShortenResponse{Result: h.shortURL(code)}
	if err := json.NewEncoder(rw).Encode(resp); err != nil {
		h.logger.Error("Failed to encode shorten response", zap.Error(err))
	}
}
