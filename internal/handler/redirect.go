package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/service"
)

func (h *Handler) RedirectHandler(rw http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.Error(rw, "Empty code", http.StatusBadRequest)
		return
	}

	target, err := h.links.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			http.Error(rw, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to resolve code",
			zap.String("code", code),
			zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Location", target)
	rw.WriteHeader(http.StatusTemporaryRedirect)
}
