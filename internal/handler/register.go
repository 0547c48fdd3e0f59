package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
	"github.com/vasilyryabtsev/link-redirect-service/internal/service"
)

func (h *Handler) RegisterHandler(rw http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(rw, "Username and password are required", http.StatusBadRequest)
		return
	}

	if err := h.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, service.ErrUserExists) {
			http.Error(rw, "This user already exists", http.StatusConflict)
			return
		}
		h.logger.Error("Failed to register user",
			zap.String("username", req.Username),
			zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusCreated)

	resp := models.Message{Text: "Registration completed!"}
	if err := json.NewEncoder(rw).Encode(resp); err != nil {
		h.logger.Error("Failed to encode register response", zap.Error(err))
	}
}
