package handler

import (
	"net/url"

	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/middleware"
	"github.com/vasilyryabtsev/link-redirect-service/internal/service"
)

type Handler struct {
	links   *service.LinkService
	auth    *service.AuthService
	authMW  *middleware.AuthMiddleware
	baseURL string
	logger  *zap.Logger
}

func NewHandler(links *service.LinkService, auth *service.AuthService, authMW *middleware.AuthMiddleware, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		links:   links,
		auth:    auth,
		authMW:  authMW,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *Handler) shortURL(code string) string {
	full, err := url.JoinPath(h.baseURL, "links", code)
	if err != nil {
		return h.baseURL + "/links/" + code
	}
	return full
}
