package handler

import (
	"context"
	"net/http"

	"forum_search_backend/internal/search/ports"
	"forum_search_backend/internal/search/transport"
	"forum_search_backend/platform/apperr"
	"forum_search_backend/platform/httpkit"
	"forum_search_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest = "invalid request"
	msgTermRequired   = "Search term is required"
	msgTermTooLong    = "Search term is too long"
)

// SearchService is what the handler needs from the service layer.
type SearchService interface {
	Search(ctx context.Context, caller ports.Identity, req transport.SearchRequest) (*transport.SearchResponse, error)
	Info(ctx context.Context, caller ports.Identity) (*transport.InfoResponse, error)
}

type Handler struct {
	svc SearchService
	val *validator.Validator
}

func New(svc SearchService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Search)
	rg.GET("/info", h.Info)
}

func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		details := validator.Messages(err)
		msg := msgInvalidRequest
		switch details["Term"] {
		case "notblank":
			msg = msgTermRequired
		case "max":
			msg = msgTermTooLong
		}
		httpkit.HandleError(c, apperr.Validation(msg).WithDetails(details))
		return
	}

	result, err := h.svc.Search(c.Request.Context(), callerIdentity(c), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Info(c *gin.Context) {
	result, err := h.svc.Info(c.Request.Context(), callerIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func callerIdentity(c *gin.Context) ports.Identity {
	id := httpkit.GetIdentity(c)
	if !id.IsAuthenticated() {
		return ports.Guest()
	}
	return ports.Identity{UID: id.UserID(), Privileged: id.IsPrivileged()}
}
