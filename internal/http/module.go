// Package http provides HTTP server infrastructure including the Module interface
// that all domain modules must implement for route registration.
package http

import (
	"forum_search_backend/internal/events"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router group.
	// The RouterContext provides access to shared middleware and configuration.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// V1 is the /api/v1 route group. Callers may be guests or carry a token.
	V1 *gin.RouterGroup
	// RateLimit throttles expensive routes per client IP.
	RateLimit gin.HandlerFunc
}

// EventSubscriber is implemented by modules that react to domain events.
// The router subscribes them on the App's event bus.
type EventSubscriber interface {
	RegisterHandlers(bus events.Bus)
}
