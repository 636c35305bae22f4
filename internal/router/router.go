// Package router defines how HTTP routes are registered for the service.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-service-sync/internal/gateway"
	"github.com/iliyamo/restaurant-service-sync/internal/handler"
)

// RegisterRoutes wires the health check, the websocket sync endpoint
// and the read-only browse API onto the provided Echo instance. All
// mutation traffic goes over the websocket; the HTTP surface never
// writes.
func RegisterRoutes(e *echo.Echo, gw *gateway.Gateway, sessions *handler.SessionHandler) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// The sync channel. Observers declare ?session= and ?role= here.
	e.GET("/ws", gw.ServeWS)

	// Read-only browse endpoints for dashboards and printouts.
	v1 := e.Group("/v1")
	v1.GET("/sessions/:id/state", sessions.GetState)
	v1.GET("/sessions/:id/tables", sessions.GetTables)
	v1.GET("/sessions/:id/timeline", sessions.GetTimeline)
}
