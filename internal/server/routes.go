package server

import (
	"net/http"

	"github.com/centrifugal/centrifuge"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/lines/:code", s.handleGetLine)
	api.GET("/factories/:factory/lines", s.handleGetFactoryLines)
	api.POST("/check", s.handleCheck)
	api.POST("/check/:family", s.handleCheck)

	// TV clients connect here with no credentials; origin checks are moot on
	// the factory LAN.
	wsHandler := centrifuge.NewWebsocketHandler(s.node, centrifuge.WebsocketConfig{
		CheckOrigin: func(*http.Request) bool { return true },
	})
	s.echo.GET("/connection/websocket", echo.WrapHandler(wsHandler))
}
