// Package server is the thin HTTP boundary: parameter parsing, dispatch to
// the poller and snapshot store, and the JSON response envelope. All real
// work happens in the pipeline packages.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/centrifugal/centrifuge"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/linepulse/linepulse/internal/domain"
	apperrors "github.com/linepulse/linepulse/internal/errors"
	"github.com/linepulse/linepulse/internal/snapshot"
)

// lineReader is the slice of the poller the handlers need.
type lineReader interface {
	Lookup(ctx context.Context, family domain.SchemaFamily, key string, fresh bool) (*domain.LineRecord, error)
	FactoryLines(ctx context.Context, family domain.SchemaFamily, fresh bool) ([]domain.LineRecord, error)
}

type Server struct {
	echo    *echo.Echo
	port    string
	factory string
	store   *snapshot.Store
	reader  lineReader
	trigger domain.CycleTrigger
	node    *centrifuge.Node
}

func NewServer(port, factory string, store *snapshot.Store, reader lineReader, trigger domain.CycleTrigger, node *centrifuge.Node) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Status >= 500 {
				c.Logger().Errorf("%s %s -> %d", c.Request().Method, v.URI, v.Status)
			}
			return nil
		},
	}))
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:    e,
		port:    port,
		factory: factory,
		store:   store,
		reader:  reader,
		trigger: trigger,
		node:    node,
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// respond writes the success half of the JSON envelope.
func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
