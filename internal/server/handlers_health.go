package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/linepulse/linepulse/internal/domain"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]string{"status": "alive"})
}

// handleReadiness reports per-family snapshot depth. The process is ready as
// soon as it is serving; an empty snapshot just means no cycle has completed
// yet, which clients can see from the counts.
func (s *Server) handleReadiness(c echo.Context) error {
	families := map[string]int{}
	for _, family := range []domain.SchemaFamily{domain.FamilyProduction, domain.FamilyTeams, domain.FamilyProducts} {
		families[string(family)] = len(s.store.Keys(family))
	}
	return respond(c, http.StatusOK, map[string]any{
		"status":    "ready",
		"snapshots": families,
	})
}
