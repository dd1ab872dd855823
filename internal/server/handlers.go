package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/linepulse/linepulse/internal/domain"
	apperrors "github.com/linepulse/linepulse/internal/errors"
)

// handleGetLine serves one entity by key. Query parameters:
//
//	family   schema family, defaults to production
//	factory  optional assertion that the caller means this process's factory
//	slot     restrict the response to one checkpoint slot
//	fresh    "1"/"true" bypasses both the snapshot and the range cache
//
// Tracked entities are served from the snapshot; anything else is fetched
// lazily through the cached read path.
func (s *Server) handleGetLine(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return apperrors.ValidationError("line code is required")
	}

	family, err := domain.ParseFamily(c.QueryParam("family"))
	if err != nil {
		return apperrors.ValidationError("unknown family").WithField("family", c.QueryParam("family"))
	}

	if factory := c.QueryParam("factory"); factory != "" && factory != s.factory {
		return apperrors.NotFoundError("factory not served by this process").WithField("factory", factory)
	}

	fresh := isTruthy(c.QueryParam("fresh"))

	record := s.snapshotRecord(family, code, fresh)
	if record == nil {
		fetched, err := s.reader.Lookup(c.Request().Context(), family, code, fresh)
		if err != nil {
			return lookupError(err, family, code)
		}
		record = fetched
	}

	if slotParam := c.QueryParam("slot"); slotParam != "" {
		index, err := strconv.Atoi(slotParam)
		if err != nil || index < 1 || index > domain.SlotsPerDay {
			return apperrors.ValidationError("invalid slot index").WithField("slot", slotParam)
		}
		slot := record.Slot(index)
		if slot == nil {
			return apperrors.NotFoundError("slot has no data").WithField("slot", slotParam)
		}
		return respond(c, http.StatusOK, map[string]any{"key": record.Key, "slot": slot})
	}

	return respond(c, http.StatusOK, record)
}

// snapshotRecord serves the fast path: a tracked entity is returned straight
// from the snapshot without touching upstream. Fresh reads always go through
// the fetch path.
func (s *Server) snapshotRecord(family domain.SchemaFamily, code string, fresh bool) *domain.LineRecord {
	if fresh {
		return nil
	}
	entry, ok := s.store.Get(code)
	if !ok || entry.Record.Family != family {
		return nil
	}
	rec := entry.Record
	return &rec
}

func lookupError(err error, family domain.SchemaFamily, code string) error {
	switch {
	case errors.Is(err, domain.ErrLineNotFound):
		return apperrors.NotFoundError("line not found").WithField("code", code)
	case errors.Is(err, domain.ErrUnknownFamily):
		return apperrors.ValidationError("family not configured").WithField("family", string(family))
	default:
		return apperrors.UpstreamError("line lookup failed", err).WithField("code", code)
	}
}

// handleGetFactoryLines serves every entity of one family for a factory.
// This process only holds data for its own configured factory, so any other
// factory value is a 404 rather than an empty list.
func (s *Server) handleGetFactoryLines(c echo.Context) error {
	factory := c.Param("factory")
	if factory != s.factory {
		return apperrors.NotFoundError("factory not served by this process").WithField("factory", factory)
	}

	family, err := domain.ParseFamily(c.QueryParam("family"))
	if err != nil {
		return apperrors.ValidationError("unknown family").WithField("family", c.QueryParam("family"))
	}

	records, err := s.reader.FactoryLines(c.Request().Context(), family, isTruthy(c.QueryParam("fresh")))
	if err != nil {
		if errors.Is(err, domain.ErrUnknownFamily) {
			return apperrors.ValidationError("family not configured").WithField("family", string(family))
		}
		return apperrors.UpstreamError("factory listing failed", err)
	}

	return respond(c, http.StatusOK, map[string]any{
		"factory": factory,
		"family":  family,
		"count":   len(records),
		"lines":   records,
	})
}

// handleCheck triggers an out-of-band poll cycle for one family, or for all
// families when the path parameter is absent. force=1 skips the spacing
// floor between cycles.
func (s *Server) handleCheck(c echo.Context) error {
	var family domain.SchemaFamily
	if raw := c.Param("family"); raw != "" {
		parsed, err := domain.ParseFamily(raw)
		if err != nil {
			return apperrors.ValidationError("unknown family").WithField("family", raw)
		}
		family = parsed
	}

	summary, err := s.trigger.TriggerNow(c.Request().Context(), family, isTruthy(c.QueryParam("force")))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCycleThrottled):
			return apperrors.ThrottledError("a cycle ran too recently, retry later or pass force=1")
		case errors.Is(err, domain.ErrUnknownFamily):
			return apperrors.ValidationError("family not configured").WithField("family", string(family))
		default:
			return apperrors.InternalError("manual cycle failed", err)
		}
	}

	return respond(c, http.StatusOK, summary)
}

func isTruthy(s string) bool {
	return s == "1" || s == "true"
}
