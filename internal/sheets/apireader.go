package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/linepulse/linepulse/internal/domain"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// APIReader reads ranges from the Google Sheets API. It only translates:
// throttling, retries, and degradation live in Client.
type APIReader struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// NewAPIReader builds a reader bound to one spreadsheet. The sheetID
// parameter of ReadRange overrides the default spreadsheet when non-empty,
// since a deployment may split families across documents.
func NewAPIReader(ctx context.Context, apiKey, spreadsheetID string) (*APIReader, error) {
	svc, err := sheetsapi.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &APIReader{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (r *APIReader) ReadRange(ctx context.Context, sheetID, rangeSpec string) ([][]string, error) {
	id := sheetID
	if id == "" {
		id = r.spreadsheetID
	}

	resp, err := r.svc.Spreadsheets.Values.Get(id, rangeSpec).Context(ctx).Do()
	if err != nil {
		if isQuotaError(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("read range %s!%s: %w", id, rangeSpec, err)
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

// isQuotaError recognizes the upstream's rate-quota rejection: HTTP 429, or
// 403 with a rate-limit reason.
func isQuotaError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == 429 {
		return true
	}
	if apiErr.Code == 403 {
		msg := strings.ToLower(apiErr.Message)
		return strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit")
	}
	return false
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// NullReader serves empty grids. It replaces the API reader when credentials
// are missing, so the rest of the process (HTTP surface, health checks)
// stays up on degraded data instead of crashing at startup.
type NullReader struct{}

func (NullReader) ReadRange(context.Context, string, string) ([][]string, error) {
	return nil, nil
}

var _ domain.RangeReader = (*APIReader)(nil)
var _ domain.RangeReader = NullReader{}
