package normalize

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/metrics"
)

// Column map for the fixed-block + variable-trailer product layout.
const (
	productColCode = iota
	productColName
	productColAlt // second candidate column for the trailer marker
	productColProduct
	productColPlanned
	productColActual
	productColDefect
	productColEfficiency
	productColWorkers
	productColNote
)

const teamMarkerPrefix = "TEAM"

// fixedStages are the named sub-rows that follow every team marker, always
// present and always in this order.
var fixedStages = []string{"CUTTING", "SEWING", "FINISHING", "PACKING"}

// isTeamMarker reports whether row begins a new product group.
func isTeamMarker(row []string) bool {
	return cell(row, productColCode) != "" &&
		strings.HasPrefix(strings.ToUpper(cell(row, productColName)), teamMarkerPrefix)
}

// hasTrailerMarker reports whether the row belongs to the variable trailing
// block: a case-insensitive prefix match in either of two candidate columns.
func (n *Normalizer) hasTrailerMarker(row []string) bool {
	marker := strings.ToUpper(n.trailerMarker)
	if marker == "" {
		return false
	}
	return strings.HasPrefix(strings.ToUpper(cell(row, productColName)), marker) ||
		strings.HasPrefix(strings.ToUpper(cell(row, productColAlt)), marker)
}

// parseProducts normalizes the fixed-block + variable-trailer layout. Each
// group starts at a team marker row, is followed by the canonical fixed
// stages, and may carry a trailing block of marker rows. Trailer rows count
// only when their planned quantity is positive; the block logically ends at
// the next team marker.
func (n *Normalizer) parseProducts(grid [][]string) []domain.LineRecord {
	grid = FillForward(grid, productColCode)

	var records []domain.LineRecord
	for i := 0; i < len(grid); {
		if !isTeamMarker(grid[i]) {
			i++
			continue
		}

		teamCode := cell(grid[i], productColCode)
		group := make([]domain.LineRecord, 0, len(fixedStages))

		// Fixed block: always present, in canonical order. A short sheet
		// (fewer rows than stages) yields a truncated group plus a warning.
		j := i + 1
		for s := 0; s < len(fixedStages) && j < len(grid); s, j = s+1, j+1 {
			if isTeamMarker(grid[j]) {
				break
			}
			row := grid[j]
			stage := fixedStages[s]
			if got := strings.ToUpper(cell(row, productColName)); got != stage {
				slog.Warn("Unexpected stage row name",
					"team", teamCode, "row", j, "want", stage, "got", got)
				metrics.MalformedRowsTotal.WithLabelValues(string(domain.FamilyProducts)).Inc()
			}
			group = append(group, n.productRecord(teamCode, strings.ToLower(stage), strconv.Itoa(s+1), row))
		}
		if len(group) < len(fixedStages) {
			slog.Warn("Product group missing fixed stage rows",
				"team", teamCode, "expected", len(fixedStages), "actual", len(group))
			metrics.SubrowMismatchesTotal.Inc()
		}

		// Variable trailer: marker rows with positive planned quantity,
		// until the next team marker.
		trailerIdx := 0
		for ; j < len(grid); j++ {
			if isTeamMarker(grid[j]) {
				break
			}
			row := grid[j]
			if !n.hasTrailerMarker(row) {
				continue
			}
			if ParseNumber(cell(row, productColPlanned)) <= 0 {
				continue
			}
			trailerIdx++
			sub := fmt.Sprintf("x%d", trailerIdx)
			group = append(group, n.productRecord(teamCode, sub, sub, row))
		}

		records = append(records, n.rules.applyMerges(domain.FamilyProducts, teamCode, group)...)
		i = j
	}
	return records
}

func (n *Normalizer) productRecord(teamCode, slug, subKey string, row []string) domain.LineRecord {
	metrics.RowsParsedTotal.WithLabelValues(string(domain.FamilyProducts)).Inc()
	return domain.LineRecord{
		Key:         teamCode + "-" + slug,
		Factory:     n.factory,
		Family:      domain.FamilyProducts,
		SubKey:      subKey,
		Name:        cell(row, productColName),
		Product:     cell(row, productColProduct),
		PlannedQty:  ParseNumber(cell(row, productColPlanned)),
		ActualQty:   ParseNumber(cell(row, productColActual)),
		DefectQty:   ParseNumber(cell(row, productColDefect)),
		Efficiency:  ParseNumber(cell(row, productColEfficiency)),
		WorkerCount: ParseNumber(cell(row, productColWorkers)),
		Note:        cell(row, productColNote),
	}
}
