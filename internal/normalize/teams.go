package normalize

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/metrics"
)

// Column map for the parent + fixed-count team-row layout. A parent row
// carries the line code and a "LINE"-prefixed label; the team rows that
// follow leave the code column blank.
const (
	teamColCode = iota
	teamColLabel
	teamColProduct
	teamColPlanned
	teamColActual
	teamColDefect
	teamColEfficiency
	teamColAttendance
	teamColWorkers
	teamColNote
)

const parentMarkerPrefix = "LINE"

// TeamCounts statically configures how many team rows follow each parent
// line row. The count is configuration, not a dynamic scan: the sheet gives
// no terminator, so the expected count is the only safe group boundary.
type TeamCounts map[string]int

// ParseTeamCounts parses the TEAM_COUNTS syntax "L1:4,L2:4,L3:3".
func ParseTeamCounts(raw string) (TeamCounts, error) {
	counts := make(TeamCounts)
	if strings.TrimSpace(raw) == "" {
		return counts, nil
	}
	for _, clause := range strings.Split(raw, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		parts := strings.SplitN(clause, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("team count %q: want key:count", clause)
		}
		nTeams, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || nTeams < 1 {
			return nil, fmt.Errorf("team count %q: bad count", clause)
		}
		counts[strings.TrimSpace(parts[0])] = nTeams
	}
	return counts, nil
}

// isParentRow reports whether row starts a new line group: a non-empty code
// plus a "LINE"-prefixed label.
func isParentRow(row []string) bool {
	return cell(row, teamColCode) != "" &&
		strings.HasPrefix(strings.ToUpper(cell(row, teamColLabel)), parentMarkerPrefix)
}

// parseTeams normalizes the parent + fixed-count-subrow layout. Each team
// row becomes one record keyed "<lineCode>-T<index>". If a new parent
// appears before the configured count is reached, the group is cut short
// with a mismatch warning rather than overrunning into the next group.
func (n *Normalizer) parseTeams(grid [][]string) []domain.LineRecord {
	var records []domain.LineRecord

	for i := 0; i < len(grid); {
		row := grid[i]
		if !isParentRow(row) {
			i++
			continue
		}

		lineCode := cell(row, teamColCode)
		expected, ok := n.teamCounts[lineCode]
		if !ok {
			slog.Warn("No team count configured for line, skipping group",
				"line", lineCode, "row", i)
			metrics.MalformedRowsTotal.WithLabelValues(string(domain.FamilyTeams)).Inc()
			i++
			continue
		}

		group := make([]domain.LineRecord, 0, expected)
		collected := 0
		j := i + 1
		for ; j < len(grid) && collected < expected; j++ {
			if isParentRow(grid[j]) {
				break
			}
			teamRow := grid[j]
			collected++
			group = append(group, domain.LineRecord{
				Key:         fmt.Sprintf("%s-T%d", lineCode, collected),
				Factory:     n.factory,
				Family:      domain.FamilyTeams,
				SubKey:      strconv.Itoa(collected),
				Name:        cell(teamRow, teamColLabel),
				Product:     cell(teamRow, teamColProduct),
				PlannedQty:  ParseNumber(cell(teamRow, teamColPlanned)),
				ActualQty:   ParseNumber(cell(teamRow, teamColActual)),
				DefectQty:   ParseNumber(cell(teamRow, teamColDefect)),
				Efficiency:  ParseNumber(cell(teamRow, teamColEfficiency)),
				Attendance:  ParseNumber(cell(teamRow, teamColAttendance)),
				WorkerCount: ParseNumber(cell(teamRow, teamColWorkers)),
				Note:        cell(teamRow, teamColNote),
			})
			metrics.RowsParsedTotal.WithLabelValues(string(domain.FamilyTeams)).Inc()
		}

		if collected < expected {
			slog.Warn("Team group shorter than configured count",
				"line", lineCode, "expected", expected, "actual", collected)
			metrics.SubrowMismatchesTotal.Inc()
		}

		records = append(records, n.rules.applyMerges(domain.FamilyTeams, lineCode, group)...)
		i = j
	}
	return records
}
