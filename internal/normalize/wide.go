package normalize

import (
	"log/slog"
	"strconv"

	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/metrics"
)

// Column map for the wide production layout: one row per line.
const (
	wideColFactory = iota
	wideColCode
	wideColName
	wideColProduct
	wideColPlanned
	wideColActual
	wideColDefect
	wideColEfficiency
	wideColAttendance
	wideColWorkers
	wideColNote
)

// Column map for the companion checkpoint detail sheet. The two sheets are
// not row-aligned, so detail rows are joined to lines by code, never by
// position.
const (
	detailColCode = iota
	detailColSlot
	detailColLabel
	detailColOutput
	detailColCumulative
	detailColDefectSewing
	detailColDefectFabric
	detailColDefectOther
)

// parseWide normalizes the wide production layout. main holds one row per
// line; detail holds per-checkpoint rows keyed by line code.
func (n *Normalizer) parseWide(main, detail [][]string) []domain.LineRecord {
	main = FillForward(main, wideColFactory)
	slots := n.parseDetailSlots(detail)

	var records []domain.LineRecord
	for i, row := range main {
		code := cell(row, wideColCode)
		if code == "" {
			continue
		}
		factory := cell(row, wideColFactory)
		if n.factory != "" && factory != n.factory {
			continue
		}
		if len(row) <= wideColProduct {
			slog.Warn("Skipping malformed production row",
				"factory", factory, "row", i, "cells", len(row))
			metrics.MalformedRowsTotal.WithLabelValues(string(domain.FamilyProduction)).Inc()
			continue
		}

		rec := domain.LineRecord{
			Key:         code,
			Factory:     factory,
			Family:      domain.FamilyProduction,
			Name:        cell(row, wideColName),
			Product:     cell(row, wideColProduct),
			PlannedQty:  ParseNumber(cell(row, wideColPlanned)),
			ActualQty:   ParseNumber(cell(row, wideColActual)),
			DefectQty:   ParseNumber(cell(row, wideColDefect)),
			Efficiency:  ParseNumber(cell(row, wideColEfficiency)),
			Attendance:  ParseNumber(cell(row, wideColAttendance)),
			WorkerCount: ParseNumber(cell(row, wideColWorkers)),
			Note:        cell(row, wideColNote),
			Slots:       slots[code],
		}
		records = append(records, rec)
		metrics.RowsParsedTotal.WithLabelValues(string(domain.FamilyProduction)).Inc()
	}
	return records
}

// parseDetailSlots groups checkpoint rows by line code. Rows with an
// unparseable slot index are dropped individually.
func (n *Normalizer) parseDetailSlots(detail [][]string) map[string][]domain.SlotRecord {
	detail = FillForward(detail, detailColCode)

	slots := make(map[string][]domain.SlotRecord)
	for i, row := range detail {
		code := cell(row, detailColCode)
		if code == "" {
			continue
		}
		idx, err := strconv.Atoi(cell(row, detailColSlot))
		if err != nil || idx < 1 || idx > domain.SlotsPerDay {
			slog.Warn("Skipping detail row with bad slot index",
				"code", code, "row", i, "slot", cell(row, detailColSlot))
			metrics.MalformedRowsTotal.WithLabelValues(string(domain.FamilyProduction)).Inc()
			continue
		}
		slots[code] = append(slots[code], domain.SlotRecord{
			Index:        idx,
			Label:        cell(row, detailColLabel),
			Output:       ParseNumber(cell(row, detailColOutput)),
			Cumulative:   ParseNumber(cell(row, detailColCumulative)),
			DefectSewing: ParseNumber(cell(row, detailColDefectSewing)),
			DefectFabric: ParseNumber(cell(row, detailColDefectFabric)),
			DefectOther:  ParseNumber(cell(row, detailColDefectOther)),
		})
	}

	// Slot order inside a record must be stable for fingerprinting.
	for code := range slots {
		sortSlots(slots[code])
	}
	return slots
}

func sortSlots(s []domain.SlotRecord) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1].Index > s[j].Index; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
