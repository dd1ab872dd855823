// Package fingerprint derives a compact comparison token from the monitored
// fields of a line record. Equal monitored fields yield equal tokens no
// matter how the record was constructed; any monitored difference yields a
// different token. The encoding is not cryptographic; it only has to be
// deterministic and cheap to compare.
package fingerprint

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/linepulse/linepulse/internal/domain"
)

const (
	fieldSep = "|"
	slotSep  = ";"
	valueSep = ","
)

// Token serializes the monitored fields of rec in a fixed order and encodes
// the result. Cosmetic fields (Note) are deliberately excluded so editing
// them does not trigger spurious change events.
func Token(rec *domain.LineRecord) string {
	var b strings.Builder

	// The field order here is the contract: changing it invalidates every
	// stored fingerprint and forces one full wave of "updated" events.
	writeField(&b, rec.Key)
	writeField(&b, rec.Factory)
	writeField(&b, string(rec.Family))
	writeField(&b, rec.SubKey)
	writeField(&b, rec.Name)
	writeField(&b, rec.Product)
	writeNumber(&b, rec.PlannedQty)
	writeNumber(&b, rec.ActualQty)
	writeNumber(&b, rec.DefectQty)
	writeNumber(&b, rec.Efficiency)
	writeNumber(&b, rec.Attendance)
	writeNumber(&b, rec.WorkerCount)

	for i := range rec.Slots {
		slot := &rec.Slots[i]
		b.WriteString(slotSep)
		b.WriteString(strconv.Itoa(slot.Index))
		b.WriteString(valueSep)
		b.WriteString(number(slot.Output))
		b.WriteString(valueSep)
		b.WriteString(number(slot.Cumulative))
		b.WriteString(valueSep)
		b.WriteString(number(slot.DefectSewing))
		b.WriteString(valueSep)
		b.WriteString(number(slot.DefectFabric))
		b.WriteString(valueSep)
		b.WriteString(number(slot.DefectOther))
	}

	return base64.StdEncoding.EncodeToString([]byte(b.String()))
}

func writeField(b *strings.Builder, v string) {
	if b.Len() > 0 {
		b.WriteString(fieldSep)
	}
	b.WriteString(v)
}

func writeNumber(b *strings.Builder, v float64) {
	writeField(b, number(v))
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
