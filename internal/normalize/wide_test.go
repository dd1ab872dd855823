package normalize

import (
	"testing"

	"github.com/linepulse/linepulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wideRow(factory, code, name, product, planned, actual, defect, eff, att, workers, note string) []string {
	return []string{factory, code, name, product, planned, actual, defect, eff, att, workers, note}
}

func detailRow(code, slot, label, output, cumulative, ds, df, do string) []string {
	return []string{code, slot, label, output, cumulative, ds, df, do}
}

func TestParseWide_BasicRow(t *testing.T) {
	n := New("F1", nil, nil, "")

	records, err := n.Normalize(domain.FamilyProduction, Grids{
		Main: [][]string{
			wideRow("F1", "L1", "Line One", "Jacket", "1,200", "850", "12", "85%", "96%", "42", "note text"),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "L1", rec.Key)
	assert.Equal(t, "F1", rec.Factory)
	assert.Equal(t, domain.FamilyProduction, rec.Family)
	assert.Equal(t, "Line One", rec.Name)
	assert.Equal(t, "Jacket", rec.Product)
	assert.Equal(t, 1200.0, rec.PlannedQty)
	assert.Equal(t, 850.0, rec.ActualQty)
	assert.Equal(t, 12.0, rec.DefectQty)
	assert.Equal(t, 85.0, rec.Efficiency)
	assert.Equal(t, 96.0, rec.Attendance)
	assert.Equal(t, 42.0, rec.WorkerCount)
	assert.Equal(t, "note text", rec.Note)
}

func TestParseWide_FactoryFilterWithFillForward(t *testing.T) {
	n := New("F1", nil, nil, "")

	// The factory column is only stated on the first row of a run; blank
	// rows below it belong to the same factory.
	records, err := n.Normalize(domain.FamilyProduction, Grids{
		Main: [][]string{
			wideRow("F1", "L1", "a", "p", "1", "1", "0", "1", "1", "1", ""),
			wideRow("", "L2", "b", "p", "1", "1", "0", "1", "1", "1", ""),
			wideRow("F2", "L3", "c", "p", "1", "1", "0", "1", "1", "1", ""),
			wideRow("", "L4", "d", "p", "1", "1", "0", "1", "1", "1", ""),
		},
	})
	require.NoError(t, err)

	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"L1", "L2"}, keys)
}

func TestParseWide_SkipsRowsWithoutCode(t *testing.T) {
	n := New("F1", nil, nil, "")

	records, err := n.Normalize(domain.FamilyProduction, Grids{
		Main: [][]string{
			wideRow("F1", "", "header-ish", "", "", "", "", "", "", "", ""),
			wideRow("F1", "L1", "a", "p", "1", "1", "0", "1", "1", "1", ""),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "L1", records[0].Key)
}

func TestParseWide_SkipsTruncatedRow(t *testing.T) {
	n := New("F1", nil, nil, "")

	records, err := n.Normalize(domain.FamilyProduction, Grids{
		Main: [][]string{
			{"F1", "L1", "a"}, // cut off before the product column
			wideRow("F1", "L2", "b", "p", "1", "1", "0", "1", "1", "1", ""),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "L2", records[0].Key)
}

func TestParseWide_JoinsDetailByCodeNotPosition(t *testing.T) {
	n := New("F1", nil, nil, "")

	// Detail rows come in a different order than the main sheet rows.
	records, err := n.Normalize(domain.FamilyProduction, Grids{
		Main: [][]string{
			wideRow("F1", "L1", "a", "p", "1", "1", "0", "1", "1", "1", ""),
			wideRow("F1", "L2", "b", "p", "1", "1", "0", "1", "1", "1", ""),
		},
		Detail: [][]string{
			detailRow("L2", "1", "08:00", "50", "50", "1", "0", "0"),
			detailRow("L1", "2", "09:00", "60", "110", "0", "2", "0"),
			detailRow("L1", "1", "08:00", "55", "55", "0", "0", "1"),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	l1 := records[0]
	require.Len(t, l1.Slots, 2)
	assert.Equal(t, 1, l1.Slots[0].Index, "slots must be sorted by index")
	assert.Equal(t, 55.0, l1.Slots[0].Output)
	assert.Equal(t, 2, l1.Slots[1].Index)
	assert.Equal(t, 110.0, l1.Slots[1].Cumulative)

	l2 := records[1]
	require.Len(t, l2.Slots, 1)
	assert.Equal(t, 50.0, l2.Slots[0].Output)
}

func TestParseWide_DropsDetailRowsWithBadSlotIndex(t *testing.T) {
	n := New("F1", nil, nil, "")

	records, err := n.Normalize(domain.FamilyProduction, Grids{
		Main: [][]string{
			wideRow("F1", "L1", "a", "p", "1", "1", "0", "1", "1", "1", ""),
		},
		Detail: [][]string{
			detailRow("L1", "0", "bad", "1", "1", "0", "0", "0"),
			detailRow("L1", "12", "bad", "1", "1", "0", "0", "0"),
			detailRow("L1", "abc", "bad", "1", "1", "0", "0", "0"),
			detailRow("L1", "3", "10:00", "70", "180", "0", "0", "0"),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Slots, 1)
	assert.Equal(t, 3, records[0].Slots[0].Index)
}

func TestParseWide_EmptyGridYieldsNoRecords(t *testing.T) {
	n := New("F1", nil, nil, "")

	records, err := n.Normalize(domain.FamilyProduction, Grids{})
	require.NoError(t, err)
	assert.Empty(t, records)
}
