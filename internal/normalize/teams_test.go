package normalize

import (
	"testing"

	"github.com/linepulse/linepulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamParent(code, label string) []string {
	return []string{code, label}
}

func teamRow(label, product, planned, actual string) []string {
	return []string{"", label, product, planned, actual, "0", "90", "95", "10", ""}
}

func TestParseTeamCounts(t *testing.T) {
	counts, err := ParseTeamCounts("L1:4, L2:3 ,L3:2")
	require.NoError(t, err)
	assert.Equal(t, TeamCounts{"L1": 4, "L2": 3, "L3": 2}, counts)

	counts, err = ParseTeamCounts("")
	require.NoError(t, err)
	assert.Empty(t, counts)

	_, err = ParseTeamCounts("L1")
	assert.Error(t, err)

	_, err = ParseTeamCounts("L1:zero")
	assert.Error(t, err)

	_, err = ParseTeamCounts("L1:0")
	assert.Error(t, err)
}

func TestParseTeams_FixedCountBoundary(t *testing.T) {
	n := New("F1", TeamCounts{"L1": 2, "L2": 1}, nil, "")

	// L1's group carries a third row, which must not be swallowed into the
	// group: the configured count is the boundary.
	records, err := n.Normalize(domain.FamilyTeams, Grids{
		Main: [][]string{
			teamParent("L1", "LINE 1"),
			teamRow("Team A", "p", "100", "50"),
			teamRow("Team B", "p", "100", "60"),
			teamRow("stray row", "p", "999", "999"),
			teamParent("L2", "LINE 2"),
			teamRow("Team C", "p", "100", "70"),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "L1-T1", records[0].Key)
	assert.Equal(t, "1", records[0].SubKey)
	assert.Equal(t, "Team A", records[0].Name)
	assert.Equal(t, "L1-T2", records[1].Key)
	assert.Equal(t, "L2-T1", records[2].Key)
	assert.Equal(t, 70.0, records[2].ActualQty)
}

func TestParseTeams_EarlyParentCutsGroupShort(t *testing.T) {
	n := New("F1", TeamCounts{"L1": 4, "L2": 1}, nil, "")

	// L1 is configured for 4 teams but a new parent appears after 2. The
	// group stops there instead of consuming L2's rows.
	records, err := n.Normalize(domain.FamilyTeams, Grids{
		Main: [][]string{
			teamParent("L1", "LINE 1"),
			teamRow("Team A", "p", "1", "1"),
			teamRow("Team B", "p", "1", "1"),
			teamParent("L2", "LINE 2"),
			teamRow("Team C", "p", "1", "1"),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "L1-T1", records[0].Key)
	assert.Equal(t, "L1-T2", records[1].Key)
	assert.Equal(t, "L2-T1", records[2].Key)
}

func TestParseTeams_UnconfiguredLineIsSkipped(t *testing.T) {
	n := New("F1", TeamCounts{"L2": 1}, nil, "")

	records, err := n.Normalize(domain.FamilyTeams, Grids{
		Main: [][]string{
			teamParent("L1", "LINE 1"),
			teamRow("Team A", "p", "1", "1"),
			teamParent("L2", "LINE 2"),
			teamRow("Team B", "p", "1", "1"),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "L2-T1", records[0].Key)
}

func TestParseTeams_ParentMarkerIsCaseInsensitive(t *testing.T) {
	n := New("F1", TeamCounts{"L1": 1}, nil, "")

	records, err := n.Normalize(domain.FamilyTeams, Grids{
		Main: [][]string{
			teamParent("L1", "Line 1"),
			teamRow("Team A", "p", "1", "1"),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestParseTeams_NonParentPreambleIgnored(t *testing.T) {
	n := New("F1", TeamCounts{"L1": 1}, nil, "")

	records, err := n.Normalize(domain.FamilyTeams, Grids{
		Main: [][]string{
			{"", "some header"},
			{"", ""},
			teamParent("L1", "LINE 1"),
			teamRow("Team A", "p", "1", "1"),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
}
