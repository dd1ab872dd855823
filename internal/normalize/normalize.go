package normalize

import (
	"fmt"

	"github.com/linepulse/linepulse/internal/domain"
)

// Grids carries the raw ranges one family needs. Only the wide production
// layout uses the Detail grid.
type Grids struct {
	Main   [][]string
	Detail [][]string
}

// Normalizer converts raw grids into line records for one factory. It is
// immutable after construction and safe for concurrent use.
type Normalizer struct {
	factory       string
	teamCounts    TeamCounts
	rules         GroupingRules
	trailerMarker string
}

func New(factory string, teamCounts TeamCounts, rules GroupingRules, trailerMarker string) *Normalizer {
	if teamCounts == nil {
		teamCounts = make(TeamCounts)
	}
	if rules == nil {
		rules = make(GroupingRules)
	}
	return &Normalizer{
		factory:       factory,
		teamCounts:    teamCounts,
		rules:         rules,
		trailerMarker: trailerMarker,
	}
}

// Normalize dispatches to the family's parser. An empty grid yields an empty
// record list, not an error: the fetch client degrades to empty grids on
// upstream failure and the cycle must carry on.
func (n *Normalizer) Normalize(family domain.SchemaFamily, grids Grids) ([]domain.LineRecord, error) {
	switch family {
	case domain.FamilyProduction:
		return n.parseWide(grids.Main, grids.Detail), nil
	case domain.FamilyTeams:
		return n.parseTeams(grids.Main), nil
	case domain.FamilyProducts:
		return n.parseProducts(grids.Main), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFamily, family)
	}
}
