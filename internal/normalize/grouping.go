package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/linepulse/linepulse/internal/domain"
)

// GroupingRules maps a family plus parent key to the list of sub-entity
// index pairs that should be merged into one record. Loaded once at startup,
// consulted only during normalization, never part of change detection.
type GroupingRules map[groupingKey][][2]int

type groupingKey struct {
	Family domain.SchemaFamily
	Parent string
}

// ParseGroupingRules parses the GROUPING_RULES syntax:
//
//	teams:L1:1-2,3-4;products:L2:1-2
//
// i.e. semicolon-separated "family:parentKey:pairList" clauses where each
// pair is "a-b" with 1-based sub-entity indexes.
func ParseGroupingRules(raw string) (GroupingRules, error) {
	rules := make(GroupingRules)
	if strings.TrimSpace(raw) == "" {
		return rules, nil
	}

	for _, clause := range strings.Split(raw, ";") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		parts := strings.SplitN(clause, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("grouping rule %q: want family:parent:pairs", clause)
		}
		family := domain.SchemaFamily(strings.TrimSpace(parts[0]))
		switch family {
		case domain.FamilyTeams, domain.FamilyProducts:
		default:
			return nil, fmt.Errorf("grouping rule %q: unknown family %q", clause, parts[0])
		}
		parent := strings.TrimSpace(parts[1])
		if parent == "" {
			return nil, fmt.Errorf("grouping rule %q: empty parent key", clause)
		}

		var pairs [][2]int
		for _, p := range strings.Split(parts[2], ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			ab := strings.SplitN(p, "-", 2)
			if len(ab) != 2 {
				return nil, fmt.Errorf("grouping rule %q: bad pair %q", clause, p)
			}
			a, errA := strconv.Atoi(strings.TrimSpace(ab[0]))
			b, errB := strconv.Atoi(strings.TrimSpace(ab[1]))
			if errA != nil || errB != nil || a < 1 || b < 1 || a == b {
				return nil, fmt.Errorf("grouping rule %q: bad pair %q", clause, p)
			}
			pairs = append(pairs, [2]int{a, b})
		}
		if len(pairs) == 0 {
			return nil, fmt.Errorf("grouping rule %q: no pairs", clause)
		}
		rules[groupingKey{Family: family, Parent: parent}] = pairs
	}
	return rules, nil
}

// pairsFor returns the merge pairs configured for the given parent, or nil.
func (g GroupingRules) pairsFor(family domain.SchemaFamily, parent string) [][2]int {
	return g[groupingKey{Family: family, Parent: parent}]
}

// applyMerges folds configured sub-entity pairs of one parent group into
// single records. The merged record keeps the first member's identity with a
// combined sub-key ("1+2"), sums the quantity metrics, and averages the
// ratio metrics. Slots are summed index-wise.
func (g GroupingRules) applyMerges(family domain.SchemaFamily, parent string, recs []domain.LineRecord) []domain.LineRecord {
	pairs := g.pairsFor(family, parent)
	if len(pairs) == 0 {
		return recs
	}

	byIndex := make(map[int]*domain.LineRecord, len(recs))
	for i := range recs {
		idx, err := strconv.Atoi(recs[i].SubKey)
		if err != nil {
			continue
		}
		byIndex[idx] = &recs[i]
	}

	merged := make(map[int]bool)
	for _, pair := range pairs {
		a, ok := byIndex[pair[0]]
		if !ok {
			continue
		}
		b, ok := byIndex[pair[1]]
		if !ok {
			continue
		}
		mergeInto(a, b)
		a.SubKey = fmt.Sprintf("%d+%d", pair[0], pair[1])
		merged[pair[1]] = true
	}

	out := recs[:0]
	for i := range recs {
		idx, err := strconv.Atoi(recs[i].SubKey)
		if err == nil && merged[idx] {
			continue
		}
		out = append(out, recs[i])
	}
	return out
}

func mergeInto(a, b *domain.LineRecord) {
	a.Name = a.Name + "+" + b.Name
	a.PlannedQty += b.PlannedQty
	a.ActualQty += b.ActualQty
	a.DefectQty += b.DefectQty
	a.WorkerCount += b.WorkerCount
	a.Efficiency = (a.Efficiency + b.Efficiency) / 2
	a.Attendance = (a.Attendance + b.Attendance) / 2

	for i := range b.Slots {
		if s := a.Slot(b.Slots[i].Index); s != nil {
			s.Output += b.Slots[i].Output
			s.Cumulative += b.Slots[i].Cumulative
			s.DefectSewing += b.Slots[i].DefectSewing
			s.DefectFabric += b.Slots[i].DefectFabric
			s.DefectOther += b.Slots[i].DefectOther
		} else {
			a.Slots = append(a.Slots, b.Slots[i])
		}
	}
}
