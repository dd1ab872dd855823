package domain

// SchemaFamily identifies one of the three sheet layouts we track. Each
// family has its own parser in internal/normalize and its own range
// configuration per factory.
type SchemaFamily string

const (
	// FamilyProduction is the wide-row layout: one row per line on the main
	// sheet, with per-checkpoint detail rows on a companion sheet joined by
	// line code.
	FamilyProduction SchemaFamily = "production"
	// FamilyTeams is the parent + fixed-count-subrow layout: a line parent
	// row followed by a statically configured number of team rows.
	FamilyTeams SchemaFamily = "teams"
	// FamilyProducts is the fixed-block + variable-trailer layout: a team
	// marker row, a fixed set of named sub-rows, and an optional trailing
	// block of sample rows.
	FamilyProducts SchemaFamily = "products"
)

// ParseFamily converts a user-supplied family name. An empty string maps to
// FamilyProduction, which is what dashboard clients mean when they omit it.
func ParseFamily(s string) (SchemaFamily, error) {
	switch SchemaFamily(s) {
	case "":
		return FamilyProduction, nil
	case FamilyProduction, FamilyTeams, FamilyProducts:
		return SchemaFamily(s), nil
	default:
		return "", ErrUnknownFamily
	}
}

// SlotsPerDay is the number of fixed production checkpoints per day.
const SlotsPerDay = 11

// SlotRecord holds the counters for one production checkpoint of one line.
// Output is the instantaneous count for the slot, Cumulative the running
// total for the day.
type SlotRecord struct {
	Index        int     `json:"index"`
	Label        string  `json:"label"`
	Output       float64 `json:"output"`
	Cumulative   float64 `json:"cumulative"`
	DefectSewing float64 `json:"defectSewing"`
	DefectFabric float64 `json:"defectFabric"`
	DefectOther  float64 `json:"defectOther"`
}

// LineRecord is the normalized representation of one trackable unit: a
// production line, a team within a line, or a product group. It is rebuilt
// from scratch on every poll cycle and never mutated in place.
type LineRecord struct {
	// Key uniquely identifies the entity (line code, or line code plus team
	// suffix for FamilyTeams entities).
	Key string `json:"key"`
	// Factory is the owning group, used for coarse broadcast routing and to
	// restrict a process to its own subset of rows.
	Factory string `json:"factory"`
	Family  SchemaFamily `json:"family"`
	// SubKey selects the family-specific sub-room for FamilyTeams and
	// FamilyProducts entities. Empty for plain lines.
	SubKey string `json:"subKey,omitempty"`

	Name        string  `json:"name"`
	Product     string  `json:"product"`
	PlannedQty  float64 `json:"plannedQty"`
	ActualQty   float64 `json:"actualQty"`
	DefectQty   float64 `json:"defectQty"`
	Efficiency  float64 `json:"efficiency"`
	Attendance  float64 `json:"attendance"`
	WorkerCount float64 `json:"workerCount"`

	// Note carries free-text annotations from the sheet. It is displayed but
	// intentionally excluded from the fingerprint, so editing it does not
	// trigger a change event.
	Note string `json:"note,omitempty"`

	Slots []SlotRecord `json:"slots,omitempty"`
}

// Slot returns the slot with the given index, or nil.
func (r *LineRecord) Slot(index int) *SlotRecord {
	for i := range r.Slots {
		if r.Slots[i].Index == index {
			return &r.Slots[i]
		}
	}
	return nil
}
