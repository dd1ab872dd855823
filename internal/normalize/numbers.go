package normalize

import (
	"strconv"
	"strings"
)

// Spreadsheet error tokens all normalize to zero rather than failing the row.
var errorTokens = map[string]struct{}{
	"#DIV/0!": {},
	"#N/A":    {},
	"#REF!":   {},
	"#VALUE!": {},
	"#NAME?":  {},
	"#NULL!":  {},
	"#NUM!":   {},
}

// ParseNumber converts a raw cell value into a float64. It tolerates
// thousands separators ("1,234"), comma-as-decimal ("12,5"), percent
// suffixes ("85%"), surrounding whitespace, and spreadsheet error tokens
// (which become 0). Unparseable values also become 0: upstream cells are
// operator-edited and a stray character must not kill the whole entity.
func ParseNumber(cell string) float64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0
	}
	if _, ok := errorTokens[strings.ToUpper(s)]; ok {
		return 0
	}

	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, " ", "")

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		// The separator that appears last is the decimal one.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		// A single comma followed by a non-3-digit tail is a decimal comma;
		// anything else is thousands grouping.
		if strings.Count(s, ",") == 1 && len(s)-strings.Index(s, ",")-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		// Multiple dots can only be thousands grouping.
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
