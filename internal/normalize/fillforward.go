package normalize

import "strings"

// FillForward copies grid and fills blank cells in the given columns with
// the most recent non-blank value above them. Upstream sheets only state a
// factory or line label on the first row of a run; every later row of the
// run leaves the cell empty.
func FillForward(grid [][]string, cols ...int) [][]string {
	out := make([][]string, len(grid))
	last := make(map[int]string, len(cols))

	for i, row := range grid {
		out[i] = append([]string(nil), row...)
		for _, col := range cols {
			if col >= len(out[i]) {
				continue
			}
			cell := strings.TrimSpace(out[i][col])
			if cell == "" {
				out[i][col] = last[col]
			} else {
				last[col] = cell
			}
		}
	}
	return out
}

// cell returns the trimmed value at (row, col), or "" when the grid is
// ragged and the cell does not exist.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
