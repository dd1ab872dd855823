// Package normalize converts raw rectangular cell grids into typed line
// records. Three sheet layouts are supported, each with its own column map
// and row-grouping rules: the wide production layout, the parent plus
// fixed-count team-row layout, and the fixed-block plus variable-trailer
// product layout. All three fill blank leading identifier cells forward and
// tolerate the numeric formats spreadsheets actually produce.
package normalize
