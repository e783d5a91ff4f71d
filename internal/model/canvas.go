package model

// Canvas dimensions and fixed behavioral constants. These are part of the
// wire contract with the client, not tunables.
const (
	// GridSize is the side length of the square pixel grid.
	GridSize = 64

	// DefaultColor fills every cell of a fresh grid.
	DefaultColor = "#FFFFFF"

	// ChatHistoryCap bounds the retained chat log.
	ChatHistoryCap = 10

	// LeaderboardSize is how many entries a leaderboard broadcast carries.
	LeaderboardSize = 10
)

// Grid is a row-major square matrix of pixel colors, indexed grid[y][x].
// Every cell always holds a canonical #RRGGBB color string.
type Grid [][]string

// NewGrid returns a GridSize x GridSize grid filled with DefaultColor.
func NewGrid() Grid {
	g := make(Grid, GridSize)
	for y := range g {
		row := make([]string, GridSize)
		for x := range row {
			row[x] = DefaultColor
		}
		g[y] = row
	}
	return g
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for y, row := range g {
		out[y] = make([]string, len(row))
		copy(out[y], row)
	}
	return out
}

// WellFormed reports whether the grid has the expected square dimensions.
// Used to defend against malformed snapshots.
func (g Grid) WellFormed() bool {
	if len(g) != GridSize {
		return false
	}
	for _, row := range g {
		if len(row) != GridSize {
			return false
		}
	}
	return true
}
