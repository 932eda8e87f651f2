package latticeworld

import "github.com/TheBitDrifter/table"

// ChunkSize is the number of rows grouped into one chunk for epoch
// bookkeeping. Change-tracked iteration skips a whole chunk of unmodified
// rows with a single chunk_epoch comparison instead of one comparison per
// row; it also bounds the cost of stamping a write to three epoch writes
// (row, chunk, column) regardless of archetype size.
const ChunkSize = 64

// chunkOf returns the chunk index a row belongs to.
func chunkOf(row int) int {
	return row / ChunkSize
}

// numChunks returns how many chunks are needed to cover n rows.
func numChunks(n int) int {
	return (n + ChunkSize - 1) / ChunkSize
}

// Config holds global configuration for the table system.
var Config config = config{}

type config struct {
	tableEvents table.TableEvents
}

// SetTableEvents configures the table event callbacks forwarded to every
// archetype's underlying table.Table.
func (c *config) SetTableEvents(te table.TableEvents) {
	c.tableEvents = te
}
