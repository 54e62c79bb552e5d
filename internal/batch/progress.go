package batch

import "time"

// percentMultiplier converts a ratio to a percentage.
const percentMultiplier = 100

// Progress is a point-in-time snapshot delivered after each chunk.
type Progress struct {
	Label string

	// Processed counts items whose operation has settled, cumulatively.
	Processed int
	Total     int
	Succeeded int
	Failed    int

	// ChunkIndex is 0-based.
	ChunkIndex  int
	TotalChunks int

	Elapsed time.Duration
}

// Percent returns the completion percentage (0-100).
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Processed) / float64(p.Total) * percentMultiplier
}

// Done reports whether every item has been processed.
func (p Progress) Done() bool {
	return p.Processed >= p.Total
}

// Remaining estimates the time left from the average time per item so far.
// It returns 0 before anything has been processed.
func (p Progress) Remaining() time.Duration {
	if p.Processed == 0 {
		return 0
	}
	perItem := p.Elapsed / time.Duration(p.Processed)
	return perItem * time.Duration(p.Total-p.Processed)
}
