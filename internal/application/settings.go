package application

import (
	"time"

	"github.com/devbush/stockdesk/internal/batch"
)

// BatchSettings holds the chunking parameters every bulk operation uses.
type BatchSettings struct {
	ChunkSize       int
	InterChunkDelay time.Duration
}

// DefaultBatchSettings mirrors the runner defaults.
func DefaultBatchSettings() BatchSettings {
	return BatchSettings{
		ChunkSize:       batch.DefaultChunkSize,
		InterChunkDelay: batch.DefaultInterChunkDelay,
	}
}

func (s BatchSettings) options(label string, onProgress batch.ProgressFunc) batch.Options {
	return batch.Options{
		ChunkSize:       s.ChunkSize,
		InterChunkDelay: s.InterChunkDelay,
		Label:           label,
		OnProgress:      onProgress,
	}
}
