package reader

import (
	"errors"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DefaultBatchSize is the number of rows per batch used when none is configured.
const DefaultBatchSize = 65536

// Config configures a Reader. The CLI fills it from its YAML config file and
// its own flags.
type Config struct {
	// BatchSize is the maximum number of rows per emitted batch. Every batch
	// but the last holds exactly BatchSize rows.
	BatchSize int `yaml:"batch_size"`

	// Allocator is used for the buffers of emitted batches. Defaults to
	// memory.DefaultAllocator.
	Allocator memory.Allocator `yaml:"-"`
}

func (cfg *Config) Validate() error {
	if cfg.BatchSize <= 0 {
		return errors.New("batch size must be greater than 0")
	}
	return nil
}

func (cfg *Config) allocator() memory.Allocator {
	if cfg.Allocator == nil {
		return memory.DefaultAllocator
	}
	return cfg.Allocator
}
