package netifc

import (
	"github.com/usnistgov/netifc/bufpool"
)

// DefaultMaxCandidates is the default limit of devices considered by discovery.
const DefaultMaxCandidates = 32

// Config contains Session configuration.
// Zero values are replaced by defaults.
type Config struct {
	// BufferPages is the number of pages reserved for the buffer pool.
	// Default is 8.
	BufferPages int `json:"bufferPages,omitempty"`

	// PageSize is the platform page size in octets.
	// Default is 4096.
	PageSize int `json:"pageSize,omitempty"`

	// SlotSize is the buffer slot size in octets.
	// It must be a power of two, at least 1516.
	// Default is 2048.
	SlotSize int `json:"slotSize,omitempty"`

	// MaxCandidates limits how many enumerated devices are considered.
	// Default is 32.
	MaxCandidates int `json:"maxCandidates,omitempty"`
}

func (cfg *Config) applyDefaults() {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	pc := cfg.poolConfig()
	pc.ApplyDefaults()
	cfg.BufferPages, cfg.PageSize, cfg.SlotSize = pc.PageCount, pc.PageSize, pc.SlotSize
}

func (cfg Config) poolConfig() bufpool.Config {
	return bufpool.Config{
		PageCount: cfg.BufferPages,
		PageSize:  cfg.PageSize,
		SlotSize:  cfg.SlotSize,
	}
}
