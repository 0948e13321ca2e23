package bufpool

import (
	"errors"
	"fmt"
	"math/bits"
)

// Limits and defaults.
const (
	DefaultPageCount = 8
	DefaultPageSize  = 4096
	DefaultSlotSize  = 2048

	// MinSlotPayload is the minimum slot size, enough for an Ethernet frame with a VLAN header.
	MinSlotPayload = 1516
)

// Config contains Pool configuration.
type Config struct {
	PageCount int `json:"pageCount,omitempty"`
	PageSize  int `json:"pageSize,omitempty"`
	SlotSize  int `json:"slotSize,omitempty"`
}

// ApplyDefaults sets empty values to defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.PageCount <= 0 {
		cfg.PageCount = DefaultPageCount
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.SlotSize <= 0 {
		cfg.SlotSize = DefaultSlotSize
	}
}

// Validate checks Config fields.
// Defaults must be applied before calling this function.
func (cfg Config) Validate() error {
	switch {
	case bits.OnesCount(uint(cfg.SlotSize)) != 1:
		return fmt.Errorf("SlotSize %d is not a power of two", cfg.SlotSize)
	case cfg.SlotSize < MinSlotPayload:
		return fmt.Errorf("SlotSize %d is less than %d", cfg.SlotSize, MinSlotPayload)
	case cfg.SlotSize > cfg.PageSize || cfg.PageSize%cfg.SlotSize != 0:
		return fmt.Errorf("PageSize %d is not a multiple of SlotSize %d", cfg.PageSize, cfg.SlotSize)
	case cfg.Capacity() > maxCapacity:
		return errors.New("too many slots")
	}
	return nil
}

// Capacity returns number of slots.
func (cfg Config) Capacity() int {
	return cfg.PageCount * cfg.PageSize / cfg.SlotSize
}

// ArenaSize returns number of octets to be reserved.
func (cfg Config) ArenaSize() int {
	return cfg.PageCount * cfg.PageSize
}

const maxCapacity = 1 << 16
