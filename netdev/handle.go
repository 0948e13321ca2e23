package netdev

import (
	"fmt"
	"net"

	"go.uber.org/zap"
)

// Handle represents exclusive ownership of one claimed device.
type Handle struct {
	pf     Platform
	id     ID
	desc   string
	dev    Device
	logger *zap.Logger
	closed bool
}

// Claim opens a device exclusively.
func Claim(pf Platform, id ID) (h *Handle, e error) {
	dev, e := pf.OpenExclusive(id)
	if e != nil {
		return nil, fmt.Errorf("OpenExclusive(%v): %w", id, e)
	}

	h = &Handle{
		pf:   pf,
		id:   id,
		desc: pf.Describe(id),
		dev:  dev,
	}
	h.logger = logger.With(h.ZapField("dev"))
	h.logger.Debug("claimed")
	return h, nil
}

// ID returns device ID.
func (h *Handle) ID() ID {
	return h.id
}

// Description returns device description from the platform.
func (h *Handle) Description() string {
	return h.desc
}

func (h *Handle) String() string {
	if h.desc == "" {
		return h.id.String()
	}
	return fmt.Sprintf("%s(%s)", h.id, h.desc)
}

// ZapField returns a zap.Field for logging.
func (h *Handle) ZapField(key string) zap.Field {
	return zap.Stringer(key, h)
}

// Device returns the underlying device.
func (h *Handle) Device() Device {
	return h.dev
}

// Mode returns current device mode.
func (h *Handle) Mode() Mode {
	return h.dev.Mode()
}

// HardwareAddr returns current MAC address.
func (h *Handle) HardwareAddr() net.HardwareAddr {
	return h.dev.Mode().HardwareAddr
}

// LinkPresent returns the cached link-present flag.
// GetStatus should be invoked first to refresh it.
func (h *Handle) LinkPresent() bool {
	return h.dev.Mode().MediaPresent
}

// Start starts the device.
func (h *Handle) Start() error {
	if e := h.dev.Start(); e != nil {
		return fmt.Errorf("Start(%v): %w", h, e)
	}
	return nil
}

// Initialize initializes the device without requesting extra driver-managed buffers.
func (h *Handle) Initialize() error {
	if e := h.dev.Initialize(0, 0); e != nil {
		return fmt.Errorf("Initialize(%v): %w", h, e)
	}
	return nil
}

// GetStatus reads device status.
func (h *Handle) GetStatus() (Status, error) {
	return h.dev.GetStatus()
}

// Receive receives one frame.
// Returns ErrNotReady if no frame is waiting.
func (h *Handle) Receive(buf []byte) (hdrLen, frameLen int, e error) {
	return h.dev.Receive(buf)
}

// Transmit transmits one frame.
func (h *Handle) Transmit(frame []byte) error {
	return h.dev.Transmit(frame)
}

// SetReceiveFilters enables filter bits and replaces multicast filter list.
// Filter bits not in enable are disabled.
func (h *Handle) SetReceiveFilters(enable ReceiveFilter, mcast []net.HardwareAddr) error {
	disable := h.dev.Mode().ReceiveFilterSetting &^ enable
	if e := h.dev.ReceiveFilters(enable, disable, len(mcast) == 0, mcast); e != nil {
		return fmt.Errorf("ReceiveFilters(%v,%v,%d): %w", h, enable, len(mcast), e)
	}
	return nil
}

// Shutdown shuts down the device.
func (h *Handle) Shutdown() error {
	if e := h.dev.Shutdown(); e != nil {
		return fmt.Errorf("Shutdown(%v): %w", h, e)
	}
	return nil
}

// Stop stops the device.
func (h *Handle) Stop() error {
	if e := h.dev.Stop(); e != nil {
		return fmt.Errorf("Stop(%v): %w", h, e)
	}
	return nil
}

// Close releases the claim.
// The device is not shut down or stopped; call Shutdown and Stop first if needed.
// It is safe to call Close more than once.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if e := h.pf.CloseExclusive(h.id); e != nil {
		h.logger.Warn("release error", zap.Error(e))
		return fmt.Errorf("CloseExclusive(%v): %w", h.id, e)
	}
	h.logger.Debug("released")
	return nil
}
