package netifc

import (
	"fmt"

	"github.com/rickb777/plural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/usnistgov/netifc/netdev"
)

var nInterfacesPlural = plural.FromZero("found %d network interfaces", "found %d network interface", "found %d network interfaces")

// FindDevice selects the first enumerated device that can be claimed, started, initialized, and has link.
// Candidates are tried in enumeration order, at most maxCandidates of them.
// Every candidate that is not selected is released before the next one is tried.
//
// Returns ErrEnumerationFailed if the platform cannot enumerate devices,
// or ErrNoDeviceFound if no candidate qualifies.
func FindDevice(fw netdev.Platform, maxCandidates int) (*netdev.Handle, error) {
	ids, e := fw.Enumerate()
	if e != nil {
		logger.Error("enumeration failed", zap.Error(e))
		return nil, fmt.Errorf("%w: %w", ErrEnumerationFailed, e)
	}
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	if len(ids) > maxCandidates {
		logger.Warn("too many network interfaces, ignoring the rest",
			zap.Int("enumerated", len(ids)),
			zap.Int("max", maxCandidates),
		)
		ids = ids[:maxCandidates]
	}

	logger.Info(nInterfacesPlural.FormatInt(len(ids)))
	for _, id := range ids {
		logger.Info("candidate", zap.Stringer("id", id), zap.String("desc", fw.Describe(id)))
	}

	for _, id := range ids {
		h, e := tryCandidate(fw, id)
		if e != nil {
			logger.Info("candidate skipped", zap.Stringer("id", id), zap.Error(e))
			continue
		}
		logger.Info("link detected", h.ZapField("dev"), zap.Stringer("hwaddr", h.HardwareAddr()))
		return h, nil
	}
	return nil, ErrNoDeviceFound
}

// tryCandidate claims and brings up one device.
// On failure, the device is returned to Stopped state and its claim is released.
func tryCandidate(fw netdev.Platform, id netdev.ID) (*netdev.Handle, error) {
	h, e := netdev.Claim(fw, id)
	if e != nil {
		return nil, e
	}

	abandon := func(e error, teardown ...func() error) error {
		for _, f := range teardown {
			e = multierr.Append(e, f())
		}
		return multierr.Append(e, h.Close())
	}

	if e = h.Start(); e != nil {
		return nil, abandon(e)
	}
	if e = h.Initialize(); e != nil {
		return nil, abandon(e, h.Stop)
	}

	// result is unused; the call refreshes link state
	if _, e = h.GetStatus(); e != nil {
		return nil, abandon(fmt.Errorf("GetStatus(%v): %w", h, e), h.Shutdown, h.Stop)
	}
	if !h.LinkPresent() {
		return nil, abandon(fmt.Errorf("%v has no link", h), h.Shutdown, h.Stop)
	}
	return h, nil
}
