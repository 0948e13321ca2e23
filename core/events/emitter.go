// Package events provides a synchronous event emitter.
package events

import (
	"io"

	"github.com/chuckpreslar/emission"
)

// Emitter is a synchronous event emitter.
// This is a thin wrapper of emission.Emitter that modifies emitter.On method to return an io.Closer that cancels the callback registration.
// Listeners run on the caller's goroutine when Emit is invoked.
type Emitter struct {
	*emission.Emitter
}

// NewEmitter creates an event emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		Emitter: emission.NewEmitter(),
	}
}

// On registers a callback when an event occurs.
// Returns an io.Closer that cancels the callback registration.
func (emitter *Emitter) On(event, listener any) io.Closer {
	emitter.Emitter.On(event, listener)
	return canceler{emitter.Emitter, event, listener}
}

// Once registers a one-time callback when an event occurs.
// Returns an io.Closer that cancels the callback registration.
func (emitter *Emitter) Once(event, listener any) io.Closer {
	emitter.Emitter.Once(event, listener)
	return canceler{emitter.Emitter, event, listener}
}

// Emit invokes listeners of an event synchronously.
func (emitter *Emitter) Emit(event any, args ...any) {
	emitter.Emitter.EmitSync(event, args...)
}

type canceler struct {
	emitter  *emission.Emitter
	event    any
	listener any
}

func (c canceler) Close() error {
	c.emitter.Off(c.event, c.listener)
	return nil
}
