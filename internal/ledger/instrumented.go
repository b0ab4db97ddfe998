package ledger

import (
	"context"
	"time"

	"github.com/nerrad567/chargemap-core/internal/device"
)

// Observer receives the outcome and duration of each anchoring call.
// *metrics.Metrics satisfies it.
type Observer interface {
	ObserveAnchor(outcome string, d time.Duration)
}

// Instrumented wraps an Anchorer and reports every call to an Observer.
type Instrumented struct {
	next     device.Anchorer
	observer Observer
}

// Instrument wraps next. A nil observer returns next unchanged.
func Instrument(next device.Anchorer, observer Observer) device.Anchorer {
	if observer == nil {
		return next
	}
	return &Instrumented{next: next, observer: observer}
}

// Anchor delegates to the wrapped Anchorer and records the call.
func (i *Instrumented) Anchor(ctx context.Context, candidate device.Device) (device.OnChainRecord, error) {
	start := time.Now()
	rec, err := i.next.Anchor(ctx, candidate)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	i.observer.ObserveAnchor(outcome, time.Since(start))

	return rec, err
}
