package mapsync

import (
	"context"
	"sync"

	"github.com/nerrad567/chargemap-core/internal/device"
)

// Source supplies the device collection. Both the in-process registry and
// the HTTP registry client satisfy it.
type Source interface {
	ListDevices(ctx context.Context) ([]device.Device, error)
}

// Loader fetches the device collection off the event loop and hands the
// result back through dispatch.
//
// dispatch must run fn on the goroutine that owns the View. Fetch errors
// are logged and leave the View unchanged.
type Loader struct {
	source   Source
	dispatch func(fn func())
	logger   Logger
	wg       sync.WaitGroup
}

// NewLoader creates a Loader.
func NewLoader(source Source, dispatch func(fn func()), logger Logger) *Loader {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Loader{
		source:   source,
		dispatch: dispatch,
		logger:   logger,
	}
}

// Fetch starts a background fetch that applies its result to v.
// It does not cancel earlier fetches; the last one to complete wins.
func (l *Loader) Fetch(ctx context.Context, v *View) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		devices, err := l.source.ListDevices(ctx)
		if err != nil {
			l.logger.Error("fetching devices", "error", err)
			return
		}

		l.dispatch(func() {
			if err := v.SetDevices(devices); err != nil {
				l.logger.Debug("discarding fetch result", "error", err)
			}
		})
	}()
}

// Wait blocks until every started fetch has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}
