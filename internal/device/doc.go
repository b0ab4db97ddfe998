// Package device provides the charging-station registry for ChargeMap Core.
//
// The Registry is the single authoritative collection of Device records. It
// owns the write path: validate the request, assign the next id, anchor the
// record on the ledger, and append it. Everything else in the system reads
// copies.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                       Device Registry                          │
//	│                                                                │
//	│  ┌──────────────────┐    ┌──────────────────┐                  │
//	│  │     Registry     │    │    Validation    │                  │
//	│  │  (registry.go)   │───▶│ (validation.go)  │                  │
//	│  │                  │    │                  │                  │
//	│  │ • List / Get     │    │ • Required fields│                  │
//	│  │ • Create         │    │ • Finite numbers │                  │
//	│  │ • Create mutex   │    │ • Coordinates    │                  │
//	│  └────────┬─────────┘    └──────────────────┘                  │
//	│           │                                                    │
//	└───────────│────────────────────────────────────────────────────┘
//	            ▼
//	┌──────────────────────┐
//	│  Anchorer (ledger)   │
//	│  • receipt or error  │
//	└──────────────────────┘
//
// # Key Types
//
//   - Device: a registered charging station with its ledger receipt
//   - Input: the create request; numeric fields accept numbers or numeric strings
//   - Status: open string type with the known values Available, Charging,
//     Unavailable and Faulted
//   - Anchorer: the ledger capability the registry calls once per create
//
// # Usage
//
//	reg := device.NewRegistry(ledger.NewStub(explorerURL), device.DefaultSeed()...)
//	reg.SetLogger(log)
//
//	dev, err := reg.CreateDevice(ctx, input)
//	switch {
//	case errors.Is(err, device.ErrInvalidDevice):
//	    // 400
//	case errors.Is(err, device.ErrAnchorFailed):
//	    // 500
//	}
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Ids are assigned as count+1
// while holding the create mutex, so they stay unique and gap-free under
// concurrent creates. There is no delete.
package device
