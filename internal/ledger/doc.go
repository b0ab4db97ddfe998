// Package ledger provides the anchoring capability used by the device
// registry.
//
// Anchoring records a device against an external ledger and yields a
// receipt: transaction hash, block number, UTC timestamp and an explorer
// link. There is no real chain behind it. Two implementations exist:
//
//   - Stub: fresh random receipts, the production default
//   - Sequential: deterministic receipts for tests, with an injectable
//     failure so the registry's rejection path can be exercised
//
// Both satisfy device.Anchorer.
package ledger
