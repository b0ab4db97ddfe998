package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/chargemap-core/internal/device"
)

// Sequential is a deterministic ledger for tests.
//
// The n-th successful call returns hash fmt.Sprintf("0x%064x", n), block
// startBlock+n-1 and the fixed clock value. Calls made while a failure is
// injected return that failure and do not advance the counter.
type Sequential struct {
	mu           sync.Mutex
	explorerBase string
	startBlock   uint64
	clock        time.Time
	count        uint64
	failErr      error
	anchored     []device.Device
}

// NewSequential creates a Sequential ledger.
func NewSequential(explorerBase string, startBlock uint64, clock time.Time) *Sequential {
	return &Sequential{
		explorerBase: explorerBase,
		startBlock:   startBlock,
		clock:        clock.UTC(),
	}
}

// FailWith makes subsequent calls fail with err. A nil err clears the
// failure. Passing ErrRejected is the usual choice.
func (s *Sequential) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Anchor implements device.Anchorer.
func (s *Sequential) Anchor(ctx context.Context, candidate device.Device) (device.OnChainRecord, error) {
	if err := ctx.Err(); err != nil {
		return device.OnChainRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return device.OnChainRecord{}, fmt.Errorf("anchoring device %d: %w", candidate.ID, s.failErr)
	}

	s.count++
	s.anchored = append(s.anchored, candidate)
	hash := fmt.Sprintf("0x%064x", s.count)
	return device.OnChainRecord{
		TransactionHash: hash,
		Timestamp:       s.clock,
		BlockNumber:     s.startBlock + s.count - 1,
		ExplorerURL:     ExplorerURL(s.explorerBase, hash),
	}, nil
}

// Anchored returns the candidates accepted so far, in call order.
func (s *Sequential) Anchored() []device.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]device.Device, len(s.anchored))
	copy(out, s.anchored)
	return out
}
