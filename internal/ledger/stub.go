package ledger

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nerrad567/chargemap-core/internal/device"
)

// MaxBlockNumber bounds the simulated block height (exclusive).
const MaxBlockNumber = 1_000_000

// Logger defines the logging interface used by the ledger.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Stub simulates a ledger that accepts every record.
// It is safe for concurrent use.
type Stub struct {
	explorerBase string
	latency      time.Duration
	now          func() time.Time
	logger       Logger
}

// StubOption configures a Stub.
type StubOption func(*Stub)

// WithLatency delays every Anchor call by d to mimic a network round-trip.
func WithLatency(d time.Duration) StubOption {
	return func(s *Stub) { s.latency = d }
}

// WithLogger sets the logger used to trace anchoring calls.
func WithLogger(l Logger) StubOption {
	return func(s *Stub) { s.logger = l }
}

// NewStub creates a Stub whose explorer links are rooted at explorerBase.
func NewStub(explorerBase string, opts ...StubOption) *Stub {
	s := &Stub{
		explorerBase: strings.TrimRight(explorerBase, "/"),
		now:          time.Now,
		logger:       noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Anchor returns a fresh receipt for candidate.
// It fails only when ctx is done before the simulated latency elapses.
func (s *Stub) Anchor(ctx context.Context, candidate device.Device) (device.OnChainRecord, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return device.OnChainRecord{}, fmt.Errorf("anchoring device %d: %w", candidate.ID, ctx.Err())
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return device.OnChainRecord{}, fmt.Errorf("anchoring device %d: %w", candidate.ID, err)
	}

	hash := newTransactionHash()
	record := device.OnChainRecord{
		TransactionHash: hash,
		Timestamp:       s.now().UTC(),
		BlockNumber:     rand.Uint64N(MaxBlockNumber),
		ExplorerURL:     ExplorerURL(s.explorerBase, hash),
	}

	s.logger.Debug("device anchored", "id", candidate.ID, "tx", hash, "block", record.BlockNumber)
	return record, nil
}

// ExplorerURL joins an explorer base and a transaction hash.
func ExplorerURL(base, hash string) string {
	return strings.TrimRight(base, "/") + "/" + hash
}

// newTransactionHash returns "0x" followed by 32 hex digits of uuid v4 entropy.
func newTransactionHash() string {
	id := uuid.New()
	return "0x" + hex.EncodeToString(id[:])
}
