package onboarding

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Confidence bounds of a successful verification.
const (
	MinConfidence = 85
	MaxConfidence = 100
)

// Verifier checks an uploaded document and returns its confidence score.
// Implementations must honour ctx cancellation.
type Verifier interface {
	Verify(ctx context.Context, kind DocumentKind, f File) (int, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, kind DocumentKind, f File) (int, error)

func (fn VerifierFunc) Verify(ctx context.Context, kind DocumentKind, f File) (int, error) {
	return fn(ctx, kind, f)
}

// SimulatedVerifier stands in for the document verification service:
// it waits for a fixed delay then reports a random confidence.
type SimulatedVerifier struct {
	delay time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ Verifier = (*SimulatedVerifier)(nil)

func NewSimulatedVerifier(delay time.Duration) *SimulatedVerifier {
	return &SimulatedVerifier{
		delay: delay,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (v *SimulatedVerifier) Verify(ctx context.Context, _ DocumentKind, _ File) (int, error) {
	timer := time.NewTimer(v.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return MinConfidence + v.rnd.Intn(MaxConfidence-MinConfidence+1), nil
}
