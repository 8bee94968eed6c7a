package pipeline

import (
	"context"
	"math/rand"
	"time"
)

// Delay is a randomized pause bounded by Min and Max.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

// Pacing delays applied between requests to the source site. The jitter
// keeps the request rhythm from looking machine-generated.
var (
	DelayBetweenItems   = Delay{800 * time.Millisecond, 2200 * time.Millisecond}
	DelayBeforeDetail   = Delay{900 * time.Millisecond, 1800 * time.Millisecond}
	DelayAfterDetail    = Delay{800 * time.Millisecond, 1700 * time.Millisecond}
	DelayBeforeDownload = Delay{300 * time.Millisecond, 800 * time.Millisecond}
	DelayBeforeAnalysis = Delay{400 * time.Millisecond, 800 * time.Millisecond}
)

// PacingPolicy controls request pacing. Bypass skips every delay; runs
// against a recorded or local source do not need to be polite.
type PacingPolicy struct {
	Bypass bool
}

// Sleep pauses for a random duration within d, honoring cancellation.
func (p PacingPolicy) Sleep(ctx context.Context, d Delay) error {
	if p.Bypass {
		return ctx.Err()
	}

	wait := d.Min
	if span := d.Max - d.Min; span > 0 {
		wait += time.Duration(rand.Int63n(int64(span) + 1))
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
