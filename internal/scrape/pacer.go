package scrape

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Pacer spaces out page fetches with a token bucket so a run does not
// hammer the target site harder than the concurrency cap alone would
// allow. All traffic in a run goes to one host, so a single bucket is
// enough.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer builds a Pacer allowing rps requests per second with the given
// burst. rps <= 0 returns nil, meaning unpaced; burst values below 1 are
// raised to 1. A nil Pacer is valid and never waits.
func NewPacer(rps float64, burst int) *Pacer {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pace fetch: %w", err)
	}
	return nil
}
