package webrtcsession

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pliBasePeriod is the minimum spacing between forwarded PLI requests
// for a single SSRC under light load.
const pliBasePeriod = 250 * time.Millisecond

// pliMaxPeriod bounds the exponential backoff applied while a publisher
// keeps failing to produce a keyframe in response to PLI.
const pliMaxPeriod = 4 * time.Second

// pliLimiter implements the "epp" (exponential-plus-period) PLI
// coalescing policy: within the current period of the last forwarded
// request for an SSRC, further requests are dropped, and each dropped
// request doubles the period, up to pliMaxPeriod; the next forwarded
// request resets it to pliBasePeriod.
type pliLimiter struct {
	mu       sync.Mutex
	limiters map[uint32]*ssrcPLIState
}

type ssrcPLIState struct {
	limiter *rate.Limiter
	period  time.Duration
}

func newPLILimiter() *pliLimiter {
	return &pliLimiter{limiters: map[uint32]*ssrcPLIState{}}
}

// allow reports whether a PLI for ssrc should be forwarded now. On
// every disallowed call it backs the per-SSRC period off exponentially;
// on every allowed call it resets to the base period.
func (p *pliLimiter) allow(ssrc uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.limiters[ssrc]
	if !ok {
		st = &ssrcPLIState{
			limiter: rate.NewLimiter(rate.Every(pliBasePeriod), 1),
			period:  pliBasePeriod,
		}
		p.limiters[ssrc] = st
	}

	if st.limiter.Allow() {
		if st.period != pliBasePeriod {
			st.period = pliBasePeriod
			st.limiter.SetLimit(rate.Every(pliBasePeriod))
		}
		return true
	}

	st.period *= 2
	if st.period > pliMaxPeriod {
		st.period = pliMaxPeriod
	}
	st.limiter.SetLimit(rate.Every(st.period))
	return false
}
