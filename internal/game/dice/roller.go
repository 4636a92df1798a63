package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide labelled, logged rolls.
// All rolls are logged at debug level with their label and outcome.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn satisfies Source by delegating to the wrapped source without logging.
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }

// Float64 satisfies Source by delegating to the wrapped source without logging.
func (r *Roller) Float64() float64 { return r.src.Float64() }

// Chance rolls a success with probability p.
// A value is always drawn so that the random sequence does not depend on p.
//
// Postcondition: Returns false when p <= 0 and true when p >= 1.
func (r *Roller) Chance(label string, p float64) bool {
	u := r.src.Float64()
	ok := u < p
	r.logger.Debug("chance roll",
		zap.String("roll", label),
		zap.Float64("p", p),
		zap.Float64("u", u),
		zap.Bool("success", ok),
	)
	return ok
}

// Range returns a uniform float in [lo, hi).
//
// Precondition: lo <= hi.
// Postcondition: lo <= result < hi, or result == lo when lo == hi.
func (r *Roller) Range(label string, lo, hi float64) float64 {
	v := lo + r.src.Float64()*(hi-lo)
	r.logger.Debug("range roll",
		zap.String("roll", label),
		zap.Float64("lo", lo),
		zap.Float64("hi", hi),
		zap.Float64("value", v),
	)
	return v
}

// IntRange returns a uniform int in [lo, hi] inclusive.
//
// Postcondition: lo <= result <= hi; returns lo when hi <= lo.
func (r *Roller) IntRange(label string, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	v := lo + r.src.Intn(hi-lo+1)
	r.logger.Debug("int roll",
		zap.String("roll", label),
		zap.Int("lo", lo),
		zap.Int("hi", hi),
		zap.Int("value", v),
	)
	return v
}

// Index picks a uniform index in [0, n).
//
// Postcondition: Returns -1 when n <= 0.
func (r *Roller) Index(label string, n int) int {
	if n <= 0 {
		return -1
	}
	return r.IntRange(label, 0, n-1)
}

// Weighted picks an index with probability proportional to weights[i].
// Non-positive weights are never picked.
//
// Postcondition: Returns -1 when no weight is positive.
func (r *Roller) Weighted(label string, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	u := r.src.Float64() * total
	pick := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		pick = i
		if u < w {
			break
		}
		u -= w
	}
	r.logger.Debug("weighted roll",
		zap.String("roll", label),
		zap.Float64s("weights", weights),
		zap.Int("index", pick),
	)
	return pick
}
