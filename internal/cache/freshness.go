package cache

import "time"

// Freshness classifies a stored row's age against the configured TTL pair.
type Freshness int

const (
	// Fresh rows are served as-is.
	Fresh Freshness = iota
	// Stale rows are served but trigger a background revalidation.
	Stale
	// Expired rows are treated identically to a miss.
	Expired
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "expired"
	}
}

// Classify buckets an entry by age. A zero updatedAt (a corrupt stored
// timestamp) classifies as Expired so the row degrades to a re-fetch instead
// of failing the request. A future updatedAt clamps to age zero, so clock
// skew can only ever make a row look newer.
func Classify(updatedAt, now time.Time, freshTTL, staleTTL time.Duration) Freshness {
	if updatedAt.IsZero() {
		return Expired
	}
	age := now.Sub(updatedAt)
	if age < 0 {
		age = 0
	}
	switch {
	case age <= freshTTL:
		return Fresh
	case age <= staleTTL:
		return Stale
	default:
		return Expired
	}
}
