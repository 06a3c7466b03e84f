package services

import (
	"sort"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
)

// Candidate is one ranked dispatch candidate: a driver considered for an
// order, with the distance that determined its rank.
type Candidate struct {
	DriverID       kernel.UUID
	DistanceMeters float64
}

// CandidateRanker selects and orders dispatch candidates for an order.
//
// Ranking rules:
//   - only drivers whose presence is available AND fresh participate;
//     offline, busy, unavailable, and stale records are never offered
//   - ascending great-circle distance to the reference point
//   - stable tie-break on driver identifier, so equal distances produce a
//     deterministic order
type CandidateRanker struct {
	freshness time.Duration
}

// NewCandidateRanker creates a ranker with the given presence freshness
// threshold. Records older than the threshold are excluded even when their
// status says available.
func NewCandidateRanker(freshness time.Duration) CandidateRanker {
	return CandidateRanker{freshness: freshness}
}

// Rank returns up to k candidates for an order with the given reference
// point, nearest first. An empty result is not an error: absence of drivers
// is a normal searching state, and the scheduler simply retries later.
func (r CandidateRanker) Rank(
	reference kernel.GeoPoint,
	presences []*driver.Presence,
	k int,
	now time.Time,
) ([]Candidate, error) {
	if err := reference.Validate(); err != nil {
		return nil, err
	}

	if k <= 0 {
		return []Candidate{}, nil
	}

	candidates := make([]Candidate, 0, len(presences))
	for _, p := range presences {
		if err := p.Validate(); err != nil {
			return nil, err
		}

		if !p.IsDispatchable(now, r.freshness) {
			continue
		}

		distance, err := p.Location().DistanceTo(reference)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, Candidate{
			DriverID:       p.DriverID(),
			DistanceMeters: distance,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceMeters != candidates[j].DistanceMeters {
			return candidates[i].DistanceMeters < candidates[j].DistanceMeters
		}
		return candidates[i].DriverID.String() < candidates[j].DriverID.String()
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	return candidates, nil
}
