// Package services provides domain services that work across multiple domain
// entities of the dispatch engine.
//
// The package includes:
//   - CandidateRanker: ranks available drivers for an order by proximity,
//     applying the presence freshness policy
//
// Domain services hold logic that does not naturally belong to a single
// aggregate root: ranking needs both the order's pickup reference point and
// the full set of driver presence records.
package services
