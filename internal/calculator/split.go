// Package calculator implements the pure arithmetic of the ledger: exact
// expense splitting and per-currency balance aggregation. Nothing here
// touches storage or performs I/O.
package calculator

import "errors"

var (
	// ErrNoParticipants is returned when a split is requested for an
	// empty participant list.
	ErrNoParticipants = errors.New("must have at least one participant")

	// ErrInvalidAmount is returned when the amount to split is not a
	// positive number of minor units.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Split divides amount (in minor units) among the given participants and
// returns one share per participant, in input order.
//
// Every participant receives floor(amount/n); the first amount mod n
// participants receive one extra minor unit, so the shares always sum to
// amount exactly and differ pairwise by at most one unit. Which participants
// carry the remainder is determined by the input order, which is therefore
// part of the caller's contract (insertion order at expense creation).
func Split(amount int64, participantIDs []string) ([]int64, error) {
	if len(participantIDs) == 0 {
		return nil, ErrNoParticipants
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	n := int64(len(participantIDs))
	base := amount / n
	remainder := amount - base*n

	shares := make([]int64, len(participantIDs))
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares, nil
}
