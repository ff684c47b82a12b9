// Package access holds the visibility and ownership rules for memories.
//
// These are the authorization decisions of the whole system, collected
// in one place so the read rule and the mutate rule are never re-derived
// inline in a handler or service. Both functions are pure: deterministic,
// no I/O, no side effects — which also makes them trivially table-testable.
//
// The caller identity is always the verified token's subject claim
// (User.ID). Display claims are never consulted here.
package access

import (
	"github.com/sakif/spacetime/internal/apperror"
	"github.com/sakif/spacetime/internal/model"
)

// CanRead reports whether callerSub may read the memory: public records
// are readable by anyone, private records only by their owner.
//
// Listings use this same predicate per record, so a caller's own private
// memories appear in their own listing.
func CanRead(callerSub string, m *model.Memory) bool {
	return m.IsPublic || m.OwnerID == callerSub
}

// AssertCanMutate returns nil iff callerSub owns the memory. Updates and
// deletes both go through here; visibility is irrelevant — a public
// memory is still only mutable by its owner.
func AssertCanMutate(callerSub string, m *model.Memory) error {
	if m.OwnerID != callerSub {
		return apperror.NotOwner("memory does not belong to the caller")
	}
	return nil
}
