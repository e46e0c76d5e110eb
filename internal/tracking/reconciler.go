package tracking

import "context"

// The tracking model is opt-out: a bus with NO relationship row is tracked.
// Only an explicit is_tracking=false row marks a bus as untracked. Treating
// the mere presence of a row as "tracked" inverts the semantics; the
// reconciler and its tests exist to keep that straight.

// RelationshipStore persists the explicit-exception rows for an admin.
// Concurrent toggles on the same (admin, bus) pair are serialized by the
// store's upsert conflict resolution (last write wins on the composite key).
type RelationshipStore interface {
	// UntrackedBusIDs returns the bus ids the admin has explicitly
	// untracked (rows with is_tracking=false).
	UntrackedBusIDs(ctx context.Context, adminID string) ([]string, error)

	// SetTracking upserts the relationship row for (adminID, busID).
	SetTracking(ctx context.Context, adminID, busID string, isTracking bool) error
}

// Reconciler computes the effective tracked set for an admin and flips
// membership in the exception list.
type Reconciler struct {
	store RelationshipStore
}

func NewReconciler(store RelationshipStore) *Reconciler {
	return &Reconciler{store: store}
}

// EffectiveTrackedIDs is the pure set difference allBusIDs \ untrackedIDs,
// preserving the order of allBusIDs.
func EffectiveTrackedIDs(allBusIDs, untrackedIDs []string) []string {
	untracked := make(map[string]bool, len(untrackedIDs))
	for _, id := range untrackedIDs {
		untracked[id] = true
	}

	tracked := make([]string, 0, len(allBusIDs))
	for _, id := range allBusIDs {
		if !untracked[id] {
			tracked = append(tracked, id)
		}
	}
	return tracked
}

// TrackedFor resolves the effective tracked set for an admin against the
// given bus roster.
func (r *Reconciler) TrackedFor(ctx context.Context, adminID string, allBusIDs []string) ([]string, error) {
	untracked, err := r.store.UntrackedBusIDs(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return EffectiveTrackedIDs(allBusIDs, untracked), nil
}

// UntrackedFor returns the admin's explicit exception list.
func (r *Reconciler) UntrackedFor(ctx context.Context, adminID string) ([]string, error) {
	return r.store.UntrackedBusIDs(ctx, adminID)
}

// Toggle sets the tracking target state for (adminID, busID). Re-tracking
// upserts is_tracking=true onto the existing row rather than deleting it;
// both are observably equivalent under the opt-out model. Idempotent.
func (r *Reconciler) Toggle(ctx context.Context, adminID, busID string, makeTracked bool) error {
	return r.store.SetTracking(ctx, adminID, busID, makeTracked)
}
