package tracking

import (
	"context"
	"reflect"
	"testing"
)

type fakeRelationshipStore struct {
	rows map[string]map[string]bool // adminID -> busID -> isTracking
}

func newFakeRelationshipStore() *fakeRelationshipStore {
	return &fakeRelationshipStore{rows: make(map[string]map[string]bool)}
}

func (f *fakeRelationshipStore) UntrackedBusIDs(ctx context.Context, adminID string) ([]string, error) {
	ids := []string{}
	for busID, isTracking := range f.rows[adminID] {
		if !isTracking {
			ids = append(ids, busID)
		}
	}
	return ids, nil
}

func (f *fakeRelationshipStore) SetTracking(ctx context.Context, adminID, busID string, isTracking bool) error {
	if f.rows[adminID] == nil {
		f.rows[adminID] = make(map[string]bool)
	}
	f.rows[adminID][busID] = isTracking
	return nil
}

func TestEffectiveTrackedIDs(t *testing.T) {
	tests := []struct {
		name      string
		all       []string
		untracked []string
		want      []string
	}{
		{
			name: "no exceptions means everything tracked",
			all:  []string{"bus-1", "bus-2", "bus-3"},
			want: []string{"bus-1", "bus-2", "bus-3"},
		},
		{
			name:      "exceptions are removed, order preserved",
			all:       []string{"bus-1", "bus-2", "bus-3"},
			untracked: []string{"bus-2"},
			want:      []string{"bus-1", "bus-3"},
		},
		{
			name:      "all untracked",
			all:       []string{"bus-1", "bus-2"},
			untracked: []string{"bus-1", "bus-2"},
			want:      []string{},
		},
		{
			name:      "exception for a bus not in the roster is a no-op",
			all:       []string{"bus-1"},
			untracked: []string{"bus-9"},
			want:      []string{"bus-1"},
		},
		{
			name:      "empty roster",
			all:       []string{},
			untracked: []string{"bus-1"},
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveTrackedIDs(tt.all, tt.untracked)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("EffectiveTrackedIDs(%v, %v) = %v, want %v", tt.all, tt.untracked, got, tt.want)
			}
		})
	}
}

func TestTrackedAndUntrackedAreDisjoint(t *testing.T) {
	all := []string{"bus-1", "bus-2", "bus-3", "bus-4"}
	untracked := []string{"bus-2", "bus-4"}

	tracked := EffectiveTrackedIDs(all, untracked)

	seen := make(map[string]bool)
	for _, id := range tracked {
		seen[id] = true
	}
	for _, id := range untracked {
		if seen[id] {
			t.Fatalf("bus %s is both tracked and untracked", id)
		}
	}
	if len(tracked)+len(untracked) != len(all) {
		t.Fatalf("tracked (%d) + untracked (%d) != roster (%d)", len(tracked), len(untracked), len(all))
	}
}

func TestReconcilerToggle(t *testing.T) {
	store := newFakeRelationshipStore()
	rec := NewReconciler(store)
	ctx := context.Background()
	roster := []string{"bus-1", "bus-2"}

	// Fresh admin: everything tracked
	tracked, err := rec.TrackedFor(ctx, "admin-1", roster)
	if err != nil {
		t.Fatalf("TrackedFor failed: %v", err)
	}
	if !reflect.DeepEqual(tracked, roster) {
		t.Fatalf("expected full roster tracked, got %v", tracked)
	}

	// Untrack one bus
	if err := rec.Toggle(ctx, "admin-1", "bus-2", false); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	tracked, _ = rec.TrackedFor(ctx, "admin-1", roster)
	if !reflect.DeepEqual(tracked, []string{"bus-1"}) {
		t.Fatalf("expected [bus-1] tracked after untrack, got %v", tracked)
	}

	// Untracking again is idempotent
	if err := rec.Toggle(ctx, "admin-1", "bus-2", false); err != nil {
		t.Fatalf("repeat Toggle failed: %v", err)
	}
	untracked, _ := rec.UntrackedFor(ctx, "admin-1")
	if !reflect.DeepEqual(untracked, []string{"bus-2"}) {
		t.Fatalf("expected [bus-2] untracked, got %v", untracked)
	}

	// Re-track restores the full roster
	if err := rec.Toggle(ctx, "admin-1", "bus-2", true); err != nil {
		t.Fatalf("re-track Toggle failed: %v", err)
	}
	tracked, _ = rec.TrackedFor(ctx, "admin-1", roster)
	if !reflect.DeepEqual(tracked, roster) {
		t.Fatalf("expected full roster after re-track, got %v", tracked)
	}

	// Other admins are unaffected
	tracked, _ = rec.TrackedFor(ctx, "admin-2", roster)
	if !reflect.DeepEqual(tracked, roster) {
		t.Fatalf("admin-2 tracked set leaked admin-1 state: %v", tracked)
	}
}
