package bulkrun

import (
	"testing"

	"signup-agent/internal/domain/entity"
)

type recordingSubscriber struct {
	broadcasts []entity.StatusBroadcast
}

func (r *recordingSubscriber) Notify(b entity.StatusBroadcast) {
	r.broadcasts = append(r.broadcasts, b)
}

func TestTracker_ResetSeedsPending(t *testing.T) {
	sub := &recordingSubscriber{}
	tr := NewTracker(sub)
	tr.Reset([]string{"a", "b"})

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}
	for id, e := range snap {
		if e.Status != entity.JobPending {
			t.Errorf("%s seeded as %s, want pending", id, e.Status)
		}
	}
	if len(sub.broadcasts) != 1 || sub.broadcasts[0].Action != entity.ActionBulkUpdate {
		t.Errorf("reset must announce the initial state")
	}
}

func TestTracker_EveryTransitionBroadcasts(t *testing.T) {
	sub := &recordingSubscriber{}
	tr := NewTracker(sub)
	tr.Reset([]string{"a"})
	tr.Set("a", entity.JobInProgress, "attempt 1")
	tr.Set("a", entity.JobComplete, "filled 4 fields")
	tr.Complete()

	if len(sub.broadcasts) != 4 {
		t.Fatalf("expected 4 broadcasts, got %d", len(sub.broadcasts))
	}
	last := sub.broadcasts[len(sub.broadcasts)-1]
	if last.Action != entity.ActionBulkComplete {
		t.Errorf("final action = %s, want %s", last.Action, entity.ActionBulkComplete)
	}
	if got := last.Statuses["a"]; got.Status != entity.JobComplete || got.Message != "filled 4 fields" {
		t.Errorf("final entry = %+v", got)
	}
}

func TestTracker_BroadcastsAreCopies(t *testing.T) {
	sub := &recordingSubscriber{}
	tr := NewTracker(sub)
	tr.Reset([]string{"a"})
	tr.Set("a", entity.JobInProgress, "")
	tr.Set("a", entity.JobComplete, "")

	// an earlier broadcast must not see later transitions
	if got := sub.broadcasts[1].Statuses["a"].Status; got != entity.JobInProgress {
		t.Errorf("broadcast mutated after delivery: %s", got)
	}
}

func TestTracker_SnapshotIsCopy(t *testing.T) {
	tr := NewTracker()
	tr.Reset([]string{"a"})
	snap := tr.Snapshot()
	snap["a"] = entity.JobStatusEntry{Status: entity.JobError}

	if got := tr.Snapshot()["a"].Status; got != entity.JobPending {
		t.Errorf("snapshot shares state with the tracker: %s", got)
	}
}

func TestTracker_SubscribeAfterConstruction(t *testing.T) {
	tr := NewTracker()
	sub := &recordingSubscriber{}
	tr.Subscribe(sub)
	tr.Reset([]string{"a"})

	if len(sub.broadcasts) != 1 {
		t.Errorf("late subscriber missed the reset broadcast")
	}
}
