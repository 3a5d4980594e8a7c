package bulkrun

import (
	"signup-agent/internal/application/port/output"
	"signup-agent/internal/domain/entity"
)

// Tracker holds the current status per job and pushes a broadcast to every
// subscriber on each transition. It is owned by the orchestrator's loop and
// written from that goroutine only; subscribers always receive copies, so no
// lock guards the map.
type Tracker struct {
	statuses map[string]entity.JobStatusEntry
	subs     []output.StatusSubscriber
}

// NewTracker builds a tracker fanning out to the given subscribers.
func NewTracker(subs ...output.StatusSubscriber) *Tracker {
	return &Tracker{
		statuses: make(map[string]entity.JobStatusEntry),
		subs:     subs,
	}
}

// Subscribe adds a subscriber. Call before the run starts.
func (t *Tracker) Subscribe(s output.StatusSubscriber) {
	t.subs = append(t.subs, s)
}

// Reset seeds every retailer id as pending and announces the initial state.
func (t *Tracker) Reset(ids []string) {
	t.statuses = make(map[string]entity.JobStatusEntry, len(ids))
	for _, id := range ids {
		t.statuses[id] = entity.JobStatusEntry{Status: entity.JobPending}
	}
	t.broadcast(entity.ActionBulkUpdate)
}

// Set records a transition and notifies subscribers.
func (t *Tracker) Set(id string, status entity.JobStatus, message string) {
	t.statuses[id] = entity.JobStatusEntry{Status: status, Message: message}
	t.broadcast(entity.ActionBulkUpdate)
}

// Complete announces the terminal state of the run.
func (t *Tracker) Complete() {
	t.broadcast(entity.ActionBulkComplete)
}

// Snapshot returns a copy of the current status map.
func (t *Tracker) Snapshot() map[string]entity.JobStatusEntry {
	snap := make(map[string]entity.JobStatusEntry, len(t.statuses))
	for id, e := range t.statuses {
		snap[id] = e
	}
	return snap
}

func (t *Tracker) broadcast(action string) {
	if len(t.subs) == 0 {
		return
	}
	b := entity.StatusBroadcast{Action: action, Statuses: t.Snapshot()}
	for _, s := range t.subs {
		s.Notify(b)
	}
}
