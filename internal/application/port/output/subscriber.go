package output

import "signup-agent/internal/domain/entity"

// StatusSubscriber receives job-status broadcasts. The status tracker is the
// single source of truth; subscribers only render what they are handed.
type StatusSubscriber interface {
	Notify(b entity.StatusBroadcast)
}
