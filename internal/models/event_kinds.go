package models

// EventKind labels what happened on the snapshot bus.
type EventKind string

// Snapshot bus event kinds.
const (
	// EventSnapshotPublished fires after every new snapshot version.
	EventSnapshotPublished EventKind = "snapshot_published"
	// EventTaskResurfaced fires once per task per process when its snooze expires.
	EventTaskResurfaced EventKind = "task_resurfaced"
	// EventLoopTick fires after every poll loop run, including skipped ones.
	EventLoopTick EventKind = "loop_tick"
)

// Event is delivered to snapshot bus subscribers.
type Event struct {
	ID       string    `json:"id"`
	Kind     EventKind `json:"kind"`
	TaskID   string    `json:"task_id,omitempty"`
	Loop     string    `json:"loop,omitempty"`
	Skipped  bool      `json:"skipped,omitempty"`
	Error    string    `json:"error,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}
