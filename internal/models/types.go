package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Status is the leading workflow marker of a block that counts as an active task.
type Status string

// Active task markers. DONE and CANCELED are deliberately absent: a block
// carrying them is "not an active task".
const (
	StatusNow     Status = "NOW"
	StatusTodo    Status = "TODO"
	StatusLater   Status = "LATER"
	StatusWaiting Status = "WAITING"
)

// MarkerDone is the completed marker written by Complete.
const MarkerDone = "DONE"

// ActiveStatuses lists every active marker in display order.
func ActiveStatuses() []Status {
	return []Status{StatusNow, StatusTodo, StatusLater, StatusWaiting}
}

// Priority is an inline importance rank ("A", "B", "C") or PriorityNone.
type Priority string

// Priority constants.
const (
	PriorityA    Priority = "A"
	PriorityB    Priority = "B"
	PriorityC    Priority = "C"
	PriorityNone Priority = ""
)

// ParsePriority validates a user-supplied priority letter.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityA:
		return PriorityA, true
	case PriorityB:
		return PriorityB, true
	case PriorityC:
		return PriorityC, true
	}
	return PriorityNone, false
}

// Ref points at another entity by id.
type Ref struct {
	ID string `json:"id"`
}

// Block is one record of the host document store.
type Block struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"`
	PageRef     *Ref        `json:"page,omitempty"`
	ParentRef   *Ref        `json:"parent,omitempty"`
	Annotations Annotations `json:"annotations,omitempty"`
	Children    []Block     `json:"children,omitempty"`
	// Order is a host-assigned creation sequence; 0 means unknown.
	Order int64 `json:"order,omitempty"`
}

// PageID returns the containing page id, or "".
func (b *Block) PageID() string {
	if b.PageRef == nil {
		return ""
	}
	return b.PageRef.ID
}

// ParentID returns the parent block id. A parent pointer that names the
// containing page (a top-level block) yields "".
func (b *Block) ParentID() string {
	if b.ParentRef == nil || b.ParentRef.ID == "" {
		return ""
	}
	if b.PageRef != nil && b.ParentRef.ID == b.PageRef.ID {
		return ""
	}
	return b.ParentRef.ID
}

// Annotation keys understood by the panel.
const (
	AnnotationSnoozedUntil  = "snoozedUntil"
	AnnotationSnoozedAt     = "snoozedAt"
	AnnotationEstimatedTime = "estimatedTime"
)

// Annotations is the block-level property bag. Business logic reads it only
// through the typed accessors below.
type Annotations map[string]any

// Value returns the raw value stored under key.
func (a Annotations) Value(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Has reports whether key is present with a non-nil value.
func (a Annotations) Has(key string) bool {
	_, ok := a.Value(key)
	return ok
}

// SnoozedUntil returns the raw snoozedUntil annotation.
func (a Annotations) SnoozedUntil() (any, bool) { return a.Value(AnnotationSnoozedUntil) }

// SnoozedAt returns the raw snoozedAt annotation.
func (a Annotations) SnoozedAt() (any, bool) { return a.Value(AnnotationSnoozedAt) }

// EstimatedMinutes returns the estimatedTime annotation as whole minutes.
// Numbers and numeric strings are accepted; anything else is treated as absent.
func (a Annotations) EstimatedMinutes() (int, bool) {
	v, ok := a.Value(AnnotationEstimatedTime)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, n > 0
	case int64:
		return int(n), n > 0
	case float64:
		return int(n), n > 0
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil && i > 0
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil && i > 0
	}
	return 0, false
}

// TaskQuery selects blocks either by leading marker or by annotation presence.
// When both are set, a block must satisfy both.
type TaskQuery struct {
	Markers    []string `json:"markers,omitempty"`
	Annotation string   `json:"annotation,omitempty"`
}

// Task is the transient view of a task block, rebuilt every poll.
type Task struct {
	ID               string `json:"id"`
	RawText          string `json:"raw_text"`
	PageID           string `json:"page_id,omitempty"`
	ParentID         string `json:"parent_id,omitempty"`
	ParentText       string `json:"parent_text,omitempty"`
	InheritedContext string `json:"inherited_context,omitempty"`
}

// Base exposes the embedded task to generic helpers.
func (t *Task) Base() *Task { return t }

// NowTask is a task in the active-work list.
type NowTask struct {
	Task
	ElapsedMS int64 `json:"elapsed_ms"`
}

// Base exposes the embedded task to generic helpers.
func (t *NowTask) Base() *Task { return &t.Task }

// WaitingTask is a task parked behind a WAITING marker.
type WaitingTask struct {
	Task
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	ScheduleLabel string     `json:"schedule_label,omitempty"`
}

// Base exposes the embedded task to generic helpers.
func (t *WaitingTask) Base() *Task { return &t.Task }

// TodayTask is a task found on (or referenced from) today's journal page.
type TodayTask struct {
	Task
	Status       Status `json:"status"`
	IsReferenced bool   `json:"is_referenced"`
	CreatedOrder int64  `json:"created_order,omitempty"`
}

// Base exposes the embedded task to generic helpers.
func (t *TodayTask) Base() *Task { return &t.Task }

// SnoozedTask is a task carrying valid snooze metadata.
type SnoozedTask struct {
	Task
	SnoozeUntil  time.Time `json:"snooze_until"`
	SnoozedAt    time.Time `json:"snoozed_at"`
	IsResurfaced bool      `json:"is_resurfaced"`
	Label        string    `json:"label"`
}

// Base exposes the embedded task to generic helpers.
func (t *SnoozedTask) Base() *Task { return &t.Task }

// DoneTask is internal bookkeeping for completed blocks.
type DoneTask struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
}

// PendingCompletion tracks a snoozed task that was completed in the host and
// still carries snooze annotations.
type PendingCompletion struct {
	RawText      string    `json:"raw_text"`
	MarkedDoneAt time.Time `json:"marked_done_at"`
}

// SidePanelKind distinguishes page and block items opened beside the main view.
type SidePanelKind string

// Side panel item kinds.
const (
	SidePanelPage  SidePanelKind = "page"
	SidePanelBlock SidePanelKind = "block"
)

// SidePanelItem is one open side-panel entry.
type SidePanelItem struct {
	Kind SidePanelKind `json:"kind" yaml:"kind"`
	ID   string        `json:"id" yaml:"id"`
}

// RouteKind is the kind of view currently shown in the main editor area.
type RouteKind string

// Route kinds. Anything other than RoutePage resolves to today's journal.
const (
	RoutePage    RouteKind = "page"
	RouteJournal RouteKind = "journal"
	RouteHome    RouteKind = "home"
)

// Route is the editor's current navigation target.
type Route struct {
	Kind RouteKind `json:"kind" yaml:"kind"`
	Page string    `json:"page,omitempty" yaml:"page,omitempty"`
}

// IDSet is a set of block ids. It marshals as a sorted JSON array.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id; empty ids are ignored.
func (s IDSet) Add(id string) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

// Has reports membership. A nil set contains nothing.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of ids.
func (s *IDSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// TodayGroups holds today's tasks split into their three view buckets.
type TodayGroups struct {
	Now       []TodayTask `json:"now"`
	TodoLater []TodayTask `json:"todo_later"`
	Waiting   []TodayTask `json:"waiting"`
}

// SnoozedGroups holds snoozed tasks split by resurface state.
type SnoozedGroups struct {
	Resurfaced []SnoozedTask `json:"resurfaced"`
	Pending    []SnoozedTask `json:"pending"`
}

// Loading flags are true until a category has produced its first result.
type Loading struct {
	Now     bool `json:"now"`
	Waiting bool `json:"waiting"`
	Today   bool `json:"today"`
	Snoozed bool `json:"snoozed"`
}

// Snapshot is one atomically published, internally consistent view of every
// derived list and set. Consumers must treat it as read-only.
type Snapshot struct {
	Version uint64    `json:"version"`
	BuiltAt time.Time `json:"built_at"`

	Now     []NowTask     `json:"now"`
	Waiting []WaitingTask `json:"waiting"`
	Today   TodayGroups   `json:"today"`
	Snoozed SnoozedGroups `json:"snoozed"`
	Done    []DoneTask    `json:"-"`
	Loading Loading       `json:"loading"`

	UnreadCount          int   `json:"unread_count"`
	ActiveTaskIDs        IDSet `json:"active_task_ids"`
	PendingCompletionIDs IDSet `json:"pending_completion_ids"`

	VisibleIDs        IDSet  `json:"visible_ids"`
	AncestorsOfActive IDSet  `json:"ancestors_of_active"`
	EditingBlockID    string `json:"editing_block_id,omitempty"`
}

// EmptySnapshot is the state before any loop has run: everything loading.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Now:     []NowTask{},
		Waiting: []WaitingTask{},
		Today: TodayGroups{
			Now:       []TodayTask{},
			TodoLater: []TodayTask{},
			Waiting:   []TodayTask{},
		},
		Snoozed: SnoozedGroups{
			Resurfaced: []SnoozedTask{},
			Pending:    []SnoozedTask{},
		},
		Done:                 []DoneTask{},
		Loading:              Loading{Now: true, Waiting: true, Today: true, Snoozed: true},
		ActiveTaskIDs:        IDSet{},
		PendingCompletionIDs: IDSet{},
		VisibleIDs:           IDSet{},
		AncestorsOfActive:    IDSet{},
	}
}

// Clone returns a shallow copy whose slices and sets may be replaced without
// affecting the original. Element values are shared and must not be mutated.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	return &c
}
