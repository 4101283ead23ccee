// Package journal records invocation events in a queryable store.
//
// A Recorder implements the engine's Observer interface and appends one
// entry per action call, so registering it keeps a durable audit trail of
// what ran, in which group, with what outcome. The engine itself stays
// free of I/O; the journal is an opt-in collaborator.
package journal

import (
	"context"
	"time"

	"github.com/okvist/invoker/pkg/api"
)

// Status classifies one journal entry.
type Status string

const (
	// StatusOK is a call that returned without error.
	StatusOK Status = "OK"

	// StatusError is a call that returned an error.
	StatusError Status = "ERROR"

	// StatusDropped marks an exhausted resumable action being unlinked
	// from a group.
	StatusDropped Status = "DROPPED"
)

// Entry is one recorded invocation event.
type Entry struct {
	// Seq is assigned by the store, strictly increasing in append order.
	Seq int64

	Group    string
	ActionID api.ActionID

	// Action is the registered action name, possibly empty.
	Action string

	Status   Status
	Error    string
	Duration time.Duration

	// Result is the value the call produced, when it was encodable;
	// nil otherwise.
	Result any

	RecordedAt time.Time
}

// Filter selects entries when listing. Zero values mean "no filter" for
// that field.
type Filter struct {
	Group    string
	Status   Status
	ActionID api.ActionID
}

// Store persists journal entries.
type Store interface {
	// Append stores the entry and assigns Entry.Seq.
	Append(entry *Entry) error

	// List returns entries matching the filter in append order.
	List(filter Filter) ([]*Entry, error)
}

// Recorder is an api.Observer that appends one entry per action call and
// per drop to a Store. Store failures are swallowed; journaling must not
// disturb invocation.
type Recorder struct {
	api.NoopObserver

	store Store
}

// NewRecorder creates a Recorder writing to the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) OnActionCompleted(ctx context.Context, group string, id api.ActionID, name string, result any, err error, d time.Duration) {
	entry := &Entry{
		Group:      group,
		ActionID:   id,
		Action:     name,
		Status:     StatusOK,
		Duration:   d,
		Result:     result,
		RecordedAt: time.Now().UTC(),
	}
	if err != nil {
		entry.Status = StatusError
		entry.Error = err.Error()
		entry.Result = nil
	}
	_ = r.store.Append(entry)
}

func (r *Recorder) OnActionDropped(ctx context.Context, group string, id api.ActionID, name string) {
	_ = r.store.Append(&Entry{
		Group:      group,
		ActionID:   id,
		Action:     name,
		Status:     StatusDropped,
		RecordedAt: time.Now().UTC(),
	})
}

func matches(entry *Entry, filter Filter) bool {
	if filter.Group != "" && entry.Group != filter.Group {
		return false
	}
	if filter.Status != "" && entry.Status != filter.Status {
		return false
	}
	if filter.ActionID != 0 && entry.ActionID != filter.ActionID {
		return false
	}
	return true
}
