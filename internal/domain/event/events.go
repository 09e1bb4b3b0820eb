package event

import (
	"time"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	// EventName returns the name of the event
	EventName() string
	// OccurredAt returns when the event occurred
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events
type BaseEvent struct {
	Timestamp time.Time
	RunID     string
}

// OccurredAt returns when the event occurred
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func newBase(runID string) BaseEvent {
	return BaseEvent{Timestamp: time.Now(), RunID: runID}
}

// GroupResolved is raised when a duplicate group has been ranked and its
// keeper chosen
type GroupResolved struct {
	BaseEvent
	Number   int
	Kind     string
	Keeper   string
	Discards []string
}

// EventName returns the event name
func (e GroupResolved) EventName() string {
	return "group.resolved"
}

// NewGroupResolved creates a new GroupResolved event
func NewGroupResolved(runID string, number int, kind, keeper string, discards []string) GroupResolved {
	return GroupResolved{
		BaseEvent: newBase(runID),
		Number:    number,
		Kind:      kind,
		Keeper:    keeper,
		Discards:  discards,
	}
}

// FileDeleted is raised when a non-keeper was removed
type FileDeleted struct {
	BaseEvent
	Path   string
	Keeper string
	Size   int64
}

// EventName returns the event name
func (e FileDeleted) EventName() string {
	return "file.deleted"
}

// NewFileDeleted creates a new FileDeleted event
func NewFileDeleted(runID, path, keeper string, size int64) FileDeleted {
	return FileDeleted{
		BaseEvent: newBase(runID),
		Path:      path,
		Keeper:    keeper,
		Size:      size,
	}
}

// FileMoved is raised when a non-keeper was relocated
type FileMoved struct {
	BaseEvent
	Path        string
	Destination string
	Keeper      string
	Size        int64
}

// EventName returns the event name
func (e FileMoved) EventName() string {
	return "file.moved"
}

// NewFileMoved creates a new FileMoved event
func NewFileMoved(runID, path, destination, keeper string, size int64) FileMoved {
	return FileMoved{
		BaseEvent:   newBase(runID),
		Path:        path,
		Destination: destination,
		Keeper:      keeper,
		Size:        size,
	}
}

// DispositionFailed is raised when moving or deleting a file failed
type DispositionFailed struct {
	BaseEvent
	Path   string
	Action string
	Error  string
}

// EventName returns the event name
func (e DispositionFailed) EventName() string {
	return "file.disposition_failed"
}

// NewDispositionFailed creates a new DispositionFailed event
func NewDispositionFailed(runID, path, action string, err error) DispositionFailed {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return DispositionFailed{
		BaseEvent: newBase(runID),
		Path:      path,
		Action:    action,
		Error:     msg,
	}
}

// ScanCompleted is raised when duplicate search has finished
type ScanCompleted struct {
	BaseEvent
	Root        string
	TotalFiles  int
	ExactGroups int
	FuzzyGroups int
	Duration    time.Duration
}

// EventName returns the event name
func (e ScanCompleted) EventName() string {
	return "scan.completed"
}

// NewScanCompleted creates a new ScanCompleted event
func NewScanCompleted(runID, root string, totalFiles, exactGroups, fuzzyGroups int, duration time.Duration) ScanCompleted {
	return ScanCompleted{
		BaseEvent:   newBase(runID),
		Root:        root,
		TotalFiles:  totalFiles,
		ExactGroups: exactGroups,
		FuzzyGroups: fuzzyGroups,
		Duration:    duration,
	}
}
