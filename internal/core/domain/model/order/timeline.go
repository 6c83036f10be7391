package order

import (
	"errors"
	"time"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Timeline errors.
var (
	// ErrTimelineEntryIsNotConstructed is returned when validating a
	// zero-value TimelineEntry.
	ErrTimelineEntryIsNotConstructed = errors.New(
		"TimelineEntry must be created via NewTimelineEntry constructor")

	// ErrTimelineNotMonotonic is returned when an append would move the
	// timeline backwards in wall-clock time.
	ErrTimelineNotMonotonic = errors.New("timeline entries must not move backwards in time")
)

// TimelineEntry is one record of the append-only order history: the status the
// order entered, when, and an optional free-form note.
type TimelineEntry struct { //nolint:recvcheck //using for validation
	status     Status
	recordedAt time.Time
	note       string

	guard guard.ConstructorGuard
}

// NewTimelineEntry creates a timeline record for the given status at the given
// wall-clock time.
func NewTimelineEntry(status Status, recordedAt time.Time, note string) (TimelineEntry, error) {
	entry := TimelineEntry{
		note:  note,
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		entry.setStatus(status),
		entry.setRecordedAt(recordedAt),
	); err != nil {
		return TimelineEntry{}, err
	}

	return entry, nil
}

// Validate ensures the entry was created via NewTimelineEntry.
func (e TimelineEntry) Validate() error {
	return e.guard.Validate(ErrTimelineEntryIsNotConstructed)
}

// Status returns the status the order entered.
func (e TimelineEntry) Status() Status {
	return e.status
}

// RecordedAt returns the wall-clock timestamp of the entry.
func (e TimelineEntry) RecordedAt() time.Time {
	return e.recordedAt
}

// Note returns the optional annotation, possibly empty.
func (e TimelineEntry) Note() string {
	return e.note
}

func (e *TimelineEntry) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	e.status = status
	return nil
}

func (e *TimelineEntry) setRecordedAt(recordedAt time.Time) error {
	if recordedAt.IsZero() {
		return errs.NewValueIsRequiredError("recordedAt")
	}
	e.recordedAt = recordedAt
	return nil
}
