// Package types defines core data structures for the oat archive tracker.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Archive tracks the dataset-archiving lifecycle of one publication.
// The record is keyed by publication ID, which is immutable once created.
type Archive struct {
	PublicationID string `json:"publication_id"`
	FolderPath    string `json:"folder_path"`

	FirstSeenAt    time.Time  `json:"first_seen_at"`
	BecameActiveAt *time.Time `json:"became_active_at,omitempty"`
	LastSeenAt     time.Time  `json:"last_seen_at"`
	LastChangedAt  *time.Time `json:"last_changed_at,omitempty"`

	Status Status `json:"status"`

	// FinalPID and FinalURL are opaque operator-supplied strings; expected
	// to be the dataset DOI and landing page once a deposit is published.
	FinalPID *string `json:"final_pid,omitempty"`
	FinalURL *string `json:"final_url,omitempty"`

	// Notes is an append-only log of timestamped operator annotations.
	Notes string `json:"notes,omitempty"`

	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`
	ReminderCount  int        `json:"reminder_count"`
	NextReminderAt *time.Time `json:"next_reminder_at,omitempty"`

	// MissingFolder is set when a scan pass does not observe the folder of
	// an OPEN archive; it clears automatically once the folder reappears.
	MissingFolder      bool       `json:"missing_folder,omitempty"`
	MissingFolderSince *time.Time `json:"missing_folder_since,omitempty"`
}

// HasPID reports whether a final PID has been recorded.
func (a *Archive) HasPID() bool {
	return a.FinalPID != nil && *a.FinalPID != ""
}

// AppendNote returns the notes field with a timestamped entry appended.
// Existing notes are never overwritten.
func (a *Archive) AppendNote(note string, now time.Time) string {
	entry := fmt.Sprintf("[%s] %s", now.Format(time.DateTime), note)
	if a.Notes == "" {
		return entry
	}
	return a.Notes + "\n" + entry
}

// Validate checks the archive's field invariants.
func (a *Archive) Validate() error {
	if a.PublicationID == "" {
		return fmt.Errorf("publication id is required")
	}
	if !a.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	if a.ReminderCount < 0 {
		return fmt.Errorf("reminder_count cannot be negative")
	}
	if a.Status.IsClosed() && a.NextReminderAt != nil {
		return fmt.Errorf("closed archives cannot have a pending reminder")
	}
	return nil
}

// Status represents the current lifecycle state of an archive.
// Statuses are partitioned into OPEN_* (work remaining) and CLOSED_*
// (terminal) namespaces; the string prefix is load-bearing for queries.
type Status string

const (
	StatusInactive       Status = "OPEN_INACTIVE"
	StatusActive         Status = "OPEN_ACTIVE"
	StatusReadyForDraft  Status = "OPEN_READY_FOR_DEPOSIT_DRAFT"
	StatusDraftCreated   Status = "OPEN_DEPOSIT_DRAFT_CREATED"
	StatusDraftValidated Status = "OPEN_DEPOSIT_DRAFT_VALIDATED"
	StatusPublished      Status = "OPEN_DEPOSIT_PUBLISHED"
	StatusDBUpdated      Status = "OPEN_DB_UPDATED"

	StatusDataArchived    Status = "CLOSED_DATA_ARCHIVED"
	StatusPublicationOnly Status = "CLOSED_PUBLICATION_ONLY"
	StatusException       Status = "CLOSED_EXCEPTION"
)

// PipelineOrder lists the OPEN statuses in pipeline order, for display.
var PipelineOrder = []Status{
	StatusInactive,
	StatusActive,
	StatusReadyForDraft,
	StatusDraftCreated,
	StatusDraftValidated,
	StatusPublished,
	StatusDBUpdated,
}

// ClosedStatuses lists the terminal statuses.
var ClosedStatuses = []Status{
	StatusDataArchived,
	StatusPublicationOnly,
	StatusException,
}

// OpenStatuses returns all OPEN statuses.
func OpenStatuses() []Status {
	out := make([]Status, len(PipelineOrder))
	copy(out, PipelineOrder)
	return out
}

// AllStatuses returns every valid status value.
func AllStatuses() []Status {
	return append(OpenStatuses(), ClosedStatuses...)
}

// IsValid checks if the status value is one of the fixed enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusReadyForDraft, StatusDraftCreated,
		StatusDraftValidated, StatusPublished, StatusDBUpdated,
		StatusDataArchived, StatusPublicationOnly, StatusException:
		return true
	}
	return false
}

// IsOpen reports whether the status is in the OPEN namespace.
func (s Status) IsOpen() bool {
	return strings.HasPrefix(string(s), "OPEN_")
}

// IsClosed reports whether the status is terminal.
func (s Status) IsClosed() bool {
	return strings.HasPrefix(string(s), "CLOSED_")
}

// TaskCode identifies one curation task an operator can report as done.
type TaskCode string

const (
	TaskRemindSent          TaskCode = "remind_sent"
	TaskQAPass              TaskCode = "qa_pass"
	TaskQAHold              TaskCode = "qa_hold"
	TaskDraftCreated        TaskCode = "deposit_draft_created"
	TaskDepositValidated    TaskCode = "deposit_validated"
	TaskDepositPublished    TaskCode = "deposit_published"
	TaskDBUpdated           TaskCode = "db_updated"
	TaskFolderRemoved       TaskCode = "folder_removed"
	TaskClosePublishOnly    TaskCode = "close_publication_only"
	TaskCloseException      TaskCode = "close_exception"
)

// TaskInfo describes a task code for sheet generation and help output.
type TaskInfo struct {
	Description   string
	ChangesStatus bool
	RequiresPID   bool
}

// Tasks is the fixed task catalog.
var Tasks = map[TaskCode]TaskInfo{
	TaskRemindSent:       {Description: "Send reminder email to data contact", ChangesStatus: false},
	TaskQAPass:           {Description: "QA complete; ready for deposit draft", ChangesStatus: true},
	TaskQAHold:           {Description: "QA not passed; add note and keep monitoring", ChangesStatus: false},
	TaskDraftCreated:     {Description: "Create deposit draft", ChangesStatus: true},
	TaskDepositValidated: {Description: "Validate deposit draft metadata and files", ChangesStatus: true},
	TaskDepositPublished: {Description: "Publish deposit record", ChangesStatus: true, RequiresPID: true},
	TaskDBUpdated:        {Description: "Update internal publication DB with dataset DOI/URL", ChangesStatus: true},
	TaskFolderRemoved:    {Description: "Remove dataset folder; close archive", ChangesStatus: true},
	TaskClosePublishOnly: {Description: "Close as publication-only (no data deposit needed)", ChangesStatus: true},
	TaskCloseException:   {Description: "Close with exception (note strongly encouraged)", ChangesStatus: true},
}

// IsValid checks if the task code is in the catalog.
func (t TaskCode) IsValid() bool {
	_, ok := Tasks[t]
	return ok
}

// Source identifies which collaborator produced an event.
type Source string

const (
	SourceScanner     Source = "scanner"
	SourceActionSheet Source = "action_sheet"
)

// Event is an immutable audit record of one state change or observation.
// Events are append-only; they are never mutated or deleted.
type Event struct {
	ID            int64     `json:"id"`
	At            time.Time `json:"at"`
	PublicationID string    `json:"publication_id"`
	// Action is a task code or a scanner/applier action code such as
	// "new_active", "fast_track_published" or "full_closure".
	Action    string  `json:"action"`
	OldStatus *Status `json:"old_status,omitempty"`
	NewStatus *Status `json:"new_status,omitempty"`
	PID       *string `json:"pid,omitempty"`
	URL       *string `json:"url,omitempty"`
	Note      *string `json:"note,omitempty"`
	Source    Source  `json:"source"`
}

// Applier action codes recorded on events in addition to task codes.
const (
	ActionFastTrackPublished = "fast_track_published"
	ActionFullClosure        = "full_closure"
)

// Scanner action codes.
const (
	ActionNewInactive   = "new_inactive"
	ActionNewActive     = "new_active"
	ActionBecameActive  = "became_active"
	ActionFolderMissing = "folder_missing"
)
