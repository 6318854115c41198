// Package status encodes the archive lifecycle transition rules.
//
// The transition table is a finite map over (status, task) pairs plus two
// side rules: status-preserving no-op tasks, and wildcard closing tasks
// that are permitted from any OPEN status. Resolve classifies every pair;
// there is no fallback state.
package status

import (
	"errors"
	"fmt"

	"github.com/oa-archive/oat/internal/types"
)

// Rejection reasons returned by Resolve. Callers match with errors.Is.
var (
	ErrUnknownTask       = errors.New("unknown task code")
	ErrNotOpen           = errors.New("not an open status")
	ErrInvalidTransition = errors.New("invalid transition")
)

type transitionKey struct {
	from types.Status
	task types.TaskCode
}

// transitions is the explicit pipeline map. Scanner-driven changes
// (new folder, became active) do not go through this table.
var transitions = map[transitionKey]types.Status{
	{types.StatusActive, types.TaskQAPass}:                   types.StatusReadyForDraft,
	{types.StatusReadyForDraft, types.TaskDraftCreated}:      types.StatusDraftCreated,
	{types.StatusDraftCreated, types.TaskDepositValidated}:   types.StatusDraftValidated,
	{types.StatusDraftValidated, types.TaskDepositPublished}: types.StatusPublished,
	{types.StatusPublished, types.TaskDBUpdated}:             types.StatusDBUpdated,
	{types.StatusDBUpdated, types.TaskFolderRemoved}:         types.StatusDataArchived,
}

// wildcardTasks can be applied from any OPEN status.
var wildcardTasks = map[types.TaskCode]types.Status{
	types.TaskClosePublishOnly: types.StatusPublicationOnly,
	types.TaskCloseException:   types.StatusException,
}

// Resolve returns the status an archive moves to when the given task is
// reported complete, or a rejection error if the pair is not permitted.
func Resolve(current types.Status, task types.TaskCode) (types.Status, error) {
	if !task.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTask, task)
	}

	// remind_sent and qa_hold never change status. They still produce an
	// audit event and field updates, handled by the applier.
	if task == types.TaskRemindSent || task == types.TaskQAHold {
		return current, nil
	}

	if target, ok := wildcardTasks[task]; ok {
		if current.IsOpen() {
			return target, nil
		}
		return "", fmt.Errorf("%w: cannot apply %q to %q", ErrNotOpen, task, current)
	}

	if target, ok := transitions[transitionKey{current, task}]; ok {
		return target, nil
	}
	return "", fmt.Errorf("%w: %q from %q", ErrInvalidTransition, task, current)
}

// nextTask maps each working OPEN status to the task the pipeline
// recommends next. OPEN_INACTIVE and CLOSED statuses have no next task.
var nextTask = map[types.Status]types.TaskCode{
	types.StatusActive:         types.TaskQAPass,
	types.StatusReadyForDraft:  types.TaskDraftCreated,
	types.StatusDraftCreated:   types.TaskDepositValidated,
	types.StatusDraftValidated: types.TaskDepositPublished,
	types.StatusPublished:      types.TaskDBUpdated,
	types.StatusDBUpdated:      types.TaskFolderRemoved,
}

// NextTask returns the recommended next task for a status, or "" if the
// pipeline has nothing to suggest.
func NextTask(s types.Status) types.TaskCode {
	return nextTask[s]
}
