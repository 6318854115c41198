package dolt

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/types"
)

// querier abstracts *sql.DB and *sql.Tx so the query helpers serve both
// the store and its transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const archiveColumns = `publication_id, folder_path, first_seen_at, became_active_at,
	last_seen_at, last_changed_at, status, final_pid, final_url, notes,
	last_notified_at, reminder_count, next_reminder_at, missing_folder,
	missing_folder_since`

// archiveFields is the set of patchable columns. publication_id is the
// immutable key and is never patched.
var archiveFields = map[string]bool{
	"folder_path":          true,
	"first_seen_at":        true,
	"became_active_at":     true,
	"last_seen_at":         true,
	"last_changed_at":      true,
	"status":               true,
	"final_pid":            true,
	"final_url":            true,
	"notes":                true,
	"last_notified_at":     true,
	"reminder_count":       true,
	"next_reminder_at":     true,
	"missing_folder":       true,
	"missing_folder_since": true,
}

func scanArchive(scan func(dest ...any) error) (*types.Archive, error) {
	var (
		a            types.Archive
		becameActive sql.NullTime
		lastChanged  sql.NullTime
		finalPID     sql.NullString
		finalURL     sql.NullString
		notes        sql.NullString
		lastNotified sql.NullTime
		nextReminder sql.NullTime
		missingSince sql.NullTime
	)
	err := scan(
		&a.PublicationID, &a.FolderPath, &a.FirstSeenAt, &becameActive,
		&a.LastSeenAt, &lastChanged, &a.Status, &finalPID, &finalURL, &notes,
		&lastNotified, &a.ReminderCount, &nextReminder, &a.MissingFolder,
		&missingSince,
	)
	if err != nil {
		return nil, err
	}
	if becameActive.Valid {
		a.BecameActiveAt = &becameActive.Time
	}
	if lastChanged.Valid {
		a.LastChangedAt = &lastChanged.Time
	}
	if finalPID.Valid {
		a.FinalPID = &finalPID.String
	}
	if finalURL.Valid {
		a.FinalURL = &finalURL.String
	}
	if notes.Valid {
		a.Notes = notes.String
	}
	if lastNotified.Valid {
		a.LastNotifiedAt = &lastNotified.Time
	}
	if nextReminder.Valid {
		a.NextReminderAt = &nextReminder.Time
	}
	if missingSince.Valid {
		a.MissingFolderSince = &missingSince.Time
	}
	return &a, nil
}

func getArchive(ctx context.Context, q querier, pubID string) (*types.Archive, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+archiveColumns+" FROM archives WHERE publication_id = ?", pubID)
	a, err := scanArchive(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive %q: %w", pubID, err)
	}
	return a, nil
}

func listArchives(ctx context.Context, q querier, filter storage.ArchiveFilter) ([]*types.Archive, error) {
	query := "SELECT " + archiveColumns + " FROM archives"
	var (
		args  []any
		where []string
	)
	switch {
	case filter.Status != "":
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	case filter.Open:
		where = append(where, "status LIKE 'OPEN\\_%'")
	case filter.Closed:
		where = append(where, "status LIKE 'CLOSED\\_%'")
	case len(filter.Statuses) > 0:
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY publication_id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	defer rows.Close()

	var out []*types.Archive
	for rows.Next() {
		a, err := scanArchive(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan archive: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func remindersDue(ctx context.Context, q querier, now time.Time) ([]*types.Archive, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+archiveColumns+` FROM archives
		WHERE status LIKE 'OPEN\_%'
		  AND next_reminder_at IS NOT NULL
		  AND next_reminder_at <= ?
		ORDER BY next_reminder_at, publication_id`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var out []*types.Archive
	for rows.Next() {
		a, err := scanArchive(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan archive: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// patchValue normalizes patch values for the driver. Typed pointers and
// domain types collapse to driver-friendly primitives; a nil value (or
// nil typed pointer) becomes SQL NULL.
func patchValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case types.Status:
		return string(val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return *val
	case *string:
		if val == nil {
			return nil
		}
		return *val
	default:
		return v
	}
}

func applyPatch(ctx context.Context, q querier, pubID string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}

	// Deterministic column order keeps statements stable across runs.
	cols := make([]string, 0, len(patch))
	for col := range patch {
		if !archiveFields[col] {
			return fmt.Errorf("unknown archive field %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = col + " = ?"
		args = append(args, patchValue(patch[col]))
	}
	args = append(args, pubID)

	res, err := q.ExecContext(ctx,
		"UPDATE archives SET "+strings.Join(sets, ", ")+" WHERE publication_id = ?",
		args...)
	if err != nil {
		return fmt.Errorf("failed to update archive %q: %w", pubID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// RowsAffected is 0 both for a missing row and a no-change update;
		// distinguish with a point lookup.
		existing, err := getArchive(ctx, q, pubID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("archive %q: %w", pubID, storage.ErrNotFound)
		}
	}
	return nil
}

func upsertArchive(ctx context.Context, q querier, pubID string, patch map[string]any) error {
	if pubID == "" {
		return fmt.Errorf("publication id is required")
	}
	existing, err := getArchive(ctx, q, pubID)
	if err != nil {
		return err
	}
	if existing != nil {
		return applyPatch(ctx, q, pubID, patch)
	}

	cols := []string{"publication_id"}
	args := []any{pubID}
	for col := range patch {
		if !archiveFields[col] {
			return fmt.Errorf("unknown archive field %q", col)
		}
	}
	fieldNames := make([]string, 0, len(patch))
	for col := range patch {
		fieldNames = append(fieldNames, col)
	}
	sort.Strings(fieldNames)
	for _, col := range fieldNames {
		cols = append(cols, col)
		args = append(args, patchValue(patch[col]))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	_, err = q.ExecContext(ctx,
		"INSERT INTO archives ("+strings.Join(cols, ", ")+") VALUES ("+placeholders+")",
		args...)
	if err != nil {
		return fmt.Errorf("failed to insert archive %q: %w", pubID, err)
	}
	return nil
}

func setStatus(ctx context.Context, q querier, pubID string, newStatus types.Status, patch map[string]any) error {
	if !newStatus.IsValid() {
		return fmt.Errorf("invalid status: %s", newStatus)
	}
	merged := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		merged[k] = v
	}
	merged["status"] = newStatus
	return applyPatch(ctx, q, pubID, merged)
}

// Store-level reads.

func (s *Store) GetArchive(ctx context.Context, pubID string) (*types.Archive, error) {
	return getArchive(ctx, s.db, pubID)
}

func (s *Store) ListArchives(ctx context.Context, filter storage.ArchiveFilter) ([]*types.Archive, error) {
	return listArchives(ctx, s.db, filter)
}

func (s *Store) RemindersDue(ctx context.Context, now time.Time) ([]*types.Archive, error) {
	return remindersDue(ctx, s.db, now)
}

// Transaction-level operations.

func (t *storeTx) GetArchive(ctx context.Context, pubID string) (*types.Archive, error) {
	return getArchive(ctx, t.tx, pubID)
}

func (t *storeTx) ListArchives(ctx context.Context, filter storage.ArchiveFilter) ([]*types.Archive, error) {
	return listArchives(ctx, t.tx, filter)
}

func (t *storeTx) RemindersDue(ctx context.Context, now time.Time) ([]*types.Archive, error) {
	return remindersDue(ctx, t.tx, now)
}

func (t *storeTx) UpsertArchive(ctx context.Context, pubID string, patch map[string]any) error {
	return upsertArchive(ctx, t.tx, pubID, patch)
}

func (t *storeTx) SetStatus(ctx context.Context, pubID string, newStatus types.Status, patch map[string]any) error {
	return setStatus(ctx, t.tx, pubID, newStatus, patch)
}
