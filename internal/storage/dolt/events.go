package dolt

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oa-archive/oat/internal/types"
)

const eventColumns = `id, at, publication_id, action, old_status, new_status,
	pid, url, note, source`

func scanEvent(scan func(dest ...any) error) (*types.Event, error) {
	var (
		ev        types.Event
		oldStatus sql.NullString
		newStatus sql.NullString
		pid       sql.NullString
		url       sql.NullString
		note      sql.NullString
		source    string
	)
	err := scan(&ev.ID, &ev.At, &ev.PublicationID, &ev.Action,
		&oldStatus, &newStatus, &pid, &url, &note, &source)
	if err != nil {
		return nil, err
	}
	if oldStatus.Valid {
		s := types.Status(oldStatus.String)
		ev.OldStatus = &s
	}
	if newStatus.Valid {
		s := types.Status(newStatus.String)
		ev.NewStatus = &s
	}
	if pid.Valid {
		ev.PID = &pid.String
	}
	if url.Valid {
		ev.URL = &url.String
	}
	if note.Valid {
		ev.Note = &note.String
	}
	ev.Source = types.Source(source)
	return &ev, nil
}

func eventsSince(ctx context.Context, q querier, since time.Time) ([]*types.Event, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+eventColumns+` FROM events
		WHERE at >= ?
		ORDER BY at DESC, id DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []*types.Event
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func insertEvent(ctx context.Context, q querier, ev *types.Event) error {
	if ev.PublicationID == "" {
		return fmt.Errorf("event publication id is required")
	}
	if ev.Action == "" {
		return fmt.Errorf("event action is required")
	}

	var oldStatus, newStatus any
	if ev.OldStatus != nil {
		oldStatus = string(*ev.OldStatus)
	}
	if ev.NewStatus != nil {
		newStatus = string(*ev.NewStatus)
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO events (at, publication_id, action, old_status, new_status,
			pid, url, note, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.At, ev.PublicationID, ev.Action, oldStatus, newStatus,
		patchValue(ev.PID), patchValue(ev.URL), patchValue(ev.Note),
		string(ev.Source))
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		ev.ID = id
	}
	return nil
}

func (s *Store) EventsSince(ctx context.Context, since time.Time) ([]*types.Event, error) {
	return eventsSince(ctx, s.db, since)
}

func (t *storeTx) EventsSince(ctx context.Context, since time.Time) ([]*types.Event, error) {
	return eventsSince(ctx, t.tx, since)
}

func (t *storeTx) InsertEvent(ctx context.Context, ev *types.Event) error {
	return insertEvent(ctx, t.tx, ev)
}
