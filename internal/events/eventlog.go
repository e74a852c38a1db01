package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-pathways/internal/db"
)

// Record is a stored event with its log position.
type Record struct {
	Seq int64 `json:"seq"`
	Event
}

// EventLog appends to the event_log table.
type EventLog struct {
	db     *sql.DB
	siteID string
}

func NewEventLog(h *sql.DB, siteID string) *EventLog {
	if siteID == "" {
		siteID = "local"
	}
	return &EventLog{db: h, siteID: siteID}
}

func (l *EventLog) Append(ctx context.Context, evs ...Event) error {
	if len(evs) == 0 {
		return nil
	}
	return db.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		for _, e := range evs {
			site := e.SiteID
			if site == "" {
				site = l.siteID
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO event_log (id, site_id, typ, key, data, created_at)
				 VALUES ($1,$2,$3,$4,$5,$6)`,
				e.ID.String(), site, string(e.Type), e.Key, string(e.Payload), e.CreatedAt.Unix()); err != nil {
				return fmt.Errorf("append %s: %w", e.Type, err)
			}
		}
		return nil
	})
}

// List returns up to limit events after seq, oldest first. An empty typ
// matches every type.
func (l *EventLog) List(ctx context.Context, typ Type, afterSeq int64, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT seq, id, site_id, typ, key, data, created_at FROM event_log
		 WHERE seq > $1 AND (CAST($2 AS TEXT) = '' OR typ = $2)
		 ORDER BY seq LIMIT $3`,
		afterSeq, string(typ), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			id, t   string
			data    string
			created int64
		)
		if err := rows.Scan(&r.Seq, &id, &r.SiteID, &t, &r.Key, &data, &created); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("event %d: %w", r.Seq, err)
		}
		r.Type = Type(t)
		r.Payload = []byte(data)
		r.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
