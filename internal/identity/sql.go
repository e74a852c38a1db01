package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLMemo stores mappings in the identity_map table.
type SQLMemo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSQLMemo(db *sql.DB) *SQLMemo { return &SQLMemo{DB: db, Now: time.Now} }

func (m *SQLMemo) Get(ctx context.Context, candidate int64) (int64, bool, error) {
	var id int64
	err := m.DB.QueryRowContext(ctx,
		`SELECT student_id FROM identity_map WHERE candidate_id=$1`, candidate).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (m *SQLMemo) Set(ctx context.Context, candidate, studentID int64) error {
	_, err := m.DB.ExecContext(ctx, `
		INSERT INTO identity_map (candidate_id, student_id, resolved_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (candidate_id) DO UPDATE SET student_id=EXCLUDED.student_id, resolved_at=EXCLUDED.resolved_at`,
		candidate, studentID, m.Now().Unix())
	return err
}
