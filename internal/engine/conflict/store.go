// internal/engine/conflict/store.go
package conflict

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dispatch-workers/internal/common/database"
	"dispatch-workers/internal/common/logger"
	"dispatch-workers/internal/models"
)

const (
	listCommitmentsQuery = `
		SELECT id, org_id, technician_id, scheduled_time, end_time, duration_minutes, override_used, created_at
		FROM schedule_commitments
		WHERE org_id = $1 AND technician_id = $2
		  AND scheduled_time >= $3 AND scheduled_time <= $4
		ORDER BY scheduled_time`

	// Same window query taking a row lock; used inside the commit
	// transaction so the re-check and the insert are atomic against
	// concurrent assigners of the same technician.
	listCommitmentsForUpdateQuery = listCommitmentsQuery + `
		FOR UPDATE`

	insertCommitmentQuery = `
		INSERT INTO schedule_commitments (id, org_id, technician_id, scheduled_time, end_time, duration_minutes, override_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

// CommitmentStore reads and writes schedule commitments in Postgres.
type CommitmentStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewCommitmentStore(db *database.PostgresClient, log logger.Logger) *CommitmentStore {
	return &CommitmentStore{db: db, logger: log}
}

// ListInWindow returns commitments whose scheduled time lies in
// [from, to] for one (org, technician) pair.
func (s *CommitmentStore) ListInWindow(ctx context.Context, orgID, technicianID string, from, to time.Time) ([]models.ScheduleCommitment, error) {
	rows, err := s.db.Query(ctx, listCommitmentsQuery, orgID, technicianID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	defer rows.Close()

	return scanCommitments(rows)
}

// BeginTx opens the commit transaction.
func (s *CommitmentStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// ListInWindowTx is ListInWindow under FOR UPDATE inside a transaction.
func (s *CommitmentStore) ListInWindowTx(ctx context.Context, tx *sql.Tx, orgID, technicianID string, from, to time.Time) ([]models.ScheduleCommitment, error) {
	rows, err := tx.QueryContext(ctx, listCommitmentsForUpdateQuery, orgID, technicianID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list commitments for update: %w", err)
	}
	defer rows.Close()

	return scanCommitments(rows)
}

// InsertTx writes a new commitment inside the commit transaction.
func (s *CommitmentStore) InsertTx(ctx context.Context, tx *sql.Tx, c *models.ScheduleCommitment) error {
	_, err := tx.ExecContext(ctx, insertCommitmentQuery,
		c.ID, c.OrgID, c.TechnicianID, c.ScheduledTime, c.EndTime, c.DurationMinutes, c.OverrideUsed, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert commitment: %w", err)
	}
	return nil
}

func scanCommitments(rows *sql.Rows) ([]models.ScheduleCommitment, error) {
	commitments := make([]models.ScheduleCommitment, 0)
	for rows.Next() {
		var c models.ScheduleCommitment
		if err := rows.Scan(&c.ID, &c.OrgID, &c.TechnicianID, &c.ScheduledTime, &c.EndTime, &c.DurationMinutes, &c.OverrideUsed, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		commitments = append(commitments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commitments: %w", err)
	}
	return commitments, nil
}
