package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"kassa/internal/database"
	"kassa/internal/models"
)

type SeatRepository struct {
	db *database.DB
}

func NewSeatRepository(db *database.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

func (r *SeatRepository) GetBySessionID(ctx context.Context, sessionID string) ([]models.Seat, error) {
	query := `
		SELECT id, session_id, seat_number, status, created_at, updated_at
		FROM seats
		WHERE session_id = $1
		ORDER BY seat_number`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.SessionID,
			&seat.Number,
			&seat.Status,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}

// LockForSessionTx loads the requested seats of one session and acquires
// row-level write locks on them in seat id order. The fixed global lock
// ordering is the deadlock-avoidance mechanism: two transactions that need
// overlapping seats always request locks in the same relative order and
// block instead of cycling.
func (r *SeatRepository) LockForSessionTx(ctx context.Context, tx *sql.Tx, sessionID string, seatIDs []string) ([]models.Seat, error) {
	query := `
		SELECT id, session_id, seat_number, status, created_at, updated_at
		FROM seats
		WHERE session_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE`

	return scanSeats(tx.QueryContext(ctx, query, sessionID, pq.Array(seatIDs)))
}

// LockByIDsTx locks seat rows by id, same id ordering discipline as
// LockForSessionTx.
func (r *SeatRepository) LockByIDsTx(ctx context.Context, tx *sql.Tx, seatIDs []string) ([]models.Seat, error) {
	query := `
		SELECT id, session_id, seat_number, status, created_at, updated_at
		FROM seats
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`

	return scanSeats(tx.QueryContext(ctx, query, pq.Array(seatIDs)))
}

// UpdateStatusBulkTx transitions all given seats to the new status. The
// caller must already hold the row locks.
func (r *SeatRepository) UpdateStatusBulkTx(ctx context.Context, tx *sql.Tx, seatIDs []string, status string) error {
	query := `UPDATE seats SET status = $1, updated_at = NOW() WHERE id = ANY($2)`
	_, err := tx.ExecContext(ctx, query, status, pq.Array(seatIDs))
	return err
}

// ReleaseReservedTx returns RESERVED seats to AVAILABLE. The status predicate
// keeps a sold seat from ever moving backward even if the caller's view of
// the reservation is stale.
func (r *SeatRepository) ReleaseReservedTx(ctx context.Context, tx *sql.Tx, seatIDs []string) error {
	query := `
		UPDATE seats SET status = $1, updated_at = NOW()
		WHERE id = ANY($2) AND status = $3`
	_, err := tx.ExecContext(ctx, query, models.SeatAvailable, pq.Array(seatIDs), models.SeatReserved)
	return err
}

func scanSeats(rows *sql.Rows, err error) ([]models.Seat, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.SessionID,
			&seat.Number,
			&seat.Status,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}
