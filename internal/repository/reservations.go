package repository

import (
	"context"
	"database/sql"
	"time"

	"kassa/internal/database"
	"kassa/internal/models"
)

type ReservationRepository struct {
	db *database.DB
}

func NewReservationRepository(db *database.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// CreateTx inserts a reservation and its seat membership rows. Membership is
// immutable after this insert; no update path exists for reservation_seats.
func (r *ReservationRepository) CreateTx(ctx context.Context, tx *sql.Tx, reservation *models.Reservation, seatIDs []string) error {
	query := `
		INSERT INTO reservations (session_id, user_id, status, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := tx.QueryRowContext(ctx, query,
		reservation.SessionID,
		reservation.UserID,
		reservation.Status,
		reservation.ExpiresAt,
	).Scan(&reservation.ID, &reservation.CreatedAt)
	if err != nil {
		return err
	}

	for _, seatID := range seatIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO reservation_seats (reservation_id, seat_id) VALUES ($1, $2)`,
			reservation.ID, seatID)
		if err != nil {
			return err
		}
	}

	return nil
}

// LockByIDTx locks a single reservation row for write, no join. Returns nil
// when the reservation does not exist.
func (r *ReservationRepository) LockByIDTx(ctx context.Context, tx *sql.Tx, id string) (*models.Reservation, error) {
	reservation := &models.Reservation{}
	query := `
		SELECT id, session_id, user_id, status, expires_at, created_at
		FROM reservations
		WHERE id = $1
		FOR UPDATE`

	err := tx.QueryRowContext(ctx, query, id).Scan(
		&reservation.ID,
		&reservation.SessionID,
		&reservation.UserID,
		&reservation.Status,
		&reservation.ExpiresAt,
		&reservation.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return reservation, err
}

// GetSeatIDsTx reads the reservation's seat identities from the association
// table. No lock is needed: the caller holds the reservation row lock and
// membership never changes after creation.
func (r *ReservationRepository) GetSeatIDsTx(ctx context.Context, tx *sql.Tx, reservationID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM reservation_seats WHERE reservation_id = $1 ORDER BY seat_id`,
		reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seatIDs []string
	for rows.Next() {
		var seatID string
		if err := rows.Scan(&seatID); err != nil {
			return nil, err
		}
		seatIDs = append(seatIDs, seatID)
	}

	return seatIDs, rows.Err()
}

// LockExpiredBatchTx selects up to limit PENDING reservations whose deadline
// has passed, locking them for write.
func (r *ReservationRepository) LockExpiredBatchTx(ctx context.Context, tx *sql.Tx, now time.Time, limit int) ([]models.Reservation, error) {
	query := `
		SELECT id, session_id, user_id, status, expires_at, created_at
		FROM reservations
		WHERE status = $1 AND expires_at < $2
		ORDER BY expires_at
		LIMIT $3
		FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, models.ReservationPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var reservation models.Reservation
		err := rows.Scan(
			&reservation.ID,
			&reservation.SessionID,
			&reservation.UserID,
			&reservation.Status,
			&reservation.ExpiresAt,
			&reservation.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}

	return reservations, rows.Err()
}

// MarkExpiredTx performs the conditional PENDING -> EXPIRED transition. Both
// the sweeper and the confirmation engine's defensive expiry go through this
// one statement; zero affected rows means another process already won and
// the caller skips silently.
func (r *ReservationRepository) MarkExpiredTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	return r.transitionTx(ctx, tx, id, models.ReservationPending, models.ReservationExpired)
}

// MarkConfirmedTx performs the conditional PENDING -> CONFIRMED transition.
func (r *ReservationRepository) MarkConfirmedTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	return r.transitionTx(ctx, tx, id, models.ReservationPending, models.ReservationConfirmed)
}

func (r *ReservationRepository) transitionTx(ctx context.Context, tx *sql.Tx, id, from, to string) (bool, error) {
	result, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
