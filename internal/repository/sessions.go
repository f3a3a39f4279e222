package repository

import (
	"context"
	"database/sql"

	"kassa/internal/database"
	"kassa/internal/models"
)

type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateTx inserts a new session within the given transaction and populates
// the generated id and timestamps on the provided model.
func (r *SessionRepository) CreateTx(ctx context.Context, tx *sql.Tx, session *models.Session) error {
	query := `
		INSERT INTO sessions (title, starts_at, room, price_cents, seat_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return tx.QueryRowContext(ctx, query,
		session.Title,
		session.StartsAt,
		session.Room,
		session.PriceCents,
		session.SeatCount,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
}

// CreateSeatsTx fans out seatCount seat rows numbered 1..seatCount for the
// session, all AVAILABLE. Runs in the same transaction as the session insert
// so a half-created session is never observable.
func (r *SessionRepository) CreateSeatsTx(ctx context.Context, tx *sql.Tx, sessionID string, seatCount int) ([]models.Seat, error) {
	query := `
		INSERT INTO seats (session_id, seat_number)
		VALUES ($1, $2)
		RETURNING id, session_id, seat_number, status, created_at, updated_at`

	seats := make([]models.Seat, 0, seatCount)
	for number := 1; number <= seatCount; number++ {
		var seat models.Seat
		err := tx.QueryRowContext(ctx, query, sessionID, number).Scan(
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

	return seats, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	session := &models.Session{}
	query := `
		SELECT id, title, starts_at, room, price_cents, seat_count, created_at, updated_at
		FROM sessions
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.Title,
		&session.StartsAt,
		&session.Room,
		&session.PriceCents,
		&session.SeatCount,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return session, err
}

// GetPriceTx reads the unit price inside a transaction. Sessions are
// immutable after creation, so no lock is taken.
func (r *SessionRepository) GetPriceTx(ctx context.Context, tx *sql.Tx, id string) (int64, error) {
	var priceCents int64
	err := tx.QueryRowContext(ctx, `SELECT price_cents FROM sessions WHERE id = $1`, id).Scan(&priceCents)
	return priceCents, err
}
