package repository

import (
	"context"
	"database/sql"

	"kassa/internal/database"
	"kassa/internal/models"
)

type SaleRepository struct {
	db *database.DB
}

func NewSaleRepository(db *database.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// ExistsForReservationTx guards against double execution inside the same
// transaction. The UNIQUE index on reservation_id is the durable backstop.
func (r *SaleRepository) ExistsForReservationTx(ctx context.Context, tx *sql.Tx, reservationID string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sales WHERE reservation_id = $1)`,
		reservationID).Scan(&exists)
	return exists, err
}

// CreateTx inserts the sale record. Sales are append-only; there is no
// update or delete path.
func (r *SaleRepository) CreateTx(ctx context.Context, tx *sql.Tx, sale *models.Sale) error {
	query := `
		INSERT INTO sales (reservation_id, session_id, user_id, total_cents, payment_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, sold_at`

	return tx.QueryRowContext(ctx, query,
		sale.ReservationID,
		sale.SessionID,
		sale.UserID,
		sale.TotalCents,
		sale.PaymentRef,
	).Scan(&sale.ID, &sale.SoldAt)
}

func (r *SaleRepository) GetByUserID(ctx context.Context, userID string) ([]models.Sale, error) {
	query := `
		SELECT id, reservation_id, session_id, user_id, total_cents, payment_ref, sold_at
		FROM sales
		WHERE user_id = $1
		ORDER BY sold_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var sale models.Sale
		var paymentRef sql.NullString
		err := rows.Scan(
			&sale.ID,
			&sale.ReservationID,
			&sale.SessionID,
			&sale.UserID,
			&sale.TotalCents,
			&paymentRef,
			&sale.SoldAt,
		)
		if err != nil {
			return nil, err
		}
		if paymentRef.Valid {
			ref := paymentRef.String
			sale.PaymentRef = &ref
		}
		sales = append(sales, sale)
	}

	return sales, rows.Err()
}
