package service

import (
	"context"
	"time"

	"kassa/internal/config"
	"kassa/internal/database"
	"kassa/internal/models"
	"kassa/internal/repository"
)

// EventPublisher is the fire-and-forget notification boundary. Events are
// published only after a commit and never participate in the transaction.
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

// IdempotencyCache maps a caller-supplied deduplication key to a previously
// produced response, scoped by operation namespace.
type IdempotencyCache interface {
	GetIdempotent(ctx context.Context, namespace, key string) ([]byte, bool, error)
	SetIdempotent(ctx context.Context, namespace, key string, payload []byte, ttl time.Duration) error
	SetHoldMarker(ctx context.Context, reservationID string, ttl time.Duration) error
}

// SessionIndex is the catalog search boundary.
type SessionIndex interface {
	IndexSession(ctx context.Context, session *models.Session) error
	Search(ctx context.Context, query string, page, pageSize int) ([]models.Session, error)
}

type Services struct {
	Sessions     *SessionService
	Reservations *ReservationService
	Sales        *SaleService
}

func NewServices(repos *repository.Repositories, db *database.DB, publisher EventPublisher, idempo IdempotencyCache, index SessionIndex, cfg *config.Config) *Services {
	sessionService := NewSessionService(db, repos.Sessions, repos.Seats, index, cfg.DefaultSeatCount)
	reservationService := NewReservationService(db, repos, publisher, idempo, ReservationConfig{
		HoldDuration:     cfg.HoldDuration,
		CreateIdempoTTL:  cfg.CreateIdempoTTL,
		ConfirmIdempoTTL: cfg.ConfirmIdempoTTL,
	})
	saleService := NewSaleService(repos.Sales)

	return &Services{
		Sessions:     sessionService,
		Reservations: reservationService,
		Sales:        saleService,
	}
}
