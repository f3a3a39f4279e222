package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"kassa/internal/database"
	apperrors "kassa/internal/errors"
	"kassa/internal/logger"
	"kassa/internal/metrics"
	"kassa/internal/models"
	"kassa/internal/repository"
)

// Idempotency namespaces. Keys reused across operations cannot collide.
const (
	NamespaceCreate  = "reservations:create"
	NamespaceConfirm = "reservations:confirm"
)

type ReservationConfig struct {
	HoldDuration     time.Duration
	CreateIdempoTTL  time.Duration
	ConfirmIdempoTTL time.Duration
}

// ReservationService implements the hold and confirmation state engine. All
// cross-instance coordination is delegated to row-level write locks held for
// the duration of one transaction; no in-process mutex is involved.
type ReservationService struct {
	db              *database.DB
	sessionRepo     *repository.SessionRepository
	seatRepo        *repository.SeatRepository
	reservationRepo *repository.ReservationRepository
	saleRepo        *repository.SaleRepository
	publisher       EventPublisher
	idempo          IdempotencyCache
	cfg             ReservationConfig
}

func NewReservationService(db *database.DB, repos *repository.Repositories, publisher EventPublisher, idempo IdempotencyCache, cfg ReservationConfig) *ReservationService {
	return &ReservationService{
		db:              db,
		sessionRepo:     repos.Sessions,
		seatRepo:        repos.Seats,
		reservationRepo: repos.Reservations,
		saleRepo:        repos.Sales,
		publisher:       publisher,
		idempo:          idempo,
		cfg:             cfg,
	}
}

// Create places a hold on the requested seats. On success the seats are
// RESERVED and a PENDING reservation with a deadline of now + hold duration
// is committed; a retried request carrying the same deduplication key within
// the TTL window returns the previous response without touching the store.
func (s *ReservationService) Create(ctx context.Context, req *models.CreateReservationRequest, idempotencyKey string) (*models.CreateReservationResponse, error) {
	if idempotencyKey != "" {
		if cached, ok := s.lookupIdempotent(ctx, NamespaceCreate, idempotencyKey); ok {
			var response models.CreateReservationResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				return &response, nil
			}
		}
	}

	seen := make(map[string]struct{}, len(req.SeatIDs))
	for _, seatID := range req.SeatIDs {
		if _, dup := seen[seatID]; dup {
			return nil, apperrors.Validation("duplicate seat id %s", seatID)
		}
		seen[seatID] = struct{}{}
	}

	expiresAt := time.Now().UTC().Add(s.cfg.HoldDuration)
	reservation := &models.Reservation{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Status:    models.ReservationPending,
		ExpiresAt: expiresAt,
	}

	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		// Re-read under lock. A prior availability read is never trusted.
		seats, err := s.seatRepo.LockForSessionTx(ctx, tx, req.SessionID, req.SeatIDs)
		if err != nil {
			return err
		}

		if len(seats) != len(req.SeatIDs) {
			return apperrors.Conflict("some seats not found for this session")
		}

		for _, seat := range seats {
			if seat.Status != models.SeatAvailable {
				return apperrors.Conflict("seat %d is not available", seat.Number)
			}
		}

		if err := s.seatRepo.UpdateStatusBulkTx(ctx, tx, req.SeatIDs, models.SeatReserved); err != nil {
			return err
		}

		return s.reservationRepo.CreateTx(ctx, tx, reservation, req.SeatIDs)
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			metrics.ReservationConflicts.Inc()
		}
		return nil, err
	}

	metrics.ReservationsCreated.Inc()

	// The hold marker is operational tooling, not correctness.
	if err := s.idempo.SetHoldMarker(ctx, reservation.ID, s.cfg.HoldDuration); err != nil {
		logger.WithContext(ctx).Error("Failed to set hold marker",
			"error", err,
			"reservation_id", reservation.ID)
	}

	event := models.ReservationCreatedEvent{
		ReservationID: reservation.ID,
		SessionID:     reservation.SessionID,
		UserID:        reservation.UserID,
		ExpiresAt:     reservation.ExpiresAt,
		SeatIDs:       req.SeatIDs,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.publisher.Publish(models.EventReservationCreated, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish reservation created event",
			"error", err,
			"reservation_id", reservation.ID,
			"event_type", models.EventReservationCreated)
	}

	response := &models.CreateReservationResponse{
		ReservationID: reservation.ID,
		ExpiresAt:     reservation.ExpiresAt,
	}

	if idempotencyKey != "" {
		s.storeIdempotent(ctx, NamespaceCreate, idempotencyKey, response, s.cfg.CreateIdempoTTL)
	}

	return response, nil
}

// ConfirmPayment finalizes a held reservation into a sale. The reservation
// row is locked before its seats; no transaction ever locks seats first or
// touches more than one reservation.
func (s *ReservationService) ConfirmPayment(ctx context.Context, reservationID string, req *models.ConfirmPaymentRequest, idempotencyKey string) (*models.ConfirmPaymentResponse, error) {
	if idempotencyKey != "" {
		if cached, ok := s.lookupIdempotent(ctx, NamespaceConfirm, idempotencyKey); ok {
			var response models.ConfirmPaymentResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				return &response, nil
			}
		}
	}

	now := time.Now().UTC()

	var reservation *models.Reservation
	var reclaimedSeatIDs []string
	freshlyConfirmed := false
	defensivelyExpired := false

	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		var err error
		reservation, err = s.reservationRepo.LockByIDTx(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if reservation == nil {
			return apperrors.NotFound("reservation %s not found", reservationID)
		}

		// The state machine is self-idempotent: a repeated confirm of a
		// CONFIRMED reservation succeeds without the cache layer.
		if reservation.Status == models.ReservationConfirmed {
			return nil
		}

		if reservation.Status == models.ReservationExpired {
			return apperrors.Conflict("reservation is expired")
		}

		if !reservation.ExpiresAt.After(now) {
			// Defensive expiry: the sweeper may not have run yet, but the
			// deadline is logically over. Same conditional transition as the
			// sweeper, so whichever runs first wins without error. Once this
			// process wins, the sweeper will never revisit the row, so the
			// seats must be released here too. The reclaim must commit, so
			// the conflict is raised only after the transaction closes.
			won, err := s.reservationRepo.MarkExpiredTx(ctx, tx, reservation.ID)
			if err != nil {
				return err
			}
			if won {
				seatIDs, err := s.reservationRepo.GetSeatIDsTx(ctx, tx, reservation.ID)
				if err != nil {
					return err
				}
				if err := s.seatRepo.ReleaseReservedTx(ctx, tx, seatIDs); err != nil {
					return err
				}
				reclaimedSeatIDs = seatIDs
			}
			defensivelyExpired = true
			return nil
		}

		seatIDs, err := s.reservationRepo.GetSeatIDsTx(ctx, tx, reservation.ID)
		if err != nil {
			return err
		}
		if len(seatIDs) == 0 {
			return apperrors.Validation("reservation has no seats")
		}

		seats, err := s.seatRepo.LockByIDsTx(ctx, tx, seatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return apperrors.Conflict("some seats were not found")
		}
		for _, seat := range seats {
			if seat.Status != models.SeatReserved {
				return apperrors.Conflict("seat %d is no longer reserved", seat.Number)
			}
		}

		won, err := s.reservationRepo.MarkConfirmedTx(ctx, tx, reservation.ID)
		if err != nil {
			return err
		}
		if !won {
			return apperrors.Conflict("reservation state changed concurrently")
		}

		if err := s.seatRepo.UpdateStatusBulkTx(ctx, tx, seatIDs, models.SeatSold); err != nil {
			return err
		}

		priceCents, err := s.sessionRepo.GetPriceTx(ctx, tx, reservation.SessionID)
		if err != nil {
			return err
		}

		exists, err := s.saleRepo.ExistsForReservationTx(ctx, tx, reservation.ID)
		if err != nil {
			return err
		}
		if !exists {
			sale := &models.Sale{
				ReservationID: reservation.ID,
				SessionID:     reservation.SessionID,
				UserID:        reservation.UserID,
				TotalCents:    priceCents * int64(len(seatIDs)),
				PaymentRef:    req.PaymentRef,
			}
			if err := s.saleRepo.CreateTx(ctx, tx, sale); err != nil {
				return err
			}
		}

		freshlyConfirmed = true
		return nil
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			metrics.ReservationConflicts.Inc()
		}
		return nil, err
	}

	if defensivelyExpired {
		metrics.ReservationConflicts.Inc()

		if reclaimedSeatIDs != nil {
			metrics.ReservationsExpired.Inc()
			metrics.SeatsReleased.Add(float64(len(reclaimedSeatIDs)))

			expiredEvent := models.ReservationExpiredEvent{
				ReservationID: reservation.ID,
				SessionID:     reservation.SessionID,
				UserID:        reservation.UserID,
				Timestamp:     time.Now().UTC(),
			}
			if err := s.publisher.Publish(models.EventReservationExpired, expiredEvent); err != nil {
				logger.WithContext(ctx).Error("Failed to publish reservation expired event",
					"error", err,
					"reservation_id", reservation.ID,
					"event_type", models.EventReservationExpired)
			}

			releasedEvent := models.SeatReleasedEvent{
				ReservationID: reservation.ID,
				SeatIDs:       reclaimedSeatIDs,
				Timestamp:     time.Now().UTC(),
			}
			if err := s.publisher.Publish(models.EventSeatReleased, releasedEvent); err != nil {
				logger.WithContext(ctx).Error("Failed to publish seat released event",
					"error", err,
					"reservation_id", reservation.ID,
					"event_type", models.EventSeatReleased)
			}
		}

		return nil, apperrors.Conflict("reservation is expired")
	}

	if freshlyConfirmed {
		metrics.ReservationsConfirmed.Inc()

		event := models.PaymentConfirmedEvent{
			ReservationID: reservation.ID,
			SessionID:     reservation.SessionID,
			UserID:        reservation.UserID,
			PaymentRef:    req.PaymentRef,
			Timestamp:     time.Now().UTC(),
		}
		if err := s.publisher.Publish(models.EventPaymentConfirmed, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish payment confirmed event",
				"error", err,
				"reservation_id", reservation.ID,
				"event_type", models.EventPaymentConfirmed)
		}
	}

	response := &models.ConfirmPaymentResponse{
		ReservationID: reservationID,
		Status:        models.ReservationConfirmed,
	}

	if idempotencyKey != "" {
		s.storeIdempotent(ctx, NamespaceConfirm, idempotencyKey, response, s.cfg.ConfirmIdempoTTL)
	}

	return response, nil
}

func (s *ReservationService) lookupIdempotent(ctx context.Context, namespace, key string) ([]byte, bool) {
	cached, found, err := s.idempo.GetIdempotent(ctx, namespace, key)
	if err != nil {
		logger.WithContext(ctx).Error("Idempotency cache lookup failed",
			"error", err,
			"namespace", namespace)
		return nil, false
	}
	return cached, found
}

func (s *ReservationService) storeIdempotent(ctx context.Context, namespace, key string, response interface{}, ttl time.Duration) {
	payload, err := json.Marshal(response)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to marshal idempotent response", "error", err)
		return
	}
	if err := s.idempo.SetIdempotent(ctx, namespace, key, payload, ttl); err != nil {
		logger.WithContext(ctx).Error("Failed to store idempotent response",
			"error", err,
			"namespace", namespace)
	}
}
