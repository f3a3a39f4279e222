package jobs

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"kassa/internal/database"
	"kassa/internal/metrics"
	"kassa/internal/models"
	"kassa/internal/repository"
)

// EventPublisher is the post-commit notification boundary.
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

// ReservationExpirationJob reclaims stale holds. It is safe to run one per
// process instance: each candidate is transitioned with a conditional
// update, so whichever sweeper wins the row, the others skip silently.
type ReservationExpirationJob struct {
	db              *database.DB
	reservationRepo *repository.ReservationRepository
	seatRepo        *repository.SeatRepository
	publisher       EventPublisher
	interval        time.Duration
	batchSize       int
	ticker          *time.Ticker
	done            chan bool
}

type reclaimedHold struct {
	reservation models.Reservation
	seatIDs     []string
}

func NewReservationExpirationJob(db *database.DB, reservationRepo *repository.ReservationRepository, seatRepo *repository.SeatRepository, publisher EventPublisher, interval time.Duration, batchSize int) *ReservationExpirationJob {
	return &ReservationExpirationJob{
		db:              db,
		reservationRepo: reservationRepo,
		seatRepo:        seatRepo,
		publisher:       publisher,
		interval:        interval,
		batchSize:       batchSize,
		done:            make(chan bool),
	}
}

// Start begins the background loop that reclaims expired holds every tick.
func (j *ReservationExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting reservation expiration job",
		"interval", j.interval.String(), "batch_size", j.batchSize)

	j.ticker = time.NewTicker(j.interval)

	// Run initial sweep immediately
	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				slog.Info("Reservation expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *ReservationExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

// sweep finds PENDING reservations past their deadline, expires them and
// releases their seats. Errors are only reported; anything left PENDING and
// overdue is reconsidered on the next tick.
func (j *ReservationExpirationJob) sweep(ctx context.Context) {
	reclaimed, err := j.reclaimExpired(ctx)
	if err != nil {
		slog.Error("Failed to reclaim expired reservations", "error", err)
		return
	}

	if len(reclaimed) == 0 {
		slog.Debug("No expired reservations found")
		return
	}

	slog.Info("Reclaimed expired reservations", "count", len(reclaimed))
}

// reclaimExpired performs one sweep pass and returns the reclaimed holds.
func (j *ReservationExpirationJob) reclaimExpired(ctx context.Context) ([]reclaimedHold, error) {
	now := time.Now().UTC()
	var reclaimed []reclaimedHold

	err := j.db.WithinTx(ctx, func(tx *sql.Tx) error {
		expired, err := j.reservationRepo.LockExpiredBatchTx(ctx, tx, now, j.batchSize)
		if err != nil {
			return err
		}

		for _, reservation := range expired {
			won, err := j.reservationRepo.MarkExpiredTx(ctx, tx, reservation.ID)
			if err != nil {
				return err
			}
			if !won {
				// Another process already transitioned it.
				continue
			}

			seatIDs, err := j.reservationRepo.GetSeatIDsTx(ctx, tx, reservation.ID)
			if err != nil {
				return err
			}

			if err := j.seatRepo.ReleaseReservedTx(ctx, tx, seatIDs); err != nil {
				return err
			}

			reclaimed = append(reclaimed, reclaimedHold{
				reservation: reservation,
				seatIDs:     seatIDs,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Events go out only after the transaction committed. A publish failure
	// never undoes the reclaim.
	for _, hold := range reclaimed {
		metrics.ReservationsExpired.Inc()
		metrics.SeatsReleased.Add(float64(len(hold.seatIDs)))

		expiredEvent := models.ReservationExpiredEvent{
			ReservationID: hold.reservation.ID,
			SessionID:     hold.reservation.SessionID,
			UserID:        hold.reservation.UserID,
			Timestamp:     time.Now().UTC(),
		}
		if err := j.publisher.Publish(models.EventReservationExpired, expiredEvent); err != nil {
			slog.Error("Failed to publish reservation expired event",
				"error", err,
				"reservation_id", hold.reservation.ID,
				"event_type", models.EventReservationExpired)
		}

		releasedEvent := models.SeatReleasedEvent{
			ReservationID: hold.reservation.ID,
			SeatIDs:       hold.seatIDs,
			Timestamp:     time.Now().UTC(),
		}
		if err := j.publisher.Publish(models.EventSeatReleased, releasedEvent); err != nil {
			slog.Error("Failed to publish seat released event",
				"error", err,
				"reservation_id", hold.reservation.ID,
				"event_type", models.EventSeatReleased)
		}
	}

	return reclaimed, nil
}
