package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kassa/internal/database"
	apperrors "kassa/internal/errors"
	"kassa/internal/models"
	"kassa/internal/repository"
)

type publishedEvent struct {
	subject string
	data    interface{}
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) Publish(subject string, data interface{}) error {
	p.events = append(p.events, publishedEvent{subject: subject, data: data})
	return nil
}

type fakeIdempo struct {
	entries map[string][]byte
	markers map[string]time.Duration
}

func newFakeIdempo() *fakeIdempo {
	return &fakeIdempo{
		entries: make(map[string][]byte),
		markers: make(map[string]time.Duration),
	}
}

func (c *fakeIdempo) GetIdempotent(_ context.Context, namespace, key string) ([]byte, bool, error) {
	raw, ok := c.entries[namespace+":"+key]
	return raw, ok, nil
}

func (c *fakeIdempo) SetIdempotent(_ context.Context, namespace, key string, payload []byte, _ time.Duration) error {
	c.entries[namespace+":"+key] = payload
	return nil
}

func (c *fakeIdempo) SetHoldMarker(_ context.Context, reservationID string, ttl time.Duration) error {
	c.markers[reservationID] = ttl
	return nil
}

func newReservationService(t *testing.T) (*ReservationService, sqlmock.Sqlmock, *fakePublisher, *fakeIdempo) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &database.DB{DB: mockDB}
	publisher := &fakePublisher{}
	idempo := newFakeIdempo()

	svc := NewReservationService(db, repository.NewRepositories(db), publisher, idempo, ReservationConfig{
		HoldDuration:     30 * time.Second,
		CreateIdempoTTL:  time.Minute,
		ConfirmIdempoTTL: 24 * time.Hour,
	})

	return svc, mock, publisher, idempo
}

func seatRows(status string, seatIDs ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "session_id", "seat_number", "status", "created_at", "updated_at"})
	for i, id := range seatIDs {
		rows.AddRow(id, "session-1", i+1, status, time.Now(), time.Now())
	}
	return rows
}

func reservationRow(status string, expiresAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "session_id", "user_id", "status", "expires_at", "created_at"}).
		AddRow("res-1", "session-1", "user-1", status, expiresAt, time.Now())
}

func TestCreateReservationHoldsSeats(t *testing.T) {
	svc, mock, publisher, idempo := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM seats WHERE session_id = \$1 AND id = ANY\(\$2\) ORDER BY id FOR UPDATE`).
		WillReturnRows(seatRows(models.SeatAvailable, "seat-1", "seat-2"))
	mock.ExpectExec(`UPDATE seats SET status`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`INSERT INTO reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("res-1", time.Now()))
	mock.ExpectExec(`INSERT INTO reservation_seats`).
		WithArgs("res-1", "seat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reservation_seats`).
		WithArgs("res-1", "seat-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := &models.CreateReservationRequest{
		SessionID: "session-1",
		UserID:    "user-1",
		SeatIDs:   []string{"seat-1", "seat-2"},
	}

	before := time.Now().UTC()
	response, err := svc.Create(context.Background(), req, "key-1")
	require.NoError(t, err)

	assert.Equal(t, "res-1", response.ReservationID)
	assert.WithinDuration(t, before.Add(30*time.Second), response.ExpiresAt, 2*time.Second)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventReservationCreated, publisher.events[0].subject)

	assert.Contains(t, idempo.markers, "res-1")
	assert.Contains(t, idempo.entries, NamespaceCreate+":key-1")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationRejectsDuplicateSeatIDs(t *testing.T) {
	svc, mock, publisher, _ := newReservationService(t)

	req := &models.CreateReservationRequest{
		SessionID: "session-1",
		UserID:    "user-1",
		SeatIDs:   []string{"seat-1", "seat-1"},
	}

	_, err := svc.Create(context.Background(), req, "")
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, publisher.events)

	// No transaction is opened for an invalid request.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationSeatNotAvailable(t *testing.T) {
	svc, mock, publisher, _ := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM seats WHERE session_id = \$1 AND id = ANY\(\$2\) ORDER BY id FOR UPDATE`).
		WillReturnRows(seatRows(models.SeatReserved, "seat-1"))
	mock.ExpectRollback()

	req := &models.CreateReservationRequest{
		SessionID: "session-1",
		UserID:    "user-1",
		SeatIDs:   []string{"seat-1"},
	}

	_, err := svc.Create(context.Background(), req, "")
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, publisher.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationUnknownSeat(t *testing.T) {
	svc, mock, _, _ := newReservationService(t)

	// Two seats requested, only one belongs to the session.
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM seats WHERE session_id = \$1 AND id = ANY\(\$2\) ORDER BY id FOR UPDATE`).
		WillReturnRows(seatRows(models.SeatAvailable, "seat-1"))
	mock.ExpectRollback()

	req := &models.CreateReservationRequest{
		SessionID: "session-1",
		UserID:    "user-1",
		SeatIDs:   []string{"seat-1", "seat-404"},
	}

	_, err := svc.Create(context.Background(), req, "")
	assert.True(t, apperrors.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationIdempotentReplay(t *testing.T) {
	svc, mock, publisher, idempo := newReservationService(t)

	cached := models.CreateReservationResponse{
		ReservationID: "res-1",
		ExpiresAt:     time.Now().UTC().Add(25 * time.Second),
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	idempo.entries[NamespaceCreate+":key-1"] = payload

	req := &models.CreateReservationRequest{
		SessionID: "session-1",
		UserID:    "user-1",
		SeatIDs:   []string{"seat-1"},
	}

	response, err := svc.Create(context.Background(), req, "key-1")
	require.NoError(t, err)
	assert.Equal(t, cached.ReservationID, response.ReservationID)

	// The replay answers from the cache without touching the database or
	// publishing again.
	assert.Empty(t, publisher.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentCreatesSale(t *testing.T) {
	svc, mock, publisher, idempo := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \$1 FOR UPDATE`).
		WithArgs("res-1").
		WillReturnRows(reservationRow(models.ReservationPending, time.Now().UTC().Add(20*time.Second)))
	mock.ExpectQuery(`SELECT seat_id FROM reservation_seats`).
		WithArgs("res-1").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow("seat-1").AddRow("seat-2"))
	mock.ExpectQuery(`FROM seats WHERE id = ANY\(\$1\) ORDER BY id FOR UPDATE`).
		WillReturnRows(seatRows(models.SeatReserved, "seat-1", "seat-2"))
	mock.ExpectExec(`UPDATE reservations SET status`).
		WithArgs(models.ReservationConfirmed, "res-1", models.ReservationPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE seats SET status`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT price_cents FROM sessions`).
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}).AddRow(2500))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("res-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO sales`).
		WithArgs("res-1", "session-1", "user-1", int64(5000), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sold_at"}).AddRow("sale-1", time.Now()))
	mock.ExpectCommit()

	response, err := svc.ConfirmPayment(context.Background(), "res-1", &models.ConfirmPaymentRequest{}, "pay-key")
	require.NoError(t, err)

	assert.Equal(t, "res-1", response.ReservationID)
	assert.Equal(t, models.ReservationConfirmed, response.Status)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventPaymentConfirmed, publisher.events[0].subject)

	assert.Contains(t, idempo.entries, NamespaceConfirm+":pay-key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentRepeatIsIdempotent(t *testing.T) {
	svc, mock, publisher, _ := newReservationService(t)

	// An already CONFIRMED reservation succeeds again without writing
	// anything, so a repeated confirm without a deduplication key is safe.
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \$1 FOR UPDATE`).
		WithArgs("res-1").
		WillReturnRows(reservationRow(models.ReservationConfirmed, time.Now().UTC().Add(-time.Minute)))
	mock.ExpectCommit()

	response, err := svc.ConfirmPayment(context.Background(), "res-1", &models.ConfirmPaymentRequest{}, "")
	require.NoError(t, err)

	assert.Equal(t, models.ReservationConfirmed, response.Status)
	assert.Empty(t, publisher.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentNotFound(t *testing.T) {
	svc, mock, _, _ := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \$1 FOR UPDATE`).
		WithArgs("res-404").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "user_id", "status", "expires_at", "created_at"}))
	mock.ExpectRollback()

	_, err := svc.ConfirmPayment(context.Background(), "res-404", &models.ConfirmPaymentRequest{}, "")
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentExpiredReservation(t *testing.T) {
	svc, mock, publisher, _ := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \$1 FOR UPDATE`).
		WithArgs("res-1").
		WillReturnRows(reservationRow(models.ReservationExpired, time.Now().UTC().Add(-time.Minute)))
	mock.ExpectRollback()

	_, err := svc.ConfirmPayment(context.Background(), "res-1", &models.ConfirmPaymentRequest{}, "")
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, publisher.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentPastDeadlineReclaimsHold(t *testing.T) {
	svc, mock, publisher, _ := newReservationService(t)

	// Still PENDING but logically over: the confirm itself performs the
	// PENDING -> EXPIRED transition AND releases the seats, commits the
	// reclaim and only then reports the conflict. The sweeper will never
	// revisit a row this process transitioned, so skipping the release
	// here would strand the seats in RESERVED.
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \$1 FOR UPDATE`).
		WithArgs("res-1").
		WillReturnRows(reservationRow(models.ReservationPending, time.Now().UTC().Add(-time.Second)))
	mock.ExpectExec(`UPDATE reservations SET status`).
		WithArgs(models.ReservationExpired, "res-1", models.ReservationPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT seat_id FROM reservation_seats`).
		WithArgs("res-1").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow("seat-1").AddRow("seat-2"))
	mock.ExpectExec(`UPDATE seats SET status`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	_, err := svc.ConfirmPayment(context.Background(), "res-1", &models.ConfirmPaymentRequest{}, "")
	assert.True(t, apperrors.IsConflict(err))

	// The reclaim publishes the same pair of events as the sweeper.
	require.Len(t, publisher.events, 2)
	assert.Equal(t, models.EventReservationExpired, publisher.events[0].subject)
	assert.Equal(t, models.EventSeatReleased, publisher.events[1].subject)

	released, ok := publisher.events[1].data.(models.SeatReleasedEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"seat-1", "seat-2"}, released.SeatIDs)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentPastDeadlineLostTransitionRace(t *testing.T) {
	svc, mock, publisher, _ := newReservationService(t)

	// The sweeper transitioned the row between our read and the update;
	// zero affected rows means the seats are already being released there.
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \$1 FOR UPDATE`).
		WithArgs("res-1").
		WillReturnRows(reservationRow(models.ReservationPending, time.Now().UTC().Add(-time.Second)))
	mock.ExpectExec(`UPDATE reservations SET status`).
		WithArgs(models.ReservationExpired, "res-1", models.ReservationPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := svc.ConfirmPayment(context.Background(), "res-1", &models.ConfirmPaymentRequest{}, "")
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, publisher.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentSeatNoLongerReserved(t *testing.T) {
	svc, mock, _, _ := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \$1 FOR UPDATE`).
		WithArgs("res-1").
		WillReturnRows(reservationRow(models.ReservationPending, time.Now().UTC().Add(20*time.Second)))
	mock.ExpectQuery(`SELECT seat_id FROM reservation_seats`).
		WithArgs("res-1").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow("seat-1"))
	mock.ExpectQuery(`FROM seats WHERE id = ANY\(\$1\) ORDER BY id FOR UPDATE`).
		WillReturnRows(seatRows(models.SeatSold, "seat-1"))
	mock.ExpectRollback()

	_, err := svc.ConfirmPayment(context.Background(), "res-1", &models.ConfirmPaymentRequest{}, "")
	assert.True(t, apperrors.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentIdempotentReplay(t *testing.T) {
	svc, mock, publisher, idempo := newReservationService(t)

	cached := models.ConfirmPaymentResponse{
		ReservationID: "res-1",
		Status:        models.ReservationConfirmed,
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	idempo.entries[NamespaceConfirm+":pay-key"] = payload

	response, err := svc.ConfirmPayment(context.Background(), "res-1", &models.ConfirmPaymentRequest{}, "pay-key")
	require.NoError(t, err)

	assert.Equal(t, cached, *response)
	assert.Empty(t, publisher.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}
