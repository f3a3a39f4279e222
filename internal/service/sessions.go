package service

import (
	"context"
	"database/sql"
	"fmt"

	"kassa/internal/database"
	apperrors "kassa/internal/errors"
	"kassa/internal/logger"
	"kassa/internal/models"
	"kassa/internal/repository"
)

// SessionService creates and lists sessions. Session creation is a boundary
// collaborator of the reservation core: it fans out the seat rows every hold
// later contends on.
type SessionService struct {
	db               *database.DB
	sessionRepo      *repository.SessionRepository
	seatRepo         *repository.SeatRepository
	index            SessionIndex
	defaultSeatCount int
}

func NewSessionService(db *database.DB, sessionRepo *repository.SessionRepository, seatRepo *repository.SeatRepository, index SessionIndex, defaultSeatCount int) *SessionService {
	return &SessionService{
		db:               db,
		sessionRepo:      sessionRepo,
		seatRepo:         seatRepo,
		index:            index,
		defaultSeatCount: defaultSeatCount,
	}
}

func (s *SessionService) Create(ctx context.Context, req *models.CreateSessionRequest) (*models.CreateSessionResponse, error) {
	seatCount := req.SeatCount
	if seatCount <= 0 {
		seatCount = s.defaultSeatCount
	}

	session := &models.Session{
		Title:      req.Title,
		StartsAt:   req.StartsAt,
		Room:       req.Room,
		PriceCents: req.PriceCents,
		SeatCount:  seatCount,
	}

	var seats []models.Seat
	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.sessionRepo.CreateTx(ctx, tx, session); err != nil {
			return err
		}

		var err error
		seats, err = s.sessionRepo.CreateSeatsTx(ctx, tx, session.ID, seatCount)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.index != nil {
		if err := s.index.IndexSession(ctx, session); err != nil {
			logger.WithContext(ctx).Error("Failed to index session",
				"error", err,
				"session_id", session.ID)
		}
	}

	response := &models.CreateSessionResponse{
		ID:    session.ID,
		Seats: make([]models.ListSeatsResponseItem, len(seats)),
	}
	for i, seat := range seats {
		response.Seats[i] = models.ListSeatsResponseItem{
			ID:     seat.ID,
			Number: seat.Number,
			Status: seat.Status,
		}
	}

	return response, nil
}

func (s *SessionService) Search(ctx context.Context, query string, page, pageSize int) ([]models.ListSessionsResponseItem, error) {
	if s.index == nil {
		return []models.ListSessionsResponseItem{}, nil
	}

	sessions, err := s.index.Search(ctx, query, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to search sessions: %w", err)
	}

	result := make([]models.ListSessionsResponseItem, len(sessions))
	for i, session := range sessions {
		result[i] = models.ListSessionsResponseItem{
			ID:         session.ID,
			Title:      session.Title,
			StartsAt:   session.StartsAt,
			Room:       session.Room,
			PriceCents: session.PriceCents,
			SeatCount:  session.SeatCount,
		}
	}

	return result, nil
}

func (s *SessionService) ListSeats(ctx context.Context, sessionID string) ([]models.ListSeatsResponseItem, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("session %s not found", sessionID)
	}

	seats, err := s.seatRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}

	result := make([]models.ListSeatsResponseItem, len(seats))
	for i, seat := range seats {
		result[i] = models.ListSeatsResponseItem{
			ID:     seat.ID,
			Number: seat.Number,
			Status: seat.Status,
		}
	}

	return result, nil
}
