package repository

import (
	"kassa/internal/database"
)

type Repositories struct {
	Sessions     *SessionRepository
	Seats        *SeatRepository
	Reservations *ReservationRepository
	Sales        *SaleRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Sessions:     NewSessionRepository(db),
		Seats:        NewSeatRepository(db),
		Reservations: NewReservationRepository(db),
		Sales:        NewSaleRepository(db),
	}
}
