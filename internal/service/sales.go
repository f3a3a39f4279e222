package service

import (
	"context"
	"fmt"

	"kassa/internal/models"
	"kassa/internal/repository"
)

// SaleService exposes the purchase-history read side. It never mutates
// sales; those are created only by the confirmation engine.
type SaleService struct {
	saleRepo *repository.SaleRepository
}

func NewSaleService(saleRepo *repository.SaleRepository) *SaleService {
	return &SaleService{saleRepo: saleRepo}
}

func (s *SaleService) ListByUser(ctx context.Context, userID string) ([]models.PurchaseResponseItem, error) {
	sales, err := s.saleRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchases: %w", err)
	}

	result := make([]models.PurchaseResponseItem, len(sales))
	for i, sale := range sales {
		result[i] = models.PurchaseResponseItem{
			SaleID:        sale.ID,
			ReservationID: sale.ReservationID,
			SessionID:     sale.SessionID,
			UserID:        sale.UserID,
			TotalCents:    sale.TotalCents,
			PaymentRef:    sale.PaymentRef,
			SoldAt:        sale.SoldAt,
		}
	}

	return result, nil
}
